package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fhelotto/domain/commitment"
	"fhelotto/domain/draw"
	"fhelotto/domain/entities"
	"fhelotto/domain/interfaces"
	"fhelotto/domain/ledger"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrUnauthorized is returned when a non-owner calls an owner-gated operation
	ErrUnauthorized = errors.New("caller is not the lottery owner")
	// ErrRevealMissing is returned when the selected entry never deposited its reveal
	ErrRevealMissing = errors.New("selected entry has no deposited reveal")
	// ErrUnknownCommitment is returned when a reveal names no entry of the active round
	ErrUnknownCommitment = errors.New("commitment not found in the active round")
)

// Draw outcomes reported to metrics
const (
	DrawOutcomeWon    = "won"
	DrawOutcomeEmpty  = "empty"
	DrawOutcomeFailed = "failed"
)

// LotteryServiceOptions configures the owner role and round cadence
type LotteryServiceOptions struct {
	Owner             common.Address
	AutoStartNewRound bool
	Clock             func() time.Time
}

// lotteryService implements business logic for lottery operations
type lotteryService struct {
	ledger    *ledger.Ledger
	vault     interfaces.RevealVault
	entropy   draw.EntropySource
	metrics   interfaces.LotteryMetrics
	owner     common.Address
	autoStart bool
	now       func() time.Time
}

// NewLotteryService creates a new lottery service
func NewLotteryService(
	l *ledger.Ledger,
	vault interfaces.RevealVault,
	entropy draw.EntropySource,
	metrics interfaces.LotteryMetrics,
	opts LotteryServiceOptions,
) interfaces.LotteryService {
	if metrics == nil {
		metrics = NoopLotteryMetrics{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &lotteryService{
		ledger:    l,
		vault:     vault,
		entropy:   entropy,
		metrics:   metrics,
		owner:     opts.Owner,
		autoStart: opts.AutoStartNewRound,
		now:       clock,
	}
}

// Start opens round 1 when nothing was restored
func (s *lotteryService) Start(ctx context.Context) error {
	if s.ledger.RoundNumber() > 0 {
		log.WithFields(log.Fields{
			"round":  s.ledger.RoundNumber(),
			"active": s.ledger.Active(),
		}).Info("Lottery resumed from journal")
		return nil
	}

	round, err := s.ledger.StartNewRound(ctx, s.now(), s.owner)
	if err != nil {
		return fmt.Errorf("failed to open first round: %w", err)
	}
	log.WithField("round", round.Number).Info("Lottery bootstrapped")
	return nil
}

// Enter records a committed entry for participant
func (s *lotteryService) Enter(ctx context.Context, participant common.Address, c common.Hash, payment int64) (*entities.Entry, error) {
	entry, err := s.ledger.RecordEntry(ctx, c, payment, participant, s.now())
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEntry(entry.TicketCount, entry.Payment)
	s.metrics.SetPrizePool(s.ledger.PrizePool())

	log.WithFields(log.Fields{
		"round":       entry.RoundNumber,
		"index":       entry.Index,
		"participant": participant.Hex(),
		"tickets":     entry.TicketCount,
	}).Info("Lottery entry recorded")

	return entry, nil
}

// SubmitReveal checks the choices against the participant's commitment and
// stores them until the draw
func (s *lotteryService) SubmitReveal(ctx context.Context, participant common.Address, c common.Hash, choices entities.Choices) error {
	entry, ok := s.ledger.FindEntry(participant, c)
	if !ok {
		return ErrUnknownCommitment
	}
	if !commitment.Verify(choices, participant, c) {
		return fmt.Errorf("%w: commitment %s", ledger.ErrRevealMismatch, c.Hex())
	}
	if err := s.vault.Store(ctx, entry.RoundNumber, c, choices); err != nil {
		return fmt.Errorf("failed to store reveal: %w", err)
	}
	return nil
}

// SelectWinner previews the entry the entropy would pick
func (s *lotteryService) SelectWinner(ctx context.Context, entropy draw.Entropy) (*entities.Entry, error) {
	return s.ledger.Select(entropy)
}

// Draw samples entropy, finalizes the current round and optionally opens the next one
func (s *lotteryService) Draw(ctx context.Context, caller common.Address) (*interfaces.LotteryDrawResult, error) {
	if caller != s.owner {
		return nil, ErrUnauthorized
	}

	entropy, err := s.entropy.Sample(ctx)
	if err != nil {
		s.metrics.RecordDraw(DrawOutcomeFailed)
		return nil, fmt.Errorf("failed to sample draw entropy: %w", err)
	}

	record, err := s.ledger.Draw(ctx, entropy, s.loadReveal, s.now())
	if err != nil {
		if errors.Is(err, ledger.ErrEmptyRound) {
			s.metrics.RecordDraw(DrawOutcomeEmpty)
		} else {
			s.metrics.RecordDraw(DrawOutcomeFailed)
		}
		return nil, err
	}
	s.metrics.RecordDraw(DrawOutcomeWon)
	s.metrics.SetPrizePool(0)

	log.WithFields(log.Fields{
		"round":      record.RoundNumber,
		"index":      record.EntryIndex,
		"winner":     record.Participant.Hex(),
		"payout":     record.Payout,
		"houseShare": record.HouseShare,
		"blockTime":  record.BlockTime,
		"difficulty": record.Difficulty,
	}).Info("Lottery winner drawn")

	// Reveals of losing entries are never disclosed
	if err := s.vault.DropRound(ctx, record.RoundNumber); err != nil {
		log.WithError(err).WithField("round", record.RoundNumber).Warn("Failed to purge reveals")
	}

	result := &interfaces.LotteryDrawResult{Winner: record}
	if s.autoStart {
		next, err := s.ledger.StartNewRound(ctx, s.now(), caller)
		if err != nil {
			return result, fmt.Errorf("failed to start next round: %w", err)
		}
		result.NextRound = next
	}
	return result, nil
}

func (s *lotteryService) loadReveal(ctx context.Context, entry entities.Entry) (entities.Choices, error) {
	choices, ok, err := s.vault.Load(ctx, entry.RoundNumber, entry.Commitment)
	if err != nil {
		return entities.Choices{}, fmt.Errorf("failed to load reveal: %w", err)
	}
	if !ok {
		return entities.Choices{}, ErrRevealMissing
	}
	return choices, nil
}

// StartNewRound opens the next round after a finalize
func (s *lotteryService) StartNewRound(ctx context.Context, caller common.Address) (*entities.Round, error) {
	if caller != s.owner {
		return nil, ErrUnauthorized
	}
	round, err := s.ledger.StartNewRound(ctx, s.now(), caller)
	if err != nil {
		return nil, err
	}
	s.metrics.SetPrizePool(0)
	log.WithField("round", round.Number).Info("Lottery round started")
	return round, nil
}

// Status returns the read-only summary of the current round
func (s *lotteryService) Status(ctx context.Context) (*interfaces.LotteryStatus, error) {
	status := &interfaces.LotteryStatus{FeePerTicket: s.ledger.FeePerTicket()}

	round := s.ledger.CurrentRound()
	if round == nil {
		return status, nil
	}
	status.RoundNumber = round.Number
	status.Active = round.Active
	status.PrizePool = round.PrizePool
	status.EntryCount = round.EntryCount()
	status.TotalTickets = round.TotalTickets()
	status.StartedAt = round.StartedAt
	status.Participants = round.Participants()
	return status, nil
}

// History returns the winner records of finalized rounds
func (s *lotteryService) History(ctx context.Context) ([]*entities.WinnerRecord, error) {
	return s.ledger.History(), nil
}

// NoopLotteryMetrics discards all measurements
type NoopLotteryMetrics struct{}

func (NoopLotteryMetrics) RecordEntry(ticketCount, payment int64) {}
func (NoopLotteryMetrics) RecordDraw(outcome string)              {}
func (NoopLotteryMetrics) SetPrizePool(pool int64)                {}
