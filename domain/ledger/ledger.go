// Package ledger owns round state: entries, the ticket tally, the prize pool
// and the round counter. Every mutation goes through a Ledger method, which
// holds the write lock for its whole duration, so mutations on a round never
// interleave.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"fhelotto/domain/commitment"
	"fhelotto/domain/draw"
	"fhelotto/domain/entities"
	"fhelotto/domain/events"
	"fhelotto/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// Config holds the ledger's economic parameters
type Config struct {
	FeePerTicket         int64
	WinnerShareNumerator int64
	ShareDenominator     int64
}

// DefaultConfig charges 10000 base units per ticket and pays the winner 80%
func DefaultConfig() Config {
	return Config{
		FeePerTicket:         10000,
		WinnerShareNumerator: 80,
		ShareDenominator:     100,
	}
}

// Validate checks that the fee is positive and the share is a proper fraction
func (c Config) Validate() error {
	if c.FeePerTicket <= 0 {
		return fmt.Errorf("fee per ticket must be positive, got %d", c.FeePerTicket)
	}
	if c.ShareDenominator <= 0 {
		return fmt.Errorf("share denominator must be positive, got %d", c.ShareDenominator)
	}
	if c.WinnerShareNumerator < 0 || c.WinnerShareNumerator > c.ShareDenominator {
		return fmt.Errorf("winner share %d/%d is not within [0, 1]", c.WinnerShareNumerator, c.ShareDenominator)
	}
	return nil
}

// RevealFunc returns the private choices behind a selected entry
type RevealFunc func(ctx context.Context, entry entities.Entry) (entities.Choices, error)

// Ledger is the single source of truth for round state
type Ledger struct {
	mu        sync.RWMutex
	cfg       Config
	journal   interfaces.RoundJournal
	publisher interfaces.EventPublisher
	current   *entities.Round // nil until bootstrap
	history   []*entities.WinnerRecord
}

// New creates an empty ledger. Call StartNewRound or Restore before use.
func New(cfg Config, journal interfaces.RoundJournal, publisher interfaces.EventPublisher) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger config: %w", err)
	}
	return &Ledger{
		cfg:       cfg,
		journal:   journal,
		publisher: publisher,
	}, nil
}

// Restore loads previously journaled state into an empty ledger
func (l *Ledger) Restore(state *entities.LedgerState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		return ErrAlreadyBootstrapped
	}
	if state == nil {
		return nil
	}
	if state.Current != nil {
		l.current = state.Current.Clone()
	}
	l.history = append(l.history, state.History...)

	if l.current != nil {
		log.WithFields(log.Fields{
			"round":   l.current.Number,
			"entries": len(l.current.Entries),
			"pool":    l.current.PrizePool,
			"active":  l.current.Active,
		}).Info("Restored lottery ledger")
	}
	return nil
}

// RecordEntry appends a committed entry to the active round and adds payment to the pool
func (l *Ledger) RecordEntry(ctx context.Context, c common.Hash, payment int64, participant common.Address, now time.Time) (*entities.Entry, error) {
	entry, err := l.recordEntry(ctx, c, payment, participant, now)
	if err != nil {
		return nil, err
	}
	l.publish(events.EntryRecordedEvent{
		RoundNumber: entry.RoundNumber,
		EntryIndex:  entry.Index,
		Participant: participant,
		TicketCount: entry.TicketCount,
		PrizePool:   entry.poolAfter,
	})
	return &entry.Entry, nil
}

// recordedEntry carries the pool total seen under the lock to the event
type recordedEntry struct {
	entities.Entry
	poolAfter int64
}

func (l *Ledger) recordEntry(ctx context.Context, c common.Hash, payment int64, participant common.Address, now time.Time) (*recordedEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	round := l.current
	if round == nil || !round.Active {
		return nil, ErrInactiveRound
	}
	if participant == (common.Address{}) {
		return nil, ErrInvalidParticipant
	}
	if payment < l.cfg.FeePerTicket {
		return nil, fmt.Errorf("%w: paid %d, ticket costs %d", ErrInsufficientPayment, payment, l.cfg.FeePerTicket)
	}
	ticketCount := payment / l.cfg.FeePerTicket
	if ticketCount < 1 {
		return nil, fmt.Errorf("%w: paid %d, ticket costs %d", ErrInsufficientPayment, payment, l.cfg.FeePerTicket)
	}
	if payment > math.MaxInt64-round.PrizePool {
		return nil, fmt.Errorf("%w: pool %d cannot take payment %d", ErrPoolOverflow, round.PrizePool, payment)
	}

	// Submission time never goes backwards within a round
	timestamp := now
	if n := len(round.Entries); n > 0 && timestamp.Before(round.Entries[n-1].Timestamp) {
		timestamp = round.Entries[n-1].Timestamp
	}

	entry := entities.Entry{
		RoundNumber: round.Number,
		Index:       len(round.Entries),
		Participant: participant,
		Commitment:  c,
		TicketCount: ticketCount,
		Payment:     payment,
		Timestamp:   timestamp,
	}
	pool := round.PrizePool + payment

	if err := l.journal.EntryRecorded(ctx, &entry, pool); err != nil {
		return nil, fmt.Errorf("failed to journal entry: %w", err)
	}

	round.Entries = append(round.Entries, entry)
	round.PrizePool = pool
	round.Tickets[participant] += ticketCount

	return &recordedEntry{Entry: entry, poolAfter: pool}, nil
}

// Select returns the entry the entropy picks in the active round, without finalizing
func (l *Ledger) Select(entropy draw.Entropy) (*entities.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.selectLocked(entropy)
}

// Finalize closes the active round with entries[index] as the winner after
// checking the revealed choices against its commitment
func (l *Ledger) Finalize(ctx context.Context, index int, revealed entities.Choices, entropy draw.Entropy, now time.Time) (*entities.WinnerRecord, error) {
	record, err := func() (*entities.WinnerRecord, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.finalizeLocked(ctx, index, revealed, entropy, now)
	}()
	return l.announceWinner(record, err)
}

// Draw selects and finalizes under a single lock, so no entry can slip in
// between selection and payout
func (l *Ledger) Draw(ctx context.Context, entropy draw.Entropy, reveal RevealFunc, now time.Time) (*entities.WinnerRecord, error) {
	record, err := func() (*entities.WinnerRecord, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.drawLocked(ctx, entropy, reveal, now)
	}()
	return l.announceWinner(record, err)
}

func (l *Ledger) drawLocked(ctx context.Context, entropy draw.Entropy, reveal RevealFunc, now time.Time) (*entities.WinnerRecord, error) {
	entry, err := l.selectLocked(entropy)
	if err != nil {
		return nil, err
	}

	revealed, err := reveal(ctx, *entry)
	if err != nil {
		return nil, fmt.Errorf("failed to reveal entry %d: %w", entry.Index, err)
	}

	return l.finalizeLocked(ctx, entry.Index, revealed, entropy, now)
}

// announceWinner publishes WinnerDrawn for a successful finalize
func (l *Ledger) announceWinner(record *entities.WinnerRecord, err error) (*entities.WinnerRecord, error) {
	if err != nil {
		return nil, err
	}
	l.publish(events.WinnerDrawnEvent{
		RoundNumber: record.RoundNumber,
		EntryIndex:  record.EntryIndex,
		Participant: record.Participant,
		Payout:      record.Payout,
		HouseShare:  record.HouseShare,
	})
	return record, nil
}

// StartNewRound opens the next round. It fails while the current round is still active.
func (l *Ledger) StartNewRound(ctx context.Context, now time.Time, initiator common.Address) (*entities.Round, error) {
	round, err := l.startRound(ctx, now, initiator)
	if err != nil {
		return nil, err
	}
	l.publish(events.RoundStartedEvent{
		RoundNumber: round.Number,
		Initiator:   initiator,
		StartedAt:   now,
	})
	return round, nil
}

func (l *Ledger) startRound(ctx context.Context, now time.Time, initiator common.Address) (*entities.Round, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	number := int64(1)
	var previous *common.Hash
	if l.current != nil {
		if l.current.Active {
			return nil, ErrRoundStillActive
		}
		secret := l.current.Secret
		previous = &secret
		number = l.current.Number + 1
	}

	round := entities.NewRound(number, draw.DeriveRoundSecret(previous, now, initiator), initiator, now)
	if err := l.journal.RoundStarted(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to journal round start: %w", err)
	}
	l.current = round

	return round.PublicView(), nil
}

// PrizePool returns the current round's pool
func (l *Ledger) PrizePool() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return 0
	}
	return l.current.PrizePool
}

// EntryCount returns the number of entries in the current round
func (l *Ledger) EntryCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return 0
	}
	return len(l.current.Entries)
}

// RoundNumber returns the current round number, 0 before bootstrap
func (l *Ledger) RoundNumber() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return 0
	}
	return l.current.Number
}

// Active reports whether the current round accepts entries
func (l *Ledger) Active() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current != nil && l.current.Active
}

// FeePerTicket returns the configured ticket price
func (l *Ledger) FeePerTicket() int64 {
	return l.cfg.FeePerTicket
}

// TicketsOf returns a participant's ticket tally in the current round
func (l *Ledger) TicketsOf(participant common.Address) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return 0
	}
	return l.current.TicketsOf(participant)
}

// CurrentRound returns a copy of the current round with the secret hidden while active
func (l *Ledger) CurrentRound() *entities.Round {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return nil
	}
	return l.current.PublicView()
}

// FindEntry returns the participant's entry carrying commitment c in the active round
func (l *Ledger) FindEntry(participant common.Address, c common.Hash) (*entities.Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil || !l.current.Active {
		return nil, false
	}
	for _, e := range l.current.Entries {
		if e.Participant == participant && e.Commitment == c {
			entry := e
			return &entry, true
		}
	}
	return nil, false
}

// History returns copies of the winner records, oldest first
func (l *Ledger) History() []*entities.WinnerRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*entities.WinnerRecord, 0, len(l.history))
	for _, w := range l.history {
		record := *w
		out = append(out, &record)
	}
	return out
}

func (l *Ledger) selectLocked(entropy draw.Entropy) (*entities.Entry, error) {
	round := l.current
	if round == nil || !round.Active {
		return nil, ErrRoundInactive
	}
	index, err := entropy.Select(len(round.Entries), round.Secret)
	if err != nil {
		return nil, err
	}
	entry := round.Entries[index]
	return &entry, nil
}

func (l *Ledger) finalizeLocked(ctx context.Context, index int, revealed entities.Choices, entropy draw.Entropy, now time.Time) (*entities.WinnerRecord, error) {
	round := l.current
	if round == nil || !round.Active {
		return nil, ErrRoundInactive
	}
	if len(round.Entries) == 0 {
		return nil, ErrEmptyRound
	}
	if index < 0 || index >= len(round.Entries) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, len(round.Entries))
	}

	entry := round.Entries[index]
	if !commitment.Verify(revealed, entry.Participant, entry.Commitment) {
		return nil, fmt.Errorf("%w: entry %d of round %d", ErrRevealMismatch, index, round.Number)
	}

	payout, houseShare := entities.SplitPrize(round.PrizePool, l.cfg.WinnerShareNumerator, l.cfg.ShareDenominator)
	record := &entities.WinnerRecord{
		RoundNumber: round.Number,
		EntryIndex:  index,
		Participant: entry.Participant,
		Commitment:  entry.Commitment,
		Choices:     revealed,
		PrizePool:   round.PrizePool,
		Payout:      payout,
		HouseShare:  houseShare,
		EntryCount:  len(round.Entries),
		BlockTime:   entropy.BlockTime,
		Difficulty:  entropy.Difficulty,
		RoundSecret: round.Secret,
		DrawnAt:     now,
	}

	finalized := round.Clone()
	finalized.Active = false
	finalized.FinalizedAt = &now
	finalized.PrizePool -= payout + houseShare
	finalized.Winner = record

	if err := l.journal.RoundFinalized(ctx, finalized, record); err != nil {
		return nil, fmt.Errorf("failed to journal finalized round: %w", err)
	}

	l.current = finalized
	l.history = append(l.history, record)

	out := *record
	return &out, nil
}

// publish is best effort: the mutation is already journaled. It runs after
// the lock is released so a slow publisher never stalls readers.
func (l *Ledger) publish(event events.Event) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish ledger event")
	}
}
