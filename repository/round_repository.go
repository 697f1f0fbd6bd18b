package repository

import (
	"context"
	"errors"
	"fmt"

	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// RoundRepository implements lottery round data access
type RoundRepository struct {
	q Queryable
}

// NewRoundRepository creates a round repository over q
func NewRoundRepository(q Queryable) *RoundRepository {
	return &RoundRepository{q: q}
}

// Create inserts a freshly opened round
func (r *RoundRepository) Create(ctx context.Context, round *entities.Round) error {
	query := `
		INSERT INTO lottery_rounds (round_number, secret, initiator, prize_pool, active, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.Exec(ctx, query,
		round.Number,
		round.Secret.Bytes(),
		round.Initiator.Bytes(),
		round.PrizePool,
		round.Active,
		round.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lottery round %d: %w", round.Number, err)
	}
	return nil
}

// UpdatePrizePool sets the pool of an active round
func (r *RoundRepository) UpdatePrizePool(ctx context.Context, roundNumber, prizePool int64) error {
	query := `
		UPDATE lottery_rounds
		SET prize_pool = $2
		WHERE round_number = $1 AND active
	`
	tag, err := r.q.Exec(ctx, query, roundNumber, prizePool)
	if err != nil {
		return fmt.Errorf("failed to update prize pool of round %d: %w", roundNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("round %d is not active", roundNumber)
	}
	return nil
}

// Finalize closes an active round
func (r *RoundRepository) Finalize(ctx context.Context, round *entities.Round) error {
	query := `
		UPDATE lottery_rounds
		SET active = FALSE,
		    prize_pool = $2,
		    finalized_at = $3
		WHERE round_number = $1 AND active
	`
	tag, err := r.q.Exec(ctx, query, round.Number, round.PrizePool, round.FinalizedAt)
	if err != nil {
		return fmt.Errorf("failed to finalize round %d: %w", round.Number, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("round %d is not active", round.Number)
	}
	return nil
}

// GetLatest returns the highest numbered round, or nil when none exists
func (r *RoundRepository) GetLatest(ctx context.Context) (*entities.Round, error) {
	query := `
		SELECT round_number, secret, initiator, prize_pool, active, started_at, finalized_at
		FROM lottery_rounds
		ORDER BY round_number DESC
		LIMIT 1
	`

	var (
		round     entities.Round
		secret    []byte
		initiator []byte
	)
	err := r.q.QueryRow(ctx, query).Scan(
		&round.Number,
		&secret,
		&initiator,
		&round.PrizePool,
		&round.Active,
		&round.StartedAt,
		&round.FinalizedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest lottery round: %w", err)
	}

	round.Secret = common.BytesToHash(secret)
	round.Initiator = common.BytesToAddress(initiator)
	round.Entries = make([]entities.Entry, 0)
	round.Tickets = make(map[common.Address]int64)
	return &round, nil
}
