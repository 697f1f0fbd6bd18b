package repository

import (
	"context"
	"fmt"
	"strconv"

	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// WinnerRepository implements lottery winner data access
type WinnerRepository struct {
	q Queryable
}

// NewWinnerRepository creates a winner repository over q
func NewWinnerRepository(q Queryable) *WinnerRepository {
	return &WinnerRepository{q: q}
}

// Create stores the outcome of a finalized round. The uint64 entropy values
// travel as text so the full range fits the NUMERIC columns.
func (r *WinnerRepository) Create(ctx context.Context, w *entities.WinnerRecord) error {
	query := `
		INSERT INTO lottery_winners (
			round_number, entry_index, participant, commitment, choices,
			prize_pool, payout, house_share, entry_count,
			block_time, difficulty, round_secret, drawn_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::text::numeric, $11::text::numeric, $12, $13)
	`
	_, err := r.q.Exec(ctx, query,
		w.RoundNumber,
		w.EntryIndex,
		w.Participant.Bytes(),
		w.Commitment.Bytes(),
		int16(w.Choices.Bits()),
		w.PrizePool,
		w.Payout,
		w.HouseShare,
		w.EntryCount,
		strconv.FormatUint(w.BlockTime, 10),
		strconv.FormatUint(w.Difficulty, 10),
		w.RoundSecret.Bytes(),
		w.DrawnAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create winner of round %d: %w", w.RoundNumber, err)
	}
	return nil
}

// GetAll returns every winner record, oldest round first
func (r *WinnerRepository) GetAll(ctx context.Context) ([]*entities.WinnerRecord, error) {
	query := `
		SELECT round_number, entry_index, participant, commitment, choices,
		       prize_pool, payout, house_share, entry_count,
		       block_time::text, difficulty::text, round_secret, drawn_at
		FROM lottery_winners
		ORDER BY round_number
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lottery winners: %w", err)
	}
	defer rows.Close()

	winners := make([]*entities.WinnerRecord, 0)
	for rows.Next() {
		var (
			w           entities.WinnerRecord
			participant []byte
			c           []byte
			choices     int16
			blockTime   string
			difficulty  string
			secret      []byte
		)
		err := rows.Scan(
			&w.RoundNumber,
			&w.EntryIndex,
			&participant,
			&c,
			&choices,
			&w.PrizePool,
			&w.Payout,
			&w.HouseShare,
			&w.EntryCount,
			&blockTime,
			&difficulty,
			&secret,
			&w.DrawnAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lottery winner: %w", err)
		}

		if w.BlockTime, err = strconv.ParseUint(blockTime, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid block time for round %d: %w", w.RoundNumber, err)
		}
		if w.Difficulty, err = strconv.ParseUint(difficulty, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid difficulty for round %d: %w", w.RoundNumber, err)
		}
		w.Participant = common.BytesToAddress(participant)
		w.Commitment = common.BytesToHash(c)
		w.Choices = entities.ChoicesFromBits(uint8(choices))
		w.RoundSecret = common.BytesToHash(secret)
		winners = append(winners, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lottery winners: %w", err)
	}
	return winners, nil
}
