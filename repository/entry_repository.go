package repository

import (
	"context"
	"fmt"

	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// EntryRepository implements lottery entry data access
type EntryRepository struct {
	q Queryable
}

// NewEntryRepository creates an entry repository over q
func NewEntryRepository(q Queryable) *EntryRepository {
	return &EntryRepository{q: q}
}

// Create appends an entry to its round
func (r *EntryRepository) Create(ctx context.Context, entry *entities.Entry) error {
	query := `
		INSERT INTO lottery_entries (round_number, entry_index, participant, commitment, ticket_count, payment, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.Exec(ctx, query,
		entry.RoundNumber,
		entry.Index,
		entry.Participant.Bytes(),
		entry.Commitment.Bytes(),
		entry.TicketCount,
		entry.Payment,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create entry %d of round %d: %w", entry.Index, entry.RoundNumber, err)
	}
	return nil
}

// GetByRound returns a round's entries in submission order
func (r *EntryRepository) GetByRound(ctx context.Context, roundNumber int64) ([]entities.Entry, error) {
	query := `
		SELECT round_number, entry_index, participant, commitment, ticket_count, payment, submitted_at
		FROM lottery_entries
		WHERE round_number = $1
		ORDER BY entry_index
	`

	rows, err := r.q.Query(ctx, query, roundNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries of round %d: %w", roundNumber, err)
	}
	defer rows.Close()

	entries := make([]entities.Entry, 0)
	for rows.Next() {
		var (
			entry       entities.Entry
			participant []byte
			c           []byte
		)
		err := rows.Scan(
			&entry.RoundNumber,
			&entry.Index,
			&participant,
			&c,
			&entry.TicketCount,
			&entry.Payment,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.Participant = common.BytesToAddress(participant)
		entry.Commitment = common.BytesToHash(c)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}
