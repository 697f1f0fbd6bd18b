package interfaces

import (
	"context"

	"fhelotto/domain/entities"
	"fhelotto/domain/events"

	"github.com/ethereum/go-ethereum/common"
)

// RoundJournal persists ledger mutations. The ledger calls it before applying
// a change in memory, so a journal error leaves the ledger untouched.
type RoundJournal interface {
	// RoundStarted records a freshly opened round
	RoundStarted(ctx context.Context, round *entities.Round) error

	// EntryRecorded records an appended entry together with the new prize pool
	EntryRecorded(ctx context.Context, entry *entities.Entry, prizePool int64) error

	// RoundFinalized closes a round and stores its winner record
	RoundFinalized(ctx context.Context, round *entities.Round, winner *entities.WinnerRecord) error

	// LoadState returns the latest round (with entries) and the winner history
	LoadState(ctx context.Context) (*entities.LedgerState, error)
}

// RevealVault keeps participants' reveals private to the operator until the draw
type RevealVault interface {
	// Store saves the choices behind a commitment for a round
	Store(ctx context.Context, roundNumber int64, commitment common.Hash, choices entities.Choices) error

	// Load returns the stored choices, or false when none were deposited
	Load(ctx context.Context, roundNumber int64, commitment common.Hash) (entities.Choices, bool, error)

	// DropRound forgets every reveal of a round
	DropRound(ctx context.Context, roundNumber int64) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}
