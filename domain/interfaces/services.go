package interfaces

import (
	"context"
	"time"

	"fhelotto/domain/draw"
	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// LotteryService is the command and query surface offered to callers
type LotteryService interface {
	// Start opens round 1 when the ledger has no round yet
	Start(ctx context.Context) error

	// Enter records a committed entry paid with payment
	Enter(ctx context.Context, participant common.Address, commitment common.Hash, payment int64) (*entities.Entry, error)

	// SubmitReveal deposits the choices behind one of the participant's commitments
	SubmitReveal(ctx context.Context, participant common.Address, commitment common.Hash, choices entities.Choices) error

	// SelectWinner previews which entry the given entropy would select
	SelectWinner(ctx context.Context, entropy draw.Entropy) (*entities.Entry, error)

	// Draw selects, reveals and finalizes the current round. Owner only.
	Draw(ctx context.Context, caller common.Address) (*LotteryDrawResult, error)

	// StartNewRound opens the next round after a finalize. Owner only.
	StartNewRound(ctx context.Context, caller common.Address) (*entities.Round, error)

	// Status returns the read-only view of the current round
	Status(ctx context.Context) (*LotteryStatus, error)

	// History returns the winner records of finalized rounds, oldest first
	History(ctx context.Context) ([]*entities.WinnerRecord, error)
}

// LotteryMetrics receives engine measurements
type LotteryMetrics interface {
	RecordEntry(ticketCount, payment int64)
	RecordDraw(outcome string)
	SetPrizePool(pool int64)
}

// LotteryDrawResult is the outcome of a draw
type LotteryDrawResult struct {
	Winner    *entities.WinnerRecord
	NextRound *entities.Round // nil unless a new round was started
}

// LotteryStatus is the read-only summary of the current round
type LotteryStatus struct {
	RoundNumber  int64
	Active       bool
	PrizePool    int64
	EntryCount   int
	TotalTickets int64
	FeePerTicket int64
	StartedAt    time.Time
	Participants []entities.ParticipantTickets
}
