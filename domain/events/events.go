package events

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeEntryRecorded EventType = "entry_recorded"
	EventTypeWinnerDrawn   EventType = "winner_drawn"
	EventTypeRoundStarted  EventType = "round_started"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// EntryRecordedEvent is emitted after an entry is appended to the active round
type EntryRecordedEvent struct {
	RoundNumber int64          `json:"round_number"`
	EntryIndex  int            `json:"entry_index"`
	Participant common.Address `json:"participant"`
	TicketCount int64          `json:"ticket_count"`
	PrizePool   int64          `json:"prize_pool"`
}

func (e EntryRecordedEvent) Type() EventType {
	return EventTypeEntryRecorded
}

// WinnerDrawnEvent is emitted when a round is finalized. It is the payout
// instruction: Payout goes to Participant, HouseShare to the owner.
type WinnerDrawnEvent struct {
	RoundNumber int64          `json:"round_number"`
	EntryIndex  int            `json:"entry_index"`
	Participant common.Address `json:"participant"`
	Payout      int64          `json:"payout"`
	HouseShare  int64          `json:"house_share"`
}

func (e WinnerDrawnEvent) Type() EventType {
	return EventTypeWinnerDrawn
}

// RoundStartedEvent is emitted when a new round opens for entries
type RoundStartedEvent struct {
	RoundNumber int64          `json:"round_number"`
	Initiator   common.Address `json:"initiator"`
	StartedAt   time.Time      `json:"started_at"`
}

func (e RoundStartedEvent) Type() EventType {
	return EventTypeRoundStarted
}
