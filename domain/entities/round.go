package entities

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Round is one lottery cycle from opening for entries to winner finalization
type Round struct {
	Number      int64          `db:"round_number"`
	Secret      common.Hash    `db:"secret"` // Draw seed, hidden from readers while the round is active
	Initiator   common.Address `db:"initiator"`
	PrizePool   int64          `db:"prize_pool"`
	Active      bool           `db:"active"`
	StartedAt   time.Time      `db:"started_at"`
	FinalizedAt *time.Time     `db:"finalized_at"` // NULL until the winner is drawn
	Entries     []Entry
	Tickets     map[common.Address]int64
	Winner      *WinnerRecord
}

// NewRound opens an empty, active round
func NewRound(number int64, secret common.Hash, initiator common.Address, startedAt time.Time) *Round {
	return &Round{
		Number:    number,
		Secret:    secret,
		Initiator: initiator,
		Active:    true,
		StartedAt: startedAt,
		Entries:   make([]Entry, 0),
		Tickets:   make(map[common.Address]int64),
	}
}

// IsFinalized returns true once a winner has been drawn
func (r *Round) IsFinalized() bool {
	return r.FinalizedAt != nil
}

// EntryCount returns the number of entries in the round
func (r *Round) EntryCount() int {
	return len(r.Entries)
}

// TicketsOf returns the ticket tally of a participant
func (r *Round) TicketsOf(participant common.Address) int64 {
	return r.Tickets[participant]
}

// TotalTickets sums the ticket tally across all participants
func (r *Round) TotalTickets() int64 {
	var total int64
	for _, n := range r.Tickets {
		total += n
	}
	return total
}

// Participants returns the per-address ticket summary in first-entry order
func (r *Round) Participants() []ParticipantTickets {
	seen := make(map[common.Address]bool, len(r.Tickets))
	out := make([]ParticipantTickets, 0, len(r.Tickets))
	for _, e := range r.Entries {
		if seen[e.Participant] {
			continue
		}
		seen[e.Participant] = true
		out = append(out, ParticipantTickets{Participant: e.Participant, TicketCount: r.Tickets[e.Participant]})
	}
	return out
}

// Clone returns a deep copy that shares no mutable state with r
func (r *Round) Clone() *Round {
	c := *r
	c.Entries = append(make([]Entry, 0, len(r.Entries)), r.Entries...)
	c.Tickets = make(map[common.Address]int64, len(r.Tickets))
	for k, v := range r.Tickets {
		c.Tickets[k] = v
	}
	if r.FinalizedAt != nil {
		t := *r.FinalizedAt
		c.FinalizedAt = &t
	}
	if r.Winner != nil {
		w := *r.Winner
		c.Winner = &w
	}
	return &c
}

// PublicView is a copy safe to hand to readers: the secret is blanked until finalization
func (r *Round) PublicView() *Round {
	c := r.Clone()
	if c.Active {
		c.Secret = common.Hash{}
	}
	return c
}

// LedgerState is what a round journal hands back to rebuild the ledger on startup
type LedgerState struct {
	Current *Round
	History []*WinnerRecord
}
