package entities

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Entry is one participant's ticketed, committed submission within a round.
// Entries are never modified after they are appended to a round.
type Entry struct {
	RoundNumber int64          `db:"round_number"`
	Index       int            `db:"entry_index"` // Position in the round, the draw selects by it
	Participant common.Address `db:"participant"`
	Commitment  common.Hash    `db:"commitment"`
	TicketCount int64          `db:"ticket_count"`
	Payment     int64          `db:"payment"`
	Timestamp   time.Time      `db:"submitted_at"`
}

// ParticipantTickets summarises how many tickets an address holds in a round
type ParticipantTickets struct {
	Participant common.Address `db:"participant"`
	TicketCount int64          `db:"ticket_count"`
}
