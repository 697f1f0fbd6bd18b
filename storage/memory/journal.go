// Package memory holds process-local implementations of the ledger's
// persistence ports. They back the CLI's offline mode and the test suites.
package memory

import (
	"context"
	"sync"

	"fhelotto/domain/entities"
)

// Journal keeps journaled rounds in memory. FailWith makes the next call fail,
// which lets tests check that a rejected write leaves the ledger untouched.
type Journal struct {
	mu      sync.Mutex
	rounds  map[int64]*entities.Round
	latest  int64
	history []*entities.WinnerRecord
	failErr error
}

// NewJournal returns an empty journal
func NewJournal() *Journal {
	return &Journal{rounds: make(map[int64]*entities.Round)}
}

// FailWith makes the next journal write return err
func (j *Journal) FailWith(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.failErr = err
}

func (j *Journal) takeFailure() error {
	err := j.failErr
	j.failErr = nil
	return err
}

// RoundStarted stores a copy of the new round
func (j *Journal) RoundStarted(ctx context.Context, round *entities.Round) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.takeFailure(); err != nil {
		return err
	}
	j.rounds[round.Number] = round.Clone()
	j.latest = round.Number
	return nil
}

// EntryRecorded appends the entry to its stored round
func (j *Journal) EntryRecorded(ctx context.Context, entry *entities.Entry, prizePool int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.takeFailure(); err != nil {
		return err
	}
	round, ok := j.rounds[entry.RoundNumber]
	if !ok {
		return ErrUnknownRound
	}
	round.Entries = append(round.Entries, *entry)
	round.Tickets[entry.Participant] += entry.TicketCount
	round.PrizePool = prizePool
	return nil
}

// RoundFinalized replaces the stored round and records the winner
func (j *Journal) RoundFinalized(ctx context.Context, round *entities.Round, winner *entities.WinnerRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.takeFailure(); err != nil {
		return err
	}
	if _, ok := j.rounds[round.Number]; !ok {
		return ErrUnknownRound
	}
	j.rounds[round.Number] = round.Clone()
	record := *winner
	j.history = append(j.history, &record)
	return nil
}

// LoadState returns copies of the latest round and the winner history
func (j *Journal) LoadState(ctx context.Context) (*entities.LedgerState, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	state := &entities.LedgerState{}
	if round, ok := j.rounds[j.latest]; ok {
		state.Current = round.Clone()
	}
	for _, w := range j.history {
		record := *w
		state.History = append(state.History, &record)
	}
	return state, nil
}

// Round returns a copy of a stored round
func (j *Journal) Round(number int64) (*entities.Round, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	round, ok := j.rounds[number]
	if !ok {
		return nil, false
	}
	return round.Clone(), true
}
