package repository

import (
	"context"
	"fmt"

	"fhelotto/domain/entities"
	"fhelotto/domain/interfaces"
)

// RoundJournal persists ledger mutations to PostgreSQL, one transaction per mutation
type RoundJournal struct {
	uowFactory *UnitOfWorkFactory
}

var _ interfaces.RoundJournal = (*RoundJournal)(nil)

// NewRoundJournal creates a journal over the factory's pool
func NewRoundJournal(uowFactory *UnitOfWorkFactory) *RoundJournal {
	return &RoundJournal{uowFactory: uowFactory}
}

func (j *RoundJournal) inTransaction(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}

// RoundStarted records a freshly opened round
func (j *RoundJournal) RoundStarted(ctx context.Context, round *entities.Round) error {
	return j.inTransaction(ctx, func(uow *UnitOfWork) error {
		return uow.RoundRepository().Create(ctx, round)
	})
}

// EntryRecorded appends the entry and moves the pool in the same transaction
func (j *RoundJournal) EntryRecorded(ctx context.Context, entry *entities.Entry, prizePool int64) error {
	return j.inTransaction(ctx, func(uow *UnitOfWork) error {
		if err := uow.EntryRepository().Create(ctx, entry); err != nil {
			return err
		}
		return uow.RoundRepository().UpdatePrizePool(ctx, entry.RoundNumber, prizePool)
	})
}

// RoundFinalized closes the round and stores its winner
func (j *RoundJournal) RoundFinalized(ctx context.Context, round *entities.Round, winner *entities.WinnerRecord) error {
	return j.inTransaction(ctx, func(uow *UnitOfWork) error {
		if err := uow.RoundRepository().Finalize(ctx, round); err != nil {
			return err
		}
		return uow.WinnerRepository().Create(ctx, winner)
	})
}

// LoadState rebuilds the latest round with its entries and the winner history
func (j *RoundJournal) LoadState(ctx context.Context) (*entities.LedgerState, error) {
	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	state := &entities.LedgerState{}

	round, err := uow.RoundRepository().GetLatest(ctx)
	if err != nil {
		return nil, err
	}
	if round != nil {
		entries, err := uow.EntryRepository().GetByRound(ctx, round.Number)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			round.Entries = append(round.Entries, e)
			round.Tickets[e.Participant] += e.TicketCount
		}
		state.Current = round
	}

	history, err := uow.WinnerRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load winner history: %w", err)
	}
	state.History = history

	if round != nil && !round.Active {
		for _, w := range history {
			if w.RoundNumber == round.Number {
				record := *w
				round.Winner = &record
			}
		}
	}

	return state, nil
}
