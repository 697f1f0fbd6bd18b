package repository

import (
	"context"
	"errors"
	"fmt"

	"fhelotto/database"

	"github.com/jackc/pgx/v5"
)

// UnitOfWork scopes the lottery repositories to one transaction
type UnitOfWork struct {
	db         *database.DB
	tx         pgx.Tx
	ctx        context.Context
	roundRepo  *RoundRepository
	entryRepo  *EntryRepository
	winnerRepo *WinnerRepository
}

// UnitOfWorkFactory creates units of work on a shared pool
type UnitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// Create returns a unit of work that has not begun yet
func (f *UnitOfWorkFactory) Create() *UnitOfWork {
	return &UnitOfWork{db: f.db}
}

// Begin starts a new transaction
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.roundRepo = NewRoundRepository(tx)
	u.entryRepo = NewEntryRepository(tx)
	u.winnerRepo = NewWinnerRepository(tx)
	return nil
}

// Commit commits the transaction
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil
	return nil
}

// Rollback rolls back the transaction. It is a no-op after Commit.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	u.tx = nil
	return nil
}

// RoundRepository returns the round repository for this unit of work
func (u *UnitOfWork) RoundRepository() *RoundRepository {
	return u.roundRepo
}

// EntryRepository returns the entry repository for this unit of work
func (u *UnitOfWork) EntryRepository() *EntryRepository {
	return u.entryRepo
}

// WinnerRepository returns the winner repository for this unit of work
func (u *UnitOfWork) WinnerRepository() *WinnerRepository {
	return u.winnerRepo
}
