package infrastructure

import (
	"context"
	"time"

	"fhelotto/domain/entities"
	"fhelotto/domain/interfaces"
)

// JournalMetrics records journal write latency
type JournalMetrics interface {
	RecordJournalWrite(operation string, duration time.Duration, err error)
}

// InstrumentedJournal times every write of the wrapped journal
type InstrumentedJournal struct {
	inner   interfaces.RoundJournal
	metrics JournalMetrics
}

// NewInstrumentedJournal wraps inner
func NewInstrumentedJournal(inner interfaces.RoundJournal, metrics JournalMetrics) *InstrumentedJournal {
	return &InstrumentedJournal{inner: inner, metrics: metrics}
}

func (j *InstrumentedJournal) observe(operation string, start time.Time, err error) error {
	j.metrics.RecordJournalWrite(operation, time.Since(start), err)
	return err
}

func (j *InstrumentedJournal) RoundStarted(ctx context.Context, round *entities.Round) error {
	start := time.Now()
	return j.observe("round_started", start, j.inner.RoundStarted(ctx, round))
}

func (j *InstrumentedJournal) EntryRecorded(ctx context.Context, entry *entities.Entry, prizePool int64) error {
	start := time.Now()
	return j.observe("entry_recorded", start, j.inner.EntryRecorded(ctx, entry, prizePool))
}

func (j *InstrumentedJournal) RoundFinalized(ctx context.Context, round *entities.Round, winner *entities.WinnerRecord) error {
	start := time.Now()
	return j.observe("round_finalized", start, j.inner.RoundFinalized(ctx, round, winner))
}

// LoadState is a read and is not timed
func (j *InstrumentedJournal) LoadState(ctx context.Context) (*entities.LedgerState, error) {
	return j.inner.LoadState(ctx)
}
