package application

import (
	"context"
	"errors"
	"time"

	"fhelotto/domain/interfaces"
	"fhelotto/domain/ledger"
	"fhelotto/domain/services"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// DrawWorker closes the active round once its duration has elapsed
type DrawWorker struct {
	service  interfaces.LotteryService
	owner    common.Address
	interval time.Duration
	idlePoll time.Duration
	now      func() time.Time
}

// NewDrawWorker creates a worker drawing as owner every interval
func NewDrawWorker(service interfaces.LotteryService, owner common.Address, interval time.Duration) *DrawWorker {
	return &DrawWorker{
		service:  service,
		owner:    owner,
		interval: interval,
		idlePoll: time.Minute,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the draw loop and returns a function that stops it
func (w *DrawWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("interval", w.interval).Info("Draw worker started")

		for {
			wait := w.idlePoll
			if next := w.nextDrawTime(ctx); next != nil {
				wait = next.Sub(w.now())
				if wait <= 0 {
					wait = 0
					if !w.runDraw(ctx) {
						// Round stays open, try again after another interval
						wait = w.interval
					}
				} else {
					log.Infof("Next lottery draw at %v (in %v)", next.UTC(), wait)
				}
			}

			select {
			case <-ctx.Done():
				log.Info("Draw worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Draw worker shutting down (stop requested)...")
				return
			case <-time.After(wait):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// nextDrawTime returns nil when no round is open
func (w *DrawWorker) nextDrawTime(ctx context.Context) *time.Time {
	status, err := w.service.Status(ctx)
	if err != nil {
		log.Errorf("Failed to get lottery status: %v", err)
		return nil
	}
	if !status.Active {
		return nil
	}
	next := status.StartedAt.Add(w.interval)
	return &next
}

// runDraw reports whether the round was finalized
func (w *DrawWorker) runDraw(ctx context.Context) bool {
	result, err := w.service.Draw(ctx, w.owner)
	switch {
	case errors.Is(err, ledger.ErrEmptyRound):
		log.Info("No lottery entries yet, postponing draw")
		return false
	case errors.Is(err, services.ErrRevealMissing):
		log.Warn("Selected entry has not revealed, postponing draw")
		return false
	case err != nil:
		log.Errorf("Lottery draw failed: %v", err)
		return false
	}

	fields := log.Fields{
		"round":  result.Winner.RoundNumber,
		"winner": result.Winner.Participant.Hex(),
		"payout": result.Winner.Payout,
	}
	if result.NextRound != nil {
		fields["nextRound"] = result.NextRound.Number
	}
	log.WithFields(fields).Info("Scheduled lottery draw completed")
	return true
}
