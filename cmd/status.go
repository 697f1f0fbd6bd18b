package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fhelotto/database"
	"fhelotto/domain/entities"
	"fhelotto/repository"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/urfave/cli.v1"
)

// roundReport is the printable summary of a journaled round
type roundReport struct {
	Number       int64                         `json:"number"`
	Active       bool                          `json:"active"`
	PrizePool    int64                         `json:"prizePool"`
	EntryCount   int                           `json:"entryCount"`
	TotalTickets int64                         `json:"totalTickets"`
	StartedAt    time.Time                     `json:"startedAt"`
	Secret       *common.Hash                  `json:"secret,omitempty"`
	Participants []entities.ParticipantTickets `json:"participants"`
}

type winnerReport struct {
	Round       int64          `json:"round"`
	EntryIndex  int            `json:"entryIndex"`
	Participant common.Address `json:"participant"`
	Choices     string         `json:"choices"`
	Payout      int64          `json:"payout"`
	HouseShare  int64          `json:"houseShare"`
	EntryCount  int            `json:"entryCount"`
	BlockTime   uint64         `json:"blockTime"`
	Difficulty  uint64         `json:"difficulty"`
	RoundSecret common.Hash    `json:"roundSecret"`
	DrawnAt     time.Time      `json:"drawnAt"`
}

type statusReport struct {
	Round   *roundReport   `json:"round,omitempty"`
	Winners []winnerReport `json:"winners"`
}

// buildStatusReport keeps the secret of an active round out of the output
func buildStatusReport(state *entities.LedgerState) statusReport {
	report := statusReport{Winners: make([]winnerReport, 0, len(state.History))}

	if state.Current != nil {
		round := state.Current.PublicView()
		report.Round = &roundReport{
			Number:       round.Number,
			Active:       round.Active,
			PrizePool:    round.PrizePool,
			EntryCount:   round.EntryCount(),
			TotalTickets: round.TotalTickets(),
			StartedAt:    round.StartedAt,
			Participants: round.Participants(),
		}
		if !round.Active {
			secret := round.Secret
			report.Round.Secret = &secret
		}
	}

	for _, w := range state.History {
		report.Winners = append(report.Winners, winnerReport{
			Round:       w.RoundNumber,
			EntryIndex:  w.EntryIndex,
			Participant: w.Participant,
			Choices:     w.Choices.String(),
			Payout:      w.Payout,
			HouseShare:  w.HouseShare,
			EntryCount:  w.EntryCount,
			BlockTime:   w.BlockTime,
			Difficulty:  w.Difficulty,
			RoundSecret: w.RoundSecret,
			DrawnAt:     w.DrawnAt,
		})
	}
	return report
}

func statusAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Ephemeral {
		return fmt.Errorf("status reads the Postgres journal and is not available in ephemeral mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	state, err := repository.NewRoundJournal(repository.NewUnitOfWorkFactory(db)).LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load journal: %w", err)
	}

	out, err := json.MarshalIndent(buildStatusReport(state), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
