package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fhelotto/application"
	"fhelotto/config"
	"fhelotto/database"
	"fhelotto/domain/draw"
	"fhelotto/domain/interfaces"
	"fhelotto/domain/ledger"
	"fhelotto/domain/services"
	"fhelotto/infrastructure"
	"fhelotto/infrastructure/observability"
	"fhelotto/repository"
	"fhelotto/storage/memory"
	"fhelotto/storage/revealvault"

	log "github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"
)

// loadConfig reads the configuration, applies flag overrides and validates it
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}
	if c.Bool(ephemeralFlag.Name) {
		cfg.Ephemeral = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	return Run(ctx, cfg)
}

// Run initializes and starts the lottery engine
func Run(ctx context.Context, cfg *config.Config) error {
	log.WithField("environment", cfg.Environment).Info("Starting lottery engine...")

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}()

	// Initialize storage
	var (
		journal   interfaces.RoundJournal
		vault     interfaces.RevealVault
		boltVault *revealvault.Vault
	)
	if cfg.Ephemeral {
		log.Warn("Running with in-memory storage, state is lost on exit")
		journal = memory.NewJournal()
		vault = memory.NewVault()
	} else {
		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		journal = repository.NewRoundJournal(repository.NewUnitOfWorkFactory(db))

		boltVault, err = revealvault.Open(cfg.RevealVaultPath)
		if err != nil {
			return fmt.Errorf("failed to open reveal vault: %w", err)
		}
		defer boltVault.Close()
		vault = boltVault
	}
	journal = infrastructure.NewInstrumentedJournal(journal, metrics)

	// Initialize messaging
	var (
		publisher  interfaces.EventPublisher = infrastructure.NewNoopEventPublisher()
		natsClient *infrastructure.NATSClient
	)
	if cfg.NATSServers != "" {
		log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		mapper := infrastructure.NewEventSubjectMapper()
		if err := infrastructure.EnsureEventStream(natsClient, mapper); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		if err := infrastructure.EnsureCommandStream(natsClient, mapper); err != nil {
			return fmt.Errorf("failed to ensure command stream: %w", err)
		}
		publisher = infrastructure.NewNATSEventPublisher(natsClient, mapper).WithMetrics(metrics)
	}

	// Rebuild the ledger from the journal
	l, err := ledger.New(ledger.Config{
		FeePerTicket:         cfg.TicketFee,
		WinnerShareNumerator: cfg.WinnerShareNumerator,
		ShareDenominator:     cfg.ShareDenominator,
	}, journal, publisher)
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}
	state, err := journal.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load journal: %w", err)
	}
	if err := l.Restore(state); err != nil {
		return fmt.Errorf("failed to restore ledger: %w", err)
	}
	if boltVault != nil {
		if err := purgeStaleReveals(ctx, boltVault, l); err != nil {
			log.WithError(err).Warn("Failed to purge stale reveals")
		}
	}

	lotteryService := services.NewLotteryService(l, vault, draw.NewSystemEntropy(nil), metrics, services.LotteryServiceOptions{
		Owner:             cfg.Owner(),
		AutoStartNewRound: cfg.AutoStartNewRound,
	})
	if err := lotteryService.Start(ctx); err != nil {
		return err
	}
	metrics.SetPrizePool(l.PrizePool())

	if natsClient != nil {
		consumer := infrastructure.NewCommandConsumer(natsClient, lotteryService)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start command consumer: %w", err)
		}
	}

	stopWorker := application.NewDrawWorker(lotteryService, cfg.Owner(), cfg.RoundDuration).Start(ctx)
	defer stopWorker()

	log.WithFields(log.Fields{
		"round":     l.RoundNumber(),
		"fee":       cfg.TicketFee,
		"duration":  cfg.RoundDuration,
		"autoStart": cfg.AutoStartNewRound,
	}).Info("Lottery engine is running")
	<-ctx.Done()

	log.Info("Shutting down lottery engine...")
	return nil
}

// purgeStaleReveals drops reveals left over from rounds that were already drawn
func purgeStaleReveals(ctx context.Context, vault *revealvault.Vault, l *ledger.Ledger) error {
	rounds, err := vault.Rounds()
	if err != nil {
		return err
	}
	for _, round := range rounds {
		if round == l.RoundNumber() && l.Active() {
			continue
		}
		if err := vault.DropRound(ctx, round); err != nil {
			return err
		}
		log.WithField("round", round).Info("Purged stale reveals")
	}
	return nil
}
