package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/bot"
	"github.com/xaenox/hustle-bot/internal/engine"
	"github.com/xaenox/hustle-bot/internal/storage"
	"github.com/xaenox/hustle-bot/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	clock := clockwork.NewRealClock()

	// The engine is wired first with a nil dispatcher slot filled below:
	// the Telegram dispatcher needs the bot API, the bot needs the engine.
	eng := engine.New(store, nil, clock, logger, engine.Options{
		DefaultQuoteInterval: cfg.Engine.QuoteInterval,
		DefaultInactiveDays:  cfg.Engine.InactiveDays,
		DefaultWarningHours:  cfg.Engine.WarningHours,
		MaxDeliveryAttempts:  cfg.Engine.MaxDeliveryAttempts,
		ClaimLease:           cfg.Engine.ClaimLease,
		StoreTimeout:         cfg.Engine.StoreTimeout,
	})

	b, err := bot.New(cfg.Telegram.Token, store, eng, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	dispatcher := engine.NewRetryDispatcher(
		bot.NewTelegramDispatcher(b.API(), store, logger),
		logger, 3, 30*time.Second)
	eng.SetDispatcher(dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := engine.NewPoller(eng, clock, logger,
		cfg.Scheduler.ReminderInterval, cfg.Scheduler.InactivityInterval)
	go poller.Run(ctx)

	// Start the bot
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
