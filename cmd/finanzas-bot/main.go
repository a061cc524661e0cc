package main

import (
	"context"
	"os"
	"time"

	"finanzas/internal/backend"
	"finanzas/internal/bot"
	"finanzas/internal/cache"
	"finanzas/internal/cli"
	"finanzas/internal/config"
	apphttp "finanzas/internal/http"
	"finanzas/internal/log"
	"finanzas/internal/nlu"
	"finanzas/internal/schedule"
	"finanzas/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting finanzas-bot")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)
	bc := cli.BackendConfig(logger, cfg)

	factory := backend.NewFactory(logger)
	stores, err := factory.CreateStore(bc)
	if err != nil {
		logger.Error("Failed to initialize ledger store", log.FieldError, err, "backend", bc.Store)
		os.Exit(1)
	}
	publisher := factory.CreatePublisher(bc)
	ledger := services.NewLedgerService(stores.Store, publisher, logger)

	var (
		classifier nlu.Classifier
		nluCache   *cache.LRUCache[*nlu.Response]
		janitor    *cache.Janitor
	)
	if cfg.NLUEnabled() {
		classifier = nlu.NewClient(nlu.ClientConfig{
			Token:      cfg.WitToken,
			BaseURL:    cfg.WitBaseURL,
			APIVersion: cfg.WitAPIVersion,
			Timeout:    cfg.WitTimeout,
		}, logger)
		if cfg.NLUCacheSize > 0 {
			nluCache = cache.NewLRUCache[*nlu.Response](cfg.NLUCacheSize, cfg.NLUCacheTTL)
			classifier = nlu.NewCachedClassifier(classifier, nluCache)
			janitor = cache.NewJanitor(logger)
			janitor.Register(nluCache)
			janitor.Start(cfg.NLUCacheTTL)
		}
		logger.Info("Free-text classification enabled",
			"threshold", cfg.ConfidenceThreshold,
			"cache_size", cfg.NLUCacheSize)
	} else {
		logger.Info("WIT_TOKEN not set, free-text classification disabled")
	}

	router := bot.NewRouter(ledger, bot.RouterConfig{
		ChannelID:  cfg.ChannelID,
		Classifier: classifier,
		Threshold:  cfg.ConfidenceThreshold,
	}, logger)

	b, err := bot.NewBot(cfg.DiscordToken, cfg.ChannelID, router, cfg.HandlerTimeout, logger)
	if err != nil {
		logger.Error("Failed to create Discord session", log.FieldError, err)
		os.Exit(1)
	}
	if err := b.Open(); err != nil {
		logger.Error("Failed to connect to Discord; check that TOKEN is valid", log.FieldError, err)
		os.Exit(1)
	}

	var scheduler *schedule.Scheduler
	if cfg.SummarySchedule != "" {
		scheduler = schedule.New(logger, cfg.HandlerTimeout)
		err := scheduler.Add(cfg.SummarySchedule, log.OpSummary, func(ctx context.Context) error {
			reply, err := router.Summary(ctx)
			if err != nil {
				return err
			}
			return b.Post(ctx, reply)
		})
		if err != nil {
			logger.Error("Failed to schedule daily summary", log.FieldError, err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	var ops *apphttp.Server
	if cfg.HealthEnabled() {
		ops = apphttp.NewServer(cfg.HealthAddr, logger)
		ops.AddCheck("discord", b.Check)
		ops.AddCheck("ledger", func(ctx context.Context) error {
			_, err := ledger.Balance(ctx)
			return err
		})
		if nluCache != nil {
			ops.AddStats("nlu_cache", func() any { return nluCache.Stats() })
		}
		ops.Start()
	}

	logger.Info("Bot is running", log.FieldChannelID, cfg.ChannelID, "data_backend", bc.Store, "events_backend", bc.Events)

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if ops != nil {
			if err := ops.Shutdown(ctx); err != nil {
				logger.Warn("Failed to stop ops endpoint", log.FieldError, err)
			}
		}
		if scheduler != nil {
			scheduler.Stop(ctx)
		}
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close Discord session", log.FieldError, err)
		}
		if janitor != nil {
			janitor.Stop()
		}
		if err := ledger.Close(); err != nil {
			logger.Warn("Failed to close event publisher", log.FieldError, err)
		}
		if stores.Cleanup != nil {
			if err := stores.Cleanup(); err != nil {
				logger.Warn("Failed to close ledger store", log.FieldError, err)
			}
		}
	})
	<-done
}
