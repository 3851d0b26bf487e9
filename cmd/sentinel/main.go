package main

import (
	"context"

	"github.com/camerpulse/sentinel/internal/alerts"
	"github.com/camerpulse/sentinel/internal/analyzer"
	"github.com/camerpulse/sentinel/internal/classifier"
	"github.com/camerpulse/sentinel/internal/config"
	"github.com/camerpulse/sentinel/internal/handlers"
	"github.com/camerpulse/sentinel/internal/ingest"
	"github.com/camerpulse/sentinel/internal/learning"
	"github.com/camerpulse/sentinel/internal/localctx"
	"github.com/camerpulse/sentinel/internal/persist"
	"github.com/camerpulse/sentinel/pkg/cache"
	pkgconfig "github.com/camerpulse/sentinel/pkg/config"
	"github.com/camerpulse/sentinel/pkg/database"
	"github.com/camerpulse/sentinel/pkg/kafka"
	"github.com/camerpulse/sentinel/pkg/llm"
	"github.com/camerpulse/sentinel/pkg/logging"
	"github.com/camerpulse/sentinel/pkg/monitoring"
	"github.com/camerpulse/sentinel/pkg/server"
	"github.com/camerpulse/sentinel/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("sentinel")
	pkgconfig.LoadEnv(logger)

	cfg := config.Load()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	db := database.MustConnect(dbCfg, logger)
	defer db.Close()

	if err := database.ApplySchema(context.Background(), db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to apply database schema")
	}

	healthChecker := monitoring.NewHealthChecker("sentinel", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("sentinel", version.Version, version.GitCommit)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("configuration", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
	}))

	contextHits := metricsCollector.NewCounter("context_cache_events_total",
		"Context bundle cache activity", []string{"event"})
	contextStore := localctx.NewStore(db, cfg.ContextTTL, logger, cache.Hooks{
		OnHit:   func(string) { contextHits.WithLabelValues("hit").Inc() },
		OnMiss:  func(string) { contextHits.WithLabelValues("miss").Inc() },
		OnError: func(string) { contextHits.WithLabelValues("error").Inc() },
	})

	var provider llm.Provider
	llmCfg := llm.LoadConfig()
	if llmCfg.APIKey == "" && llmCfg.APIURL == "" {
		logger.Warn("No LLM provider configured, classification runs on heuristics only")
	} else {
		var err error
		provider, err = llm.NewProvider(llmCfg)
		if err != nil {
			logger.WithError(err).Warn("Invalid LLM configuration, classification runs on heuristics only")
		}
	}

	heuristic := classifier.NewHeuristic()
	ai := classifier.NewAI(provider, heuristic, logger)

	resultStore := persist.NewStore(db)
	alerter := alerts.NewAlerter(db)
	recorder := learning.NewRecorder(db, contextStore, logger)

	a := analyzer.New(ai, contextStore, resultStore, alerter, recorder, logger,
		analyzer.NewMetrics(metricsCollector))

	router := server.SetupServiceRouter(logger, "sentinel", healthChecker, metricsCollector)
	handlers.NewHandlers(a, logger).RegisterRoutes(router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, "sentinel", logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka consumer")
		}
		defer consumer.Close()
		healthChecker.AddCheck("kafka", monitoring.KafkaHealthCheck(consumer.Client()))

		ingester := ingest.New(consumer, a, cfg.KafkaTopic, logger)
		go func() {
			if err := ingester.Run(ctx); err != nil && ctx.Err() == nil {
				logger.WithError(err).Error("Social post ingestion stopped")
			}
		}()
	}

	srvCfg := server.DefaultConfig("sentinel", cfg.Port)
	if err := server.Start(srvCfg, router, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}
