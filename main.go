package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/storerank/internal/api"
	"github.com/jonesrussell/storerank/internal/audit"
	"github.com/jonesrussell/storerank/internal/breaker"
	"github.com/jonesrussell/storerank/internal/cache"
	"github.com/jonesrussell/storerank/internal/classify"
	"github.com/jonesrussell/storerank/internal/config"
	"github.com/jonesrussell/storerank/internal/discovery"
	"github.com/jonesrussell/storerank/internal/keywords"
	"github.com/jonesrussell/storerank/internal/logger"
	"github.com/jonesrussell/storerank/internal/ranking"
	"github.com/jonesrussell/storerank/internal/ratelimit"
	"github.com/jonesrussell/storerank/internal/service"
	"github.com/jonesrussell/storerank/internal/storefront"
	"github.com/jonesrussell/storerank/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting storerank service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
		logger.Bool("debug", cfg.Service.Debug),
	)

	store, err := createCacheStore(cfg, log)
	if err != nil {
		log.Error("Failed to create cache store", logger.Error(err))
		return 1
	}

	recorder, err := createAuditRecorder(cfg, log)
	if err != nil {
		log.Error("Failed to create audit recorder", logger.Error(err))
		return 1
	}

	return runServer(cfg, store, recorder, log)
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, err
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// createCacheStore picks the cache backend: Redis when an address is
// configured, in-memory otherwise.
func createCacheStore(cfg *config.Config, log logger.Logger) (cache.Store, error) {
	if cfg.Cache.Address == "" {
		log.Info("Using in-memory result cache")
		return cache.NewMemoryStore(), nil
	}

	log.Info("Connecting to Redis", logger.String("address", cfg.Cache.Address))
	store, err := cache.NewRedisStore(cache.RedisConfig{
		Address:  cfg.Cache.Address,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// createAuditRecorder picks the audit sink: PostgreSQL when a DSN is
// configured, a nop recorder otherwise.
func createAuditRecorder(cfg *config.Config, log logger.Logger) (audit.Recorder, error) {
	if cfg.Audit.DSN == "" {
		log.Info("Audit sink disabled")
		return audit.NewNopRecorder(), nil
	}

	log.Info("Connecting to audit database")
	return audit.NewPostgresRecorder(cfg.Audit.DSN)
}

// runServer assembles the pipeline and runs the HTTP server with
// graceful shutdown.
func runServer(cfg *config.Config, store cache.Store, recorder audit.Recorder, log logger.Logger) int {
	metrics := telemetry.NewMetrics()

	brk := breaker.New(breaker.Config{
		MaxFailures: cfg.Breaker.MaxFailures,
		ResetWindow: cfg.Breaker.ResetWindow,
		OnStateChange: func(from, to breaker.State) {
			log.Warn("Circuit breaker state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			metrics.SetBreakerState(int(to))
		},
	})

	provider := storefront.NewClient(storefront.Config{
		BaseURL: cfg.Storefront.BaseURL,
		Timeout: cfg.Storefront.Timeout,
	}, log)

	disco := discovery.NewService(provider, brk, discovery.Config{
		MaxRetries: cfg.Storefront.MaxRetries,
		BaseDelay:  cfg.Storefront.BaseDelay,
		MaxDelay:   cfg.Storefront.MaxDelay,
	}, metrics, log)

	manager := cache.NewManager(store, cfg.Cache.TTL, log)
	limits := ratelimit.NewRegistry(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, log)
	defer limits.Close()

	orchestrator := service.NewOrchestrator(service.Deps{
		Classifier: classify.New(),
		Cache:      manager,
		Discovery:  disco,
		Extractor:  keywords.NewExtractor(cfg.Ranking.MaxKeywords),
		Analyzer: ranking.NewAnalyzer(ranking.NewCalculator(),
			cfg.Ranking.MaxLiveChecks, cfg.Ranking.LiveCheckDelay, log),
		Limits:  limits,
		Audit:   recorder,
		Metrics: metrics,
		Logger:  log,
	})

	handler := api.NewHandler(orchestrator, manager, cfg.Service.Version, log)
	server := api.NewServer(api.ServerConfig{
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
		Port:        cfg.Service.Port,
		Debug:       cfg.Service.Debug,
		CORS:        cfg.CORS,
	}, log, func(router *gin.Engine) {
		api.SetupRoutes(router, handler, metrics.Handler())
	})

	if err := server.Run(); err != nil {
		log.Error("Server failed", logger.Error(err))
		return 1
	}
	return 0
}
