package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"quizharvester/config"
	"quizharvester/internal/browser"
	"quizharvester/internal/catalog"
	"quizharvester/internal/results"
	"quizharvester/internal/scraper"
	"quizharvester/internal/taxonomy"
	"quizharvester/logger"
	"quizharvester/services/cache"
	"quizharvester/services/identity"
	"quizharvester/services/publisher"
	"quizharvester/services/ratelimit"
	"quizharvester/services/storage"
	"quizharvester/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("base_url", cfg.BaseURL).
		Int("concurrency", cfg.Concurrency).
		Int("max_questions", cfg.MaxQuestions).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	harvester := scraper.NewQuizHarvester(
		services.Browser,
		services.Limiter,
		results.NewPipeline(),
		services.Mapper,
		services.Allocator,
		scraper.NewMediaStore(cfg.MediaDir, services.Limiter),
		scraper.Options{
			PageLoadTimeout:    cfg.PageLoadTimeout,
			NetworkIdleTimeout: cfg.NetworkIdleTimeout,
			ResultsWaitTimeout: cfg.ResultsWaitTimeout,
			MaxRetries:         uint64(cfg.MaxQuizRetries),
		},
	)

	w := worker.NewWorker(
		ctx,
		catalog.New(cfg.BaseURL, cfg.CategoryPath, services.Limiter),
		harvester,
		storage.NewCSVStore(cfg.OutputDir),
		services.Publisher,
		cfg.Concurrency,
		cfg.MaxQuestions,
	)

	// Run the harvest in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting question harvester")
		report, err := w.Run()
		if err == nil {
			log.Info().
				Int("records", report.Records).
				Int("already_present", report.Duplicates).
				Int("categories", len(report.Categories)).
				Msg("Harvest report")
		}
		workerDone <- err
	}()

	// Wait for shutdown signal or worker completion
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Browser   browser.Factory
	Limiter   *ratelimit.Limiter
	Mapper    *taxonomy.Mapper
	Allocator *identity.Allocator
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Cache service backs the fetch block key set on rate-limit responses
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	services.Cache = cacheService
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	services.Browser = browser.NewChromeDBFactory(browser.ChromeDBConfig{
		Addr:       cfg.ChromeDBAddr,
		CacheSvc:   cacheService,
		BlockKey:   "quizharvester_block",
		NavTimeout: cfg.PageLoadTimeout,
	})

	services.Limiter = ratelimit.NewLimiter(cfg.RequestsPerMinute)

	mapper, err := taxonomy.Load(cfg.MappingsFile, false)
	if err != nil {
		return nil, err
	}
	services.Mapper = mapper

	allocator, err := identity.NewAllocator(identity.NewFileStore(cfg.IndexFile))
	if err != nil {
		return nil, err
	}
	services.Allocator = allocator

	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}
