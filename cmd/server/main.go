package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/decorlens/backend/config"
	httpDelivery "github.com/decorlens/backend/internal/delivery/http"
	"github.com/decorlens/backend/internal/domain"
	"github.com/decorlens/backend/internal/infrastructure/cache"
	"github.com/decorlens/backend/internal/infrastructure/catalog"
	"github.com/decorlens/backend/internal/infrastructure/detector"
	"github.com/decorlens/backend/internal/infrastructure/provider"
	"github.com/decorlens/backend/internal/infrastructure/sidecar"
	"github.com/decorlens/backend/internal/infrastructure/storage"
	"github.com/decorlens/backend/internal/infrastructure/vendors"
	"github.com/decorlens/backend/internal/lazy"
	logpkg "github.com/decorlens/backend/internal/logger"
	"github.com/decorlens/backend/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logpkg.New(cfg.Server.Environment, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting DecorLens backend",
		zap.String("version", httpDelivery.Version),
		zap.String("env", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	ctx := context.Background()

	store, err := storage.NewLocalStore(cfg.Storage.UploadsDir, cfg.Storage.GeneratedDir)
	if err != nil {
		logger.Error("Failed to prepare storage directories", zap.Error(err))
		exitCode = 1
		return
	}

	// Catalog
	var source domain.CatalogSource
	switch cfg.Catalog.Source {
	case "postgres":
		pg, err := catalog.OpenPostgres(ctx, cfg.Catalog.PostgresDSN, logger)
		if err != nil {
			logger.Error("Failed to connect to catalog database", zap.Error(err))
			exitCode = 1
			return
		}
		defer pg.Close()
		source = pg
	default:
		source = catalog.NewFileSource(cfg.Catalog.Path)
	}
	catalogIndex := usecase.LoadCatalogIndex(ctx, source, logger)

	// Inference runtime. Models load on first use.
	offlineRuntime := sidecar.NewClient(cfg.Offline.BaseURL, cfg.Offline.Timeout)
	offlineModel := lazy.New(func(ctx context.Context) (*sidecar.ModelInfo, error) {
		logger.Info("Loading diffusion model", zap.String("model", cfg.Diffusion.Model))
		return offlineRuntime.LoadModel(ctx, cfg.Diffusion.Model, sidecar.TaskImg2Img)
	})

	detectorRuntime := sidecar.NewClient(cfg.Detector.BaseURL, cfg.Detector.Timeout)
	detectorModel := lazy.New(func(ctx context.Context) (*sidecar.ModelInfo, error) {
		logger.Info("Loading detection model", zap.String("model", cfg.Detector.Model))
		return detectorRuntime.LoadModel(ctx, cfg.Detector.Model, sidecar.TaskDetect)
	})
	furnitureDetector := detector.New(detectorRuntime, detectorModel)

	// Generators
	params := provider.DiffusionParams{
		Model:         cfg.Diffusion.Model,
		Width:         cfg.Diffusion.Width,
		Height:        cfg.Diffusion.Height,
		Steps:         cfg.Diffusion.Steps,
		GuidanceScale: cfg.Diffusion.GuidanceScale,
		Strength:      cfg.Diffusion.Strength,
	}
	generators := []domain.ImageGenerator{
		provider.NewOfflineGenerator(offlineRuntime, offlineModel, params),
		provider.NewReplicateGenerator(provider.ReplicateOptions{
			APIToken:          cfg.Replicate.APIToken,
			BaseURL:           cfg.Replicate.BaseURL,
			ModelVersion:      cfg.Replicate.ModelVersion,
			Timeout:           cfg.Replicate.Timeout,
			RequestsPerMinute: cfg.RateLimit.Provider,
			Params:            params,
		}),
		provider.NewHuggingFaceGenerator(provider.HuggingFaceOptions{
			APIToken:          cfg.HuggingFace.APIToken,
			BaseURL:           cfg.HuggingFace.BaseURL,
			Model:             cfg.HuggingFace.Model,
			Timeout:           cfg.HuggingFace.Timeout,
			RequestsPerMinute: cfg.RateLimit.Provider,
			Params:            params,
		}),
		provider.NewOpenAIGenerator(provider.OpenAIOptions{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			Model:             cfg.OpenAI.Model,
			Size:              cfg.OpenAI.Size,
			RequestsPerMinute: cfg.RateLimit.Provider,
			Params:            params,
		}),
	}
	for _, g := range generators {
		if !g.Configured() {
			logger.Warn("Provider not configured, requests for it will be rejected", zap.String("provider", g.Name()))
		}
	}

	// Cache. A nil interface disables generation caching.
	var generationCache domain.CacheRepository
	if cfg.Cache.Enabled {
		switch cfg.Cache.Type {
		case "redis":
			redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
			if err != nil {
				logger.Error("Failed to connect to Redis", zap.Error(err))
				exitCode = 1
				return
			}
			defer redisCache.Close()
			generationCache = redisCache
		default:
			memoryCache := cache.NewMemoryCache(0)
			defer memoryCache.Close()
			generationCache = memoryCache
		}
		logger.Info("Generation cache enabled",
			zap.String("type", cfg.Cache.Type),
			zap.Duration("ttl", cfg.Cache.TTL),
		)
	}

	vendorDirectory, err := vendors.Load(cfg.Vendors.Path)
	if err != nil {
		logger.Error("Failed to load vendor directory", zap.Error(err))
		exitCode = 1
		return
	}

	// Use cases
	designService := usecase.NewDesignService(generators, store, generationCache, usecase.DesignServiceConfig{
		PublicBaseURL:  cfg.Server.PublicBaseURL,
		ImageWidth:     cfg.Diffusion.Width,
		ImageHeight:    cfg.Diffusion.Height,
		CacheTTL:       cfg.Cache.TTL,
		StyleCosts:     cfg.Budget.StyleCosts,
		DefaultCost:    cfg.Budget.DefaultCost,
		PromptTemplate: cfg.Diffusion.PromptTemplate,
		NegativePrompt: cfg.Diffusion.NegativePrompt,
	}, logger)

	detectionService := usecase.NewDetectionService(
		furnitureDetector,
		store,
		usecase.NewCategoryMapper(cfg.Detector.Labels),
		usecase.NewReplacementEngine(catalogIndex, cfg.Catalog.MaxPerCategory),
		vendorDirectory,
		usecase.DetectionServiceConfig{ConfidenceThreshold: cfg.Detector.ConfidenceThreshold},
		logger,
	)

	logger.Info("Services ready",
		zap.Strings("providers", designService.Providers()),
		zap.Int("catalog_items", catalogIndex.Size()),
		zap.Strings("vendor_categories", vendorDirectory.Categories()),
	)

	handler := httpDelivery.NewHandler(designService, detectionService, httpDelivery.RuntimeStatus{
		DetectorLoaded: furnitureDetector.Loaded,
		OfflineLoaded:  offlineModel.Loaded,
		CatalogItems:   catalogIndex.Size(),
	}, logger)
	router := httpDelivery.SetupRouter(cfg, handler, store.GeneratedDir(), logger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server listening", zap.String("addr", addr))
	if err := serve(srv, quit, shutdownTimeout, logger); err != nil {
		logger.Error("HTTP server error", zap.Error(err))
		exitCode = 1
		return
	}

	logger.Info("Server stopped gracefully")
}

// serve runs srv until it fails or a signal arrives on quit, then shuts it
// down within timeout
func serve(srv *http.Server, quit <-chan os.Signal, timeout time.Duration, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		logger.Info("Received shutdown signal", zap.Stringer("signal", sig))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
