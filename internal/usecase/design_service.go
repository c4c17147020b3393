package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/decorlens/backend/internal/domain"
	"github.com/decorlens/backend/internal/metrics"
)

// DesignServiceConfig holds configuration for the design service
type DesignServiceConfig struct {
	PublicBaseURL  string
	ImageWidth     int
	ImageHeight    int
	CacheTTL       time.Duration
	StyleCosts     map[string]int64
	DefaultCost    int64
	PromptTemplate string
	NegativePrompt string
}

// DesignService turns an uploaded room photo into a redesigned image.
// Flow: validate -> save upload -> estimate cost -> check cache -> generate -> save -> cache -> respond
type DesignService struct {
	generators    map[string]domain.ImageGenerator
	store         domain.ImageStore
	cache         domain.CacheRepository
	estimator     *CostEstimator
	prompts       *PromptBuilder
	publicBaseURL string
	imageWidth    int
	imageHeight   int
	cacheTTL      time.Duration
	logger        *zap.Logger
}

// NewDesignService creates a design service. cache may be nil to disable
// generation result caching.
func NewDesignService(
	generators []domain.ImageGenerator,
	store domain.ImageStore,
	cache domain.CacheRepository,
	config DesignServiceConfig,
	logger *zap.Logger,
) *DesignService {
	if logger == nil {
		logger = zap.NewNop()
	}

	byName := make(map[string]domain.ImageGenerator, len(generators))
	for _, g := range generators {
		byName[g.Name()] = g
	}

	width, height := config.ImageWidth, config.ImageHeight
	if width <= 0 {
		width = 512
	}
	if height <= 0 {
		height = 512
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &DesignService{
		generators:    byName,
		store:         store,
		cache:         cache,
		estimator:     NewCostEstimator(config.StyleCosts, config.DefaultCost),
		prompts:       NewPromptBuilder(config.PromptTemplate, config.NegativePrompt),
		publicBaseURL: strings.TrimSuffix(config.PublicBaseURL, "/"),
		imageWidth:    width,
		imageHeight:   height,
		cacheTTL:      cacheTTL,
		logger:        logger,
	}
}

// Providers returns the registered generator names in sorted order
func (s *DesignService) Providers() []string {
	names := make([]string, 0, len(s.generators))
	for name := range s.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderStatus reports whether each registered generator is configured
func (s *DesignService) ProviderStatus() map[string]bool {
	status := make(map[string]bool, len(s.generators))
	for name, g := range s.generators {
		status[name] = g.Configured()
	}
	return status
}

// Generate produces a redesigned image for the request.
// Caller mistakes are reported with a client error; anything else wraps
// ErrStorageFailure or ErrProviderFailure.
func (s *DesignService) Generate(ctx context.Context, request *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	start := time.Now()

	if request == nil {
		return nil, domain.ErrInvalidRequest
	}

	generator, ok := s.generators[request.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q. Must be one of: %s",
			domain.ErrInvalidProvider, request.Provider, strings.Join(s.Providers(), ", "))
	}

	if len(request.Image) == 0 {
		return nil, fmt.Errorf("%w: empty image file", domain.ErrInvalidImage)
	}

	if strings.TrimSpace(request.RoomType) == "" || strings.TrimSpace(request.Style) == "" {
		return nil, fmt.Errorf("%w: room_type and style are required", domain.ErrInvalidRequest)
	}

	s.logger.Info("New generation request",
		zap.String("provider", request.Provider),
		zap.String("room_type", request.RoomType),
		zap.String("style", request.Style),
		zap.Int64("budget", request.Budget),
	)

	filename := request.Filename
	if filename == "" {
		filename = "upload.jpg"
	}
	uploadPath, err := s.store.SaveUpload(request.Image, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	estimatedCost := s.estimator.EstimateCost(request.Style)
	status := CheckBudgetStatus(estimatedCost, request.Budget)
	s.logger.Info("Estimated cost",
		zap.Int64("estimated_cost", estimatedCost),
		zap.Int64("budget", request.Budget),
		zap.String("status", string(status)),
	)

	response := &domain.GenerateResponse{
		ProviderUsed:  request.Provider,
		EstimatedCost: estimatedCost,
		Budget:        request.Budget,
		Status:        status,
	}

	// Try cache first
	cacheKey := ""
	if s.cache != nil {
		cacheKey, err = s.generationCacheKey(uploadPath, request)
		if err != nil {
			s.logger.Warn("Could not compute generation cache key", zap.Error(err))
			cacheKey = ""
		} else if name, err := s.getFromCache(ctx, cacheKey); err == nil {
			s.logger.Info("Generation cache hit", zap.String("image", name))
			response.ImageURL = s.imageURL(name)
			response.Cached = true
			response.TotalTimeSec = roundSeconds(time.Since(start))
			return response, nil
		}
	}

	prepared, err := s.store.Prepare(uploadPath, s.imageWidth, s.imageHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	prompt, negativePrompt := s.prompts.Build(request.RoomType, request.Style)
	s.logger.Debug("Prompt built", zap.String("prompt", prompt))

	generationStart := time.Now()
	output, err := generator.Generate(ctx, domain.GenerationInput{
		Image:          prepared,
		RoomType:       request.RoomType,
		Style:          request.Style,
		Prompt:         prompt,
		NegativePrompt: negativePrompt,
	})
	elapsed := time.Since(generationStart)
	metrics.ObserveGeneration(request.Provider, elapsed, err)

	if err != nil {
		if domain.IsClientError(err) {
			s.logger.Error("Provider error", zap.String("provider", request.Provider), zap.Error(err))
			return nil, err
		}
		s.logger.Error("Generation failed", zap.String("provider", request.Provider), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	name, err := s.store.SaveGenerated(output.Data, request.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, name, s.cacheTTL); err != nil {
			// Caching is best effort
			s.logger.Warn("Failed to cache generation result", zap.Error(err))
		}
	}

	response.ImageURL = s.imageURL(name)
	response.TimeTakenSec = roundSeconds(elapsed)
	response.TotalTimeSec = roundSeconds(time.Since(start))

	s.logger.Info("Generation complete",
		zap.String("image", name),
		zap.Duration("generation_time", elapsed),
		zap.Duration("total_time", time.Since(start)),
	)

	return response, nil
}

// generationCacheKey builds "generation:{image_md5}_{style}_{room_type}_{provider}"
func (s *DesignService) generationCacheKey(uploadPath string, request *domain.GenerateRequest) (string, error) {
	hash, err := s.store.Hash(uploadPath)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("generation:%s_%s_%s_%s",
		hash, normalizeStyle(request.Style), normalizeStyle(request.RoomType), request.Provider), nil
}

// getFromCache returns a cached generated image name whose file still exists
func (s *DesignService) getFromCache(ctx context.Context, key string) (string, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("Generation cache lookup failed", zap.Error(err))
		}
		return "", domain.ErrCacheMiss
	}

	name, ok := value.(string)
	if !ok || name == "" || !s.store.Exists(name) {
		return "", domain.ErrCacheMiss
	}
	return name, nil
}

func (s *DesignService) imageURL(name string) string {
	return fmt.Sprintf("%s/generated/%s", s.publicBaseURL, name)
}

// roundSeconds converts d to seconds rounded to two decimals
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
