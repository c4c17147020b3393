package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/decorlens/backend/internal/domain"
	"github.com/decorlens/backend/internal/metrics"
)

// vendorCacheStatus marks vendor results as served from the built-in directory
const vendorCacheStatus = "static"

// DetectionServiceConfig holds configuration for the detection service
type DetectionServiceConfig struct {
	ConfidenceThreshold float64
}

// DetectionService finds furniture in a room photo and suggests replacements.
// Flow: validate -> save upload -> detect -> map labels -> rank -> vendor links
type DetectionService struct {
	detector  domain.ObjectDetector
	store     domain.ImageStore
	mapper    *CategoryMapper
	engine    *ReplacementEngine
	vendors   domain.VendorDirectory
	threshold float64
	logger    *zap.Logger
}

// NewDetectionService creates a detection service with dependencies
func NewDetectionService(
	detector domain.ObjectDetector,
	store domain.ImageStore,
	mapper *CategoryMapper,
	engine *ReplacementEngine,
	vendors domain.VendorDirectory,
	config DetectionServiceConfig,
	logger *zap.Logger,
) *DetectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mapper == nil {
		mapper = NewCategoryMapper(nil)
	}

	return &DetectionService{
		detector:  detector,
		store:     store,
		mapper:    mapper,
		engine:    engine,
		vendors:   vendors,
		threshold: config.ConfidenceThreshold,
		logger:    logger,
	}
}

// Detect runs furniture detection on the uploaded photo and ranks cheaper
// replacements against the budget.
func (s *DetectionService) Detect(ctx context.Context, request *domain.DetectRequest) (*domain.DetectResponse, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}

	if !isImage(request) {
		return nil, fmt.Errorf("%w: file must be an image", domain.ErrInvalidImage)
	}

	s.logger.Info("Furniture detection request", zap.Int64("budget", request.Budget))

	uploadPath, err := s.store.SaveUpload(request.Image, request.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	s.logger.Debug("Saved upload", zap.String("path", uploadPath))

	raw, err := s.detector.Detect(ctx, request.Image, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDetectorFailure, err)
	}

	detections := s.mapDetections(raw)
	suggestions, remaining := s.engine.Suggest(detections, request.Budget)

	online := make(map[string]domain.VendorResults)
	for _, detection := range detections {
		if _, seen := online[detection.Category]; seen {
			continue
		}
		online[detection.Category] = s.VendorLinks(detection.Category)
	}

	s.logger.Info("Detection complete",
		zap.Int("raw_objects", len(raw)),
		zap.Int("furniture", len(detections)),
		zap.Int("suggestions", len(suggestions)),
		zap.Int64("remaining_budget", remaining),
	)

	return &domain.DetectResponse{
		Detections:        detections,
		Suggestions:       suggestions,
		OnlineSuggestions: online,
		RemainingBudget:   remaining,
	}, nil
}

// VendorLinks returns the static vendor links for a category
func (s *DetectionService) VendorLinks(category string) domain.VendorResults {
	var links []domain.VendorLink
	if s.vendors != nil {
		links = s.vendors.Links(category)
	}
	if links == nil {
		links = []domain.VendorLink{}
	}

	return domain.VendorResults{
		Results:   links,
		Cache:     vendorCacheStatus,
		LatencyMS: 0,
	}
}

// mapDetections keeps tracked furniture that clears the threshold and
// attaches its catalog category. Input order is preserved.
func (s *DetectionService) mapDetections(raw []domain.RawDetection) []domain.Detection {
	detections := make([]domain.Detection, 0, len(raw))
	for _, r := range raw {
		if r.Confidence < s.threshold {
			continue
		}
		category, ok := s.mapper.Map(r.Label)
		if !ok {
			continue
		}
		metrics.CountDetection(category)
		detections = append(detections, domain.Detection{
			Label:      r.Label,
			Category:   category,
			Confidence: r.Confidence,
			BBox:       r.BBox,
		})
	}
	return detections
}

// isImage checks the declared content type (when present) and the sniffed
// content of the upload.
func isImage(request *domain.DetectRequest) bool {
	if len(request.Image) == 0 {
		return false
	}
	if request.ContentType != "" && !strings.HasPrefix(request.ContentType, "image/") {
		return false
	}
	return strings.HasPrefix(mimetype.Detect(request.Image).String(), "image/")
}
