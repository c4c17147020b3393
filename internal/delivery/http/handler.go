package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/decorlens/backend/internal/domain"
)

// Version is reported by the root and health endpoints
const Version = "1.0.0"

// DesignService is the redesign use case the handler depends on
type DesignService interface {
	Generate(ctx context.Context, request *domain.GenerateRequest) (*domain.GenerateResponse, error)
	ProviderStatus() map[string]bool
}

// DetectionService is the detection use case the handler depends on
type DetectionService interface {
	Detect(ctx context.Context, request *domain.DetectRequest) (*domain.DetectResponse, error)
	VendorLinks(category string) domain.VendorResults
}

// RuntimeStatus exposes model and catalog state for the health endpoint
type RuntimeStatus struct {
	DetectorLoaded func() bool
	OfflineLoaded  func() bool
	CatalogItems   int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	design    DesignService
	detection DetectionService
	status    RuntimeStatus
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(design DesignService, detection DetectionService, status RuntimeStatus, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		design:    design,
		detection: detection,
		status:    status,
		logger:    logger,
	}
}

// Root reports that the service is running
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "running",
		"message": "Budget-Constrained Interior Design AI Backend",
		"version": Version,
	})
}

// HealthCheck returns provider configuration and model state
func (h *Handler) HealthCheck(c *gin.Context) {
	providers := map[string]bool{}
	if h.design != nil {
		providers = h.design.ProviderStatus()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"version":         Version,
		"providers":       providers,
		"detector_loaded": loaded(h.status.DetectorLoaded),
		"offline_loaded":  loaded(h.status.OfflineLoaded),
		"catalog_items":   h.status.CatalogItems,
	})
}

// Generate handles POST /api/generate
func (h *Handler) Generate(c *gin.Context) {
	image, filename, _, err := readImage(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	fields := make(map[string]string, 3)
	for _, name := range []string{"room_type", "style", "provider"} {
		value := strings.TrimSpace(c.PostForm(name))
		if value == "" {
			h.respondError(c, fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, name))
			return
		}
		fields[name] = value
	}

	budget, err := parseBudget(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response, err := h.design.Generate(c.Request.Context(), &domain.GenerateRequest{
		Image:    image,
		Filename: filename,
		RoomType: fields["room_type"],
		Style:    fields["style"],
		Budget:   budget,
		Provider: fields["provider"],
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Detect handles POST /vision/detect
func (h *Handler) Detect(c *gin.Context) {
	image, filename, contentType, err := readImage(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	budget, err := parseBudget(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response, err := h.detection.Detect(c.Request.Context(), &domain.DetectRequest{
		Image:       image,
		Filename:    filename,
		ContentType: contentType,
		Budget:      budget,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// VendorLinks handles GET /api/vendors/:category
func (h *Handler) VendorLinks(c *gin.Context) {
	category := strings.ToLower(strings.TrimSpace(c.Param("category")))
	c.JSON(http.StatusOK, h.detection.VendorLinks(category))
}

// respondError maps caller mistakes to 400 and everything else to 500
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if domain.IsClientError(err) {
		status = http.StatusBadRequest
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		status = http.StatusRequestEntityTooLarge
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	} else {
		h.logger.Info("Rejected request",
			zap.String("path", c.FullPath()),
			zap.String("reason", err.Error()),
		)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// readImage reads the "image" multipart file
func readImage(c *gin.Context) (data []byte, filename, contentType string, err error) {
	header, err := c.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, "", "", err
		}
		return nil, "", "", fmt.Errorf("%w: image file is required", domain.ErrInvalidRequest)
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", "", fmt.Errorf("read upload: %w", err)
	}

	return data, header.Filename, header.Header.Get("Content-Type"), nil
}

// parseBudget reads the required integer "budget" form field
func parseBudget(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.PostForm("budget"))
	if raw == "" {
		return 0, fmt.Errorf("%w: budget is required", domain.ErrInvalidRequest)
	}
	budget, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: budget must be an integer, got %q", domain.ErrInvalidRequest, raw)
	}
	return budget, nil
}

func loaded(fn func() bool) bool {
	return fn != nil && fn()
}
