package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/decorlens/backend/config"
	"github.com/decorlens/backend/internal/metrics"
)

// SetupRouter creates and configures the Gin router.
// generatedDir is served under /generated.
func SetupRouter(cfg *config.Config, handler *Handler, generatedDir string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	maxUpload := int64(cfg.Server.MaxUploadMB) << 20
	router.MaxMultipartMemory = maxUpload

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(metrics.Middleware())

	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/generated", generatedDir)

	uploads := router.Group("/")
	uploads.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	uploads.Use(BodyLimitMiddleware(maxUpload))
	{
		uploads.POST("/api/generate", handler.Generate)
		uploads.POST("/vision/detect", handler.Detect)
	}

	router.GET("/api/vendors/:category", handler.VendorLinks)

	return router
}
