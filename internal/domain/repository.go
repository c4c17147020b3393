package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogSource reads the furniture catalog from its persisted store
type CatalogSource interface {
	LoadItems(ctx context.Context) ([]CatalogItem, error)
}

// ImageGenerator redesigns a room photo with a diffusion model
type ImageGenerator interface {
	Name() string
	// Configured reports whether the generator has everything it needs to run
	Configured() bool
	Generate(ctx context.Context, input GenerationInput) (*GeneratedImage, error)
}

// ObjectDetector finds objects in an image. It returns an empty slice when
// nothing clears the confidence threshold.
type ObjectDetector interface {
	Detect(ctx context.Context, image []byte, threshold float64) ([]RawDetection, error)
}

// ImageStore persists uploads and generated images
type ImageStore interface {
	SaveUpload(data []byte, filename string) (string, error)
	SaveGenerated(data []byte, prefix string) (string, error)
	Exists(name string) bool
	Hash(path string) (string, error)
	Prepare(path string, width, height int) ([]byte, error)
}

// VendorDirectory returns static vendor links per furniture category
type VendorDirectory interface {
	Links(category string) []VendorLink
}
