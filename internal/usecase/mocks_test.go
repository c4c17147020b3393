package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"time"

	"github.com/decorlens/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockImageStore is a mock implementation of domain.ImageStore
type MockImageStore struct {
	uploads      map[string][]byte
	generated    map[string][]byte
	saveError    error
	prepareError error
	hash         string
}

func NewMockImageStore() *MockImageStore {
	return &MockImageStore{
		uploads:   make(map[string][]byte),
		generated: make(map[string][]byte),
		hash:      "d41d8cd98f00b204e9800998ecf8427e",
	}
}

func (m *MockImageStore) SaveUpload(data []byte, filename string) (string, error) {
	if m.saveError != nil {
		return "", m.saveError
	}
	path := "uploads/" + filename
	m.uploads[path] = data
	return path, nil
}

func (m *MockImageStore) SaveGenerated(data []byte, prefix string) (string, error) {
	if m.saveError != nil {
		return "", m.saveError
	}
	name := prefix + "_output.png"
	m.generated[name] = data
	return name, nil
}

func (m *MockImageStore) Exists(name string) bool {
	_, ok := m.generated[name]
	return ok
}

func (m *MockImageStore) Hash(path string) (string, error) {
	if _, ok := m.uploads[path]; !ok {
		return "", errors.New("no such upload")
	}
	return m.hash, nil
}

func (m *MockImageStore) Prepare(path string, width, height int) ([]byte, error) {
	if m.prepareError != nil {
		return nil, m.prepareError
	}
	return m.uploads[path], nil
}

// MockGenerator is a mock implementation of domain.ImageGenerator
type MockGenerator struct {
	name       string
	configured bool
	output     *domain.GeneratedImage
	err        error
	calls      int
	lastInput  domain.GenerationInput
}

func NewMockGenerator(name string) *MockGenerator {
	return &MockGenerator{
		name:       name,
		configured: true,
		output:     &domain.GeneratedImage{Data: []byte("generated"), ContentType: "image/png"},
	}
}

func (m *MockGenerator) Name() string     { return m.name }
func (m *MockGenerator) Configured() bool { return m.configured }

func (m *MockGenerator) Generate(ctx context.Context, input domain.GenerationInput) (*domain.GeneratedImage, error) {
	m.calls++
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	return m.output, nil
}

// MockDetector is a mock implementation of domain.ObjectDetector
type MockDetector struct {
	detections    []domain.RawDetection
	err           error
	lastThreshold float64
}

func (m *MockDetector) Detect(ctx context.Context, image []byte, threshold float64) ([]domain.RawDetection, error) {
	m.lastThreshold = threshold
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// MockCatalogSource is a mock implementation of domain.CatalogSource
type MockCatalogSource struct {
	items []domain.CatalogItem
	err   error
}

func (m *MockCatalogSource) LoadItems(ctx context.Context) ([]domain.CatalogItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// MockVendorDirectory is a mock implementation of domain.VendorDirectory
type MockVendorDirectory struct {
	links map[string][]domain.VendorLink
}

func (m *MockVendorDirectory) Links(category string) []domain.VendorLink {
	return m.links[category]
}

// testCatalog returns a small catalog with deliberately unsorted prices
func testCatalog() []domain.CatalogItem {
	return []domain.CatalogItem{
		{ID: "sofa_003", Category: "sofa", Name: "Chesterfield Sofa", Price: 45000, Vendor: "Urban Ladder"},
		{ID: "sofa_001", Category: "sofa", Name: "Compact Loveseat", Price: 18000, Vendor: "IKEA"},
		{ID: "sofa_004", Category: "sofa", Name: "Sectional Sofa", Price: 62000, Vendor: "Pepperfry"},
		{ID: "sofa_002", Category: "sofa", Name: "Fabric 3-Seater", Price: 25000, Vendor: "Wakefit"},
		{ID: "chair_001", Category: "chair", Name: "Accent Chair", Price: 4200, Vendor: "IKEA"},
		{ID: "chair_002", Category: "chair", Name: "Dining Chair", Price: 2500, Vendor: "Amazon"},
		{ID: "bed_001", Category: "bed", Name: "Queen Bed", Price: 22000, Vendor: "Wakefit"},
	}
}

// pngBytes returns a small valid PNG image
func pngBytes() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
