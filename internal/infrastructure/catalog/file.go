package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/decorlens/backend/internal/domain"
)

// FileSource reads the catalog from a JSON array file
type FileSource struct {
	path string
}

// NewFileSource creates a catalog source backed by the JSON file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// LoadItems reads and decodes every catalog item in file order
func (s *FileSource) LoadItems(ctx context.Context) ([]domain.CatalogItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var items []domain.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", s.path, err)
	}
	return items, nil
}
