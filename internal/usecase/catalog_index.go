package usecase

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/decorlens/backend/internal/domain"
)

// CatalogIndex groups catalog items by category, each group sorted by
// ascending price. It is built once and read-only afterwards.
type CatalogIndex struct {
	byCategory map[string][]domain.CatalogItem
	size       int
}

// LoadCatalogIndex reads the catalog from source and indexes it.
// A failing source is logged and yields an empty catalog so startup can continue.
func LoadCatalogIndex(ctx context.Context, source domain.CatalogSource, logger *zap.Logger) *CatalogIndex {
	if logger == nil {
		logger = zap.NewNop()
	}

	items, err := source.LoadItems(ctx)
	if err != nil {
		logger.Warn("Catalog unavailable, continuing with an empty catalog", zap.Error(err))
		return NewCatalogIndex(nil, logger)
	}

	index := NewCatalogIndex(items, logger)
	logger.Info("Catalog loaded",
		zap.Int("items", index.Size()),
		zap.Strings("categories", index.Categories()),
	)
	return index
}

// NewCatalogIndex groups items by category and sorts each group by price.
// Ties keep catalog order. Items with an empty category or negative price are skipped.
func NewCatalogIndex(items []domain.CatalogItem, logger *zap.Logger) *CatalogIndex {
	if logger == nil {
		logger = zap.NewNop()
	}

	index := &CatalogIndex{byCategory: make(map[string][]domain.CatalogItem)}

	for _, item := range items {
		if item.Category == "" || item.Price < 0 {
			logger.Warn("Skipping invalid catalog item",
				zap.String("id", item.ID),
				zap.String("category", item.Category),
				zap.Int64("price", item.Price),
			)
			continue
		}
		index.byCategory[item.Category] = append(index.byCategory[item.Category], item)
		index.size++
	}

	for _, group := range index.byCategory {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Price < group[j].Price
		})
	}

	return index
}

// Cheapest returns up to n items of a category, cheapest first.
// The returned slice is a copy and never nil.
func (c *CatalogIndex) Cheapest(category string, n int) []domain.CatalogItem {
	group := c.byCategory[category]
	if n > len(group) {
		n = len(group)
	}
	if n < 0 {
		n = 0
	}

	result := make([]domain.CatalogItem, n)
	copy(result, group[:n])
	return result
}

// Size returns the number of indexed items
func (c *CatalogIndex) Size() int {
	return c.size
}

// Categories returns the indexed categories in sorted order
func (c *CatalogIndex) Categories() []string {
	categories := make([]string, 0, len(c.byCategory))
	for category := range c.byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
