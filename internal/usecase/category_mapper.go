package usecase

import "github.com/decorlens/backend/internal/domain"

// defaultLabelCategories maps detector labels (COCO vocabulary) to catalog
// categories. Labels missing from the table are not tracked furniture.
var defaultLabelCategories = map[string]string{
	"couch":        domain.CategorySofa,
	"dining table": domain.CategoryTable,
	"chair":        domain.CategoryChair,
	"bed":          domain.CategoryBed,
	"tv":           domain.CategoryTV,
}

// CategoryMapper translates raw detector labels into catalog categories
type CategoryMapper struct {
	table map[string]string
}

// NewCategoryMapper creates a mapper from a label -> category table.
// An empty table selects the built-in furniture mapping.
func NewCategoryMapper(table map[string]string) *CategoryMapper {
	if len(table) == 0 {
		table = defaultLabelCategories
	}

	// Copy so later changes to the caller's map can't leak in
	copied := make(map[string]string, len(table))
	for label, category := range table {
		copied[label] = category
	}

	return &CategoryMapper{table: copied}
}

// Map returns the catalog category for a detector label.
// ok is false when the label is not a tracked furniture category.
func (m *CategoryMapper) Map(label string) (category string, ok bool) {
	category, ok = m.table[label]
	return category, ok
}
