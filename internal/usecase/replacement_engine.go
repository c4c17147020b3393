package usecase

import "github.com/decorlens/backend/internal/domain"

// DefaultMaxPerCategory is the number of alternatives offered per detection
const DefaultMaxPerCategory = 3

// ReplacementEngine suggests cheaper catalog replacements for detected furniture
type ReplacementEngine struct {
	catalog        *CatalogIndex
	maxPerCategory int
}

// NewReplacementEngine creates an engine over an indexed catalog.
// A non-positive maxPerCategory selects DefaultMaxPerCategory.
func NewReplacementEngine(catalog *CatalogIndex, maxPerCategory int) *ReplacementEngine {
	if maxPerCategory <= 0 {
		maxPerCategory = DefaultMaxPerCategory
	}
	if catalog == nil {
		catalog = NewCatalogIndex(nil, nil)
	}

	return &ReplacementEngine{
		catalog:        catalog,
		maxPerCategory: maxPerCategory,
	}
}

// Suggest ranks alternatives with the engine's configured maximum per category
func (e *ReplacementEngine) Suggest(detections []domain.Detection, budget int64) ([]domain.SuggestionGroup, int64) {
	return e.SuggestN(detections, budget, e.maxPerCategory)
}

// SuggestN returns one suggestion group per detection, in input order, and
// the budget left after buying the cheapest alternative for each detection.
// Duplicate detections produce independent groups. A detection whose
// category has no catalog items gets no alternatives and costs nothing.
// The remaining budget may be negative.
func (e *ReplacementEngine) SuggestN(detections []domain.Detection, budget int64, maxPerCategory int) ([]domain.SuggestionGroup, int64) {
	if maxPerCategory <= 0 {
		maxPerCategory = DefaultMaxPerCategory
	}

	groups := make([]domain.SuggestionGroup, 0, len(detections))
	var totalCost int64

	for _, detection := range detections {
		alternatives := e.catalog.Cheapest(detection.Category, maxPerCategory)
		if len(alternatives) > 0 {
			totalCost += alternatives[0].Price
		}

		groups = append(groups, domain.SuggestionGroup{
			Detection:    detection,
			Alternatives: alternatives,
		})
	}

	return groups, budget - totalCost
}
