package usecase

import (
	"strings"

	"github.com/decorlens/backend/internal/domain"
)

// DefaultStyleCost is the estimate used for styles missing from the table
const DefaultStyleCost int64 = 200000

// defaultStyleCosts is the flat redesign price per style, keyed in lower case
var defaultStyleCosts = map[string]int64{
	"minimalist":   150000,
	"modern":       250000,
	"vintage":      200000,
	"professional": 300000,
}

// CostEstimator estimates the cost of a redesign from its style
type CostEstimator struct {
	costs       map[string]int64
	defaultCost int64
}

// NewCostEstimator creates an estimator. An empty table selects the built-in
// style prices and a non-positive defaultCost selects DefaultStyleCost.
func NewCostEstimator(costs map[string]int64, defaultCost int64) *CostEstimator {
	if len(costs) == 0 {
		costs = defaultStyleCosts
	}
	if defaultCost <= 0 {
		defaultCost = DefaultStyleCost
	}

	normalized := make(map[string]int64, len(costs))
	for style, cost := range costs {
		normalized[normalizeStyle(style)] = cost
	}

	return &CostEstimator{
		costs:       normalized,
		defaultCost: defaultCost,
	}
}

// EstimateCost returns the flat price for a style, or the default for unknown styles
func (e *CostEstimator) EstimateCost(style string) int64 {
	if cost, ok := e.costs[normalizeStyle(style)]; ok {
		return cost
	}
	return e.defaultCost
}

// CheckBudgetStatus reports within_budget when cost <= budget
func CheckBudgetStatus(estimatedCost, budget int64) domain.BudgetStatus {
	if estimatedCost <= budget {
		return domain.BudgetWithin
	}
	return domain.BudgetOver
}

func normalizeStyle(style string) string {
	return strings.ToLower(strings.TrimSpace(style))
}
