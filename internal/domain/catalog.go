package domain

// Furniture categories tracked by the catalog
const (
	CategorySofa  = "sofa"
	CategoryBed   = "bed"
	CategoryTable = "table"
	CategoryChair = "chair"
	CategoryTV    = "tv"
)

// CatalogItem represents a single purchasable piece of furniture.
// Price is expressed in the smallest currency unit.
type CatalogItem struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Vendor     string `json:"vendor"`
	VendorLink string `json:"vendor_link,omitempty"`
}

// Detection represents one furniture object found in a room photo
type Detection struct {
	Label      string     `json:"label"`    // raw detector vocabulary, e.g. "couch"
	Category   string     `json:"category"` // catalog vocabulary, e.g. "sofa"
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"` // [x1, y1, x2, y2]
}

// SuggestionGroup holds the cheapest catalog alternatives for one detection
type SuggestionGroup struct {
	Detection    Detection     `json:"detection"`
	Alternatives []CatalogItem `json:"alternatives"`
}

// BudgetStatus reports whether an estimated cost fits inside a budget
type BudgetStatus string

const (
	BudgetWithin BudgetStatus = "within_budget"
	BudgetOver   BudgetStatus = "over_budget"
)
