package domain

// RawDetection is a single object reported by the detector, before the
// label has been mapped to a catalog category
type RawDetection struct {
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

// DetectRequest represents a furniture detection request
type DetectRequest struct {
	Image       []byte
	Filename    string
	ContentType string
	Budget      int64
}

// DetectResponse is returned to the client after detection and ranking
type DetectResponse struct {
	Detections        []Detection              `json:"detections"`
	Suggestions       []SuggestionGroup        `json:"suggestions"`
	OnlineSuggestions map[string]VendorResults `json:"online_suggestions"`
	RemainingBudget   int64                    `json:"remaining_budget"`
}

// VendorLink is a hand-curated shopping link for a furniture category
type VendorLink struct {
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	Snippet     string `json:"snippet" yaml:"snippet"`
	Domain      string `json:"domain" yaml:"domain"`
	PriceApprox int64  `json:"price_approx" yaml:"price_approx"`
	Vendor      string `json:"vendor" yaml:"vendor"`
}

// VendorResults wraps the vendor links returned for one category
type VendorResults struct {
	Results   []VendorLink `json:"results"`
	Cache     string       `json:"cache"`
	LatencyMS int64        `json:"latency_ms"`
}
