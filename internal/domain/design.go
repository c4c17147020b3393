package domain

// GenerateRequest represents a redesign request coming from the upload form
type GenerateRequest struct {
	Image    []byte
	Filename string
	RoomType string
	Style    string
	Budget   int64
	Provider string
}

// GenerateResponse is returned to the client after a redesign completes
type GenerateResponse struct {
	ImageURL      string       `json:"image_url"`
	ProviderUsed  string       `json:"provider_used"`
	EstimatedCost int64        `json:"estimated_cost"`
	Budget        int64        `json:"budget"`
	Status        BudgetStatus `json:"status"`
	TimeTakenSec  float64      `json:"time_taken_sec"`
	TotalTimeSec  float64      `json:"total_time_sec"`
	Cached        bool         `json:"cached"`
}

// GenerationInput is what an image generator receives.
// Image is the prepared (resized, PNG-encoded) room photo.
type GenerationInput struct {
	Image          []byte
	RoomType       string
	Style          string
	Prompt         string
	NegativePrompt string
}

// GeneratedImage is the raw output of an image generator
type GeneratedImage struct {
	Data        []byte
	ContentType string
}
