package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/decorlens/backend/internal/domain"
)

// HuggingFaceName is the provider name of the Hugging Face Inference API
const HuggingFaceName = "hf"

// HuggingFaceOptions configures the Hugging Face generator
type HuggingFaceOptions struct {
	APIToken          string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
	Params            DiffusionParams
}

// HuggingFaceGenerator runs image-to-image on the Hugging Face Inference API
type HuggingFaceGenerator struct {
	api     *apiClient
	baseURL string
	token   string
	model   string
	params  DiffusionParams
}

// NewHuggingFaceGenerator creates the Hugging Face generator
func NewHuggingFaceGenerator(opts HuggingFaceOptions) *HuggingFaceGenerator {
	return &HuggingFaceGenerator{
		api:     newAPIClient(HuggingFaceName, opts.Timeout, opts.RequestsPerMinute),
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.APIToken,
		model:   opts.Model,
		params:  opts.Params,
	}
}

func (g *HuggingFaceGenerator) Name() string { return HuggingFaceName }

// Configured reports whether an API token is set
func (g *HuggingFaceGenerator) Configured() bool { return g.token != "" }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt"`
	Strength          float64 `json:"strength"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
}

// Generate posts the image and prompt to the model endpoint and returns the image body
func (g *HuggingFaceGenerator) Generate(ctx context.Context, input domain.GenerationInput) (*domain.GeneratedImage, error) {
	if g.token == "" {
		return nil, fmt.Errorf("%w: hf requires DECORLENS_HF_API_TOKEN", domain.ErrMissingCredential)
	}

	body, err := json.Marshal(hfRequest{
		Inputs: base64.StdEncoding.EncodeToString(input.Image),
		Parameters: hfParameters{
			Prompt:            input.Prompt,
			NegativePrompt:    input.NegativePrompt,
			Strength:          g.params.Strength,
			GuidanceScale:     g.params.GuidanceScale,
			NumInferenceSteps: g.params.Steps,
		},
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := g.api.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read hf output: %w", err)
	}

	// A JSON body on success is an error report, not an image
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return nil, fmt.Errorf("hf API returned no image: %s", strings.TrimSpace(string(data)))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("hf API returned an empty image")
	}

	return &domain.GeneratedImage{Data: data, ContentType: detectContentType(data)}, nil
}
