package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/decorlens/backend/internal/domain"
)

// ReplicateName is the provider name of the Replicate API
const ReplicateName = "replicate"

const replicatePollInterval = time.Second

// ReplicateOptions configures the Replicate generator
type ReplicateOptions struct {
	APIToken          string
	BaseURL           string
	ModelVersion      string
	Timeout           time.Duration
	RequestsPerMinute int
	Params            DiffusionParams
}

// ReplicateGenerator runs img2img predictions on Replicate
type ReplicateGenerator struct {
	api          *apiClient
	baseURL      string
	token        string
	modelVersion string
	params       DiffusionParams
	pollInterval time.Duration
}

// NewReplicateGenerator creates the Replicate generator
func NewReplicateGenerator(opts ReplicateOptions) *ReplicateGenerator {
	return &ReplicateGenerator{
		api:          newAPIClient(ReplicateName, opts.Timeout, opts.RequestsPerMinute),
		baseURL:      strings.TrimSuffix(opts.BaseURL, "/"),
		token:        opts.APIToken,
		modelVersion: opts.ModelVersion,
		params:       opts.Params,
		pollInterval: replicatePollInterval,
	}
}

func (g *ReplicateGenerator) Name() string { return ReplicateName }

// Configured reports whether an API token is set
func (g *ReplicateGenerator) Configured() bool { return g.token != "" }

type replicateInput struct {
	Image             string  `json:"image"`
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt"`
	PromptStrength    float64 `json:"prompt_strength"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// Generate creates a prediction, waits for it to finish and downloads the output
func (g *ReplicateGenerator) Generate(ctx context.Context, input domain.GenerationInput) (*domain.GeneratedImage, error) {
	if g.token == "" {
		return nil, fmt.Errorf("%w: replicate requires DECORLENS_REPLICATE_API_TOKEN", domain.ErrMissingCredential)
	}

	body, err := json.Marshal(map[string]interface{}{
		"version": g.modelVersion,
		"input": replicateInput{
			Image:             dataURI(input.Image),
			Prompt:            input.Prompt,
			NegativePrompt:    input.NegativePrompt,
			PromptStrength:    g.params.Strength,
			NumInferenceSteps: g.params.Steps,
			GuidanceScale:     g.params.GuidanceScale,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")
	g.authorize(req)

	resp, err := g.api.do(ctx, req)
	if err != nil {
		return nil, err
	}
	prediction, err := decodePrediction(resp)
	if err != nil {
		return nil, err
	}

	prediction, err = g.wait(ctx, prediction)
	if err != nil {
		return nil, err
	}

	outputURL, err := firstOutput(prediction.Output)
	if err != nil {
		return nil, fmt.Errorf("replicate prediction %s: %w", prediction.ID, err)
	}

	data, contentType, err := g.api.download(ctx, outputURL, nil)
	if err != nil {
		return nil, err
	}
	return &domain.GeneratedImage{Data: data, ContentType: contentType}, nil
}

// wait polls a prediction that is still running until it reaches a final state
func (g *ReplicateGenerator) wait(ctx context.Context, prediction *replicatePrediction) (*replicatePrediction, error) {
	for prediction.Status == "starting" || prediction.Status == "processing" {
		if prediction.URLs.Get == "" {
			return nil, fmt.Errorf("replicate prediction %s is %s and has no status URL", prediction.ID, prediction.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, prediction.URLs.Get, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		g.authorize(req)

		resp, err := g.api.send(req)
		if err != nil {
			return nil, err
		}
		if prediction, err = decodePrediction(resp); err != nil {
			return nil, err
		}
	}

	if prediction.Status != "succeeded" {
		return nil, fmt.Errorf("replicate prediction %s %s: %s",
			prediction.ID, prediction.Status, rawMessageText(prediction.Error))
	}
	return prediction, nil
}

func (g *ReplicateGenerator) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.token)
}

func decodePrediction(resp *http.Response) (*replicatePrediction, error) {
	defer resp.Body.Close()

	var prediction replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &prediction, nil
}

// firstOutput extracts the output URL. Models return either a single URL or a list.
func firstOutput(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], nil
	}

	return "", fmt.Errorf("no output image in prediction")
}

func rawMessageText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if len(raw) == 0 || string(raw) == "null" {
		return "unknown error"
	}
	return string(raw)
}
