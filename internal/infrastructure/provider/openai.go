package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/decorlens/backend/internal/domain"
)

// OpenAIName is the provider name of the OpenAI image edit API
const OpenAIName = "openai"

// OpenAIOptions configures the OpenAI generator
type OpenAIOptions struct {
	APIKey            string
	BaseURL           string
	Model             string
	Size              string
	RequestsPerMinute int
	Params            DiffusionParams
}

// OpenAIGenerator redesigns rooms with the image edit endpoint
type OpenAIGenerator struct {
	client  *openai.Client
	apiKey  string
	model   string
	size    string
	params  DiffusionParams
	limiter *rate.Limiter
}

// NewOpenAIGenerator creates the OpenAI generator
func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientCfg.BaseURL = opts.BaseURL
	}

	size := opts.Size
	if size == "" {
		size = openai.CreateImageSize512x512
	}

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(clientCfg),
		apiKey:  opts.APIKey,
		model:   opts.Model,
		size:    size,
		params:  opts.Params,
		limiter: newLimiter(opts.RequestsPerMinute),
	}
}

func (g *OpenAIGenerator) Name() string { return OpenAIName }

// Configured reports whether an API key is set
func (g *OpenAIGenerator) Configured() bool { return g.apiKey != "" }

// Generate sends the photo with a fully transparent mask so the whole frame
// may be repainted, and decodes the base64 result.
func (g *OpenAIGenerator) Generate(ctx context.Context, input domain.GenerationInput) (*domain.GeneratedImage, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: openai requires DECORLENS_OPENAI_API_KEY", domain.ErrMissingCredential)
	}

	imageFile, err := tempFile("room-*.png", input.Image)
	if err != nil {
		return nil, err
	}
	defer os.Remove(imageFile.Name())
	defer imageFile.Close()

	maskFile, err := transparentMask(g.params.Width, g.params.Height)
	if err != nil {
		return nil, err
	}
	defer os.Remove(maskFile.Name())
	defer maskFile.Close()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := g.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          imageFile,
		Mask:           maskFile,
		Prompt:         input.Prompt,
		Model:          g.model,
		N:              1,
		Size:           g.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai API returned no image")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode openai image: %w", err)
	}
	return &domain.GeneratedImage{Data: data, ContentType: detectContentType(data)}, nil
}

// parseAPIError keeps the status code and message of API failures
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	return fmt.Errorf("openai request failed: %w", err)
}

// tempFile writes data to a new temporary file and rewinds it for reading
func tempFile(pattern string, data []byte) (*os.File, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return f, nil
}

// transparentMask returns a fully transparent PNG so the edit may repaint
// every pixel
func transparentMask(width, height int) (*os.File, error) {
	if width <= 0 || height <= 0 {
		width, height = 512, 512
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(width, height, color.Transparent), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode mask: %w", err)
	}
	return tempFile("mask-*.png", buf.Bytes())
}
