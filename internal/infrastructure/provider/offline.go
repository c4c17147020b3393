package provider

import (
	"context"
	"fmt"

	"github.com/decorlens/backend/internal/domain"
	"github.com/decorlens/backend/internal/infrastructure/sidecar"
	"github.com/decorlens/backend/internal/lazy"
)

// OfflineName is the provider name of the local diffusion runtime
const OfflineName = "offline"

// OfflineGenerator runs diffusion on the local inference runtime. The model is
// loaded on first use through model.
type OfflineGenerator struct {
	runtime *sidecar.Client
	model   *lazy.Loader[*sidecar.ModelInfo]
	params  DiffusionParams
}

// NewOfflineGenerator creates the local generator
func NewOfflineGenerator(runtime *sidecar.Client, model *lazy.Loader[*sidecar.ModelInfo], params DiffusionParams) *OfflineGenerator {
	return &OfflineGenerator{runtime: runtime, model: model, params: params}
}

func (g *OfflineGenerator) Name() string { return OfflineName }

// Configured is always true; the runtime is only contacted on first use
func (g *OfflineGenerator) Configured() bool { return true }

// Generate loads the model if needed and runs image-to-image on the runtime
func (g *OfflineGenerator) Generate(ctx context.Context, input domain.GenerationInput) (*domain.GeneratedImage, error) {
	info, err := g.model.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load diffusion model %s: %w", g.params.Model, err)
	}

	data, err := g.runtime.Img2Img(ctx, input.Image, sidecar.Img2ImgRequest{
		Model:          info.Model,
		Prompt:         input.Prompt,
		NegativePrompt: input.NegativePrompt,
		Strength:       g.params.Strength,
		GuidanceScale:  g.params.GuidanceScale,
		Steps:          g.params.Steps,
		Width:          g.params.Width,
		Height:         g.params.Height,
	})
	if err != nil {
		return nil, err
	}

	return &domain.GeneratedImage{Data: data, ContentType: detectContentType(data)}, nil
}
