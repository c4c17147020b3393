package usecase

import "strings"

const (
	defaultPromptTemplate = "photorealistic {room_type} interior redesign, {style} style, " +
		"realistic lighting, high detail, wide angle, interior design render"

	defaultNegativePrompt = "low quality, distorted, blurry, cartoon, sketch, deformed, " +
		"bad anatomy, disfigured, poorly drawn, extra limbs"
)

// PromptBuilder fills the diffusion prompt template for a room and style
type PromptBuilder struct {
	template       string
	negativePrompt string
}

// NewPromptBuilder creates a builder. Empty arguments select the built-in prompts.
// The template may reference {room_type} and {style}.
func NewPromptBuilder(template, negativePrompt string) *PromptBuilder {
	if template == "" {
		template = defaultPromptTemplate
	}
	if negativePrompt == "" {
		negativePrompt = defaultNegativePrompt
	}
	return &PromptBuilder{template: template, negativePrompt: negativePrompt}
}

// Build returns the prompt and negative prompt. Room type and style are lower-cased.
func (b *PromptBuilder) Build(roomType, style string) (prompt, negativePrompt string) {
	r := strings.NewReplacer(
		"{room_type}", strings.ToLower(strings.TrimSpace(roomType)),
		"{style}", strings.ToLower(strings.TrimSpace(style)),
	)
	return r.Replace(b.template), b.negativePrompt
}
