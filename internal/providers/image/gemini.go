package image

import (
	"context"

	"github.com/google/uuid"

	"github.com/pixelloom/studio/internal/domain"
	"github.com/pixelloom/studio/internal/providers/genai"
)

// GeminiGenerator adapts the genai client to the provider-neutral contract.
type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, input domain.GenerationInput) (domain.GeneratedAsset, error) {
	images := make([]genai.InputImage, 0, len(input.Sources))
	for _, src := range input.Sources {
		images = append(images, genai.InputImage{MIME: src.MIME, Data: src.Data})
	}
	asset, err := g.client.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      input.Prompt,
		AspectRatio: input.AspectRatio,
		Locale:      input.Locale,
		RequestID:   uuid.NewString(),
		Images:      images,
	})
	if err != nil {
		return domain.GeneratedAsset{}, err
	}
	return domain.GeneratedAsset{
		MIME:   asset.Format,
		Width:  asset.Width,
		Height: asset.Height,
		Data:   asset.Data,
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)
