package image

import (
	"context"

	"github.com/pixelloom/studio/internal/domain"
)

// Generator is the contract implemented by all image providers: one prompt
// plus reference images in, one raster out. Failures carry the provider's
// message so it can be shown to the user unchanged.
type Generator interface {
	Generate(ctx context.Context, input domain.GenerationInput) (domain.GeneratedAsset, error)
}
