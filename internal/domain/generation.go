package domain

// SourceImage is an uploaded raster used as conditioning input for generation.
// The bytes are a self-describing encoded stream; MIME records the container.
type SourceImage struct {
	Name string
	MIME string
	Data []byte
}

// GenerationInput is a single unit of generation work: the assembled prompt
// text plus the reference images the provider should condition on.
type GenerationInput struct {
	Prompt      string
	AspectRatio string
	Locale      string
	Sources     []SourceImage
}

// GeneratedAsset is a raster returned by a generation provider. Ownership
// passes to the caller once returned; nothing in this package retains it.
type GeneratedAsset struct {
	MIME   string
	Width  int
	Height int
	Data   []byte
}
