package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/pixelloom/studio/internal/domain"
)

// jpegQuality is the fixed encoding quality for every raster this package
// produces. Lossy output is intentional: it trades fidelity for a predictable
// upload payload size.
const jpegQuality = 95

// decode turns an encoded byte stream into a bitmap. PNG and JPEG are the
// interchange formats; anything else is a load error.
func decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	return img, format, nil
}

// DecodeConfig reports the dimensions of an encoded image without a full decode.
func DecodeConfig(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("imaging: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeDataURI wraps encoded image bytes in a data URI.
func EncodeDataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI splits a data URI back into its MIME type and raw bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("imaging: not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("imaging: malformed data uri")
	}
	mime, encoded := meta, false
	if trimmed, found := strings.CutSuffix(meta, ";base64"); found {
		mime, encoded = trimmed, true
	}
	if !encoded {
		return mime, []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("imaging: decode data uri payload: %w", err)
	}
	return mime, data, nil
}
