// Package zip packages generated outputs for download: one entry per
// completed job, named by job id with an extension derived from the MIME type.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets flattens the assets into a single zip archive.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(ensureExtension(asset.Filename, asset.MIME))
		if err != nil {
			return nil, fmt.Errorf("zip: create entry %q: %w", asset.Filename, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write entry %q: %w", asset.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func ensureExtension(name, mime string) string {
	expected := ExtensionForMIME(mime)
	if expected == "" {
		return name
	}
	if strings.HasSuffix(strings.ToLower(name), expected) {
		return name
	}
	return name + expected
}

// ExtensionForMIME maps the interchange MIME types to file extensions.
func ExtensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
