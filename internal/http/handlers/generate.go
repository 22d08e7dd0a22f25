package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pixelloom/studio/internal/domain"
	"github.com/pixelloom/studio/internal/imaging"
	"github.com/pixelloom/studio/internal/middleware"
	"github.com/pixelloom/studio/pkg/zip"
)

type sourceImagePayload struct {
	Name    string `json:"name,omitempty"`
	MIME    string `json:"mime,omitempty"`
	Data    string `json:"data,omitempty"`     // raw base64
	DataURI string `json:"data_uri,omitempty"` // data:<mime>;base64,<payload>
}

type generateRequest struct {
	Prompt      string               `json:"prompt"`
	AspectRatio string               `json:"aspect_ratio,omitempty"`
	Sources     []sourceImagePayload `json:"sources,omitempty"`
}

type generateResponse struct {
	MIME       string `json:"mime"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Data       []byte `json:"data"`
	StorageKey string `json:"storage_key,omitempty"`
}

// Generate runs a single synchronous generation and persists the result.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	input := domain.GenerationInput{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Locale:      middleware.LocaleFromContext(r.Context()),
	}
	sources, err := decodeSources(req.Sources)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_source", err.Error())
		return
	}
	input.Sources = sources

	asset, err := a.Generator.Generate(r.Context(), input)
	if err != nil {
		// Provider failures keep the upstream message verbatim so the
		// client can surface it as-is.
		a.error(w, http.StatusBadGateway, "provider_failure", err.Error())
		return
	}

	resp := generateResponse{
		MIME:   asset.MIME,
		Width:  asset.Width,
		Height: asset.Height,
		Data:   asset.Data,
	}
	if a.Assets != nil {
		key := "generated/" + uuid.NewString() + zip.ExtensionForMIME(asset.MIME)
		stored, err := a.Assets.Write(r.Context(), key, asset.Data)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("persist generated asset")
		} else {
			resp.StorageKey = stored
		}
	}
	a.json(w, http.StatusOK, resp)
}

func decodeSources(payloads []sourceImagePayload) ([]domain.SourceImage, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	sources := make([]domain.SourceImage, 0, len(payloads))
	for _, p := range payloads {
		src := domain.SourceImage{Name: p.Name, MIME: p.MIME}
		switch {
		case p.DataURI != "":
			mime, data, err := imaging.DecodeDataURI(p.DataURI)
			if err != nil {
				return nil, err
			}
			src.Data = data
			if src.MIME == "" {
				src.MIME = mime
			}
		case p.Data != "":
			data, err := base64.StdEncoding.DecodeString(p.Data)
			if err != nil {
				return nil, errors.New("source data is not valid base64")
			}
			src.Data = data
		default:
			return nil, errors.New("source image has no data")
		}
		if src.MIME == "" {
			src.MIME = http.DetectContentType(src.Data)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
