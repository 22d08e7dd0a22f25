package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pixelloom/studio/internal/imaging"
)

type maskPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type maskStroke struct {
	Mode      string      `json:"mode"` // "paint" or "erase"
	BrushSize float64     `json:"brush_size"`
	Points    []maskPoint `json:"points"`
}

type maskRequest struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Strokes []maskStroke `json:"strokes"`
	// Target dimensions of the image the mask will be combined with. When
	// they differ from the drawing surface the mask is resampled, never
	// truncated.
	TargetWidth  int `json:"target_width,omitempty"`
	TargetHeight int `json:"target_height,omitempty"`
}

type maskResponse struct {
	Mask     []byte `json:"mask"`
	MIME     string `json:"mime"`
	HasPaint bool   `json:"has_paint"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ImagesMask replays a recorded drawing session server-side and returns the
// resulting mask layer plus the "a region has been marked" gate.
func (a *App) ImagesMask(w http.ResponseWriter, r *http.Request) {
	var req maskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "mask dimensions must be positive")
		return
	}

	mask := imaging.NewMask(req.Width, req.Height)
	hasPaint := false
	for _, stroke := range req.Strokes {
		if len(stroke.Points) == 0 {
			continue
		}
		mode := imaging.BrushPaint
		if stroke.Mode == "erase" {
			mode = imaging.BrushErase
		}
		first := stroke.Points[0]
		mask.BeginStroke(mode, stroke.BrushSize, imaging.Point{X: first.X, Y: first.Y})
		for _, p := range stroke.Points[1:] {
			mask.ExtendStroke(imaging.Point{X: p.X, Y: p.Y})
		}
		hasPaint = mask.EndStroke()
	}

	if req.TargetWidth > 0 && req.TargetHeight > 0 {
		mask.ResampleTo(req.TargetWidth, req.TargetHeight)
	}

	data, err := mask.EncodePNG()
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	bounds := mask.Bounds()
	a.json(w, http.StatusOK, maskResponse{
		Mask:     data,
		MIME:     "image/png",
		HasPaint: hasPaint,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	})
}
