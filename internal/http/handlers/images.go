package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pixelloom/studio/internal/domain"
	"github.com/pixelloom/studio/internal/imaging"
)

type padRequest struct {
	Image        []byte `json:"image"`
	AspectRatio  string `json:"aspect_ratio"`
	MaxDimension int    `json:"max_dimension,omitempty"`
}

type cropRequest struct {
	Image       []byte `json:"image"`
	AspectRatio string `json:"aspect_ratio"`
}

type printSheetRequest struct {
	Image         []byte  `json:"image"`
	CellWidthCM   float64 `json:"cell_width_cm"`
	CellHeightCM  float64 `json:"cell_height_cm"`
	PaperWidthIn  float64 `json:"paper_width_in,omitempty"`
	PaperHeightIn float64 `json:"paper_height_in,omitempty"`
	DPI           int     `json:"dpi,omitempty"`
	PaddingPX     int     `json:"padding_px,omitempty"`
}

type imageResponse struct {
	Image    []byte `json:"image"`
	MIME     string `json:"mime"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Modified bool   `json:"modified"`
}

func (a *App) ImagesPad(w http.ResponseWriter, r *http.Request) {
	var req padRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	ratio, err := imaging.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_ratio", err.Error())
		return
	}
	maxDim := req.MaxDimension
	if maxDim <= 0 {
		maxDim = a.Config.MaxUploadDimension
	}
	out, err := imaging.PadToAspectRatio(req.Image, ratio, maxDim)
	if err != nil {
		a.imageError(w, err)
		return
	}
	a.respondImage(w, out, !bytes.Equal(out, req.Image))
}

func (a *App) ImagesCrop(w http.ResponseWriter, r *http.Request) {
	var req cropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	ratio, err := imaging.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_ratio", err.Error())
		return
	}
	out, err := imaging.CropToAspectRatio(req.Image, ratio)
	if err != nil {
		a.imageError(w, err)
		return
	}
	a.respondImage(w, out, true)
}

func (a *App) ImagesPrintSheet(w http.ResponseWriter, r *http.Request) {
	var req printSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	out, err := imaging.BuildPrintSheet(req.Image, imaging.PrintSheetOptions{
		CellWidthCM:   req.CellWidthCM,
		CellHeightCM:  req.CellHeightCM,
		PaperWidthIn:  req.PaperWidthIn,
		PaperHeightIn: req.PaperHeightIn,
		DPI:           req.DPI,
		PaddingPX:     req.PaddingPX,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSheetCapacity) {
			a.error(w, http.StatusUnprocessableEntity, "sheet_capacity", err.Error())
			return
		}
		a.imageError(w, err)
		return
	}
	a.respondImage(w, out, true)
}

func (a *App) respondImage(w http.ResponseWriter, data []byte, modified bool) {
	width, height, err := imaging.DecodeConfig(data)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "produced undecodable output")
		return
	}
	a.json(w, http.StatusOK, imageResponse{
		Image:    data,
		MIME:     http.DetectContentType(data),
		Width:    width,
		Height:   height,
		Modified: modified,
	})
}

func (a *App) imageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrImageDecode):
		a.error(w, http.StatusUnprocessableEntity, "bad_image", err.Error())
	case errors.Is(err, domain.ErrRatioFormat):
		a.error(w, http.StatusBadRequest, "bad_ratio", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
