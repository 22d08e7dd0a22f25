package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/pixelloom/studio/internal/batch"
	"github.com/pixelloom/studio/internal/domain"
	"github.com/pixelloom/studio/internal/middleware"
	"github.com/pixelloom/studio/pkg/zip"
)

// maxBatchItems caps how much work a single submission may enqueue.
const maxBatchItems = 32

type batchItemPayload struct {
	Prompt      string               `json:"prompt"`
	AspectRatio string               `json:"aspect_ratio,omitempty"`
	Sources     []sourceImagePayload `json:"sources,omitempty"`
}

type batchCreateRequest struct {
	Items       []batchItemPayload `json:"items"`
	Concurrency int                `json:"concurrency,omitempty"`
}

type batchResponse struct {
	BatchID string                               `json:"batch_id"`
	Jobs    []batch.JobView[domain.GeneratedAsset] `json:"jobs"`
}

// BatchesCreate enqueues a batch of generation jobs and returns immediately
// with every job pending.
func (a *App) BatchesCreate(w http.ResponseWriter, r *http.Request) {
	var req batchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.Items) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "items is required")
		return
	}
	if len(req.Items) > maxBatchItems {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("at most %d items per batch", maxBatchItems))
		return
	}

	locale := middleware.LocaleFromContext(r.Context())
	inputs := make([]domain.GenerationInput, 0, len(req.Items))
	for i, item := range req.Items {
		if item.Prompt == "" {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("items[%d]: prompt is required", i))
			return
		}
		sources, err := decodeSources(item.Sources)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_source", fmt.Sprintf("items[%d]: %v", i, err))
			return
		}
		inputs = append(inputs, domain.GenerationInput{
			Prompt:      item.Prompt,
			AspectRatio: item.AspectRatio,
			Locale:      locale,
			Sources:     sources,
		})
	}

	id, snapshot := a.Batches.Start(inputs, req.Concurrency)
	a.json(w, http.StatusAccepted, batchResponse{BatchID: id, Jobs: sortedJobs(snapshot)})
}

// BatchesGet reports the current state of every job in a batch.
func (a *App) BatchesGet(w http.ResponseWriter, r *http.Request) {
	runner, err := a.Batches.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "batch not found")
		return
	}
	a.json(w, http.StatusOK, batchResponse{
		BatchID: chi.URLParam(r, "id"),
		Jobs:    sortedJobs(runner.Snapshot()),
	})
}

// BatchesRetry re-runs one failed or finished job outside the worker pool and
// responds once it has resolved again.
func (a *App) BatchesRetry(w http.ResponseWriter, r *http.Request) {
	runner, err := a.Batches.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "batch not found")
		return
	}
	view, err := runner.Retry(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	a.json(w, http.StatusOK, view)
}

// BatchesDiscard drops a batch. Still-running jobs resolve as no-ops.
func (a *App) BatchesDiscard(w http.ResponseWriter, r *http.Request) {
	if err := a.Batches.Discard(chi.URLParam(r, "id")); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "batch not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchesArchive bundles every completed job of a batch into a zip download.
// Jobs that are still pending or failed are skipped.
func (a *App) BatchesArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	runner, err := a.Batches.Get(id)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "batch not found")
		return
	}

	assets := make([]zip.Asset, 0)
	for _, job := range sortedJobs(runner.Snapshot()) {
		if job.Status != batch.StatusDone {
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: job.ID,
			MIME:     job.Result.MIME,
			Data:     job.Result.Data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusConflict, "nothing_done", "no completed jobs to export")
		return
	}

	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "batch-"+id+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// sortedJobs flattens a snapshot into a deterministic slice ordered by job id.
func sortedJobs(snapshot map[string]batch.JobView[domain.GeneratedAsset]) []batch.JobView[domain.GeneratedAsset] {
	jobs := make([]batch.JobView[domain.GeneratedAsset], 0, len(snapshot))
	for _, v := range snapshot {
		jobs = append(jobs, v)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}
