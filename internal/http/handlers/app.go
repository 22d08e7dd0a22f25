package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pixelloom/studio/internal/batch"
	"github.com/pixelloom/studio/internal/domain"
	"github.com/pixelloom/studio/internal/infra"
	"github.com/pixelloom/studio/internal/library"
	imgprov "github.com/pixelloom/studio/internal/providers/image"
	"github.com/pixelloom/studio/internal/storage"
)

// BatchManager is the concrete batch type the HTTP surface works with.
type BatchManager = batch.Manager[domain.GenerationInput, domain.GeneratedAsset]

// App bundles the handler dependencies. Shared state is injected here once at
// startup; handlers never reach for ambient globals.
type App struct {
	Config    *infra.Config
	Logger    infra.Logger
	Generator imgprov.Generator
	Batches   *BatchManager
	Library   *library.Store
	Assets    *storage.FileStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"code": code, "message": message})
}
