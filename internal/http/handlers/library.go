package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type libraryEntry struct {
	Key  string   `json:"key"`
	Refs []string `json:"refs"`
}

// LibraryGet returns the reference list stored under a key. Missing or
// unreadable entries read as empty, never as an error.
func (a *App) LibraryGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	refs := a.Library.Get(r.Context(), key)
	if refs == nil {
		refs = []string{}
	}
	a.json(w, http.StatusOK, libraryEntry{Key: key, Refs: refs})
}

// LibraryPut replaces the reference list under a key. Last write wins.
func (a *App) LibraryPut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var body struct {
		Refs []string `json:"refs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Library.Put(r.Context(), key, body.Refs); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	refs := body.Refs
	if refs == nil {
		refs = []string{}
	}
	a.json(w, http.StatusOK, libraryEntry{Key: key, Refs: refs})
}
