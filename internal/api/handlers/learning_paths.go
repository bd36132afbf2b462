// HTTP handlers for saved learning paths. Every route is owner-scoped by the
// authenticated user id; another user's path looks exactly like a missing one.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skillsteps/skillsteps/internal/domain/learning"
	"github.com/skillsteps/skillsteps/pkg/uuid"
)

// PathStore is the persistence surface the path handlers depend on.
type PathStore interface {
	Save(ctx context.Context, userID string, in learning.SaveInput) (*learning.SavedPath, error)
	List(ctx context.Context, userID string) ([]learning.SavedPath, error)
	Get(ctx context.Context, userID, id string) (*learning.SavedPath, error)
	Delete(ctx context.Context, userID, id string) error
}

// PathHandler handles saved learning path requests.
type PathHandler struct {
	store PathStore
}

// NewPathHandler creates a PathHandler backed by store.
func NewPathHandler(store PathStore) *PathHandler {
	return &PathHandler{store: store}
}

// SavePathRequest is the request body for POST /api/v1/learning-paths.
// Steps may be partial; missing fields get their defaults on save.
type SavePathRequest struct {
	Topic string                 `json:"topic"`
	Steps []learning.PartialStep `json:"steps"`
}

// CreatePath handles POST /api/v1/learning-paths.
//
// Response codes:
//   - 201 Created: path saved
//   - 400 Bad Request: invalid JSON, missing topic or steps
//   - 401 Unauthorized: no user in context
//   - 500 Internal Server Error: unexpected failure
func (h *PathHandler) CreatePath(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SavePathRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.store.Save(r.Context(), userID, learning.SaveInput{Topic: req.Topic, Steps: req.Steps})
	if err != nil {
		if errors.Is(err, learning.ErrInvalidPath) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save learning path")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// ListPaths handles GET /api/v1/learning-paths and GET /api/v1/saved-paths.
// Paths are ordered newest first.
func (h *PathHandler) ListPaths(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	paths, err := h.store.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch learning paths")
		return
	}
	writeJSON(w, http.StatusOK, paths)
}

// GetPath handles GET /api/v1/learning-paths/{id}.
func (h *PathHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, learning.ErrPathNotFound.Error())
		return
	}

	saved, err := h.store.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, learning.ErrPathNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch learning path")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeletePath handles DELETE /api/v1/learning-paths/{id}.
func (h *PathHandler) DeletePath(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, learning.ErrPathNotFound.Error())
		return
	}

	if err := h.store.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, learning.ErrPathNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete learning path")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID returns the {id} URL param when it is a well-formed UUID.
func pathID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
