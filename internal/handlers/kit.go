package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/codetrail-lms/apiserver/internal/services"
	"github.com/codetrail-lms/apiserver/internal/store"
	"github.com/codetrail-lms/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// KitHandler serves the kit catalog with per-user completion and the admin
// membership editor.
type KitHandler struct {
	progressService *services.ProgressService
	kits            *store.KitRepository
}

// KitRouter registers kit routes on the given router.
func KitRouter(r chi.Router, kits *store.KitRepository, progressService *services.ProgressService, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := &KitHandler{
		progressService: progressService,
		kits:            kits,
	}

	r.Use(authMiddleware)
	r.Get("/", handler.List)

	r.Group(func(r chi.Router) {
		r.Use(requireRole(userService, adminRole))
		r.Put("/{id}/problems", handler.SetMembership)
	})
}

// List returns every kit with the current user's progress in it.
func (h *KitHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snapshot, err := h.progressService.Snapshot(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	kits := snapshot.Kits
	if kits == nil {
		kits = []types.KitProgress{}
	}
	writeJSON(w, http.StatusOK, kits)
}

// SetMembership replaces a kit's problem set.
func (h *KitHandler) SetMembership(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid kit id")
		return
	}

	if _, err := h.kits.Get(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	var req KitMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.kits.SetMembership(r.Context(), id, req.ProblemIDs); err != nil {
		writeServiceError(w, err)
		return
	}

	kit, err := h.kits.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kit)
}

type KitMembershipRequest struct {
	ProblemIDs []int `json:"problem_ids"`
}
