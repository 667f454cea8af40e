package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/codetrail-lms/apiserver/internal/services"
	"github.com/codetrail-lms/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// JudgeHandler serves the coding-judge surface: run, submit, submission
// history and the progress snapshot.
type JudgeHandler struct {
	submissionService *services.SubmissionService
	progressService   *services.ProgressService
}

// JudgeRouter registers judge routes on the given router. All routes
// require authentication.
func JudgeRouter(r chi.Router, submissionService *services.SubmissionService, progressService *services.ProgressService, authMiddleware func(http.Handler) http.Handler) {
	handler := &JudgeHandler{
		submissionService: submissionService,
		progressService:   progressService,
	}

	r.Use(authMiddleware)
	r.Post("/run", handler.Run)
	r.Post("/submissions", handler.Submit)
	r.Get("/submissions", handler.ListSubmissions)
	r.Get("/progress", handler.Progress)
}

// Run executes code against caller-supplied sample cases without recording
// anything.
func (h *JudgeHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req services.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	results, err := h.submissionService.Run(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{Results: results})
}

// Submit judges code against the problem's full test-case set and records
// the attempt.
func (h *JudgeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req services.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	verdict, err := h.submissionService.Submit(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

// ListSubmissions returns the current user's latest submissions.
func (h *JudgeHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	submissions, err := h.submissionService.ListRecent(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if submissions == nil {
		submissions = []types.Submission{}
	}

	writeJSON(w, http.StatusOK, submissions)
}

// Progress returns the current user's dashboard snapshot.
func (h *JudgeHandler) Progress(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, snapshot)
}

type RunResponse struct {
	Results []types.CaseResult `json:"results"`
}
