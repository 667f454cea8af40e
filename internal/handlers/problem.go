package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/codetrail-lms/apiserver/internal/services"
	"github.com/codetrail-lms/apiserver/internal/store"
	"github.com/codetrail-lms/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// maxArchiveUploadSize bounds a testcase archive upload.
const maxArchiveUploadSize = 32 << 20

const adminRole = "admin"

// ProblemHandler serves the problem catalog and the admin authoring surface.
type ProblemHandler struct {
	problemService *services.ProblemService
}

// ProblemRouter registers problem routes on the given router.
func ProblemRouter(r chi.Router, problemService *services.ProblemService, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := &ProblemHandler{
		problemService: problemService,
	}

	r.Get("/", handler.List)
	r.Get("/{id}", handler.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(requireRole(userService, adminRole))
		r.Post("/", handler.Create)
		r.Put("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
		r.Post("/{id}/testcases", handler.ImportTestCases)
		r.Get("/{id}/testcases/{digest}", handler.DownloadTestCaseArchive)
	})
}

// List returns a page of the problem catalog with visible examples.
func (h *ProblemHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	problems, total, err := h.problemService.List(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProblemListResponse{
		Problems: problems,
		Total:    total,
	})
}

// Get returns one problem with its visible examples.
func (h *ProblemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid problem id")
		return
	}

	problem, err := h.problemService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, problem)
}

// Create adds a problem to the catalog.
func (h *ProblemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var problem types.Problem
	if err := json.NewDecoder(r.Body).Decode(&problem); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.problemService.Create(r.Context(), problem)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Update rewrites a problem's statement and metadata.
func (h *ProblemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid problem id")
		return
	}

	var problem types.Problem
	if err := json.NewDecoder(r.Body).Decode(&problem); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	problem.ID = id

	updated, err := h.problemService.Update(r.Context(), problem)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a problem from the catalog.
func (h *ProblemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid problem id")
		return
	}

	if err := h.problemService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportTestCases replaces a problem's test cases from an uploaded tar.gz
// archive of numbered N.in/N.out files.
func (h *ProblemHandler) ImportTestCases(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid problem id")
		return
	}

	if err := r.ParseMultipartForm(maxArchiveUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("archive")
	if err != nil {
		writeError(w, http.StatusBadRequest, "archive file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxArchiveUploadSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read archive")
		return
	}

	archive, err := h.problemService.ImportTestCaseArchive(r.Context(), id, header.Filename, data)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "problem not found")
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, archive)
}

// DownloadTestCaseArchive streams a previously imported archive back by its
// content digest.
func (h *ProblemHandler) DownloadTestCaseArchive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid problem id")
		return
	}

	reader, err := h.problemService.OpenTestCaseArchive(r.Context(), id, chi.URLParam(r, "digest"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/gzip")
	_, _ = io.Copy(w, reader)
}

type ProblemListResponse struct {
	Problems []types.Problem `json:"problems"`
	Total    int             `json:"total"`
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
