package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/codetrail-lms/apiserver/internal/runner"
	"github.com/codetrail-lms/apiserver/internal/services"
	"github.com/codetrail-lms/apiserver/internal/store"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func userIDFromContext(ctx context.Context) (int, error) {
	value := ctx.Value(contextSubjectKey)
	switch subject := value.(type) {
	case int:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return subject, nil
	case int64:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return int(subject), nil
	case float64:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return int(subject), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(subject))
		if err != nil || parsed < 1 {
			return 0, errors.New("invalid subject")
		}
		return parsed, nil
	default:
		return 0, errors.New("missing subject")
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps domain errors onto HTTP statuses. Runner outages
// surface as 503 so clients can distinguish "execution failed" from
// "tests failed".
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, runner.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "code execution is temporarily unavailable")
	case errors.Is(err, runner.ErrUnsupportedLanguage):
		writeError(w, http.StatusBadRequest, "unsupported language")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// requireRole restricts a route group to users holding the given role.
// It must run after RequireAuth.
func requireRole(userService *services.UserService, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userIDFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := userService.GetByID(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if user.Role != role {
				writeError(w, http.StatusForbidden, role+" access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
