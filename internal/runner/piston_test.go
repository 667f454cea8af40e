package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codetrail-lms/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(url string) *PistonRunner {
	return NewPistonRunner(config.RunnerConfig{URL: url, TimeoutSeconds: 5})
}

func pistonHandler(t *testing.T, respond func(req pistonRequest) pistonResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pistonRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(respond(req)))
	}
}

func TestPistonRunPassAndFail(t *testing.T) {
	// Echo stdin back; outputs are compared trimmed.
	srv := httptest.NewServer(pistonHandler(t, func(req pistonRequest) pistonResponse {
		return pistonResponse{Run: pistonStage{Stdout: req.Stdin + "\n"}}
	}))
	defer srv.Close()

	r := newTestRunner(srv.URL)
	results, err := r.Run(context.Background(), "code", "python", []Case{
		{Input: "3", ExpectedOutput: "3"},
		{Input: "4", ExpectedOutput: "5"},
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.Equal(t, "3", results[0].ActualOutput)
	assert.False(t, results[1].Passed)
	assert.Equal(t, "4", results[1].ActualOutput)
}

func TestPistonRunCompilationError(t *testing.T) {
	srv := httptest.NewServer(pistonHandler(t, func(req pistonRequest) pistonResponse {
		return pistonResponse{
			Compile: &pistonStage{Code: 1, Stderr: "main.cpp:1: error"},
			Run:     pistonStage{},
		}
	}))
	defer srv.Close()

	r := newTestRunner(srv.URL)
	results, err := r.Run(context.Background(), "code", "cpp", []Case{{Input: "", ExpectedOutput: "1"}})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.Equal(t, "Compilation Error", results[0].ActualOutput)
	assert.Equal(t, "main.cpp:1: error", results[0].ErrorMessage)
}

func TestPistonRunRuntimeError(t *testing.T) {
	srv := httptest.NewServer(pistonHandler(t, func(req pistonRequest) pistonResponse {
		return pistonResponse{Run: pistonStage{Code: 1, Stderr: "Traceback (most recent call last)"}}
	}))
	defer srv.Close()

	r := newTestRunner(srv.URL)
	results, err := r.Run(context.Background(), "code", "python", []Case{{Input: "", ExpectedOutput: "1"}})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Runtime Error", results[0].ActualOutput)
	assert.Equal(t, "Traceback (most recent call last)", results[0].ErrorMessage)
}

func TestPistonRunBackendErrorFailsWholeBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := newTestRunner(srv.URL)
	results, err := r.Run(context.Background(), "code", "python", []Case{
		{Input: "1", ExpectedOutput: "1"},
		{Input: "2", ExpectedOutput: "2"},
	})

	require.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, results)
}

func TestPistonRunTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	r := newTestRunner(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, "code", "python", []Case{{Input: "1", ExpectedOutput: "1"}})

	require.ErrorIs(t, err, ErrUnavailable)
}

func TestPistonRunUnsupportedLanguage(t *testing.T) {
	r := newTestRunner("http://localhost:0")

	_, err := r.Run(context.Background(), "code", "ruby", nil)

	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestLanguagesStableOrder(t *testing.T) {
	assert.Equal(t, []string{"c", "cpp", "java", "javascript", "python"}, Languages())
}

func TestPistonLanguageVersions(t *testing.T) {
	var captured pistonRequest
	srv := httptest.NewServer(pistonHandler(t, func(req pistonRequest) pistonResponse {
		captured = req
		return pistonResponse{Run: pistonStage{Stdout: "ok"}}
	}))
	defer srv.Close()

	r := newTestRunner(srv.URL)
	_, err := r.Run(context.Background(), "print()", "cpp", []Case{{Input: "", ExpectedOutput: "ok"}})

	require.NoError(t, err)
	assert.Equal(t, "c++", captured.Language)
	assert.Equal(t, "10.2.0", captured.Version)
	require.Len(t, captured.Files, 1)
	assert.Equal(t, "print()", captured.Files[0].Content)
}

func TestOutputsMatchLooseFallback(t *testing.T) {
	assert.True(t, OutputsMatch("True", "true"))
	assert.True(t, OutputsMatch("1", "true"))
	assert.True(t, OutputsMatch("0", "False"))
	assert.True(t, OutputsMatch("  YES  ", "yes"))
	assert.False(t, OutputsMatch("2", "true"))
	assert.False(t, OutputsMatch("yes", "no"))
}
