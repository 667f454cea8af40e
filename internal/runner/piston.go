package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/codetrail-lms/apiserver/config"
	"github.com/codetrail-lms/apiserver/types"
	"github.com/google/uuid"
)

// pistonLanguage maps a platform language tag to a Piston language/version.
type pistonLanguage struct {
	Language string
	Version  string
}

var pistonLanguages = map[string]pistonLanguage{
	"python":     {Language: "python", Version: "3.10.0"},
	"javascript": {Language: "javascript", Version: "18.15.0"},
	"java":       {Language: "java", Version: "15.0.2"},
	"cpp":        {Language: "c++", Version: "10.2.0"},
	"c":          {Language: "c", Version: "10.2.0"},
}

// PistonRunner executes code through a Piston-compatible execute endpoint.
type PistonRunner struct {
	url    string
	client *http.Client
}

// NewPistonRunner constructs a runner from config. The configured timeout
// bounds each batch; a batch that exceeds it fails with ErrUnavailable.
func NewPistonRunner(cfg config.RunnerConfig) *PistonRunner {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PistonRunner{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
	Stdin    string       `json:"stdin"`
}

type pistonFile struct {
	Content string `json:"content"`
}

type pistonResponse struct {
	Compile *pistonStage `json:"compile,omitempty"`
	Run     pistonStage  `json:"run"`
}

type pistonStage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   int    `json:"code"`
}

// Run executes the code against each case in order. All cases fail together
// when the backend is unreachable; there are no partial batches.
func (r *PistonRunner) Run(ctx context.Context, code, language string, cases []Case) ([]types.CaseResult, error) {
	lang, ok := pistonLanguages[language]
	if !ok {
		return nil, ErrUnsupportedLanguage
	}

	batchID := uuid.NewString()
	results := make([]types.CaseResult, 0, len(cases))
	for _, tc := range cases {
		resp, err := r.execute(ctx, lang, code, tc.Input)
		if err != nil {
			log.Printf("runner: batch %s failed: %v", batchID, err)
			return nil, err
		}
		results = append(results, normalize(tc, resp))
	}
	return results, nil
}

func (r *PistonRunner) execute(ctx context.Context, lang pistonLanguage, code, stdin string) (pistonResponse, error) {
	payload, err := json.Marshal(pistonRequest{
		Language: lang.Language,
		Version:  lang.Version,
		Files:    []pistonFile{{Content: code}},
		Stdin:    stdin,
	})
	if err != nil {
		return pistonResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return pistonResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return pistonResponse{}, ErrUnavailable
		}
		return pistonResponse{}, errors.Join(ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pistonResponse{}, ErrUnavailable
	}

	var decoded pistonResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return pistonResponse{}, errors.Join(ErrUnavailable, err)
	}
	return decoded, nil
}

// normalize turns a raw Piston response into a pass/fail case record.
func normalize(tc Case, resp pistonResponse) types.CaseResult {
	result := types.CaseResult{
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
	}

	if resp.Compile != nil && resp.Compile.Code != 0 {
		result.ActualOutput = "Compilation Error"
		result.ErrorMessage = firstNonEmpty(resp.Compile.Stderr, resp.Compile.Output, "compilation failed")
		return result
	}

	if resp.Run.Code != 0 {
		result.ActualOutput = "Runtime Error"
		result.ErrorMessage = firstNonEmpty(resp.Run.Stderr, resp.Run.Output, "runtime error")
		return result
	}

	result.ActualOutput = strings.TrimSpace(resp.Run.Stdout)
	result.Passed = OutputsMatch(result.ActualOutput, tc.ExpectedOutput)
	return result
}

// OutputsMatch compares trimmed outputs strictly, then falls back to a loose
// case-insensitive comparison where true/1 and false/0 are interchangeable.
func OutputsMatch(actual, expected string) bool {
	actual = strings.TrimSpace(actual)
	expected = strings.TrimSpace(expected)
	if actual == expected {
		return true
	}
	return looseNormalize(actual) == looseNormalize(expected)
}

func looseNormalize(value string) string {
	v := strings.ToLower(value)
	switch v {
	case "true", "1":
		return "true"
	case "false", "0":
		return "false"
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
