// Package runner adapts the external code-execution sandbox. Its only
// responsibility is request shaping and response normalization: it never
// persists anything and never retries on its own.
package runner

import (
	"context"
	"errors"
	"sort"

	"github.com/codetrail-lms/apiserver/types"
)

// ErrUnavailable is returned when the execution backend is unreachable or
// times out. The whole batch fails as a unit; callers must treat this as
// distinct from a test-case failure.
var ErrUnavailable = errors.New("execution backend unavailable")

// ErrUnsupportedLanguage is returned for language tags outside the fixed
// supported set.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Case is one input/expected-output pair to execute a program against.
type Case struct {
	Input          string
	ExpectedOutput string
}

// Runner executes candidate code against an ordered list of test cases and
// returns normalized per-case results preserving input order.
type Runner interface {
	Run(ctx context.Context, code, language string, cases []Case) ([]types.CaseResult, error)
}

// Languages returns the supported language tags in stable order, for
// validation messages.
func Languages() []string {
	tags := make([]string, 0, len(pistonLanguages))
	for tag := range pistonLanguages {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Supported reports whether the language tag is in the supported set.
func Supported(language string) bool {
	_, ok := pistonLanguages[language]
	return ok
}
