package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/codetrail-lms/apiserver/internal/storage"
	"github.com/codetrail-lms/apiserver/types"
)

// ProblemRepository defines persistence operations for problems and test cases.
type ProblemRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Problem, int, error)
	Get(ctx context.Context, id int) (types.Problem, error)
	Create(ctx context.Context, problem types.Problem) (types.Problem, error)
	Update(ctx context.Context, problem types.Problem) (types.Problem, error)
	Delete(ctx context.Context, id int) error
	ListTestCases(ctx context.Context, problemID int) ([]types.TestCase, error)
	ListExamples(ctx context.Context, problemID int) ([]types.TestCase, error)
	ReplaceTestCases(ctx context.Context, problemID int, cases []types.TestCase) error
	CountByDifficulty(ctx context.Context) (map[types.Difficulty]int, error)
}

// ProblemService encapsulates problem-catalog use-cases, including the
// testcase-archive import. archive may be nil, which disables retention of
// the raw uploaded archives.
type ProblemService struct {
	repo    ProblemRepository
	archive *storage.Storage
}

func NewProblemService(repo ProblemRepository, archive *storage.Storage) *ProblemService {
	return &ProblemService{repo: repo, archive: archive}
}

func (s *ProblemService) List(ctx context.Context, offset, limit int) ([]types.Problem, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	problems, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	// Attach visible examples so the catalog renders without extra calls.
	for i := range problems {
		examples, err := s.repo.ListExamples(ctx, problems[i].ID)
		if err != nil {
			return nil, 0, err
		}
		problems[i].Examples = toExamples(examples)
	}
	return problems, total, nil
}

func (s *ProblemService) Get(ctx context.Context, id int) (types.Problem, error) {
	problem, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Problem{}, err
	}

	examples, err := s.repo.ListExamples(ctx, id)
	if err != nil {
		return types.Problem{}, err
	}
	problem.Examples = toExamples(examples)
	return problem, nil
}

func (s *ProblemService) Create(ctx context.Context, problem types.Problem) (types.Problem, error) {
	if err := validateProblem(problem); err != nil {
		return types.Problem{}, err
	}
	return s.repo.Create(ctx, problem)
}

func (s *ProblemService) Update(ctx context.Context, problem types.Problem) (types.Problem, error) {
	if err := validateProblem(problem); err != nil {
		return types.Problem{}, err
	}
	return s.repo.Update(ctx, problem)
}

func (s *ProblemService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func validateProblem(problem types.Problem) error {
	if strings.TrimSpace(problem.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !problem.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrValidation, problem.Difficulty)
	}
	return nil
}

func toExamples(cases []types.TestCase) []types.Example {
	examples := make([]types.Example, 0, len(cases))
	for _, tc := range cases {
		examples = append(examples, types.Example{
			Input:  tc.Input,
			Output: tc.ExpectedOutput,
		})
	}
	return examples
}
