package services

import (
	"context"
	"errors"
	"time"

	"github.com/codetrail-lms/apiserver/internal/runner"
	"github.com/codetrail-lms/apiserver/internal/store"
	"github.com/codetrail-lms/apiserver/types"
)

// Mock repositories for testing

type mockProblemRepository struct {
	getFunc               func(ctx context.Context, id int) (types.Problem, error)
	listTestCasesFunc     func(ctx context.Context, problemID int) ([]types.TestCase, error)
	listExamplesFunc      func(ctx context.Context, problemID int) ([]types.TestCase, error)
	replaceTestCasesFunc  func(ctx context.Context, problemID int, cases []types.TestCase) error
	countByDifficultyFunc func(ctx context.Context) (map[types.Difficulty]int, error)
}

func (m *mockProblemRepository) List(ctx context.Context, offset, limit int) ([]types.Problem, int, error) {
	return nil, 0, errors.New("not implemented")
}

func (m *mockProblemRepository) Get(ctx context.Context, id int) (types.Problem, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return types.Problem{}, errors.New("not implemented")
}

func (m *mockProblemRepository) Create(ctx context.Context, problem types.Problem) (types.Problem, error) {
	return types.Problem{}, errors.New("not implemented")
}

func (m *mockProblemRepository) Update(ctx context.Context, problem types.Problem) (types.Problem, error) {
	return types.Problem{}, errors.New("not implemented")
}

func (m *mockProblemRepository) Delete(ctx context.Context, id int) error {
	return errors.New("not implemented")
}

func (m *mockProblemRepository) ListTestCases(ctx context.Context, problemID int) ([]types.TestCase, error) {
	if m.listTestCasesFunc != nil {
		return m.listTestCasesFunc(ctx, problemID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProblemRepository) ListExamples(ctx context.Context, problemID int) ([]types.TestCase, error) {
	if m.listExamplesFunc != nil {
		return m.listExamplesFunc(ctx, problemID)
	}
	return nil, nil
}

func (m *mockProblemRepository) ReplaceTestCases(ctx context.Context, problemID int, cases []types.TestCase) error {
	if m.replaceTestCasesFunc != nil {
		return m.replaceTestCasesFunc(ctx, problemID, cases)
	}
	return errors.New("not implemented")
}

func (m *mockProblemRepository) CountByDifficulty(ctx context.Context) (map[types.Difficulty]int, error) {
	if m.countByDifficultyFunc != nil {
		return m.countByDifficultyFunc(ctx)
	}
	return map[types.Difficulty]int{}, nil
}

type mockSubmissionRepository struct {
	created    []types.Submission
	createFunc func(ctx context.Context, submission types.Submission) (types.Submission, error)
	listFunc   func(ctx context.Context, userID, limit int) ([]types.Submission, error)
}

func (m *mockSubmissionRepository) Create(ctx context.Context, submission types.Submission) (types.Submission, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, submission)
	}
	submission.ID = int64(len(m.created) + 1)
	m.created = append(m.created, submission)
	return submission, nil
}

func (m *mockSubmissionRepository) ListRecent(ctx context.Context, userID, limit int) ([]types.Submission, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, limit)
	}
	return nil, errors.New("not implemented")
}

type solvedKey struct {
	userID    int
	problemID int
}

// mockAggregationRepository mimics the conditional-write semantics of the
// derived tables: solved records are insert-once, history counters grow.
type mockAggregationRepository struct {
	solved     map[solvedKey]time.Time
	history    map[string]int
	upsertErr  error
	historyErr error
}

func newMockAggregationRepository() *mockAggregationRepository {
	return &mockAggregationRepository{
		solved:  make(map[solvedKey]time.Time),
		history: make(map[string]int),
	}
}

func (m *mockAggregationRepository) UpsertSolvedRecord(ctx context.Context, userID, problemID int, solvedAt time.Time) (bool, error) {
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	key := solvedKey{userID: userID, problemID: problemID}
	if _, exists := m.solved[key]; exists {
		return false, nil
	}
	m.solved[key] = solvedAt
	return true, nil
}

func (m *mockAggregationRepository) IncrementHistory(ctx context.Context, userID int, day time.Time) error {
	if m.historyErr != nil {
		return m.historyErr
	}
	m.history[day.Format("2006-01-02")]++
	return nil
}

type mockRunner struct {
	runFunc func(ctx context.Context, code, language string, cases []runner.Case) ([]types.CaseResult, error)
	calls   int
}

func (m *mockRunner) Run(ctx context.Context, code, language string, cases []runner.Case) ([]types.CaseResult, error) {
	m.calls++
	if m.runFunc != nil {
		return m.runFunc(ctx, code, language, cases)
	}
	return nil, errors.New("not implemented")
}

// passAllRunner reports every case as passed with the expected output.
func passAllRunner() *mockRunner {
	return &mockRunner{
		runFunc: func(ctx context.Context, code, language string, cases []runner.Case) ([]types.CaseResult, error) {
			results := make([]types.CaseResult, 0, len(cases))
			for _, tc := range cases {
				results = append(results, types.CaseResult{
					Input:          tc.Input,
					ExpectedOutput: tc.ExpectedOutput,
					ActualOutput:   tc.ExpectedOutput,
					Passed:         true,
				})
			}
			return results, nil
		},
	}
}

type mockProgressRepository struct {
	solvedIDs          []int
	solvedByDifficulty map[types.Difficulty]int
	history            []types.HistoryEntry
	activeDays         map[string]int
	languages          []types.LanguageUsage
	reconcileFunc      func(ctx context.Context, userID int) (store.Divergence, error)
	userIDsFunc        func(ctx context.Context) ([]int, error)
}

func (m *mockProgressRepository) SolvedProblemIDs(ctx context.Context, userID int) ([]int, error) {
	return m.solvedIDs, nil
}

func (m *mockProgressRepository) SolvedByDifficulty(ctx context.Context, userID int) (map[types.Difficulty]int, error) {
	if m.solvedByDifficulty == nil {
		return map[types.Difficulty]int{}, nil
	}
	return m.solvedByDifficulty, nil
}

func (m *mockProgressRepository) History(ctx context.Context, userID int, since time.Time) ([]types.HistoryEntry, error) {
	return m.history, nil
}

func (m *mockProgressRepository) ActiveDays(ctx context.Context, userID int) (map[string]int, error) {
	return m.activeDays, nil
}

func (m *mockProgressRepository) LanguageUsage(ctx context.Context, userID int) ([]types.LanguageUsage, error) {
	return m.languages, nil
}

func (m *mockProgressRepository) Reconcile(ctx context.Context, userID int) (store.Divergence, error) {
	if m.reconcileFunc != nil {
		return m.reconcileFunc(ctx, userID)
	}
	return store.Divergence{}, nil
}

func (m *mockProgressRepository) UserIDsWithSubmissions(ctx context.Context) ([]int, error) {
	if m.userIDsFunc != nil {
		return m.userIDsFunc(ctx)
	}
	return nil, nil
}

type mockKitRepository struct {
	kits []types.Kit
}

func (m *mockKitRepository) List(ctx context.Context) ([]types.Kit, error) {
	return m.kits, nil
}
