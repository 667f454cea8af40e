package services

import (
	"context"
	"testing"
	"time"

	"github.com/codetrail-lms/apiserver/internal/runner"
	"github.com/codetrail-lms/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var judgedAt = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func newTestSubmissionService(r runner.Runner, aggregation *mockAggregationRepository) (*SubmissionService, *mockSubmissionRepository) {
	submissions := &mockSubmissionRepository{}
	problems := &mockProblemRepository{
		getFunc: func(ctx context.Context, id int) (types.Problem, error) {
			return types.Problem{ID: id, Title: "Two Sum", Difficulty: types.DifficultyEasy}, nil
		},
		listTestCasesFunc: func(ctx context.Context, problemID int) ([]types.TestCase, error) {
			return []types.TestCase{
				{Input: "1 2", ExpectedOutput: "3"},
				{Input: "4 5", ExpectedOutput: "9", IsHidden: true},
			}, nil
		},
	}

	svc := NewSubmissionService(submissions, problems, aggregation, r, nil, nil)
	svc.now = func() time.Time { return judgedAt }
	return svc, submissions
}

func TestSubmitAccepted(t *testing.T) {
	aggregation := newMockAggregationRepository()
	svc, submissions := newTestSubmissionService(passAllRunner(), aggregation)

	verdict, err := svc.Submit(context.Background(), 7, SubmitRequest{
		ProblemID: 42,
		Code:      "print(sum(map(int, input().split())))",
		Language:  "python",
	})

	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, verdict.Status)
	assert.True(t, verdict.AllPassed)
	assert.Nil(t, verdict.FirstFailure)

	require.Len(t, submissions.created, 1)
	assert.Equal(t, 7, submissions.created[0].UserID)
	assert.Equal(t, 42, submissions.created[0].ProblemID)
	assert.Equal(t, types.StatusAccepted, submissions.created[0].Status)

	assert.Equal(t, judgedAt, aggregation.solved[solvedKey{userID: 7, problemID: 42}])
	assert.Equal(t, 1, aggregation.history["2026-03-10"])
}

func TestSubmitRepeatAcceptanceKeepsFirstSolve(t *testing.T) {
	aggregation := newMockAggregationRepository()
	svc, submissions := newTestSubmissionService(passAllRunner(), aggregation)

	_, err := svc.Submit(context.Background(), 7, SubmitRequest{ProblemID: 42, Code: "x", Language: "python"})
	require.NoError(t, err)

	firstSolve := aggregation.solved[solvedKey{userID: 7, problemID: 42}]
	svc.now = func() time.Time { return judgedAt.AddDate(0, 0, 1) }

	_, err = svc.Submit(context.Background(), 7, SubmitRequest{ProblemID: 42, Code: "x", Language: "python"})
	require.NoError(t, err)

	// The submission log grows; the solved record does not move.
	assert.Len(t, submissions.created, 2)
	assert.Len(t, aggregation.solved, 1)
	assert.Equal(t, firstSolve, aggregation.solved[solvedKey{userID: 7, problemID: 42}])
	assert.Equal(t, 1, aggregation.history["2026-03-10"])
	assert.Equal(t, 1, aggregation.history["2026-03-11"])
}

func TestSubmitRejectedCountsHistoryNotSolved(t *testing.T) {
	failing := &mockRunner{
		runFunc: func(ctx context.Context, code, language string, cases []runner.Case) ([]types.CaseResult, error) {
			return []types.CaseResult{
				{Input: cases[0].Input, ExpectedOutput: cases[0].ExpectedOutput, ActualOutput: cases[0].ExpectedOutput, Passed: true},
				{Input: cases[1].Input, ExpectedOutput: cases[1].ExpectedOutput, ActualOutput: "wrong", Passed: false},
			}, nil
		},
	}
	aggregation := newMockAggregationRepository()
	svc, submissions := newTestSubmissionService(failing, aggregation)

	verdict, err := svc.Submit(context.Background(), 7, SubmitRequest{ProblemID: 42, Code: "x", Language: "python"})

	require.NoError(t, err)
	assert.Equal(t, types.StatusRejected, verdict.Status)
	require.NotNil(t, verdict.FirstFailure)
	assert.Equal(t, "4 5", verdict.FirstFailure.Input)
	assert.Equal(t, "wrong", verdict.FirstFailure.ActualOutput)

	require.Len(t, submissions.created, 1)
	assert.Equal(t, types.StatusRejected, submissions.created[0].Status)

	// Rejected attempts feed the activity calendar but never the solved set.
	assert.Empty(t, aggregation.solved)
	assert.Equal(t, 1, aggregation.history["2026-03-10"])
}

func TestSubmitRunnerUnavailableLeavesNoTrace(t *testing.T) {
	unavailable := &mockRunner{
		runFunc: func(ctx context.Context, code, language string, cases []runner.Case) ([]types.CaseResult, error) {
			return nil, runner.ErrUnavailable
		},
	}
	aggregation := newMockAggregationRepository()
	svc, submissions := newTestSubmissionService(unavailable, aggregation)

	_, err := svc.Submit(context.Background(), 7, SubmitRequest{ProblemID: 42, Code: "x", Language: "python"})

	require.ErrorIs(t, err, runner.ErrUnavailable)
	assert.Empty(t, submissions.created)
	assert.Empty(t, aggregation.solved)
	assert.Empty(t, aggregation.history)
}

func TestSubmitAggregationFailureStillReturnsVerdict(t *testing.T) {
	aggregation := newMockAggregationRepository()
	aggregation.historyErr = assert.AnError
	aggregation.upsertErr = assert.AnError
	svc, submissions := newTestSubmissionService(passAllRunner(), aggregation)

	verdict, err := svc.Submit(context.Background(), 7, SubmitRequest{ProblemID: 42, Code: "x", Language: "python"})

	// The submission row is durable; derived-state failures are recoverable
	// via reconcile and must not fail the request.
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, verdict.Status)
	assert.Len(t, submissions.created, 1)
}

func TestSubmitValidation(t *testing.T) {
	aggregation := newMockAggregationRepository()
	r := passAllRunner()
	svc, _ := newTestSubmissionService(r, aggregation)

	_, err := svc.Submit(context.Background(), 7, SubmitRequest{ProblemID: 42, Code: "   ", Language: "python"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Submit(context.Background(), 7, SubmitRequest{ProblemID: 42, Code: "x", Language: "brainfuck"})
	assert.ErrorIs(t, err, ErrValidation)
	// The rejection names the supported set so clients can self-correct.
	assert.Contains(t, err.Error(), "python")
	assert.Contains(t, err.Error(), "cpp")

	assert.Zero(t, r.calls)
}

func TestSubmitProblemWithoutTestCases(t *testing.T) {
	submissions := &mockSubmissionRepository{}
	problems := &mockProblemRepository{
		getFunc: func(ctx context.Context, id int) (types.Problem, error) {
			return types.Problem{ID: id, Title: "Empty", Difficulty: types.DifficultyEasy}, nil
		},
		listTestCasesFunc: func(ctx context.Context, problemID int) ([]types.TestCase, error) {
			return nil, nil
		},
	}
	svc := NewSubmissionService(submissions, problems, newMockAggregationRepository(), passAllRunner(), nil, nil)

	_, err := svc.Submit(context.Background(), 7, SubmitRequest{ProblemID: 42, Code: "x", Language: "python"})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, submissions.created)
}

func TestRunValidatesAndDelegates(t *testing.T) {
	r := passAllRunner()
	svc, _ := newTestSubmissionService(r, newMockAggregationRepository())

	results, err := svc.Run(context.Background(), RunRequest{
		Code:      "x",
		Language:  "python",
		TestCases: []runner.Case{{Input: "1", ExpectedOutput: "1"}},
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = svc.Run(context.Background(), RunRequest{Code: "x", Language: "python"})
	assert.ErrorIs(t, err, ErrValidation)
}
