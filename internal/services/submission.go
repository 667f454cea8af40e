package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/codetrail-lms/apiserver/internal/cache"
	"github.com/codetrail-lms/apiserver/internal/judge"
	"github.com/codetrail-lms/apiserver/internal/mq"
	"github.com/codetrail-lms/apiserver/internal/runner"
	"github.com/codetrail-lms/apiserver/types"
)

// SubmissionRepository defines persistence for the append-only submission log.
type SubmissionRepository interface {
	Create(ctx context.Context, submission types.Submission) (types.Submission, error)
	ListRecent(ctx context.Context, userID, limit int) ([]types.Submission, error)
}

// AggregationRepository is the write side of the derived progress tables.
// Both operations are atomic conditional writes, safe under concurrent
// submissions from the same user.
type AggregationRepository interface {
	UpsertSolvedRecord(ctx context.Context, userID, problemID int, solvedAt time.Time) (bool, error)
	IncrementHistory(ctx context.Context, userID int, day time.Time) error
}

// RunRequest executes code against caller-supplied sample cases.
// Nothing is persisted.
type RunRequest struct {
	Code      string        `json:"code"`
	Language  string        `json:"language"`
	TestCases []runner.Case `json:"test_cases"`
}

// SubmitRequest judges code against a problem's full test-case set.
type SubmitRequest struct {
	ProblemID int    `json:"problem_id"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

// SubmissionService orchestrates the judge flow: execution through the
// runner, the pure verdict fold, the append-only submission record and the
// derived-state aggregation that follows an acceptance.
type SubmissionService struct {
	submissions SubmissionRepository
	problems    ProblemRepository
	aggregation AggregationRepository
	runner      runner.Runner
	bus         *mq.Bus
	cache       *cache.ProgressCache

	// now is swapped in tests to pin the user-local judging day.
	now func() time.Time
}

func NewSubmissionService(
	submissions SubmissionRepository,
	problems ProblemRepository,
	aggregation AggregationRepository,
	r runner.Runner,
	bus *mq.Bus,
	progressCache *cache.ProgressCache,
) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		problems:    problems,
		aggregation: aggregation,
		runner:      r,
		bus:         bus,
		cache:       progressCache,
		now:         time.Now,
	}
}

// Run executes code against the provided sample cases and returns the
// normalized per-case results in input order. Used by the editor's "Run"
// button; nothing is recorded.
func (s *SubmissionService) Run(ctx context.Context, req RunRequest) ([]types.CaseResult, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}
	if !runner.Supported(req.Language) {
		return nil, unsupportedLanguageError(req.Language)
	}
	if len(req.TestCases) == 0 {
		return nil, fmt.Errorf("%w: at least one test case is required", ErrValidation)
	}

	return s.runner.Run(ctx, req.Code, req.Language, req.TestCases)
}

func unsupportedLanguageError(language string) error {
	return fmt.Errorf("%w: unsupported language %q, supported: %s",
		ErrValidation, language, strings.Join(runner.Languages(), ", "))
}

// Submit judges a submission against the problem's full test-case set.
//
// The runner call is the only step that may fail without side effects:
// if it reports the backend unavailable, no submission, solved record or
// history row is written. Once judged, the submission row is committed
// first; aggregation failures after that point are logged and repairable
// via reconciliation, never silently dropped.
func (s *SubmissionService) Submit(ctx context.Context, userID int, req SubmitRequest) (types.Verdict, error) {
	if strings.TrimSpace(req.Code) == "" {
		return types.Verdict{}, fmt.Errorf("%w: code is required", ErrValidation)
	}
	if !runner.Supported(req.Language) {
		return types.Verdict{}, unsupportedLanguageError(req.Language)
	}

	if _, err := s.problems.Get(ctx, req.ProblemID); err != nil {
		return types.Verdict{}, err
	}

	testCases, err := s.problems.ListTestCases(ctx, req.ProblemID)
	if err != nil {
		return types.Verdict{}, err
	}
	if len(testCases) == 0 {
		return types.Verdict{}, fmt.Errorf("%w: problem has no test cases", ErrValidation)
	}

	cases := make([]runner.Case, 0, len(testCases))
	for _, tc := range testCases {
		cases = append(cases, runner.Case{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
	}

	results, err := s.runner.Run(ctx, req.Code, req.Language, cases)
	if err != nil {
		return types.Verdict{}, err
	}

	verdict := judge.Evaluate(results)
	judgedAt := s.now()

	submission, err := s.submissions.Create(ctx, types.Submission{
		UserID:    userID,
		ProblemID: req.ProblemID,
		Code:      req.Code,
		Language:  req.Language,
		Status:    verdict.Status,
		CreatedAt: judgedAt,
	})
	if err != nil {
		return types.Verdict{}, fmt.Errorf("failed to record submission: %w", err)
	}

	s.aggregate(ctx, submission, verdict)
	s.publishJudged(ctx, submission)

	return verdict, nil
}

// ListRecent returns the user's latest submissions.
func (s *SubmissionService) ListRecent(ctx context.Context, userID, limit int) ([]types.Submission, error) {
	return s.submissions.ListRecent(ctx, userID, limit)
}

// aggregate applies the derived-state updates that follow a judged
// submission. Every judged attempt counts toward the activity calendar;
// only acceptances touch the solved set. Failures are logged, not returned:
// the submission row is already durable and reconciliation rebuilds the
// derived tables from it.
func (s *SubmissionService) aggregate(ctx context.Context, submission types.Submission, verdict types.Verdict) {
	if err := s.aggregation.IncrementHistory(ctx, submission.UserID, submission.CreatedAt); err != nil {
		log.Printf("submission %d: failed to record history: %v", submission.ID, err)
	}

	if verdict.Status == types.StatusAccepted {
		created, err := s.aggregation.UpsertSolvedRecord(ctx, submission.UserID, submission.ProblemID, submission.CreatedAt)
		if err != nil {
			log.Printf("submission %d: failed to record solve: %v", submission.ID, err)
		} else if created {
			log.Printf("user %d solved problem %d", submission.UserID, submission.ProblemID)
		}
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, submission.UserID); err != nil {
			log.Printf("submission %d: failed to invalidate progress cache: %v", submission.ID, err)
		}
	}
}

func (s *SubmissionService) publishJudged(ctx context.Context, submission types.Submission) {
	if s.bus == nil {
		return
	}
	_, err := s.bus.PublishJudged(ctx, types.JudgedEvent{
		SubmissionID: submission.ID,
		UserID:       submission.UserID,
		ProblemID:    submission.ProblemID,
		Language:     submission.Language,
		Status:       submission.Status,
		JudgedAt:     submission.CreatedAt,
	})
	if err != nil {
		log.Printf("submission %d: failed to publish judged event: %v", submission.ID, err)
	}
}
