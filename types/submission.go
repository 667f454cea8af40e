package types

import "time"

// Status is the final outcome of judging a submission.
type Status string

// Supported submission outcomes. There is no error outcome: a submission
// that could not be judged (execution backend down) is never recorded.
const (
	// StatusAccepted indicates every test case passed.
	StatusAccepted Status = "Accepted"

	// StatusRejected indicates at least one test case failed.
	StatusRejected Status = "Rejected"
)

// Submission represents one attempt at a problem. Submissions are the
// system of record for solved state, streaks and history: they are
// append-only and never mutated or deleted after creation.
type Submission struct {
	// ID is the unique identifier of the submission.
	ID int64 `json:"id" db:"id"`

	// UserID identifies the user who made the submission.
	UserID int `json:"user_id" db:"user_id"`

	// ProblemID identifies the problem this submission is for.
	ProblemID int `json:"problem_id" db:"problem_id"`

	// Code is the source code submitted by the user.
	Code string `json:"code" db:"code"`

	// Language is the language tag the code was submitted in.
	Language string `json:"language" db:"language"`

	// Status is the final judging outcome.
	Status Status `json:"status" db:"status"`

	// CreatedAt is the timestamp when the submission was judged and recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CaseResult is the normalized outcome of running a submission against a
// single test case. Results preserve the order of the test cases they were
// produced from.
type CaseResult struct {
	// Input is the stdin the case was run with.
	Input string `json:"input"`

	// ExpectedOutput is the output a correct solution produces.
	ExpectedOutput string `json:"expected_output"`

	// ActualOutput is the trimmed output the user's program produced.
	ActualOutput string `json:"actual_output"`

	// Passed reports whether the actual output matched the expected output.
	Passed bool `json:"passed"`

	// ErrorMessage carries compile or runtime diagnostics when the case
	// could not be evaluated normally.
	ErrorMessage string `json:"error_message,omitempty"`
}

// FailureDetail describes the first failing test case of a rejected
// submission, in original case order.
type FailureDetail struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected"`
	ActualOutput   string `json:"actual"`
	ErrorMessage   string `json:"error,omitempty"`
}

// Verdict is the aggregate judging decision over an ordered list of
// case results.
type Verdict struct {
	// Status is Accepted when every case passed without errors,
	// Rejected otherwise.
	Status Status `json:"status"`

	// AllPassed reports whether every case passed.
	AllPassed bool `json:"passed"`

	// FirstFailure carries the first failing case when Status is Rejected.
	FirstFailure *FailureDetail `json:"details,omitempty"`
}

// JudgedEvent is published on the message bus after a submission has been
// judged and durably recorded.
type JudgedEvent struct {
	SubmissionID int64     `json:"submission_id"`
	UserID       int       `json:"user_id"`
	ProblemID    int       `json:"problem_id"`
	Language     string    `json:"language"`
	Status       Status    `json:"status"`
	JudgedAt     time.Time `json:"judged_at"`
}
