// Package judge aggregates per-test-case results into a submission verdict.
// Evaluation is a pure, deterministic fold: no I/O, no persistence.
package judge

import "github.com/codetrail-lms/apiserver/types"

// Evaluate folds an ordered list of case results into a verdict.
// The submission is Accepted iff every case passed and no case carried an
// error. Otherwise it is Rejected, carrying the first failing case by
// original order as diagnostic detail; ties are never broken by severity.
func Evaluate(results []types.CaseResult) types.Verdict {
	verdict := types.Verdict{Status: types.StatusAccepted, AllPassed: true}

	for i := range results {
		result := &results[i]
		if result.Passed && result.ErrorMessage == "" {
			continue
		}

		verdict.Status = types.StatusRejected
		verdict.AllPassed = false
		verdict.FirstFailure = &types.FailureDetail{
			Input:          result.Input,
			ExpectedOutput: result.ExpectedOutput,
			ActualOutput:   result.ActualOutput,
			ErrorMessage:   result.ErrorMessage,
		}
		return verdict
	}

	if len(results) == 0 {
		// An empty result set cannot prove acceptance.
		verdict.Status = types.StatusRejected
		verdict.AllPassed = false
	}
	return verdict
}
