package judge

import (
	"testing"

	"github.com/codetrail-lms/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAllPassed(t *testing.T) {
	results := []types.CaseResult{
		{Input: "1 2", ExpectedOutput: "3", ActualOutput: "3", Passed: true},
		{Input: "4 5", ExpectedOutput: "9", ActualOutput: "9", Passed: true},
	}

	verdict := Evaluate(results)

	assert.Equal(t, types.StatusAccepted, verdict.Status)
	assert.True(t, verdict.AllPassed)
	assert.Nil(t, verdict.FirstFailure)
}

func TestEvaluateReportsFirstFailureByOrder(t *testing.T) {
	// Case B fails on output, case C fails with a runtime error. The verdict
	// must carry B: first by position, never the "more severe" one.
	results := []types.CaseResult{
		{Input: "a", ExpectedOutput: "1", ActualOutput: "1", Passed: true},
		{Input: "b", ExpectedOutput: "2", ActualOutput: "7", Passed: false},
		{Input: "c", ExpectedOutput: "3", ActualOutput: "", Passed: false, ErrorMessage: "Runtime Error"},
	}

	verdict := Evaluate(results)

	assert.Equal(t, types.StatusRejected, verdict.Status)
	assert.False(t, verdict.AllPassed)
	require.NotNil(t, verdict.FirstFailure)
	assert.Equal(t, "b", verdict.FirstFailure.Input)
	assert.Equal(t, "2", verdict.FirstFailure.ExpectedOutput)
	assert.Equal(t, "7", verdict.FirstFailure.ActualOutput)
	assert.Empty(t, verdict.FirstFailure.ErrorMessage)
}

func TestEvaluatePassedCaseWithErrorRejects(t *testing.T) {
	// A case that "passed" but carries an execution error cannot count.
	results := []types.CaseResult{
		{Input: "x", ExpectedOutput: "", ActualOutput: "", Passed: true, ErrorMessage: "Compilation Error"},
	}

	verdict := Evaluate(results)

	assert.Equal(t, types.StatusRejected, verdict.Status)
	require.NotNil(t, verdict.FirstFailure)
	assert.Equal(t, "Compilation Error", verdict.FirstFailure.ErrorMessage)
}

func TestEvaluateEmptyResultsRejects(t *testing.T) {
	verdict := Evaluate(nil)

	assert.Equal(t, types.StatusRejected, verdict.Status)
	assert.False(t, verdict.AllPassed)
	assert.Nil(t, verdict.FirstFailure)
}

func TestEvaluateDeterministic(t *testing.T) {
	results := []types.CaseResult{
		{Input: "a", Passed: true},
		{Input: "b", Passed: false, ActualOutput: "wrong"},
		{Input: "c", Passed: false, ErrorMessage: "Runtime Error"},
	}

	first := Evaluate(results)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(results))
	}
}
