package services

import (
	"context"
	"testing"
	"time"

	"github.com/codetrail-lms/apiserver/internal/store"
	"github.com/codetrail-lms/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProgressService(progressRepo *mockProgressRepository, totals map[types.Difficulty]int, kits []types.Kit) *ProgressService {
	problems := &mockProblemRepository{
		countByDifficultyFunc: func(ctx context.Context) (map[types.Difficulty]int, error) {
			return totals, nil
		},
	}
	svc := NewProgressService(progressRepo, problems, &mockKitRepository{kits: kits}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestSnapshotNewUserIsAllZero(t *testing.T) {
	svc := newTestProgressService(&mockProgressRepository{}, map[types.Difficulty]int{
		types.DifficultyEasy:   5,
		types.DifficultyMedium: 3,
		types.DifficultyHard:   2,
	}, nil)

	snapshot, err := svc.Snapshot(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.Overall.Solved)
	assert.Equal(t, 10, snapshot.Overall.Total)
	assert.Equal(t, 0, snapshot.Overall.ProgressPercent)
	assert.Equal(t, 0, snapshot.Streak)
	assert.Equal(t, 0, snapshot.Badges)

	// Empty collections serialize as [], never null.
	assert.NotNil(t, snapshot.SubmissionHistory)
	assert.NotNil(t, snapshot.SolvedProblemIDs)
	assert.NotNil(t, snapshot.OwnedBadgeIDs)
	assert.NotNil(t, snapshot.Languages)
}

func TestSnapshotDifficultySumMatchesOverall(t *testing.T) {
	progressRepo := &mockProgressRepository{
		solvedIDs: []int{1, 2, 3, 4},
		solvedByDifficulty: map[types.Difficulty]int{
			types.DifficultyEasy:   2,
			types.DifficultyMedium: 1,
			types.DifficultyHard:   1,
		},
	}
	svc := newTestProgressService(progressRepo, map[types.Difficulty]int{
		types.DifficultyEasy:   4,
		types.DifficultyMedium: 4,
		types.DifficultyHard:   4,
	}, nil)

	snapshot, err := svc.Snapshot(context.Background(), 7)

	require.NoError(t, err)
	sum := snapshot.Difficulty.Easy.Solved + snapshot.Difficulty.Medium.Solved + snapshot.Difficulty.Hard.Solved
	assert.Equal(t, snapshot.Overall.Solved, sum)
	assert.Equal(t, 4, snapshot.Overall.Solved)
	assert.Equal(t, 12, snapshot.Overall.Total)
	assert.Equal(t, 33, snapshot.Overall.ProgressPercent)
}

func TestSnapshotStreakAndBadges(t *testing.T) {
	progressRepo := &mockProgressRepository{
		solvedIDs: []int{10, 11},
		solvedByDifficulty: map[types.Difficulty]int{
			types.DifficultyEasy: 2,
		},
		activeDays: map[string]int{
			"2026-03-08": 1,
			"2026-03-09": 2,
			"2026-03-10": 1,
		},
		languages: []types.LanguageUsage{{Language: "python", Count: 3}},
	}
	kits := []types.Kit{{ID: 1, Name: "Arrays", ProblemIDs: []int{10, 11}}}
	svc := newTestProgressService(progressRepo, map[types.Difficulty]int{types.DifficultyEasy: 4}, kits)

	snapshot, err := svc.Snapshot(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.Streak)
	// First Step, Streak Starter and Array Master.
	assert.ElementsMatch(t, []int{1, 2, 4}, snapshot.OwnedBadgeIDs)
	assert.Equal(t, 3, snapshot.Badges)
	require.Len(t, snapshot.Kits, 1)
	assert.Equal(t, 2, snapshot.Kits[0].Solved)
	assert.Equal(t, 2, snapshot.Kits[0].Total)
	assert.Equal(t, []types.LanguageUsage{{Language: "python", Count: 3}}, snapshot.Languages)
}

func TestSnapshotStreakWalksUTCDays(t *testing.T) {
	// History days are keyed by UTC calendar day. Late evening in New York
	// on the 10th is already the 11th in UTC, so the walk must start from
	// the 11th even on a process clock in a western zone.
	progressRepo := &mockProgressRepository{
		activeDays: map[string]int{
			"2026-03-10": 1,
			"2026-03-11": 1,
		},
	}
	svc := newTestProgressService(progressRepo, nil, nil)
	newYork := time.FixedZone("America/New_York", -5*3600)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 23, 30, 0, 0, newYork) }

	snapshot, err := svc.Snapshot(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.Streak)
}

func TestReconcileAllReportsOnlyDiverged(t *testing.T) {
	progressRepo := &mockProgressRepository{
		userIDsFunc: func(ctx context.Context) ([]int, error) {
			return []int{1, 2, 3}, nil
		},
		reconcileFunc: func(ctx context.Context, userID int) (store.Divergence, error) {
			if userID == 2 {
				return store.Divergence{MissingSolvedRecords: 1}, nil
			}
			return store.Divergence{}, nil
		},
	}
	svc := newTestProgressService(progressRepo, nil, nil)

	diverged, err := svc.ReconcileAll(context.Background())

	require.NoError(t, err)
	require.Len(t, diverged, 1)
	assert.Equal(t, store.Divergence{MissingSolvedRecords: 1}, diverged[2])
}
