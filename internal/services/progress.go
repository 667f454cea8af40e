package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/codetrail-lms/apiserver/internal/cache"
	"github.com/codetrail-lms/apiserver/internal/progress"
	"github.com/codetrail-lms/apiserver/internal/store"
	"github.com/codetrail-lms/apiserver/types"
)

// historyWindowDays is the calendar span returned with a snapshot.
const historyWindowDays = 60

// ProgressRepository is the read side of the derived progress tables,
// plus the reconciliation pass that rebuilds them from the submission log.
type ProgressRepository interface {
	SolvedProblemIDs(ctx context.Context, userID int) ([]int, error)
	SolvedByDifficulty(ctx context.Context, userID int) (map[types.Difficulty]int, error)
	History(ctx context.Context, userID int, since time.Time) ([]types.HistoryEntry, error)
	ActiveDays(ctx context.Context, userID int) (map[string]int, error)
	LanguageUsage(ctx context.Context, userID int) ([]types.LanguageUsage, error)
	Reconcile(ctx context.Context, userID int) (store.Divergence, error)
	UserIDsWithSubmissions(ctx context.Context) ([]int, error)
}

// KitRepository lists the kit catalog with explicit problem membership.
type KitRepository interface {
	List(ctx context.Context) ([]types.Kit, error)
}

// ProgressService assembles the dashboard snapshot. Reads are free of side
// effects and safe to call at arbitrary frequency; the optional Redis cache
// only shortcuts them.
type ProgressService struct {
	progress ProgressRepository
	problems ProblemRepository
	kits     KitRepository
	badges   []types.Badge
	cache    *cache.ProgressCache

	now func() time.Time
}

func NewProgressService(
	progressRepo ProgressRepository,
	problems ProblemRepository,
	kits KitRepository,
	progressCache *cache.ProgressCache,
) *ProgressService {
	return &ProgressService{
		progress: progressRepo,
		problems: problems,
		kits:     kits,
		badges:   progress.DefaultBadges,
		cache:    progressCache,
		now:      time.Now,
	}
}

// Snapshot returns the combined progress view for one user. A user with no
// submissions gets the all-zero structure, never an error.
func (s *ProgressService) Snapshot(ctx context.Context, userID int) (types.ProgressSnapshot, error) {
	if s.cache != nil {
		if snapshot, err := s.cache.Get(ctx, userID); err == nil {
			return snapshot, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Printf("progress cache read failed for user %d: %v", userID, err)
		}
	}

	snapshot, err := s.assemble(ctx, userID)
	if err != nil {
		return types.ProgressSnapshot{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, snapshot); err != nil {
			log.Printf("progress cache write failed for user %d: %v", userID, err)
		}
	}
	return snapshot, nil
}

func (s *ProgressService) assemble(ctx context.Context, userID int) (types.ProgressSnapshot, error) {
	var snapshot types.ProgressSnapshot

	totals, err := s.problems.CountByDifficulty(ctx)
	if err != nil {
		return types.ProgressSnapshot{}, err
	}

	solvedByDifficulty, err := s.progress.SolvedByDifficulty(ctx, userID)
	if err != nil {
		return types.ProgressSnapshot{}, err
	}

	solvedIDs, err := s.progress.SolvedProblemIDs(ctx, userID)
	if err != nil {
		return types.ProgressSnapshot{}, err
	}

	activeDays, err := s.progress.ActiveDays(ctx, userID)
	if err != nil {
		return types.ProgressSnapshot{}, err
	}

	// History days are keyed by UTC calendar day, so the streak walk and
	// the window cutoff use the UTC clock too.
	now := s.now().UTC()
	history, err := s.progress.History(ctx, userID, now.AddDate(0, 0, -historyWindowDays))
	if err != nil {
		return types.ProgressSnapshot{}, err
	}

	languages, err := s.progress.LanguageUsage(ctx, userID)
	if err != nil {
		return types.ProgressSnapshot{}, err
	}

	kits, err := s.kits.List(ctx)
	if err != nil {
		return types.ProgressSnapshot{}, err
	}

	snapshot.Difficulty.Easy = types.DifficultyStats{
		Solved: solvedByDifficulty[types.DifficultyEasy],
		Total:  totals[types.DifficultyEasy],
	}
	snapshot.Difficulty.Medium = types.DifficultyStats{
		Solved: solvedByDifficulty[types.DifficultyMedium],
		Total:  totals[types.DifficultyMedium],
	}
	snapshot.Difficulty.Hard = types.DifficultyStats{
		Solved: solvedByDifficulty[types.DifficultyHard],
		Total:  totals[types.DifficultyHard],
	}

	// Overall counts are sums of the per-difficulty buckets, so the
	// difficulty-sum invariant holds by construction.
	snapshot.Overall.Solved = snapshot.Difficulty.Easy.Solved +
		snapshot.Difficulty.Medium.Solved +
		snapshot.Difficulty.Hard.Solved
	snapshot.Overall.Total = snapshot.Difficulty.Easy.Total +
		snapshot.Difficulty.Medium.Total +
		snapshot.Difficulty.Hard.Total
	if snapshot.Overall.Total > 0 {
		snapshot.Overall.ProgressPercent = int(float64(snapshot.Overall.Solved)/float64(snapshot.Overall.Total)*100 + 0.5)
	}

	snapshot.Streak = progress.Streak(activeDays, now)

	solvedSet := make(map[int]bool, len(solvedIDs))
	for _, id := range solvedIDs {
		solvedSet[id] = true
	}
	evaluation := progress.EvaluateBadges(s.badges, solvedSet, snapshot.Streak, kits)
	snapshot.Badges = len(evaluation.OwnedBadgeIDs)
	snapshot.OwnedBadgeIDs = evaluation.OwnedBadgeIDs
	snapshot.Kits = evaluation.KitProgress

	if solvedIDs == nil {
		solvedIDs = []int{}
	}
	snapshot.SolvedProblemIDs = solvedIDs

	if history == nil {
		history = []types.HistoryEntry{}
	}
	snapshot.SubmissionHistory = history

	if languages == nil {
		languages = []types.LanguageUsage{}
	}
	snapshot.Languages = languages

	return snapshot, nil
}

// ReconcileUser rebuilds one user's derived progress tables from the
// submission log. A non-empty divergence indicates the atomic-write path
// misbehaved and is always logged before repair.
func (s *ProgressService) ReconcileUser(ctx context.Context, userID int) (store.Divergence, error) {
	divergence, err := s.progress.Reconcile(ctx, userID)
	if err != nil {
		return store.Divergence{}, err
	}
	if !divergence.Empty() {
		log.Printf("reconcile user %d: divergence detected: %+v", userID, divergence)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			log.Printf("reconcile user %d: failed to invalidate cache: %v", userID, err)
		}
	}
	return divergence, nil
}

// ReconcileAll rebuilds derived state for every user in the submission log
// and returns the users whose state had diverged.
func (s *ProgressService) ReconcileAll(ctx context.Context) (map[int]store.Divergence, error) {
	userIDs, err := s.progress.UserIDsWithSubmissions(ctx)
	if err != nil {
		return nil, err
	}

	diverged := make(map[int]store.Divergence)
	for _, userID := range userIDs {
		divergence, err := s.ReconcileUser(ctx, userID)
		if err != nil {
			return diverged, err
		}
		if !divergence.Empty() {
			diverged[userID] = divergence
		}
	}
	return diverged, nil
}
