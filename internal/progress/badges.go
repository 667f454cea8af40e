package progress

import "github.com/codetrail-lms/apiserver/types"

// DefaultBadges is the static badge catalog. Ownership is a view over the
// user's solved set and streak, never persisted; new badges are added here
// without touching evaluation logic.
var DefaultBadges = []types.Badge{
	{ID: 1, Name: "First Step", Rule: types.BadgeRule{Kind: types.BadgeRuleSolvedCount, N: 1}},
	{ID: 2, Name: "Streak Starter", Rule: types.BadgeRule{Kind: types.BadgeRuleStreak, N: 3}},
	{ID: 3, Name: "Problem Hunter", Rule: types.BadgeRule{Kind: types.BadgeRuleSolvedCount, N: 10}},
	{ID: 4, Name: "Array Master", Rule: types.BadgeRule{Kind: types.BadgeRuleKitComplete, KitID: 1}},
	{ID: 5, Name: "String Wizard", Rule: types.BadgeRule{Kind: types.BadgeRuleKitComplete, KitID: 2}},
}

// Evaluation is the computed unlock state for one user.
type Evaluation struct {
	OwnedBadgeIDs []int
	KitProgress   []types.KitProgress
}

// EvaluateBadges derives badge ownership and kit completion from the solved
// set, the streak and the kit catalog. It is pure and recomputed on every
// read, so it always agrees with the same source facts.
func EvaluateBadges(badges []types.Badge, solved map[int]bool, streak int, kits []types.Kit) Evaluation {
	kitsByID := make(map[int]types.Kit, len(kits))
	evaluation := Evaluation{
		OwnedBadgeIDs: []int{},
		KitProgress:   make([]types.KitProgress, 0, len(kits)),
	}

	for _, kit := range kits {
		kitsByID[kit.ID] = kit
		solvedInKit := 0
		for _, problemID := range kit.ProblemIDs {
			if solved[problemID] {
				solvedInKit++
			}
		}
		evaluation.KitProgress = append(evaluation.KitProgress, types.KitProgress{
			KitID:  kit.ID,
			Name:   kit.Name,
			Solved: solvedInKit,
			Total:  len(kit.ProblemIDs),
		})
	}

	for _, badge := range badges {
		if ruleSatisfied(badge.Rule, solved, streak, kitsByID) {
			evaluation.OwnedBadgeIDs = append(evaluation.OwnedBadgeIDs, badge.ID)
		}
	}
	return evaluation
}

func ruleSatisfied(rule types.BadgeRule, solved map[int]bool, streak int, kits map[int]types.Kit) bool {
	switch rule.Kind {
	case types.BadgeRuleSolvedCount:
		return len(solved) >= rule.N
	case types.BadgeRuleStreak:
		return streak >= rule.N
	case types.BadgeRuleKitComplete:
		kit, ok := kits[rule.KitID]
		if !ok || len(kit.ProblemIDs) == 0 {
			// A kit with no problems never awards its completion badge.
			return false
		}
		for _, problemID := range kit.ProblemIDs {
			if !solved[problemID] {
				return false
			}
		}
		return true
	}
	return false
}
