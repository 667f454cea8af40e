package types

// BadgeRuleKind discriminates the unlock predicate of a badge.
type BadgeRuleKind string

// Supported badge predicate kinds.
const (
	// BadgeRuleSolvedCount unlocks once the user has solved at least N
	// distinct problems.
	BadgeRuleSolvedCount BadgeRuleKind = "solvedCount"

	// BadgeRuleStreak unlocks once the user's day streak reaches N.
	BadgeRuleStreak BadgeRuleKind = "streak"

	// BadgeRuleKitComplete unlocks once every problem in the referenced
	// kit has been solved.
	BadgeRuleKitComplete BadgeRuleKind = "kitComplete"
)

// BadgeRule is a declarative unlock predicate evaluated against the user's
// solved set, streak and kit membership. Rules are data: adding a badge means
// adding a row here, not touching aggregation logic.
type BadgeRule struct {
	Kind BadgeRuleKind `json:"kind"`

	// N is the threshold for solvedCount and streak rules.
	N int `json:"n,omitempty"`

	// KitID references the kit for kitComplete rules.
	KitID int `json:"kit_id,omitempty"`
}

// Badge is a static achievement definition. Ownership is never stored;
// it is recomputed from the same source facts on every read.
type Badge struct {
	// ID is the stable identifier of the badge.
	ID int `json:"id"`

	// Name is the display name of the badge.
	Name string `json:"name"`

	// Rule is the unlock predicate.
	Rule BadgeRule `json:"rule"`
}
