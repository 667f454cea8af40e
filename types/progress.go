package types

import "time"

// SolvedRecord marks the first acceptance of a problem by a user.
// At most one record exists per (user, problem) pair.
type SolvedRecord struct {
	UserID        int       `json:"user_id" db:"user_id"`
	ProblemID     int       `json:"problem_id" db:"problem_id"`
	FirstSolvedAt time.Time `json:"first_solved_at" db:"first_solved_at"`
}

// HistoryEntry is the per-day submission activity counter used for the
// calendar heatmap and the day streak. Counts only grow.
type HistoryEntry struct {
	// Date is the user-local calendar day formatted as YYYY-MM-DD.
	Date string `json:"date" db:"day"`

	// Count is the number of submissions recorded on that day,
	// regardless of outcome.
	Count int `json:"count" db:"count"`
}

// LanguageUsage counts accepted submissions per language tag.
type LanguageUsage struct {
	Language string `json:"language" db:"language"`
	Count    int    `json:"count" db:"count"`
}

// DifficultyStats is a solved/total pair for one difficulty bucket.
type DifficultyStats struct {
	Solved int `json:"solved"`
	Total  int `json:"total"`
}

// OverallStats summarizes a user's progress across the whole catalog.
type OverallStats struct {
	Solved          int `json:"solved"`
	Total           int `json:"total"`
	ProgressPercent int `json:"progressPercent"`
}

// ProgressSnapshot is the single read-model served to dashboard widgets.
// It is derived entirely from persisted submission state plus the pure
// badge evaluation and carries no side effects.
type ProgressSnapshot struct {
	Overall OverallStats `json:"overall"`

	Difficulty struct {
		Easy   DifficultyStats `json:"easy"`
		Medium DifficultyStats `json:"medium"`
		Hard   DifficultyStats `json:"hard"`
	} `json:"difficulty"`

	Streak            int             `json:"streak"`
	SubmissionHistory []HistoryEntry  `json:"submissionHistory"`
	Badges            int             `json:"badges"`
	OwnedBadgeIDs     []int           `json:"ownedBadgeIds"`
	SolvedProblemIDs  []int           `json:"solvedProblemIds"`
	Languages         []LanguageUsage `json:"languages"`
	Kits              []KitProgress   `json:"kits,omitempty"`
}
