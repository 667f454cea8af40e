package types

import "time"

// Difficulty is the coarse difficulty bucket of a problem.
type Difficulty string

// Supported difficulty values.
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulty buckets.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Problem represents a coding exercise in the platform.
// Problems are authored by administrators and immutable for regular users.
type Problem struct {
	// ID is the unique identifier of the problem.
	ID int `json:"id" db:"id"`

	// Title is the human-readable name of the problem.
	Title string `json:"title" db:"title"`

	// Description contains the full problem statement.
	Description string `json:"description" db:"description"`

	// Difficulty is the difficulty bucket (Easy, Medium or Hard).
	Difficulty Difficulty `json:"difficulty" db:"difficulty"`

	// Topic is the primary topic tag of the problem (e.g. "Arrays").
	Topic string `json:"topic" db:"topic"`

	// Constraints is the list of constraint strings shown with the statement.
	Constraints []string `json:"constraints" db:"constraints"`

	// Templates maps a language tag to the starter code shown in the editor.
	Templates map[string]string `json:"template_code" db:"template_code"`

	// Examples are the visible input/output pairs shown before submission.
	// They are the non-hidden subset of the problem's test cases.
	Examples []Example `json:"examples,omitempty"`

	// CreatedAt is the timestamp at which the problem was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the problem.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Example is a visible input/output pair attached to a problem statement.
type Example struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation"`
}

// TestCase represents a single input/expected-output pair used to judge
// submissions. Hidden cases are used at submission time only and never
// exposed to users.
type TestCase struct {
	// ID is the unique identifier of the test case.
	ID int `json:"id" db:"id"`

	// ProblemID is the identifier of the problem this case belongs to.
	ProblemID int `json:"problem_id" db:"problem_id"`

	// Input is the stdin fed to the user's program.
	Input string `json:"input" db:"input"`

	// ExpectedOutput is the output produced by a correct solution.
	ExpectedOutput string `json:"expected_output" db:"expected_output"`

	// IsHidden indicates whether this case is withheld from users
	// before submission.
	IsHidden bool `json:"is_hidden" db:"is_hidden"`
}

// Kit is a themed grouping of problems (e.g. "Arrays"). Membership is an
// explicit problem set maintained at authoring time.
type Kit struct {
	// ID is the unique identifier of the kit.
	ID int `json:"id" db:"id"`

	// Name is the human-readable name of the kit.
	Name string `json:"name" db:"name"`

	// Description explains the theme of the kit.
	Description string `json:"description" db:"description"`

	// ProblemIDs is the set of problems that belong to this kit.
	ProblemIDs []int `json:"problem_ids,omitempty"`
}

// KitProgress is a user's completion state within one kit.
type KitProgress struct {
	KitID  int    `json:"kit_id"`
	Name   string `json:"name"`
	Solved int    `json:"solved"`
	Total  int    `json:"total"`
}

// TestCaseArchive references a raw testcase bundle kept in object storage
// after an administrator imports cases for a problem.
type TestCaseArchive struct {
	// ObjectKey is the key of the archive in object storage.
	ObjectKey string `json:"object_key"`

	// SHA256 is the hex-encoded SHA-256 hash of the archive contents.
	SHA256 string `json:"sha256"`

	// Cases is the number of test cases extracted from the archive.
	Cases int `json:"cases"`
}
