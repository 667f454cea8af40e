package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/codetrail-lms/apiserver/types"
)

// dayFormat is the wire format of calendar days. Days are always derived
// in UTC so the live write path and Reconcile agree on which day a
// submission belongs to regardless of process or session timezones.
const dayFormat = "2006-01-02"

// ProgressRepository handles the derived progress tables. solved_records and
// submission_history are materialized views over the submission log: every
// write here is an atomic conditional write so concurrent submissions cannot
// corrupt them, and both tables can be rebuilt from the log.
type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// UpsertSolvedRecord inserts the first-acceptance marker for (user, problem).
// The insert-if-not-exists keeps resubmissions of an already-solved problem
// from creating duplicates, including under concurrent submissions.
// It returns true when a new record was created.
func (r *ProgressRepository) UpsertSolvedRecord(ctx context.Context, userID, problemID int, solvedAt time.Time) (bool, error) {
	const query = `
		INSERT INTO solved_records (user_id, problem_id, first_solved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, problem_id) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, userID, problemID, solvedAt)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// IncrementHistory bumps the activity counter for (user, day) atomically.
// The day is the UTC calendar day of the given instant, matching how
// Reconcile regroups the log. The counter only ever grows.
func (r *ProgressRepository) IncrementHistory(ctx context.Context, userID int, at time.Time) error {
	const query = `
		INSERT INTO submission_history (user_id, day, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, day) DO UPDATE SET count = submission_history.count + 1`
	_, err := r.db.ExecContext(ctx, query, userID, at.UTC().Format(dayFormat))
	return err
}

// SolvedProblemIDs returns the distinct problems a user has solved,
// in ascending id order.
func (r *ProgressRepository) SolvedProblemIDs(ctx context.Context, userID int) ([]int, error) {
	const query = `
		SELECT problem_id
		FROM solved_records
		WHERE user_id = $1
		ORDER BY problem_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SolvedByDifficulty returns a user's distinct solved counts per difficulty.
func (r *ProgressRepository) SolvedByDifficulty(ctx context.Context, userID int) (map[types.Difficulty]int, error) {
	const query = `
		SELECT p.difficulty, COUNT(1)
		FROM solved_records sr
		JOIN problems p ON p.id = sr.problem_id
		WHERE sr.user_id = $1
		GROUP BY p.difficulty`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[types.Difficulty]int)
	for rows.Next() {
		var difficulty types.Difficulty
		var count int
		if err := rows.Scan(&difficulty, &count); err != nil {
			return nil, err
		}
		counts[difficulty] = count
	}
	return counts, rows.Err()
}

// History returns the user's per-day activity counters since the given day,
// oldest first.
func (r *ProgressRepository) History(ctx context.Context, userID int, since time.Time) ([]types.HistoryEntry, error) {
	const query = `
		SELECT to_char(day, 'YYYY-MM-DD'), count
		FROM submission_history
		WHERE user_id = $1 AND day >= $2
		ORDER BY day`
	rows, err := r.db.QueryContext(ctx, query, userID, since.UTC().Format(dayFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var entry types.HistoryEntry
		if err := rows.Scan(&entry.Date, &entry.Count); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ActiveDays returns the set of days with at least one submission,
// keyed by YYYY-MM-DD. Used by the streak walk.
func (r *ProgressRepository) ActiveDays(ctx context.Context, userID int) (map[string]int, error) {
	const query = `
		SELECT to_char(day, 'YYYY-MM-DD'), count
		FROM submission_history
		WHERE user_id = $1 AND count > 0`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		days[day] = count
	}
	return days, rows.Err()
}

// LanguageUsage counts a user's accepted submissions per language,
// most used first. Counted per accepted submission, not per solved problem,
// so re-solving in a new language grows that bucket.
func (r *ProgressRepository) LanguageUsage(ctx context.Context, userID int) ([]types.LanguageUsage, error) {
	const query = `
		SELECT language, COUNT(1)
		FROM submissions
		WHERE user_id = $1 AND status = 'Accepted'
		GROUP BY language
		ORDER BY COUNT(1) DESC, language`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []types.LanguageUsage
	for rows.Next() {
		var u types.LanguageUsage
		if err := rows.Scan(&u.Language, &u.Count); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// Divergence describes how a derived table disagrees with the submission log.
type Divergence struct {
	// OrphanSolvedRecords are solved_records rows with no accepted
	// submission backing them.
	OrphanSolvedRecords int

	// MissingSolvedRecords are accepted (user, problem) pairs in the log
	// with no solved_records row.
	MissingSolvedRecords int

	// HistoryMismatches are (user, day) counters that disagree with the
	// per-day submission count in the log.
	HistoryMismatches int
}

// Empty reports whether no divergence was found.
func (d Divergence) Empty() bool {
	return d.OrphanSolvedRecords == 0 && d.MissingSolvedRecords == 0 && d.HistoryMismatches == 0
}

// Reconcile recomputes a user's solved_records and submission_history from
// the submission log inside one transaction. It reports the divergence found
// before repairing; callers must log a non-empty divergence since it indicates
// a broken write path, not normal operation.
func (r *ProgressRepository) Reconcile(ctx context.Context, userID int) (Divergence, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Divergence{}, err
	}
	defer tx.Rollback()

	var divergence Divergence

	const orphanQuery = `
		SELECT COUNT(1)
		FROM solved_records sr
		WHERE sr.user_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM submissions s
			WHERE s.user_id = sr.user_id AND s.problem_id = sr.problem_id AND s.status = 'Accepted')`
	if err := tx.QueryRowContext(ctx, orphanQuery, userID).Scan(&divergence.OrphanSolvedRecords); err != nil {
		return Divergence{}, err
	}

	const missingQuery = `
		SELECT COUNT(DISTINCT s.problem_id)
		FROM submissions s
		WHERE s.user_id = $1 AND s.status = 'Accepted'
		  AND NOT EXISTS (
			SELECT 1 FROM solved_records sr
			WHERE sr.user_id = s.user_id AND sr.problem_id = s.problem_id)`
	if err := tx.QueryRowContext(ctx, missingQuery, userID).Scan(&divergence.MissingSolvedRecords); err != nil {
		return Divergence{}, err
	}

	const historyMismatchQuery = `
		SELECT COUNT(1)
		FROM (
			SELECT (created_at AT TIME ZONE 'UTC')::date AS day, COUNT(1) AS log_count
			FROM submissions
			WHERE user_id = $1
			GROUP BY (created_at AT TIME ZONE 'UTC')::date
		) logged
		FULL OUTER JOIN (
			SELECT day, count
			FROM submission_history
			WHERE user_id = $1
		) derived ON derived.day = logged.day
		WHERE COALESCE(derived.count, 0) <> COALESCE(logged.log_count, 0)`
	if err := tx.QueryRowContext(ctx, historyMismatchQuery, userID).Scan(&divergence.HistoryMismatches); err != nil {
		return Divergence{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM solved_records WHERE user_id = $1`, userID); err != nil {
		return Divergence{}, err
	}
	const rebuildSolvedQuery = `
		INSERT INTO solved_records (user_id, problem_id, first_solved_at)
		SELECT user_id, problem_id, MIN(created_at)
		FROM submissions
		WHERE user_id = $1 AND status = 'Accepted'
		GROUP BY user_id, problem_id`
	if _, err := tx.ExecContext(ctx, rebuildSolvedQuery, userID); err != nil {
		return Divergence{}, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM submission_history WHERE user_id = $1`, userID); err != nil {
		return Divergence{}, err
	}
	const rebuildHistoryQuery = `
		INSERT INTO submission_history (user_id, day, count)
		SELECT user_id, (created_at AT TIME ZONE 'UTC')::date, COUNT(1)
		FROM submissions
		WHERE user_id = $1
		GROUP BY user_id, (created_at AT TIME ZONE 'UTC')::date`
	if _, err := tx.ExecContext(ctx, rebuildHistoryQuery, userID); err != nil {
		return Divergence{}, err
	}

	if err := tx.Commit(); err != nil {
		return Divergence{}, err
	}
	return divergence, nil
}

// UserIDsWithSubmissions lists every user present in the submission log,
// for whole-system reconciliation.
func (r *ProgressRepository) UserIDsWithSubmissions(ctx context.Context) ([]int, error) {
	const query = `SELECT DISTINCT user_id FROM submissions ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
