package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codetrail-lms/apiserver/types"
)

// ProblemRepository handles persistence for problems and their test cases.
type ProblemRepository struct {
	db *sql.DB
}

func NewProblemRepository(db *sql.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

func (r *ProblemRepository) List(ctx context.Context, offset, limit int) ([]types.Problem, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM problems`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, title, description, difficulty, topic, constraints, template_code, created_at, updated_at
		FROM problems
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	problems := make([]types.Problem, 0, limit)
	for rows.Next() {
		problem, err := scanProblem(rows)
		if err != nil {
			return nil, 0, err
		}
		problems = append(problems, problem)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return problems, total, nil
}

func (r *ProblemRepository) Get(ctx context.Context, id int) (types.Problem, error) {
	const query = `
		SELECT id, title, description, difficulty, topic, constraints, template_code, created_at, updated_at
		FROM problems
		WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	problem, err := scanProblem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Problem{}, ErrNotFound
		}
		return types.Problem{}, err
	}
	return problem, nil
}

func (r *ProblemRepository) Create(ctx context.Context, problem types.Problem) (types.Problem, error) {
	now := time.Now()
	problem.CreatedAt = now
	problem.UpdatedAt = now

	constraintsJSON, templatesJSON, err := marshalProblemJSON(problem)
	if err != nil {
		return types.Problem{}, err
	}

	const query = `
		INSERT INTO problems (title, description, difficulty, topic, constraints, template_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		problem.Title,
		problem.Description,
		problem.Difficulty,
		problem.Topic,
		constraintsJSON,
		templatesJSON,
		problem.CreatedAt,
		problem.UpdatedAt,
	).Scan(&problem.ID); err != nil {
		return types.Problem{}, err
	}

	return problem, nil
}

func (r *ProblemRepository) Update(ctx context.Context, problem types.Problem) (types.Problem, error) {
	problem.UpdatedAt = time.Now()

	constraintsJSON, templatesJSON, err := marshalProblemJSON(problem)
	if err != nil {
		return types.Problem{}, err
	}

	const query = `
		UPDATE problems
		SET title = $1,
			description = $2,
			difficulty = $3,
			topic = $4,
			constraints = $5,
			template_code = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		problem.Title,
		problem.Description,
		problem.Difficulty,
		problem.Topic,
		constraintsJSON,
		templatesJSON,
		problem.UpdatedAt,
		problem.ID,
	)
	if err != nil {
		return types.Problem{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Problem{}, err
	}
	if affected == 0 {
		return types.Problem{}, ErrNotFound
	}

	return problem, nil
}

func (r *ProblemRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM problems WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTestCases returns every test case of a problem in insertion order.
// The full set, hidden cases included, is used at submission time.
func (r *ProblemRepository) ListTestCases(ctx context.Context, problemID int) ([]types.TestCase, error) {
	const query = `
		SELECT id, problem_id, input, expected_output, is_hidden
		FROM test_cases
		WHERE problem_id = $1
		ORDER BY id`
	return r.queryTestCases(ctx, query, problemID)
}

// ListExamples returns only the visible test cases of a problem.
func (r *ProblemRepository) ListExamples(ctx context.Context, problemID int) ([]types.TestCase, error) {
	const query = `
		SELECT id, problem_id, input, expected_output, is_hidden
		FROM test_cases
		WHERE problem_id = $1 AND is_hidden = FALSE
		ORDER BY id`
	return r.queryTestCases(ctx, query, problemID)
}

// ReplaceTestCases swaps the full test-case set of a problem in one
// transaction, as part of an archive import.
func (r *ProblemRepository) ReplaceTestCases(ctx context.Context, problemID int, cases []types.TestCase) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM test_cases WHERE problem_id = $1`, problemID); err != nil {
		return err
	}

	const insertQuery = `
		INSERT INTO test_cases (problem_id, input, expected_output, is_hidden)
		VALUES ($1, $2, $3, $4)`
	for _, tc := range cases {
		if _, err := tx.ExecContext(ctx, insertQuery, problemID, tc.Input, tc.ExpectedOutput, tc.IsHidden); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CountByDifficulty returns the catalog size per difficulty bucket.
func (r *ProblemRepository) CountByDifficulty(ctx context.Context) (map[types.Difficulty]int, error) {
	const query = `SELECT difficulty, COUNT(1) FROM problems GROUP BY difficulty`
	rows, err := r.db.QueryContext(ctx, query)
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

func (r *ProblemRepository) queryTestCases(ctx context.Context, query string, problemID int) ([]types.TestCase, error) {
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []types.TestCase
	for rows.Next() {
		var tc types.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput, &tc.IsHidden); err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProblem(row rowScanner) (types.Problem, error) {
	var problem types.Problem
	var constraintsJSON, templatesJSON []byte
	if err := row.Scan(
		&problem.ID,
		&problem.Title,
		&problem.Description,
		&problem.Difficulty,
		&problem.Topic,
		&constraintsJSON,
		&templatesJSON,
		&problem.CreatedAt,
		&problem.UpdatedAt,
	); err != nil {
		return types.Problem{}, err
	}

	if len(constraintsJSON) > 0 {
		if err := json.Unmarshal(constraintsJSON, &problem.Constraints); err != nil {
			return types.Problem{}, fmt.Errorf("decode problem %d constraints: %w", problem.ID, err)
		}
	}
	if len(templatesJSON) > 0 {
		if err := json.Unmarshal(templatesJSON, &problem.Templates); err != nil {
			return types.Problem{}, fmt.Errorf("decode problem %d templates: %w", problem.ID, err)
		}
	}
	return problem, nil
}

func marshalProblemJSON(problem types.Problem) ([]byte, []byte, error) {
	constraints := problem.Constraints
	if constraints == nil {
		constraints = []string{}
	}
	constraintsJSON, err := json.Marshal(constraints)
	if err != nil {
		return nil, nil, err
	}

	templates := problem.Templates
	if templates == nil {
		templates = map[string]string{}
	}
	templatesJSON, err := json.Marshal(templates)
	if err != nil {
		return nil, nil, err
	}

	return constraintsJSON, templatesJSON, nil
}
