package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/codetrail-lms/apiserver/types"
)

// SubmissionRepository handles persistence for the append-only submission log.
type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create appends one submission to the log. Submissions are never updated
// or deleted afterwards.
func (r *SubmissionRepository) Create(ctx context.Context, submission types.Submission) (types.Submission, error) {
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now()
	}

	const query = `
		INSERT INTO submissions (user_id, problem_id, code, language, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		submission.UserID,
		submission.ProblemID,
		submission.Code,
		submission.Language,
		submission.Status,
		submission.CreatedAt,
	).Scan(&submission.ID); err != nil {
		return types.Submission{}, err
	}

	return submission, nil
}

func (r *SubmissionRepository) Get(ctx context.Context, id int64) (types.Submission, error) {
	const query = `
		SELECT id, user_id, problem_id, code, language, status, created_at
		FROM submissions
		WHERE id = $1`
	var submission types.Submission
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&submission.ID,
		&submission.UserID,
		&submission.ProblemID,
		&submission.Code,
		&submission.Language,
		&submission.Status,
		&submission.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Submission{}, ErrNotFound
		}
		return types.Submission{}, err
	}
	return submission, nil
}

// ListRecent returns a user's latest submissions, newest first.
func (r *SubmissionRepository) ListRecent(ctx context.Context, userID, limit int) ([]types.Submission, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	const query = `
		SELECT id, user_id, problem_id, code, language, status, created_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []types.Submission
	for rows.Next() {
		var submission types.Submission
		if err := rows.Scan(
			&submission.ID,
			&submission.UserID,
			&submission.ProblemID,
			&submission.Code,
			&submission.Language,
			&submission.Status,
			&submission.CreatedAt,
		); err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	return submissions, rows.Err()
}
