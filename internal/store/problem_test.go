package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/codetrail-lms/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func problemColumns() []string {
	return []string{
		"id", "title", "description", "difficulty", "topic",
		"constraints", "template_code", "created_at", "updated_at",
	}
}

func TestGetDecodesJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(problemColumns()).AddRow(
		42, "Two Sum", "desc", "Easy", "arrays",
		[]byte(`["1 <= n <= 100"]`), []byte(`{"python":"def solve():"}`), now, now,
	)
	mock.ExpectQuery("SELECT id, title").WithArgs(42).WillReturnRows(rows)

	repo := NewProblemRepository(db)
	problem, err := repo.Get(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, []string{"1 <= n <= 100"}, problem.Constraints)
	assert.Equal(t, map[string]string{"python": "def solve():"}, problem.Templates)
	assert.Equal(t, types.DifficultyEasy, problem.Difficulty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReportsCorruptJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(problemColumns()).AddRow(
		42, "Two Sum", "desc", "Easy", "arrays",
		[]byte(`{not json`), []byte(`{}`), now, now,
	)
	mock.ExpectQuery("SELECT id, title").WithArgs(42).WillReturnRows(rows)

	repo := NewProblemRepository(db)
	_, err = repo.Get(context.Background(), 42)

	// A corrupt row must surface, not come back as an empty problem.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraints")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUnknownProblemIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, title").WithArgs(999).
		WillReturnRows(sqlmock.NewRows(problemColumns()))

	repo := NewProblemRepository(db)
	_, err = repo.Get(context.Background(), 999)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
