package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/codetrail-lms/apiserver/types"
)

// KitRepository handles persistence for kits and their problem membership.
type KitRepository struct {
	db *sql.DB
}

func NewKitRepository(db *sql.DB) *KitRepository {
	return &KitRepository{db: db}
}

// List returns every kit with its explicit problem membership.
func (r *KitRepository) List(ctx context.Context) ([]types.Kit, error) {
	const kitsQuery = `SELECT id, name, description FROM kits ORDER BY id`
	rows, err := r.db.QueryContext(ctx, kitsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var kits []types.Kit
	byID := make(map[int]int)
	for rows.Next() {
		var kit types.Kit
		if err := rows.Scan(&kit.ID, &kit.Name, &kit.Description); err != nil {
			return nil, err
		}
		byID[kit.ID] = len(kits)
		kits = append(kits, kit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const membersQuery = `SELECT kit_id, problem_id FROM kit_problems ORDER BY kit_id, problem_id`
	memberRows, err := r.db.QueryContext(ctx, membersQuery)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var kitID, problemID int
		if err := memberRows.Scan(&kitID, &problemID); err != nil {
			return nil, err
		}
		if idx, ok := byID[kitID]; ok {
			kits[idx].ProblemIDs = append(kits[idx].ProblemIDs, problemID)
		}
	}
	return kits, memberRows.Err()
}

func (r *KitRepository) Get(ctx context.Context, id int) (types.Kit, error) {
	const query = `SELECT id, name, description FROM kits WHERE id = $1`
	var kit types.Kit
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&kit.ID, &kit.Name, &kit.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Kit{}, ErrNotFound
		}
		return types.Kit{}, err
	}

	const membersQuery = `SELECT problem_id FROM kit_problems WHERE kit_id = $1 ORDER BY problem_id`
	rows, err := r.db.QueryContext(ctx, membersQuery, id)
	if err != nil {
		return types.Kit{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var problemID int
		if err := rows.Scan(&problemID); err != nil {
			return types.Kit{}, err
		}
		kit.ProblemIDs = append(kit.ProblemIDs, problemID)
	}
	return kit, rows.Err()
}

// SetMembership replaces a kit's problem set, as part of problem authoring.
func (r *KitRepository) SetMembership(ctx context.Context, kitID int, problemIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM kit_problems WHERE kit_id = $1`, kitID); err != nil {
		return err
	}

	const insertQuery = `INSERT INTO kit_problems (kit_id, problem_id) VALUES ($1, $2)`
	for _, problemID := range problemIDs {
		if _, err := tx.ExecContext(ctx, insertQuery, kitID, problemID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
