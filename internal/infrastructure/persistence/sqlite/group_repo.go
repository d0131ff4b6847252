package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/shared"
)

// GroupRepository implements group.Repository for SQLite.
type GroupRepository struct {
	db *DB
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// FindAll returns all groups ordered by id.
func (r *GroupRepository) FindAll(ctx context.Context) ([]*group.Group, error) {
	rows, err := r.db.querier(ctx).QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	groups := make([]*group.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// FindByID returns a group by id.
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*group.Group, error) {
	row := r.db.querier(ctx).QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if err != nil {
		if isNoRows(err) {
			return nil, shared.GroupNotFound("FindByID", id)
		}
		return nil, err
	}
	return g, nil
}

// Save inserts a new group (ID == 0) or renames an existing one.
func (r *GroupRepository) Save(ctx context.Context, g *group.Group) (*group.Group, error) {
	q := r.db.querier(ctx)
	now := time.Now().UTC()
	saved := *g
	saved.UpdatedAt = now

	if !g.IsPersisted() {
		saved.CreatedAt = now
		id, err := insertReturningID(ctx, q,
			`INSERT INTO groups (name, created_at, updated_at) VALUES (?, ?, ?)`,
			g.Name, formatTime(now), formatTime(now))
		if err != nil {
			if isUniqueViolation(err) {
				return nil, shared.ErrGroupExists
			}
			return nil, fmt.Errorf("failed to insert group: %w", err)
		}
		saved.ID = id
		return &saved, nil
	}

	res, err := q.ExecContext(ctx,
		`UPDATE groups SET name = ?, updated_at = ? WHERE id = ?`,
		g.Name, formatTime(now), g.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrGroupExists
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, shared.GroupNotFound("Save", g.ID)
	}
	return &saved, nil
}

func scanGroup(row scanner) (*group.Group, error) {
	var (
		g                group.Group
		created, updated string
	)
	if err := row.Scan(&g.ID, &g.Name, &created, &updated); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan group: %w", err)
	}

	var err error
	if g.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &g, nil
}
