package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/shared"
)

// GroupRepository implements group.Repository for PostgreSQL.
type GroupRepository struct {
	conn *Connection
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(conn *Connection) *GroupRepository {
	return &GroupRepository{conn: conn}
}

// FindAll returns all groups ordered by id.
func (r *GroupRepository) FindAll(ctx context.Context) ([]*group.Group, error) {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT id, name, created_at, updated_at FROM groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

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
	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	g, err := scanGroup(q.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM groups WHERE id = $1`, id))
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
	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	saved := *g
	saved.UpdatedAt = now

	if !g.IsPersisted() {
		saved.CreatedAt = now
		err = q.QueryRow(ctx, `
			INSERT INTO groups (name, created_at, updated_at)
			VALUES ($1, $2, $3)
			RETURNING id`,
			g.Name, now, now,
		).Scan(&saved.ID)
	} else {
		err = q.QueryRow(ctx, `
			UPDATE groups SET name = $1, updated_at = $2
			WHERE id = $3
			RETURNING created_at`,
			g.Name, now, g.ID,
		).Scan(&saved.CreatedAt)
		if isNoRows(err) {
			return nil, shared.GroupNotFound("Save", g.ID)
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrGroupExists
		}
		return nil, fmt.Errorf("failed to save group: %w", err)
	}

	return &saved, nil
}

func scanGroup(row pgx.Row) (*group.Group, error) {
	var g group.Group
	if err := row.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan group: %w", err)
	}
	return &g, nil
}
