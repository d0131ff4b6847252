package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/shared"
	"github.com/academic-hub/student-records/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const studentColumns = `
	s.id, s.first_name, s.last_name, s.created_at, s.updated_at,
	g.id, g.name, g.created_at, g.updated_at
`

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

// FindAll returns all students ordered by id.
func (r *StudentRepository) FindAll(ctx context.Context) ([]*student.Student, error) {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + studentColumns + `
		FROM students s
		JOIN groups g ON g.id = s.group_id
		ORDER BY s.id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := make([]*student.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}

	return students, nil
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*student.Student, error) {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + studentColumns + `
		FROM students s
		JOIN groups g ON g.id = s.group_id
		WHERE s.id = $1`

	st, err := scanStudent(q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, shared.StudentNotFound("FindByID", id)
		}
		return nil, err
	}
	return st, nil
}

// Save inserts a new student (ID == 0) or updates an existing one.
// An update of a missing id inserts it under that id.
func (r *StudentRepository) Save(ctx context.Context, s *student.Student) (*student.Student, error) {
	if err := s.ValidateForWrite(); err != nil {
		return nil, err
	}

	q, err := r.conn.querier(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	saved := *s
	saved.UpdatedAt = now

	if !s.IsPersisted() {
		saved.CreatedAt = now
		err = q.QueryRow(ctx, `
			INSERT INTO students (first_name, last_name, group_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			s.FirstName, s.LastName, s.GroupID(), now, now,
		).Scan(&saved.ID)
	} else {
		if saved.CreatedAt.IsZero() {
			saved.CreatedAt = now
		}
		err = q.QueryRow(ctx, `
			INSERT INTO students (id, first_name, last_name, group_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				group_id = EXCLUDED.group_id,
				updated_at = EXCLUDED.updated_at
			RETURNING created_at`,
			s.ID, s.FirstName, s.LastName, s.GroupID(), saved.CreatedAt, now,
		).Scan(&saved.CreatedAt)
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, shared.GroupNotFound("SaveStudent", s.GroupID())
		}
		return nil, fmt.Errorf("failed to save student: %w", err)
	}

	return &saved, nil
}

// DeleteByID removes a student. Deleting a missing id affects no rows and is not an error.
func (r *StudentRepository) DeleteByID(ctx context.Context, id int64) error {
	q, err := r.conn.querier(ctx)
	if err != nil {
		return err
	}

	if _, err := q.Exec(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

func scanStudent(row pgx.Row) (*student.Student, error) {
	var (
		s student.Student
		g group.Group
	)

	err := row.Scan(
		&s.ID, &s.FirstName, &s.LastName, &s.CreatedAt, &s.UpdatedAt,
		&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	s.Group = &g
	return &s, nil
}
