package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/shared"
	"github.com/academic-hub/student-records/internal/domain/student"
)

const selectStudents = `
	SELECT s.id, s.first_name, s.last_name, s.created_at, s.updated_at,
	       g.id, g.name, g.created_at, g.updated_at
	FROM students s
	JOIN groups g ON g.id = s.group_id`

// StudentRepository implements student.Repository for SQLite.
type StudentRepository struct {
	db *DB
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindAll returns all students ordered by id.
func (r *StudentRepository) FindAll(ctx context.Context) ([]*student.Student, error) {
	rows, err := r.db.querier(ctx).QueryContext(ctx, selectStudents+` ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	row := r.db.querier(ctx).QueryRowContext(ctx, selectStudents+` WHERE s.id = ?`, id)
	st, err := scanStudent(row)
	if err != nil {
		if isNoRows(err) {
			return nil, shared.StudentNotFound("FindByID", id)
		}
		return nil, err
	}
	return st, nil
}

// Save inserts a new student (ID == 0) or upserts by id.
func (r *StudentRepository) Save(ctx context.Context, s *student.Student) (*student.Student, error) {
	if err := s.ValidateForWrite(); err != nil {
		return nil, err
	}

	q := r.db.querier(ctx)
	now := time.Now().UTC()
	saved := *s
	saved.UpdatedAt = now

	var err error
	if !s.IsPersisted() {
		saved.CreatedAt = now
		var id int64
		id, err = insertReturningID(ctx, q, `
			INSERT INTO students (first_name, last_name, group_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			s.FirstName, s.LastName, s.GroupID(), formatTime(now), formatTime(now))
		saved.ID = id
	} else {
		if saved.CreatedAt.IsZero() {
			saved.CreatedAt = now
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO students (id, first_name, last_name, group_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				group_id = excluded.group_id,
				updated_at = excluded.updated_at`,
			s.ID, s.FirstName, s.LastName, s.GroupID(), formatTime(saved.CreatedAt), formatTime(now))
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, shared.GroupNotFound("SaveStudent", s.GroupID())
		}
		return nil, fmt.Errorf("failed to save student: %w", err)
	}

	return &saved, nil
}

// DeleteByID removes a student. A missing id is a no-op.
func (r *StudentRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.querier(ctx).ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (*student.Student, error) {
	var (
		s                  student.Student
		g                  group.Group
		sCreated, sUpdated string
		gCreated, gUpdated string
	)

	if err := row.Scan(
		&s.ID, &s.FirstName, &s.LastName, &sCreated, &sUpdated,
		&g.ID, &g.Name, &gCreated, &gUpdated,
	); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	var err error
	if s.CreatedAt, err = parseTime(sCreated); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(sUpdated); err != nil {
		return nil, err
	}
	if g.CreatedAt, err = parseTime(gCreated); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(gUpdated); err != nil {
		return nil, err
	}

	s.Group = &g
	return &s, nil
}

func insertReturningID(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
