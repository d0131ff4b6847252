package service

import (
	"context"
	"fmt"

	"golang.org/x/text/language"

	"github.com/academic-hub/student-records/internal/domain/shared"
	"github.com/academic-hub/student-records/internal/domain/student"
	"github.com/academic-hub/student-records/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// StudentService exposes entity-management operations over students.
// Save and UpdateByID run inside one transaction each; the read operations and
// DeleteByID rely on per-statement atomicity of the store.
type StudentService struct {
	students student.Repository
	groups   GroupLookup
	messages MessageFormatter
	tx       TxManager
	log      *logger.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	students student.Repository,
	groups GroupLookup,
	messages MessageFormatter,
	tx TxManager,
	log *logger.Logger,
) *StudentService {
	if log == nil {
		log = logger.Default()
	}
	return &StudentService{
		students: students,
		groups:   groups,
		messages: messages,
		tx:       tx,
		log:      log.With(logger.Component("student_service")),
	}
}

// GetAll returns every stored student in store order.
func (s *StudentService) GetAll(ctx context.Context, locale language.Tag) ([]*student.Student, error) {
	s.log.Info(
		s.messages.Message(KeyGetAll, []any{subjectStudents}, locale),
		logger.Operation("getAll"),
	)

	students, err := s.students.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("student service: get all: %w", err)
	}
	return students, nil
}

// GetByID returns the student with the given id.
// Fails with a shared.ErrNotFound error when no such student exists.
func (s *StudentService) GetByID(ctx context.Context, id int64, locale language.Tag) (*student.Student, error) {
	st, err := s.students.FindByID(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			s.log.Error(
				s.messages.Message(KeyEntityNotFound, []any{actionGetStudentByID, id}, locale),
				logger.Operation("getById"),
				logger.StudentID(id),
			)
			return nil, shared.StudentNotFound("GetByID", id)
		}
		return nil, fmt.Errorf("student service: get by id %d: %w", id, err)
	}

	s.log.Info(
		s.messages.Message(KeyGetByID, []any{subjectStudent, id}, locale),
		logger.Operation("getById"),
		logger.StudentID(id),
	)
	return st, nil
}

// Save resolves groupID, attaches the group and persists st in one transaction.
// Group resolution errors are returned unchanged and nothing is written.
func (s *StudentService) Save(ctx context.Context, st *student.Student, groupID int64, locale language.Tag) (*student.Student, error) {
	var saved *student.Student

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		g, err := s.groups.GetByID(ctx, groupID, locale)
		if err != nil {
			return err
		}
		st.AssignGroup(g)

		s.log.Info(
			s.messages.Message(KeyAdd, []any{subjectStudent}, locale),
			logger.Operation("add"),
			logger.GroupID(groupID),
		)

		saved, err = s.students.Save(ctx, st)
		return err
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// UpdateByID overwrites first name, last name and group of the stored student
// studentID with the values from st and the group resolved from groupID.
// The stored record is the basis of the update, so its identity and any field
// the payload does not carry are kept. The read-modify-write is one transaction.
func (s *StudentService) UpdateByID(
	ctx context.Context,
	st *student.Student,
	studentID int64,
	groupID int64,
	locale language.Tag,
) (*student.Student, error) {
	var saved *student.Student

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.students.FindByID(ctx, studentID)
		if err != nil {
			if shared.IsNotFound(err) {
				s.log.Error(
					s.messages.Message(KeyEntityNotFound, []any{actionUpdateStudentByID, studentID}, locale),
					logger.Operation("updateById"),
					logger.StudentID(studentID),
				)
				return shared.StudentNotFound("UpdateByID", studentID)
			}
			return fmt.Errorf("student service: load %d: %w", studentID, err)
		}

		current.Rename(st.FirstName, st.LastName)

		g, err := s.groups.GetByID(ctx, groupID, locale)
		if err != nil {
			return err
		}
		current.AssignGroup(g)

		s.log.Info(
			s.messages.Message(KeyUpdateByID, []any{subjectStudent, studentID}, locale),
			logger.Operation("updateById"),
			logger.StudentID(studentID),
			logger.GroupID(groupID),
		)

		saved, err = s.students.Save(ctx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// DeleteByID removes the student with the given id.
// There is no existence check: deleting an unknown id is whatever the store
// makes of it, and the action is logged either way.
func (s *StudentService) DeleteByID(ctx context.Context, id int64, locale language.Tag) error {
	s.log.Info(
		s.messages.Message(KeyDeletedByID, []any{subjectStudent, id}, locale),
		logger.Operation("deletedById"),
		logger.StudentID(id),
	)

	if err := s.students.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("student service: delete %d: %w", id, err)
	}
	return nil
}
