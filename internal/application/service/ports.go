// Package service contains the business-logic services of the application layer.
// Services orchestrate domain repositories and collaborators; they own no state.
package service

import (
	"context"

	"golang.org/x/text/language"

	"github.com/academic-hub/student-records/internal/domain/group"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATORS
// ══════════════════════════════════════════════════════════════════════════════

// GroupLookup resolves a group identifier to a Group.
// Implementations fail with an error of kind shared.ErrNotFound when absent.
type GroupLookup interface {
	GetByID(ctx context.Context, id int64, locale language.Tag) (*group.Group, error)
}

// MessageFormatter renders a locale-specific message for a key and positional args.
// It is used for human-readable log lines only.
type MessageFormatter interface {
	Message(key string, args []any, locale language.Tag) string
}

// TxManager runs fn inside one transaction.
// The transaction is committed when fn returns nil and rolled back otherwise;
// the context passed to fn carries the transaction for repositories to pick up.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE KEYS
// ══════════════════════════════════════════════════════════════════════════════

// Message keys understood by every MessageFormatter.
const (
	KeyGetAll         = "getAll"
	KeyGetByID        = "getById"
	KeyAdd            = "add"
	KeyUpdateByID     = "updateById"
	KeyDeletedByID    = "deletedById"
	KeyEntityNotFound = "EntityNotFoundException"
)

// Message arguments naming the entity or the failed action.
const (
	subjectStudent  = "student"
	subjectStudents = "students"
	subjectGroup    = "group"
	subjectGroups   = "groups"

	actionGetStudentByID    = "Get student by id"
	actionUpdateStudentByID = "Update student by id"
	actionGetGroupByID      = "Get group by id"
)
