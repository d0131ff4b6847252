// Package student содержит доменную модель студента.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package student

import (
	"strings"
	"time"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Student - студент, всегда прикреплённый ровно к одной группе.
type Student struct {
	// ID - идентификатор, 0 до первого сохранения.
	ID int64 `json:"id"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Group - группа студента (many-to-one). Обязательна при записи.
	Group *group.Group `json:"group"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New создаёт ещё не сохранённого студента без группы.
// Группа назначается сервисом через AssignGroup перед сохранением.
func New(firstName, lastName string) *Student {
	return &Student{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}
}

// AssignGroup прикрепляет студента к группе.
func (s *Student) AssignGroup(g *group.Group) {
	s.Group = g
}

// Rename перезаписывает имя и фамилию. ID и прочие поля не меняются.
func (s *Student) Rename(firstName, lastName string) {
	s.FirstName = firstName
	s.LastName = lastName
}

// GroupID возвращает ID группы или 0, если группа не назначена.
func (s *Student) GroupID() int64 {
	if s.Group == nil {
		return 0
	}
	return s.Group.ID
}

// IsPersisted возвращает true, если хранилище уже назначило ID.
func (s *Student) IsPersisted() bool {
	return s.ID > 0
}

// ValidateForWrite проверяет инвариант записи: группа назначена.
// Имена проверяются только на наличие.
func (s *Student) ValidateForWrite() error {
	if s.Group == nil || s.Group.ID <= 0 {
		return shared.ErrStudentGroupMissing
	}
	return nil
}

// ValidateNames проверяет, что имя и фамилия не пустые.
func (s *Student) ValidateNames() error {
	if strings.TrimSpace(s.FirstName) == "" || strings.TrimSpace(s.LastName) == "" {
		return shared.ErrStudentNameRequired
	}
	return nil
}
