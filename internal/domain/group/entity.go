// Package group содержит доменную модель учебной группы.
// Группа принадлежит отдельному сервису; студенты лишь ссылаются на неё.
package group

import (
	"strings"
	"time"

	"github.com/academic-hub/student-records/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GROUP ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Group - учебная группа, к которой прикреплены студенты.
type Group struct {
	// ID - идентификатор, назначается хранилищем при создании.
	ID int64 `json:"id"`

	// Name - название группы (например, "CS-101").
	Name string `json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGroup создаёт ещё не сохранённую группу.
func NewGroup(name string) (*Group, error) {
	g := &Group{Name: strings.TrimSpace(name)}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate проверяет наличие обязательных полей.
func (g *Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return shared.ErrGroupNameRequired
	}
	return nil
}

// IsPersisted возвращает true, если хранилище уже назначило ID.
func (g *Group) IsPersisted() bool {
	return g.ID > 0
}
