package group

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища для групп.
type Repository interface {
	// FindAll возвращает все группы в порядке хранилища.
	FindAll(ctx context.Context) ([]*Group, error)

	// FindByID возвращает группу по ID.
	// Возвращает ошибку вида shared.ErrNotFound, если группа не найдена.
	FindByID(ctx context.Context, id int64) (*Group, error)

	// Save вставляет новую группу (ID == 0) или обновляет существующую.
	Save(ctx context.Context, g *Group) (*Group, error)
}

// Cache - опциональный кеш групп (read-through перед Repository).
type Cache interface {
	// Get возвращает группу из кеша; при промахе (nil, nil).
	Get(ctx context.Context, id int64) (*Group, error)

	// Set кладёт группу в кеш на ttl.
	Set(ctx context.Context, g *Group, ttl time.Duration) error

	// Invalidate удаляет группу из кеша.
	Invalidate(ctx context.Context, id int64) error
}
