package student

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет основные операции CRUD для студентов.
//
// Реализации берут активную транзакцию из контекста, если она открыта,
// поэтому все вызовы внутри TxManager.WithinTx идут в одну транзакцию.
type Repository interface {
	// FindAll возвращает всех студентов в порядке хранилища (по ID).
	FindAll(ctx context.Context) ([]*Student, error)

	// FindByID возвращает студента по ID.
	// Возвращает ошибку вида shared.ErrNotFound, если студент не найден.
	FindByID(ctx context.Context, id int64) (*Student, error)

	// Save вставляет студента (ID == 0) или обновляет существующего
	// и возвращает сохранённую запись с назначенным ID.
	Save(ctx context.Context, s *Student) (*Student, error)

	// DeleteByID удаляет студента. Отсутствующий ID - не ошибка.
	DeleteByID(ctx context.Context, id int64) error
}
