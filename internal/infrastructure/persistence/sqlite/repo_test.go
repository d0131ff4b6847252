package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/shared"
	"github.com/academic-hub/student-records/internal/domain/student"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedGroup(t *testing.T, db *DB, name string) *group.Group {
	t.Helper()
	g, err := group.NewGroup(name)
	require.NoError(t, err)
	saved, err := NewGroupRepository(db).Save(context.Background(), g)
	require.NoError(t, err)
	return saved
}

func TestGroupRepository_SaveAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	cs := seedGroup(t, db, "CS-101")
	assert.Positive(t, cs.ID)

	found, err := repo.FindByID(ctx, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, "CS-101", found.Name)

	_, err = repo.Save(ctx, &group.Group{Name: "CS-101"})
	assert.ErrorIs(t, err, shared.ErrGroupExists)

	_, err = repo.FindByID(ctx, 999)
	assert.True(t, shared.IsNotFound(err))
	assert.ErrorIs(t, err, shared.ErrGroupNotFound)

	_, err = repo.Save(ctx, &group.Group{ID: 999, Name: "Ghost"})
	assert.ErrorIs(t, err, shared.ErrGroupNotFound)

	seedGroup(t, db, "MATH-1")
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "CS-101", all[0].Name)
	assert.Equal(t, "MATH-1", all[1].Name)
}

func TestStudentRepository_CRUD(t *testing.T) {
	db := openTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()
	g := seedGroup(t, db, "CS-101")

	s := student.New("Ada", "Lovelace")
	s.AssignGroup(g)

	saved, err := repo.Save(ctx, s)
	require.NoError(t, err)
	assert.Positive(t, saved.ID)
	assert.Equal(t, g.ID, saved.GroupID())

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.FirstName)
	assert.Equal(t, "Lovelace", found.LastName)
	assert.Equal(t, "CS-101", found.Group.Name)

	found.Rename("Augusta", "Byron")
	updated, err := repo.Save(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	again, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", again.FirstName)
	assert.Equal(t, "Byron", again.LastName)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))
	_, err = repo.FindByID(ctx, saved.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)

	// Удаление отсутствующего id не ошибка.
	assert.NoError(t, repo.DeleteByID(ctx, saved.ID))
	assert.NoError(t, repo.DeleteByID(ctx, 12345))
}

func TestStudentRepository_FindAllEmpty(t *testing.T) {
	db := openTestDB(t)

	all, err := NewStudentRepository(db).FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestStudentRepository_SaveRequiresGroup(t *testing.T) {
	db := openTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	_, err := repo.Save(ctx, student.New("Ada", "Lovelace"))
	assert.ErrorIs(t, err, shared.ErrStudentGroupMissing)

	orphan := student.New("Ada", "Lovelace")
	orphan.AssignGroup(&group.Group{ID: 77, Name: "Nowhere"})
	_, err = repo.Save(ctx, orphan)
	assert.ErrorIs(t, err, shared.ErrGroupNotFound)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTxManager_RollbackOnError(t *testing.T) {
	db := openTestDB(t)
	repo := NewStudentRepository(db)
	tx := NewTxManager(db)
	ctx := context.Background()
	g := seedGroup(t, db, "CS-101")

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		s := student.New("Ada", "Lovelace")
		s.AssignGroup(g)
		if _, err := repo.Save(ctx, s); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTxManager_CommitAndJoin(t *testing.T) {
	db := openTestDB(t)
	repo := NewStudentRepository(db)
	tx := NewTxManager(db)
	ctx := context.Background()
	g := seedGroup(t, db, "CS-101")

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		return tx.WithinTx(ctx, func(ctx context.Context) error {
			s := student.New("Ada", "Lovelace")
			s.AssignGroup(g)
			_, err := repo.Save(ctx, s)
			return err
		})
	})
	require.NoError(t, err)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConstraintErrorClassification(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := formatTime(time.Now())
	g := seedGroup(t, db, "CS-101")

	_, err := db.db.ExecContext(ctx,
		`INSERT INTO groups (name, created_at, updated_at) VALUES (?, ?, ?)`, "CS-101", now, now)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
	assert.False(t, isForeignKeyViolation(err))

	_, err = db.db.ExecContext(ctx,
		`INSERT INTO students (first_name, last_name, group_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"Ada", "Lovelace", g.ID+1, now, now)
	require.Error(t, err)
	assert.True(t, isForeignKeyViolation(err))
	assert.False(t, isUniqueViolation(err))

	wrapped := fmt.Errorf("save: %w", err)
	assert.True(t, isForeignKeyViolation(wrapped))

	assert.False(t, isUniqueViolation(errors.New("UNIQUE constraint failed: groups.name")))
	assert.False(t, isForeignKeyViolation(nil))
}

func TestOpen_MemoryDatabaseKeepsItsConnection(t *testing.T) {
	db := openTestDB(t)
	seedGroup(t, db, "CS-101")

	groups, err := NewGroupRepository(db).FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	stats := db.db.Stats()
	assert.Equal(t, 1, stats.MaxOpenConnections)
	assert.Equal(t, 1, stats.OpenConnections)
	assert.Zero(t, stats.MaxIdleClosed)
	assert.Zero(t, stats.MaxIdleTimeClosed)
	assert.Zero(t, stats.MaxLifetimeClosed)
}
