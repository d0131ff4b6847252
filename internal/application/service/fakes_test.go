package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/shared"
	"github.com/academic-hub/student-records/internal/domain/student"
	"github.com/academic-hub/student-records/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY STUDENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type memStudents struct {
	mu     sync.Mutex
	rows   map[int64]student.Student
	nextID int64

	findAllErr error
	deleteErr  error
	saves      int
	deletes    []int64
}

func newMemStudents() *memStudents {
	return &memStudents{rows: make(map[int64]student.Student), nextID: 1}
}

func (m *memStudents) FindAll(_ context.Context) ([]*student.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findAllErr != nil {
		return nil, m.findAllErr
	}

	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*student.Student, 0, len(ids))
	for _, id := range ids {
		s := m.rows[id]
		out = append(out, &s)
	}
	return out, nil
}

func (m *memStudents) FindByID(_ context.Context, id int64) (*student.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, shared.StudentNotFound("FindByID", id)
	}
	return &s, nil
}

func (m *memStudents) Save(_ context.Context, s *student.Student) (*student.Student, error) {
	if err := s.ValidateForWrite(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++

	saved := *s
	now := time.Now().UTC()
	if !saved.IsPersisted() {
		saved.ID = m.nextID
		m.nextID++
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	m.rows[saved.ID] = saved
	if saved.ID >= m.nextID {
		m.nextID = saved.ID + 1
	}
	out := saved
	return &out, nil
}

func (m *memStudents) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, id)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.rows, id)
	return nil
}

func (m *memStudents) snapshot() (map[int64]student.Student, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make(map[int64]student.Student, len(m.rows))
	for k, v := range m.rows {
		rows[k] = v
	}
	return rows, m.nextID
}

func (m *memStudents) restore(rows map[int64]student.Student, nextID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
	m.nextID = nextID
}

func (m *memStudents) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY GROUP REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type memGroups struct {
	mu     sync.Mutex
	rows   map[int64]group.Group
	nextID int64
	finds  int
}

func newMemGroups(names ...string) *memGroups {
	m := &memGroups{rows: make(map[int64]group.Group), nextID: 1}
	for _, n := range names {
		_, _ = m.Save(context.Background(), &group.Group{Name: n})
	}
	return m
}

func (m *memGroups) FindAll(_ context.Context) ([]*group.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*group.Group, 0, len(ids))
	for _, id := range ids {
		g := m.rows[id]
		out = append(out, &g)
	}
	return out, nil
}

func (m *memGroups) FindByID(_ context.Context, id int64) (*group.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	g, ok := m.rows[id]
	if !ok {
		return nil, shared.GroupNotFound("FindByID", id)
	}
	return &g, nil
}

func (m *memGroups) Save(_ context.Context, g *group.Group) (*group.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.rows {
		if existing.Name == g.Name && id != g.ID {
			return nil, shared.ErrGroupExists
		}
	}
	saved := *g
	if !saved.IsPersisted() {
		saved.ID = m.nextID
		m.nextID++
	}
	m.rows[saved.ID] = saved
	return &saved, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATOR FAKES
// ══════════════════════════════════════════════════════════════════════════════

// snapshotTx restores the student store when fn fails.
type snapshotTx struct {
	students *memStudents
	calls    int
	rollback int
}

func (t *snapshotTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	rows, next := t.students.snapshot()
	if err := fn(ctx); err != nil {
		t.rollback++
		t.students.restore(rows, next)
		return err
	}
	return nil
}

// passTx runs fn without transactional semantics.
type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// echoMessages renders "key|arg1|arg2|locale" so tests can assert on keys.
type echoMessages struct{}

func (echoMessages) Message(key string, args []any, locale language.Tag) string {
	parts := []string{key}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	parts = append(parts, locale.String())
	return strings.Join(parts, "|")
}

// stubGroups is a GroupLookup returning a fixed group or error.
type stubGroups struct {
	group *group.Group
	err   error
	calls int
}

func (s *stubGroups) GetByID(_ context.Context, id int64, _ language.Tag) (*group.Group, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.group == nil || s.group.ID != id {
		return nil, shared.GroupNotFound("GetByID", id)
	}
	g := *s.group
	return &g, nil
}

type memGroupCache struct {
	rows        map[int64]group.Group
	sets        int
	invalidated []int64
	setErr      error
}

func newMemGroupCache() *memGroupCache {
	return &memGroupCache{rows: make(map[int64]group.Group)}
}

func (c *memGroupCache) Get(_ context.Context, id int64) (*group.Group, error) {
	g, ok := c.rows[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (c *memGroupCache) Set(_ context.Context, g *group.Group, _ time.Duration) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.rows[g.ID] = *g
	return nil
}

func (c *memGroupCache) Invalidate(_ context.Context, id int64) error {
	c.invalidated = append(c.invalidated, id)
	delete(c.rows, id)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG CAPTURE
// ══════════════════════════════════════════════════════════════════════════════

type logLine struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields"`
}

type logSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) lines(t *testing.T) []logLine {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []logLine
	for _, raw := range strings.Split(strings.TrimSpace(s.buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var l logLine
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			t.Fatalf("bad log line %q: %v", raw, err)
		}
		out = append(out, l)
	}
	return out
}

func newTestLogger() (*logger.Logger, *logSink) {
	sink := &logSink{}
	return logger.New(logger.Options{Output: sink, Level: logger.LevelDebug, Format: logger.FormatJSON}), sink
}

var errStore = errors.New("store unavailable")
