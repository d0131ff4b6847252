package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/academic-hub/student-records/internal/application/service"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(language.English)
	require.NoError(t, err)
	return c
}

func TestCatalog_Message(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		name   string
		key    string
		args   []any
		locale language.Tag
		want   string
	}{
		{"english get all", service.KeyGetAll, []any{"students"}, language.English, "Get all students"},
		{"english get by id", service.KeyGetByID, []any{"student", 7}, language.English, "Get student by id 7"},
		{"english not found", service.KeyEntityNotFound, []any{"Get student by id", 3}, language.English, "Entity not found: Get student by id 3"},
		{"russian delete", service.KeyDeletedByID, []any{"student", 5}, language.Russian, "Удаление записи student с id 5"},
		{"regional russian", service.KeyAdd, []any{"student"}, language.MustParse("ru-RU"), "Добавление записи: student"},
		{"unsupported falls back", service.KeyAdd, []any{"student"}, language.German, "Add new student"},
		{"undetermined falls back", service.KeyGetAll, []any{"groups"}, language.Und, "Get all groups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Message(tt.key, tt.args, tt.locale))
		})
	}
}

func TestCatalog_UnknownKey(t *testing.T) {
	c := newTestCatalog(t)

	assert.Equal(t, "somethingElse", c.Message("somethingElse", nil, language.English))
	assert.Equal(t, "somethingElse 42", c.Message("somethingElse", []any{42}, language.English))
}

func TestCatalog_FromAcceptLanguage(t *testing.T) {
	c := newTestCatalog(t)

	assert.Equal(t, language.Russian, c.FromAcceptLanguage("ru-RU,ru;q=0.9,en;q=0.8"))
	assert.Equal(t, language.English, c.FromAcceptLanguage("en-US"))
	assert.Equal(t, language.English, c.FromAcceptLanguage("fr-FR"))
	assert.Equal(t, language.English, c.FromAcceptLanguage(""))
	assert.Equal(t, language.English, c.FromAcceptLanguage(";;;"))
}

func TestNewCatalog_UnsupportedFallback(t *testing.T) {
	_, err := NewCatalog(language.Japanese)
	assert.Error(t, err)
}

func TestNewCatalog_RussianFallback(t *testing.T) {
	c, err := NewCatalog(language.Russian)
	require.NoError(t, err)

	assert.Equal(t, language.Russian, c.Fallback())
	assert.Equal(t, "Получение всех записей: students", c.Message(service.KeyGetAll, []any{"students"}, language.French))
}
