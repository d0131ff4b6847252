// Package i18n implements locale-aware message formatting on top of
// golang.org/x/text. Catalog satisfies service.MessageFormatter.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/academic-hub/student-records/internal/application/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE TEMPLATES
// ══════════════════════════════════════════════════════════════════════════════

var templates = map[language.Tag]map[string]string{
	language.English: {
		service.KeyGetAll:         "Get all %v",
		service.KeyGetByID:        "Get %v by id %v",
		service.KeyAdd:            "Add new %v",
		service.KeyUpdateByID:     "Update %v by id %v",
		service.KeyDeletedByID:    "Delete %v by id %v",
		service.KeyEntityNotFound: "Entity not found: %v %v",
	},
	language.Russian: {
		service.KeyGetAll:         "Получение всех записей: %v",
		service.KeyGetByID:        "Получение записи %v с id %v",
		service.KeyAdd:            "Добавление записи: %v",
		service.KeyUpdateByID:     "Обновление записи %v с id %v",
		service.KeyDeletedByID:    "Удаление записи %v с id %v",
		service.KeyEntityNotFound: "Сущность не найдена: %v %v",
	},
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Catalog renders log messages in the best supported language for a locale.
type Catalog struct {
	builder   *catalog.Builder
	matcher   language.Matcher
	supported []language.Tag
	keys      map[string]struct{}
}

// NewCatalog builds the message catalog. fallback is the language used when
// a requested locale matches nothing; it must be one of the built-in languages.
func NewCatalog(fallback language.Tag) (*Catalog, error) {
	if _, ok := templates[fallback]; !ok {
		return nil, fmt.Errorf("i18n: unsupported fallback language %q", fallback)
	}

	// The matcher returns the first tag on no match, so fallback goes first.
	supported := []language.Tag{fallback}
	for tag := range templates {
		if tag != fallback {
			supported = append(supported, tag)
		}
	}

	b := catalog.NewBuilder(catalog.Fallback(fallback))
	keys := make(map[string]struct{})
	for tag, msgs := range templates {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("i18n: set %s/%s: %w", tag, key, err)
			}
			keys[key] = struct{}{}
		}
	}

	return &Catalog{
		builder:   b,
		matcher:   language.NewMatcher(supported),
		supported: supported,
		keys:      keys,
	}, nil
}

// Message implements service.MessageFormatter.
// Unknown keys are rendered as the key followed by its arguments.
func (c *Catalog) Message(key string, args []any, locale language.Tag) string {
	if _, ok := c.keys[key]; !ok {
		if len(args) == 0 {
			return key
		}
		return strings.TrimSpace(key + " " + fmt.Sprint(args...))
	}

	p := message.NewPrinter(c.Match(locale), message.Catalog(c.builder))
	return p.Sprintf(key, args...)
}

// Match returns the supported language closest to locale.
func (c *Catalog) Match(locale language.Tag) language.Tag {
	_, idx, _ := c.matcher.Match(locale)
	return c.supported[idx]
}

// FromAcceptLanguage parses an Accept-Language header value and returns the
// best supported language. Empty or malformed headers yield the fallback.
func (c *Catalog) FromAcceptLanguage(header string) language.Tag {
	if strings.TrimSpace(header) == "" {
		return c.supported[0]
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return c.supported[0]
	}
	_, idx, _ := c.matcher.Match(tags...)
	return c.supported[idx]
}

// Fallback returns the language used when nothing matches.
func (c *Catalog) Fallback() language.Tag {
	return c.supported[0]
}
