// Package record reads and writes single reading files: YAML frontmatter
// plus a free-text Markdown body. Each file is one record; a write always
// replaces the whole file.
package record

import (
	"fmt"
	"maps"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/readlog/internal/apperr"
	"github.com/starford/readlog/internal/checksum"
	"github.com/starford/readlog/internal/models"
	"github.com/starford/readlog/internal/parser"
	"github.com/starford/readlog/internal/storage"
)

// Frontmatter keys.
const (
	KeyTitle      = "title"
	KeyAuthor     = "author"
	KeyFinished   = "finished"
	KeyCoverImage = "coverImage"
	KeyAudiobook  = "audiobook"
	KeyFavorite   = "favorite"
)

// TimeLayout is how finish dates are written (ISO 8601, UTC, milliseconds).
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Document is a parsed reading file. Frontmatter values are exactly what the
// YAML parser produced; use Decode for the typed view.
type Document struct {
	Frontmatter map[string]any
	Body        string
	Checksum    string
}

// Store reads and writes reading files in one content directory.
type Store struct {
	fs storage.Provider
}

// NewStore creates a record store over the given provider.
func NewStore(fs storage.Provider) *Store {
	return &Store{fs: fs}
}

// Provider returns the underlying file provider.
func (s *Store) Provider() storage.Provider {
	return s.fs
}

// Read loads and parses name. A missing file is apperr.ErrNotFound.
func (s *Store) Read(name string) (*Document, error) {
	data, err := s.fs.Read(name)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("record: read %s: %w", name, err)
	}
	fm := res.Frontmatter
	if fm == nil {
		fm = map[string]any{}
	}
	return &Document{Frontmatter: fm, Body: res.Body, Checksum: checksum.Sum(data)}, nil
}

// Write serializes fm and body and overwrites name in one operation.
func (s *Store) Write(name string, fm map[string]any, body string) error {
	data, err := parser.Render(fm, body)
	if err != nil {
		return fmt.Errorf("record: render %s: %w", name, err)
	}
	if err := s.fs.Write(name, data); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return nil
}

// Delete removes name. A missing file is apperr.ErrNotFound.
func (s *Store) Delete(name string) error {
	if err := s.fs.Delete(name); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return nil
}

// Exists reports whether name is present.
func (s *Store) Exists(name string) (bool, error) {
	return s.fs.Exists(name)
}

// UpdateField returns a copy of fm with key set to value. A nil value
// removes the key, except for "finished", which is kept as an explicit null.
func UpdateField(fm map[string]any, key string, value any) map[string]any {
	out := maps.Clone(fm)
	if out == nil {
		out = map[string]any{}
	}
	if value == nil && key != KeyFinished {
		delete(out, key)
		return out
	}
	out[key] = value
	return out
}

// Options are the optional fields of a new record.
type Options struct {
	CoverImage string
	Audiobook  bool
	Favorite   bool
}

// New builds the frontmatter for a new reading. finished is an ISO 8601
// string or nil for a book still in progress; the key is always present.
// Optional booleans are only written when true.
func New(title, author string, finished *string, opts Options) map[string]any {
	fm := map[string]any{
		KeyTitle:    title,
		KeyAuthor:   author,
		KeyFinished: nil,
	}
	if finished != nil {
		fm[KeyFinished] = *finished
	}
	if opts.CoverImage != "" {
		fm[KeyCoverImage] = opts.CoverImage
	}
	if opts.Audiobook {
		fm[KeyAudiobook] = true
	}
	if opts.Favorite {
		fm[KeyFavorite] = true
	}
	return fm
}

// FormatFinished renders a finish date the way New expects it.
func FormatFinished(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Decode normalizes raw frontmatter into a typed Reading. Files read from
// disk already carry numeric-looking titles as their source text (see
// parser.TextKeys); numbers in maps built in memory are formatted here.
// finished may arrive as a time value, an ISO 8601 string or null.
func Decode(fm map[string]any) (models.Reading, error) {
	var r models.Reading
	var err error

	if r.Title, err = scalarString(fm, KeyTitle); err != nil {
		return r, err
	}
	if r.Author, err = scalarString(fm, KeyAuthor); err != nil {
		return r, err
	}
	if r.Finished, err = finishedTime(fm[KeyFinished]); err != nil {
		return r, err
	}
	if v, ok := fm[KeyCoverImage]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return r, fieldError(KeyCoverImage, "must be a string, got %T", v)
		}
		r.CoverImage = s
	}
	if r.Audiobook, err = optionalBool(fm, KeyAudiobook); err != nil {
		return r, err
	}
	if r.Favorite, err = optionalBool(fm, KeyFavorite); err != nil {
		return r, err
	}

	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
	); err != nil {
		return r, fmt.Errorf("record: %w: %v", apperr.ErrValidation, err)
	}
	return r, nil
}

// ParseFinished parses the accepted finish date spellings.
func ParseFinished(s string) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, TimeLayout, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fieldError(KeyFinished, "unrecognised date %q", s)
}

func finishedTime(v any) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	case string:
		if t == "" {
			return nil, nil
		}
		parsed, err := ParseFinished(t)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	default:
		return nil, fieldError(KeyFinished, "must be a date or null, got %T", v)
	}
}

func scalarString(fm map[string]any, key string) (string, error) {
	switch v := fm[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fieldError(key, "must be a string, got %T", v)
	}
}

func optionalBool(fm map[string]any, key string) (bool, error) {
	v, ok := fm[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fieldError(key, "must be true or false, got %T", v)
	}
	return b, nil
}

func fieldError(key, format string, args ...any) error {
	return fmt.Errorf("record: %w: %s %s", apperr.ErrValidation, key, fmt.Sprintf(format, args...))
}
