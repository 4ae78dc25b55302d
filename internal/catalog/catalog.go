// Package catalog loads question banks from JSON files into the store.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/abhisek/quizzer/internal/store"
)

// Inserter adds a question unless its digest is already present.
type Inserter interface {
	Insert(ctx context.Context, q store.Question) (bool, error)
}

// Counts reports what a load did.
type Counts struct {
	Files    int // files parsed successfully
	Seen     int // entries with question text
	Inserted int // entries not already in the catalog
	Skipped  []string
}

// entry is one element of a question file.
type entry struct {
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
}

// Loader reads question files.
type Loader struct {
	questions Inserter
	log       zerolog.Logger
}

// NewLoader creates a Loader writing to questions.
func NewLoader(questions Inserter, log zerolog.Logger) *Loader {
	return &Loader{
		questions: questions,
		log:       log.With().Str("component", "catalog").Logger(),
	}
}

// LoadDir loads every *.json file in dir. A file that cannot be parsed is
// logged and skipped. A missing directory loads nothing and is not an error.
func (l *Loader) LoadDir(ctx context.Context, dir string) (Counts, error) {
	var counts Counts

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return counts, fmt.Errorf("list %s: %w", dir, err)
	}
	if len(matches) == 0 {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			l.log.Warn().Str("dir", dir).Msg("question directory does not exist")
			return counts, nil
		}
	}
	sort.Strings(matches)

	for _, path := range matches {
		entries, err := readFile(path)
		if err != nil {
			l.log.Error().Err(err).Str("file", path).Msg("skipping question file")
			counts.Skipped = append(counts.Skipped, path)
			continue
		}
		counts.Files++

		fallback := CategoryFromFile(path)
		for _, e := range entries {
			// The digest covers the text exactly as written, so variants
			// that differ only in surrounding whitespace are distinct.
			text := e.Question
			if strings.TrimSpace(text) == "" {
				continue
			}
			counts.Seen++

			category := strings.TrimSpace(e.Category)
			if category == "" {
				category = fallback
			}
			created, err := l.questions.Insert(ctx, store.Question{
				Digest:   Digest(text),
				Text:     text,
				Category: category,
			})
			if err != nil {
				return counts, fmt.Errorf("load %s: %w", path, err)
			}
			if created {
				counts.Inserted++
			}
		}
		l.log.Debug().Str("file", path).Int("entries", len(entries)).Msg("loaded question file")
	}

	l.log.Info().Int("files", counts.Files).Int("seen", counts.Seen).
		Int("inserted", counts.Inserted).Msg("question catalog loaded")
	return counts, nil
}

func readFile(path string) ([]entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

// CategoryFromFile derives a category label from a file name:
// "world_history.json" becomes "World History".
func CategoryFromFile(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ReplaceAll(name, "_", " ")
	return cases.Title(language.English).String(name)
}

// Digest is the lowercase hex SHA-256 of the question text.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
