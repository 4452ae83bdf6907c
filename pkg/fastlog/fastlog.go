package fastlog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FastType is the category of a fast.
type FastType string

const (
	Religious    FastType = "RELIGIOUS"
	Intermittent FastType = "INTERMITTENT"
)

// FastTypes lists every accepted FastType.
var FastTypes = []FastType{Religious, Intermittent}

// Valid reports whether t is one of FastTypes.
func (t FastType) Valid() bool {
	for _, v := range FastTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ParseFastType accepts a fast type name in any case.
func ParseFastType(s string) (FastType, error) {
	t := FastType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{Fields: map[string]string{"fastType": fmt.Sprintf("must be one of RELIGIOUS, INTERMITTENT (got %q)", s)}}
	}
	return t, nil
}

// MaxNotesLength is the maximum number of characters in FastLog.Notes.
const MaxNotesLength = 1000

// FastLog is one recorded fasting day.
type FastLog struct {
	ID        *int64   `json:"id"`        // nil until the store assigns one
	Date      Date     `json:"date"`      // calendar day, no time component
	FastType  FastType `json:"fastType"`  // RELIGIOUS or INTERMITTENT
	Completed bool     `json:"completed"` // defaults to false
	Notes     *string  `json:"notes"`     // optional, at most MaxNotesLength characters
}

// MarkCompleted flags the fast as finished.
func (f *FastLog) MarkCompleted() {
	f.Completed = true
}

// ErrNotFound is returned when an operation targets an id with no record.
var ErrNotFound = errors.New("fast log not found")

// ValidationError reports malformed or missing fields, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid fast log"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, name := range sortedKeys(e.Fields) {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid fast log: " + strings.Join(parts, "; ")
}

// Store is the contract for fast log persistence.
type Store interface {
	// Save inserts f when f.ID is nil, otherwise overwrites the record at *f.ID.
	// Overwriting a missing id returns ErrNotFound.
	Save(ctx context.Context, f *FastLog) (*FastLog, error)

	// FindByID returns nil and no error when id has no record.
	FindByID(ctx context.Context, id int64) (*FastLog, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	DeleteByID(ctx context.Context, id int64) error

	// ListByDateDesc returns every record, newest date first, equal dates in id order.
	ListByDateDesc(ctx context.Context) ([]FastLog, error)
	ByFastType(ctx context.Context, t FastType) ([]FastLog, error)
	ByCompleted(ctx context.Context, completed bool) ([]FastLog, error)
	// ByDateBetween is inclusive on both ends.
	ByDateBetween(ctx context.Context, start, end Date) ([]FastLog, error)

	Count(ctx context.Context) (int, error)
	CompletedCount(ctx context.Context) (int, error)
	EnsureTable(ctx context.Context) error
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
