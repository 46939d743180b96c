// Package directory abstracts the managed data store holding users and
// relationship tables. Queries are table-scoped and filter-based, mirroring
// the narrow surface the backend actually uses: exact-match, IN-list and
// case-insensitive substring filters, ordering and ranges.
package directory

import (
	"context"
	"errors"
	"time"
)

// Row is a single record read from or written to a table.
type Row map[string]interface{}

// ErrConflict is returned when an insert would violate a uniqueness
// constraint (duplicate follow edge, second referral for the same referee).
var ErrConflict = errors.New("directory: unique constraint violation")

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// Filter narrows a query. All populated conditions are ANDed together;
// within AnyILike the column matches are ORed.
type Filter struct {
	// Eq: column = value
	Eq map[string]interface{}
	// In: column IN (values...)
	In map[string][]interface{}
	// AnyILike: at least one column contains the term, case-insensitively.
	// Values are raw terms; implementations add the substring wildcards.
	AnyILike map[string]string
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return len(f.Eq) == 0 && len(f.In) == 0 && len(f.AnyILike) == 0
}

// Query describes a Select.
type Query struct {
	Columns []string // empty means all columns
	Filter  Filter
	OrderBy string // column name; empty means unspecified order
	Desc    bool
	Offset  int
	Limit   int // 0 means no limit
}

// Directory is the transactional row store behind the social graph.
// Implementations must not leave partial state behind on error.
type Directory interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	Update(ctx context.Context, table string, patch Row, f Filter) ([]Row, error)
}

// String returns row[key] as a string, or "" when absent or not a string.
func (r Row) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns row[key] as a bool, or false when absent.
func (r Row) Bool(key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

// Time returns row[key] as a time.Time, or the zero time when absent.
func (r Row) Time(key string) time.Time {
	if v, ok := r[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// Int returns row[key] as an int, tolerating the integer widths drivers
// actually hand back.
func (r Row) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
