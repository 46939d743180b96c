package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory Directory used by tests and local development.
// It enforces the same uniqueness constraints the Postgres schema declares.
type Memory struct {
	mu      sync.Mutex
	tables  map[string][]Row
	uniques map[string][][]string // table -> column sets that must be unique
}

func NewMemory() *Memory {
	return &Memory{
		tables: make(map[string][]Row),
		uniques: map[string][][]string{
			"users":           {{"username"}, {"email"}, {"phone_number"}},
			"follows":         {{"follower_id", "following_id"}},
			"user_challenges": {{"user_id", "challenge_id"}},
			"referrals":       {{"referee_id"}},
			"likes":           {{"user_id", "target_id"}},
		},
	}
}

func (m *Memory) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []Row{}
	for _, row := range m.tables[table] {
		if matchFilter(row, q.Filter) {
			matched = append(matched, row)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessValue(matched[i][q.OrderBy], matched[j][q.OrderBy])
			if q.Desc {
				return !less && !equalValue(matched[i][q.OrderBy], matched[j][q.OrderBy])
			}
			return less
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = []Row{}
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	// Copy rows (and project columns) so callers cannot mutate the store.
	out := make([]Row, 0, len(matched))
	for _, row := range matched {
		out = append(out, projectRow(row, q.Columns))
	}
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate all rows before writing any, so a conflict never leaves a
	// partial batch behind.
	for _, row := range rows {
		for _, cols := range m.uniques[table] {
			if m.conflictLocked(table, row, cols) {
				return nil, fmt.Errorf("%w: %s(%s)", ErrConflict, table, strings.Join(cols, ","))
			}
		}
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		stored := projectRow(row, nil)
		if _, ok := stored["created_at"]; !ok {
			stored["created_at"] = time.Now().UTC()
		}
		m.tables[table] = append(m.tables[table], stored)
		out = append(out, projectRow(stored, nil))
	}
	return out, nil
}

func (m *Memory) Update(ctx context.Context, table string, patch Row, f Filter) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Row{}
	for _, row := range m.tables[table] {
		if !matchFilter(row, f) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		out = append(out, projectRow(row, nil))
	}
	return out, nil
}

// Count returns the number of rows in table matching f. Test helper.
func (m *Memory) Count(table string, f Filter) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, row := range m.tables[table] {
		if matchFilter(row, f) {
			n++
		}
	}
	return n
}

func (m *Memory) conflictLocked(table string, candidate Row, cols []string) bool {
	for _, existing := range m.tables[table] {
		same := true
		for _, c := range cols {
			cv, ok := candidate[c]
			if !ok || cv == nil || !equalValue(existing[c], cv) {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func matchFilter(row Row, f Filter) bool {
	for c, want := range f.Eq {
		if !equalValue(row[c], want) {
			return false
		}
	}
	for c, wants := range f.In {
		found := false
		for _, w := range wants {
			if equalValue(row[c], w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.AnyILike) > 0 {
		any := false
		for c, term := range f.AnyILike {
			s, ok := row[c].(string)
			if ok && strings.Contains(strings.ToLower(s), strings.ToLower(term)) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}

func projectRow(row Row, cols []string) Row {
	out := Row{}
	if len(cols) == 0 {
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	for _, c := range cols {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}

func equalValue(a, b interface{}) bool {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
		return false
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func lessValue(a, b interface{}) bool {
	switch va := a.(type) {
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Before(vb)
		}
	case int:
		if vb, ok := b.(int); ok {
			return va < vb
		}
	case int64:
		if vb, ok := b.(int64); ok {
			return va < vb
		}
	case float64:
		if vb, ok := b.(float64); ok {
			return va < vb
		}
	case string:
		if vb, ok := b.(string); ok {
			return va < vb
		}
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}
