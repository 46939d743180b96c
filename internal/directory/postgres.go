package directory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// Postgres implements Directory over a database/sql connection pool.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	cols := "*"
	if len(q.Columns) > 0 {
		cols = strings.Join(q.Columns, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, table)

	args := appendWhere(&sb, q.Filter, nil)

	if q.OrderBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.Offset)
	}

	rows, err := p.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

func (p *Postgres) Insert(ctx context.Context, table string, in []Row) ([]Row, error) {
	var out []Row
	for _, row := range in {
		cols := sortedKeys(row)

		placeholders := make([]string, len(cols))
		args := make([]interface{}, len(cols))
		for i, c := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = row[c]
		}

		query := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
		)

		rows, err := p.db.QueryContext(ctx, query, args...)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return nil, fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
			}
			return nil, err
		}
		inserted, err := scanRows(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, inserted...)
	}
	return out, nil
}

func (p *Postgres) Update(ctx context.Context, table string, patch Row, f Filter) ([]Row, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("directory: empty update patch for %s", table)
	}

	cols := sortedKeys(patch)

	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET ", table)

	args := make([]interface{}, 0, len(cols))
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, patch[c])
		fmt.Fprintf(&sb, "%s = $%d", c, len(args))
	}

	args = appendWhere(&sb, f, args)
	sb.WriteString(" RETURNING *")

	rows, err := p.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

// appendWhere renders a filter as a WHERE clause, appending bind args.
func appendWhere(sb *strings.Builder, f Filter, args []interface{}) []interface{} {
	if f.IsZero() {
		return args
	}

	var conds []string

	for _, c := range sortedKeys(Row(f.Eq)) {
		args = append(args, f.Eq[c])
		conds = append(conds, fmt.Sprintf("%s = $%d", c, len(args)))
	}

	inCols := make([]string, 0, len(f.In))
	for c := range f.In {
		inCols = append(inCols, c)
	}
	sort.Strings(inCols)
	for _, c := range inCols {
		args = append(args, pq.Array(f.In[c]))
		conds = append(conds, fmt.Sprintf("%s = ANY($%d)", c, len(args)))
	}

	likeCols := make([]string, 0, len(f.AnyILike))
	for c := range f.AnyILike {
		likeCols = append(likeCols, c)
	}
	sort.Strings(likeCols)
	if len(likeCols) > 0 {
		var ors []string
		for _, c := range likeCols {
			args = append(args, "%"+escapeLike(f.AnyILike[c])+"%")
			ors = append(ors, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, c, len(args)))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(conds, " AND "))
	return args
}

// escapeLike neutralizes LIKE metacharacters so a search term only matches
// literally. The in-memory implementation's substring match is literal
// already.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// scanRows converts sql rows into generic Rows, decoding []byte into string
// so callers see plain values regardless of driver behavior.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := Row{}
		for i, c := range cols {
			switch v := values[i].(type) {
			case []byte:
				row[c] = string(v)
			default:
				row[c] = v
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
