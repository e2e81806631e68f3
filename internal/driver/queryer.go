package driver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/treeql/treeql/internal/assemble"
	"github.com/treeql/treeql/internal/planner"
)

// Queryer is the connection surface the driver needs. *sql.DB and *sql.Tx both
// satisfy it, mirroring the teacher's db.go wrapper boundary.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryRows(ctx context.Context, q Queryer, stmt *planner.Statement) ([]assemble.Row, error) {
	rows, err := q.QueryContext(ctx, stmt.SQL(), stmt.Args()...)
	if err != nil {
		return nil, &DbError{Cause: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &DbError{Cause: err}
	}

	var out []assemble.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &DbError{Cause: err}
		}
		row := make(assemble.Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &DbError{Cause: err}
	}
	return out, nil
}

// idKey normalizes a scanned id value into a comparable map key. Database drivers
// commonly return integer keys as int64 and may return them as []byte under some
// scan configurations; both must bucket identically.
func idKey(v any) string {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
