package planner

import "strings"

// column is a single SELECT expression: a table-qualified source column aliased for
// unambiguous round-tripping by the assembler.
type column struct {
	table string
	name  string
	alias string
}

// joinKind distinguishes the two join shapes the planner emits (spec.md §4.4).
type joinKind int

const (
	joinNone joinKind = iota
	joinLeft
)

// join is a single LEFT JOIN clause.
type join struct {
	kind  joinKind
	table string
	on    string
}

// condition is one WHERE fragment with its positional bind arguments, kept as a
// single AND-joined term.
type condition struct {
	frag string
	args []any
}

// Statement is a single SQL SELECT, built up by the planner from a query group. It
// corresponds to one entry in the "set of SQL SELECT statements (one per query
// group)" described in spec.md §1.
type Statement struct {
	table      string
	columns    []column
	joins      []join
	conditions []condition
	order      []string
	limit      string
	offset     string
}

// AliasMap maps a generated alias column to the qualified table/column it came from,
// letting a caller inspect what a SELECT will return without re-deriving it.
type AliasMap map[string]ColumnRef

// ColumnRef identifies a source column by table and name.
type ColumnRef struct {
	Table  string
	Column string
}

// Table returns the statement's FROM table.
func (s *Statement) Table() string { return s.table }

// Where appends a WHERE fragment (AND-joined with any existing conditions) along
// with its positional bind arguments, and returns the receiver for chaining.
func (s *Statement) Where(frag string, args ...any) *Statement {
	s.conditions = append(s.conditions, condition{frag: frag, args: args})
	return s
}

// Limit sets a LIMIT clause.
func (s *Statement) Limit(n string) *Statement {
	s.limit = n
	return s
}

// Offset sets an OFFSET clause.
func (s *Statement) Offset(n string) *Statement {
	s.offset = n
	return s
}

// Args returns the bind arguments in the order their conditions were added, matching
// the positional placeholders in [Statement.SQL].
func (s *Statement) Args() []any {
	var args []any
	for _, c := range s.conditions {
		args = append(args, c.args...)
	}
	return args
}

// SQL renders the statement as a parameterized MySQL-dialect query string (spec.md
// §6): LEFT JOIN ... ON ..., LIMIT n OFFSET m, '?' placeholders.
func (s *Statement) SQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, col := range s.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col.table)
		b.WriteByte('.')
		b.WriteString(col.name)
		b.WriteString(" AS ")
		b.WriteString(col.alias)
	}
	b.WriteString(" FROM ")
	b.WriteString(s.table)

	for _, j := range s.joins {
		switch j.kind {
		case joinLeft:
			b.WriteString(" LEFT JOIN ")
			b.WriteString(j.table)
			b.WriteString(" ON ")
			b.WriteString(j.on)
		}
	}

	if len(s.conditions) > 0 {
		b.WriteString(" WHERE ")
		for i, c := range s.conditions {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteByte('(')
			b.WriteString(c.frag)
			b.WriteByte(')')
		}
	}

	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.order, ", "))
	}

	if s.limit != "" {
		b.WriteString(" LIMIT ")
		b.WriteString(s.limit)
	}
	if s.offset != "" {
		b.WriteString(" OFFSET ")
		b.WriteString(s.offset)
	}

	return b.String()
}
