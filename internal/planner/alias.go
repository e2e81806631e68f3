package planner

import "strings"

// sqlFieldSeparator demarcates the table/column boundary in a generated alias, per
// spec.md §4.4 — chosen to be extremely unlikely to appear in a user column name.
const sqlFieldSeparator = "_sqlfield_"

// AliasColumn returns the deterministic alias a SELECT uses for table.column, letting
// the assembler parse the table/column pair back out of a flat result row.
func AliasColumn(table, column string) string {
	return table + sqlFieldSeparator + column
}

// ParseAlias is the inverse of [AliasColumn]. It reports false if alias was not
// produced by AliasColumn.
func ParseAlias(alias string) (table, column string, ok bool) {
	i := strings.Index(alias, sqlFieldSeparator)
	if i < 0 {
		return "", "", false
	}
	return alias[:i], alias[i+len(sqlFieldSeparator):], true
}
