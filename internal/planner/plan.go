// Package planner derives SQL SELECT statements from a compiled (analyzed)
// [spec.TableSpec] query group: column aliasing, dependency-ordered LEFT JOINs, and
// the IN-clause driver queries many-valued sub-groups need.
package planner

import (
	"fmt"

	"github.com/treeql/treeql/internal/spec"
)

// GroupSelect builds the SELECT for ts's query group: ts's own id/fields plus every
// promoted single-valued relationship's target, joined in dependency order. extra
// names additional bare columns of ts to select (used by [ManySelect] to pull back
// the foreign-key column a batch of child rows must be grouped by), aliased the same
// way as any other column.
func GroupSelect(ts *spec.TableSpec, extra ...string) (*Statement, AliasMap, error) {
	ordered, err := orderJoins(ts.Name, ts.Relationships.One)
	if err != nil {
		return nil, nil, err
	}

	stmt := &Statement{table: ts.Name}
	aliases := AliasMap{}

	addColumns(stmt, aliases, ts.Name, ts.AllColumns())
	if len(extra) > 0 {
		addColumns(stmt, aliases, ts.Name, extra)
	}

	for _, rel := range ordered {
		stmt.joins = append(stmt.joins, join{
			kind:  joinLeft,
			table: rel.Target.Name,
			on:    fmt.Sprintf("%s.%s = %s.%s", rel.SourceTable, rel.Column, rel.Target.Name, rel.Target.ID),
		})
		addColumns(stmt, aliases, rel.Target.Name, rel.Target.AllColumns())
	}

	return stmt, aliases, nil
}

// ManySelect builds the driver query for a many-valued relationship: the target's
// own query group, filtered to the foreign-key values found in parentIDs. It returns
// a nil statement (and no error) when parentIDs is empty, per spec.md §4.4.
func ManySelect(rel *spec.RelSpec, parentIDs []any) (*Statement, AliasMap, error) {
	if len(parentIDs) == 0 {
		return nil, nil, nil
	}

	stmt, aliases, err := GroupSelect(rel.Target, rel.Column)
	if err != nil {
		return nil, nil, err
	}

	placeholders := make([]byte, 0, len(parentIDs)*2)
	for i := range parentIDs {
		if i > 0 {
			placeholders = append(placeholders, ',', ' ')
		}
		placeholders = append(placeholders, '?')
	}
	stmt.Where(fmt.Sprintf("%s.%s IN (%s)", rel.Target.Name, rel.Column, string(placeholders)), parentIDs...)

	return stmt, aliases, nil
}

// IDSelect builds the bare "SELECT <table>.<id> FROM <table>" statement the driver
// uses to resolve the id list for entity_ids / entities before any batching, with no
// joins (spec.md §6 describes the selection builders as thin, single-table fragment
// generators). It returns the statement and the alias its one column is given.
func IDSelect(ts *spec.TableSpec) (*Statement, string) {
	alias := AliasColumn(ts.Name, ts.ID)
	stmt := &Statement{table: ts.Name}
	stmt.columns = []column{{table: ts.Name, name: ts.ID, alias: alias}}
	return stmt, alias
}

func addColumns(stmt *Statement, aliases AliasMap, table string, cols []string) {
	seen := make(map[string]bool, len(stmt.columns))
	for _, c := range stmt.columns {
		if c.table == table {
			seen[c.name] = true
		}
	}
	for _, col := range cols {
		if seen[col] {
			continue
		}
		seen[col] = true
		alias := AliasColumn(table, col)
		stmt.columns = append(stmt.columns, column{table: table, name: col, alias: alias})
		aliases[alias] = ColumnRef{Table: table, Column: col}
	}
}

// orderJoins implements the fixed-point queue scan from spec.md §4.4: repeatedly pull
// the head of the queue; if its source table is already available, emit it and make
// its target available; otherwise rotate it to the tail. Every pull counts as an
// attempt, whether or not it makes progress; once the count exceeds len(rels)²+1
// the scan stops and raises [UnorderableJoinsError].
func orderJoins(rootTable string, rels []*spec.RelSpec) ([]*spec.RelSpec, error) {
	if len(rels) == 0 {
		return nil, nil
	}

	available := map[string]bool{rootTable: true}
	queue := append([]*spec.RelSpec{}, rels...)
	ordered := make([]*spec.RelSpec, 0, len(rels))

	maxAttempts := len(rels)*len(rels) + 1
	for attempts := 0; len(queue) > 0; attempts++ {
		if attempts > maxAttempts {
			return nil, &UnorderableJoinsError{Remaining: queue}
		}
		r := queue[0]
		queue = queue[1:]
		if available[r.SourceTable] {
			ordered = append(ordered, r)
			available[r.Target.Name] = true
			continue
		}
		queue = append(queue, r)
	}

	return ordered, nil
}
