// Package assemble maps flat, deterministically aliased SQL result rows back into
// nested tree records matching a compiled spec's shape (spec.md §4.5).
package assemble

import (
	"github.com/treeql/treeql/internal/planner"
	"github.com/treeql/treeql/internal/spec"
	"github.com/treeql/treeql/internal/transform"
)

// Row is a single flat result row, keyed by the alias strings the planner generated.
type Row map[string]any

// Record is an assembled, nested output record: scalar values, nested Records, and
// []Record for assembled many-valued collections.
type Record map[string]any

// Build constructs ts's query-group record from a single row: leaf fields (with
// their transform applied) and every promoted single-valued relationship, merged or
// nested per its Path. Many-valued relationships are not populated here — the
// batched import driver supplies their child rows separately via [BuildMany] and
// [Attach].
func Build(reg *transform.Registry, ts *spec.TableSpec, row Row) (Record, error) {
	out := Record{}
	if err := buildInto(reg, ts, row, out); err != nil {
		return nil, err
	}
	return out, nil
}

func buildInto(reg *transform.Registry, ts *spec.TableSpec, row Row, out Record) error {
	for _, f := range ts.Fields {
		raw, ok := row[planner.AliasColumn(ts.Name, f.Column)]
		if !ok {
			continue
		}
		val, err := transform.Apply(reg, f.TransformRef, raw)
		if err != nil {
			return &transform.Error{Table: ts.Name, Field: f.Column, Cause: err}
		}
		if val == nil {
			continue
		}
		writeAt(out, f.OutputPath(), val)
	}

	for _, rel := range ts.Relationships.One {
		if len(rel.Path) == 0 {
			if err := buildInto(reg, rel.Target, row, out); err != nil {
				return err
			}
			continue
		}
		sub := getOrCreateMap(out, rel.Path)
		if err := buildInto(reg, rel.Target, row, sub); err != nil {
			return err
		}
	}
	return nil
}

// BuildMany assembles one child record per row of a many-valued relationship's
// target query group, in row order.
func BuildMany(reg *transform.Registry, rel *spec.RelSpec, rows []Row) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := Build(reg, rel.Target, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Attach writes value (typically a []Record from [BuildMany]) into parent at rel's
// output path, creating any intermediate nested records needed.
func Attach(parent Record, rel *spec.RelSpec, value any) {
	writeAt(parent, rel.Path, value)
}

// writeAt sets value at path within root, creating intermediate Records as needed. A
// later write at the exact same path overwrites a prior scalar write there; writes at
// sibling paths accumulate, per spec.md §4.5's key-merge semantics.
func writeAt(root Record, path []string, value any) {
	if len(path) == 0 {
		return
	}
	parent := getOrCreateMap(root, path[:len(path)-1])
	parent[path[len(path)-1]] = value
}

// getOrCreateMap navigates path within root, creating a new Record at any segment
// that is absent or not already a Record (a non-map collision is not expected to
// occur for a well-formed analyzed spec — see invariant 4 in spec.md §8).
func getOrCreateMap(root Record, path []string) Record {
	cur := root
	for _, seg := range path {
		v, ok := cur[seg]
		if !ok {
			next := Record{}
			cur[seg] = next
			cur = next
			continue
		}
		next, ok := v.(Record)
		if !ok {
			next = Record{}
			cur[seg] = next
		}
		cur = next
	}
	return cur
}
