// Package treeql compiles the nested Table DSL spec.md §3 describes into a query
// plan and runs the batched extraction it drives: entity (a single root by id),
// entity_ids (id resolution only), and entities (the full batched stream).
package treeql

import (
	"context"

	"github.com/treeql/treeql/internal/assemble"
	"github.com/treeql/treeql/internal/driver"
	"github.com/treeql/treeql/internal/dsl"
	"github.com/treeql/treeql/internal/selector"
	"github.com/treeql/treeql/internal/spec"
	"github.com/treeql/treeql/internal/transform"
)

// Record is an assembled, nested output record.
type Record = assemble.Record

// SelectionOptions bundles the :ids / :update_table / :delta / :expiry modes
// entity_ids and entities accept, per spec.md §6's precedence rule.
type SelectionOptions = selector.Options

// UpdateTableOptions configures the :update_table selection mode.
type UpdateTableOptions = selector.UpdateTableOptions

// DeltaOptions configures the :delta selection mode.
type DeltaOptions = selector.DeltaOptions

// ExpiryOptions configures the :expiry selection mode.
type ExpiryOptions = selector.ExpiryOptions

// Queryer is the connection surface Entity/EntityIDs/Entities need: a *sql.DB, a
// *sql.Tx, or this package's own *DB/*Tx all satisfy it.
type Queryer = driver.Queryer

// CompiledSpec is the result of compiling a Table DSL literal: the parsed tree and
// its analyzed (query-group-promoted) form, and the transform registry resolved
// against any extra transforms supplied at compile time.
type CompiledSpec struct {
	parsed  *spec.TableSpec
	grouped *spec.TableSpec
	reg     *transform.Registry
}

// RootTable returns the compiled spec's root table name.
func (c *CompiledSpec) RootTable() string { return c.grouped.Name }

// Compile parses src and analyzes it into a query plan. extraTransforms registers
// additional named transforms (or overrides a builtin one) alongside the builtin
// registry every compiled spec gets for free.
func Compile(src string, extraTransforms map[string]transform.Func) (*CompiledSpec, error) {
	node, err := dsl.Parse(src)
	if err != nil {
		return nil, err
	}
	parsed, err := spec.Build(node)
	if err != nil {
		return nil, err
	}
	grouped, err := spec.Analyze(parsed)
	if err != nil {
		return nil, err
	}
	return &CompiledSpec{parsed: parsed, grouped: grouped, reg: transform.NewRegistry(extraTransforms)}, nil
}

// Entity fetches a single root record by id. A missing root row returns (nil, nil)
// — the transform registry is never invoked against an absent row (spec.md §9's
// open question, resolved in DESIGN.md).
func Entity(ctx context.Context, db Queryer, cs *CompiledSpec, id any, opts *Options) (Record, error) {
	d := driver.New(db, cs.reg, opts.driverOptions())
	var result Record
	err := d.FetchAll(ctx, cs.grouped, selector.Options{IDs: []any{id}}, func(e driver.Emitted) error {
		result = e.Record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EntityIDs eagerly resolves the id list for one of the date-based selection modes
// in sel (IDs in sel is ignored — EntityIDs is how a caller discovers ids in the
// first place); an empty SelectionOptions resolves every id in the table.
func EntityIDs(ctx context.Context, db Queryer, cs *CompiledSpec, sel SelectionOptions) ([]any, error) {
	sel.IDs = nil
	d := driver.New(db, cs.reg, driver.Options{})
	return d.ResolveIDs(ctx, cs.grouped, sel)
}

// Entities streams every selected root entity's assembled record through emit, in
// id-resolution order, batching the underlying id list per opts. Returning a
// non-nil error from emit stops iteration immediately and that error is returned.
func Entities(ctx context.Context, db Queryer, cs *CompiledSpec, sel SelectionOptions, opts *Options, emit func(id any, rec Record) error) error {
	d := driver.New(db, cs.reg, opts.driverOptions())
	return d.FetchAll(ctx, cs.grouped, sel, func(e driver.Emitted) error {
		return emit(e.ID, e.Record)
	})
}
