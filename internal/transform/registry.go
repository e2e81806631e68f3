// Package transform implements the fixed, process-wide table of named field
// transforms, plus the closed per-compile extension point a caller may use to add
// its own. Per the design note in spec.md §9, this replaces the source DSL's inline
// code evaluation: transform values named in a spec always resolve to a Go function,
// never to evaluated source text.
package transform

import "fmt"

// Func transforms a raw column value into an output value. Returning a nil value
// (with a nil error) causes the field to be omitted from the assembled record.
type Func func(value any) (any, error)

// builtins is the minimum fixed set named in spec.md §4.3.
var builtins = map[string]Func{
	"binary-string": binaryString,
}

func binaryString(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return string(val), nil
	case string:
		return val, nil
	default:
		return nil, fmt.Errorf("transform: binary-string: unsupported value of type %T", v)
	}
}

// Registry resolves a transform name to a [Func]. It is immutable once built and
// safe to share across concurrent extractions, same as a [spec.TableSpec].
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns a Registry containing the built-in transforms plus any
// caller-supplied extras. Extras may override a built-in name.
func NewRegistry(extra map[string]Func) *Registry {
	funcs := make(map[string]Func, len(builtins)+len(extra))
	for name, fn := range builtins {
		funcs[name] = fn
	}
	for name, fn := range extra {
		funcs[name] = fn
	}
	return &Registry{funcs: funcs}
}

// Lookup returns the named transform, if registered.
func (r *Registry) Lookup(name string) (Func, bool) {
	if r == nil {
		fn, ok := builtins[name]
		return fn, ok
	}
	fn, ok := r.funcs[name]
	return fn, ok
}

// Apply resolves ref against the registry and applies it to value. An empty ref is
// the identity transform. Errors from the resolved function are not wrapped here;
// callers attach field/row context (see [Error]).
func Apply(reg *Registry, ref string, value any) (any, error) {
	if ref == "" {
		return value, nil
	}
	fn, ok := reg.Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("transform: unknown transform %q", ref)
	}
	return fn(value)
}

// Error associates a transform failure with the field and table that produced it, as
// required by the TransformError kind in spec.md §7.
type Error struct {
	Table string
	Field string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform: table %q field %q: %v", e.Table, e.Field, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }
