// Package selector implements the selection-predicate builders spec.md §6 treats as
// an external collaborator: thin SQL fragment generators for the :ids, :update_table,
// :delta, and :expiry selection modes, targeting the MySQL dialect named in §6
// (yyyy-MM-dd HH:mm:ss date literals).
package selector

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// mysqlDateLayout is the date format spec.md §6 names for the target dialect.
const mysqlDateLayout = "2006-01-02 15:04:05"

// Predicate is a single WHERE fragment and its positional bind arguments.
type Predicate struct {
	Frag string
	Args []any
}

// Empty reports whether p carries no condition (select-all).
func (p Predicate) Empty() bool { return p.Frag == "" }

// UpdateTableOptions selects rows of Table whose Updated column is newer than Date.
// Date is optional; when zero, every row of Table is selected.
type UpdateTableOptions struct {
	Table   string
	ID      string
	Updated string
	Date    time.Time
}

// ErrUpdatedColumnRequired is returned by [ByUpdateTable] when Date is supplied
// without Updated. The source DSL allows omitting Updated and leaves this
// combination undefined (spec.md §9's open question); this implementation rejects it
// rather than guessing.
var ErrUpdatedColumnRequired = errors.New("selector: :update_table requires :updated when :date is given")

// ByUpdateTable builds the :update_table predicate.
func ByUpdateTable(opts UpdateTableOptions) (Predicate, error) {
	if opts.Date.IsZero() {
		return Predicate{}, nil
	}
	if opts.Updated == "" {
		return Predicate{}, ErrUpdatedColumnRequired
	}
	return Predicate{
		Frag: fmt.Sprintf("%s.%s > ?", opts.Table, opts.Updated),
		Args: []any{opts.Date.Format(mysqlDateLayout)},
	}, nil
}

// DeltaOptions selects rows where any of Fields (qualified table/col strings) is
// newer than Date.
type DeltaOptions struct {
	Fields []string
	Date   time.Time
}

// ByDelta builds the :delta predicate: an OR across every named column.
func ByDelta(opts DeltaOptions) Predicate {
	if len(opts.Fields) == 0 {
		return Predicate{}
	}
	terms := make([]string, len(opts.Fields))
	args := make([]any, len(opts.Fields))
	formatted := opts.Date.Format(mysqlDateLayout)
	for i, field := range opts.Fields {
		terms[i] = fmt.Sprintf("%s > ?", field)
		args[i] = formatted
	}
	return Predicate{Frag: strings.Join(terms, " OR "), Args: args}
}

// ExpiryOptions selects rows where Field is newer than now minus AgeDays (when
// AgeDays is non-zero) or newer than AgeDate (when AgeDate is set). Exactly one of
// AgeDays/AgeDate should be set; AgeDays takes precedence if both are.
type ExpiryOptions struct {
	Field   string
	AgeDays float64
	AgeDate time.Time
}

// ByExpiry builds the :expiry predicate.
func ByExpiry(opts ExpiryOptions, now time.Time) Predicate {
	if opts.AgeDays != 0 {
		cutoff := now.Add(-time.Duration(opts.AgeDays * 24 * float64(time.Hour)))
		return Predicate{Frag: fmt.Sprintf("%s > ?", opts.Field), Args: []any{cutoff.Format(mysqlDateLayout)}}
	}
	return Predicate{Frag: fmt.Sprintf("%s > ?", opts.Field), Args: []any{opts.AgeDate.Format(mysqlDateLayout)}}
}

// ByIDs builds the :ids predicate: an IN clause over the caller-supplied id list, in
// the caller's order (spec.md §5 preserves that order in the emitted record stream).
func ByIDs(column string, ids []any) Predicate {
	if len(ids) == 0 {
		return Predicate{}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	return Predicate{Frag: fmt.Sprintf("%s IN (%s)", column, placeholders), Args: ids}
}

// Options bundles every selection mode a caller of the façade's entities/entity_ids
// operations may supply. Precedence when more than one is set: IDs > UpdateTable >
// Delta > Expiry — only the highest-precedence one is applied (spec.md §4.4).
type Options struct {
	IDs         []any
	UpdateTable *UpdateTableOptions
	Delta       *DeltaOptions
	Expiry      *ExpiryOptions
}

// Resolve applies the precedence rule and returns the single predicate that wins. An
// empty Options value resolves to the empty predicate (select all).
func Resolve(idColumn string, opts Options, now time.Time) (Predicate, error) {
	switch {
	case len(opts.IDs) > 0:
		return ByIDs(idColumn, opts.IDs), nil
	case opts.UpdateTable != nil:
		return ByUpdateTable(*opts.UpdateTable)
	case opts.Delta != nil:
		return ByDelta(*opts.Delta), nil
	case opts.Expiry != nil:
		return ByExpiry(*opts.Expiry, now), nil
	default:
		return Predicate{}, nil
	}
}
