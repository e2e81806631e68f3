package spec

import (
	"fmt"
	"strings"
)

// InvalidSpecError mirrors [dsl.InvalidSpecError] for problems detected while building
// a typed TableSpec from a raw DSL node (an unrecognized field node shape). Transform
// references are not checked here.
type InvalidSpecError struct {
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("spec: invalid spec: %s", e.Reason)
}

// RepeatedJoinTableError reports that two relationships in the same query group target
// the same table, violating the invariant in spec.md §3.
type RepeatedJoinTableError struct {
	// Source is the table whose query group contains the conflicting joins.
	Source string
	// Tables lists every target table name in the group, for diagnostics.
	Tables []string
	// Repeated is the table name that appeared more than once.
	Repeated string
}

func (e *RepeatedJoinTableError) Error() string {
	return fmt.Sprintf("spec: table %q joins %q more than once within one query group (targets: %s)",
		e.Source, e.Repeated, strings.Join(e.Tables, ", "))
}
