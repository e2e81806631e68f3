package planner

import (
	"fmt"
	"strings"

	"github.com/treeql/treeql/internal/spec"
)

// UnorderableJoinsError reports that the fixed-point join-ordering scan failed to
// make progress: the group's single-valued relationship graph is cyclic or
// disconnected from the root. Analysis should normally prevent this; see spec.md §4.4.
type UnorderableJoinsError struct {
	Remaining []*spec.RelSpec
}

func (e *UnorderableJoinsError) Error() string {
	names := make([]string, len(e.Remaining))
	for i, r := range e.Remaining {
		names[i] = fmt.Sprintf("%s->%s", r.SourceTable, r.Target.Name)
	}
	return fmt.Sprintf("planner: could not order joins; remaining: %s", strings.Join(names, ", "))
}
