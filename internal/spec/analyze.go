package spec

// Analyze classifies every relationship reachable from ts, promotes transitive
// single-valued relationships to the root of their query group, lifts the
// many-valued relationships that hang off a promoted single-valued subtree, and
// computes each surviving relationship's output path. It operates bottom-up and is
// pure: ts is never mutated.
//
// An already-analyzed ts (PendingRels is nil; Build only ever populates
// PendingRels, and Analyze's own output never does) is returned unchanged:
// recomputing paths from an already-flattened Relationships would discard the
// parent-prefix a promoted or lifted relationship's Path accumulated on the first
// pass. This short-circuit is what makes re-analyzing an already-analyzed spec
// idempotent, per spec.md §8.
func Analyze(ts *TableSpec) (*TableSpec, error) {
	if ts.PendingRels == nil {
		return ts, nil
	}

	analyzed := make([]*RelSpec, len(ts.PendingRels))
	for i, r := range ts.PendingRels {
		target, err := Analyze(r.Target)
		if err != nil {
			return nil, err
		}
		nr := *r
		nr.Target = target
		nr.Kind = classify(&nr)
		nr.Path = computePath(&nr)
		analyzed[i] = &nr
	}

	var ones, manys []*RelSpec
	for _, r := range analyzed {
		if r.Kind == KindMany {
			manys = append(manys, r)
		} else {
			ones = append(ones, r)
		}
	}

	var promotedOnes, liftedManys []*RelSpec
	for _, one := range ones {
		stripped := *one.Target
		stripped.PendingRels = nil
		stripped.Relationships = Relationships{}
		promoted := *one
		promoted.Target = &stripped
		promotedOnes = append(promotedOnes, &promoted)

		for _, childOne := range one.Target.Relationships.One {
			lifted := *childOne
			lifted.Path = concatPaths(one.Path, childOne.Path)
			promotedOnes = append(promotedOnes, &lifted)
		}
		for _, childMany := range one.Target.Relationships.Many {
			lifted := *childMany
			lifted.Path = concatPaths(one.Path, childMany.Path)
			liftedManys = append(liftedManys, &lifted)
		}
	}
	allManys := append(liftedManys, manys...)

	if err := checkRepeatedTables(ts.Name, promotedOnes); err != nil {
		return nil, err
	}

	return &TableSpec{
		Name:        ts.Name,
		ID:          ts.ID,
		IDGenerated: ts.IDGenerated,
		Fields:      append([]FieldSpec{}, ts.Fields...),
		Relationships: Relationships{
			One:  promotedOnes,
			Many: allManys,
		},
	}, nil
}

func classify(r *RelSpec) Kind {
	if r.Reverse {
		return KindMany
	}
	return KindOne
}

func computePath(r *RelSpec) []string {
	switch {
	case r.Flatten && r.Kind == KindOne:
		return []string{}
	case r.Alias != "":
		return splitDotted(r.Alias)
	case r.Kind == KindMany:
		return []string{"_" + r.Column}
	default:
		return []string{r.Column}
	}
}

func concatPaths(parent, child []string) []string {
	out := make([]string, 0, len(parent)+len(child))
	out = append(out, parent...)
	out = append(out, child...)
	return out
}

func checkRepeatedTables(source string, ones []*RelSpec) error {
	seen := make(map[string]bool, len(ones))
	names := make([]string, 0, len(ones))
	for _, r := range ones {
		names = append(names, r.Target.Name)
	}
	for _, r := range ones {
		if seen[r.Target.Name] {
			return &RepeatedJoinTableError{Source: source, Tables: names, Repeated: r.Target.Name}
		}
		seen[r.Target.Name] = true
	}
	return nil
}
