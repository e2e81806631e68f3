package treeql

import "github.com/treeql/treeql/internal/planner"

// PlanDescription summarizes the SQL a compiled spec's extraction would run: the
// root query group's statement, and one entry per many-valued relationship it will
// additionally query and attach.
type PlanDescription struct {
	RootTable string
	RootSQL   string
	Many      []ManyGroupPlan
}

// ManyGroupPlan describes one many-valued relationship's target query group.
type ManyGroupPlan struct {
	Table            string
	ForeignKeyColumn string
	OutputPath       []string
}

// Plan renders the SQL the compiled spec's root query group would run, plus a
// summary of every many-valued relationship that will be queried and attached
// during extraction. It does not execute anything; it is meant for CLI inspection.
func (c *CompiledSpec) Plan() (PlanDescription, error) {
	stmt, _, err := planner.GroupSelect(c.grouped)
	if err != nil {
		return PlanDescription{}, err
	}

	desc := PlanDescription{RootTable: c.grouped.Name, RootSQL: stmt.SQL()}
	for _, rel := range c.grouped.Relationships.Many {
		desc.Many = append(desc.Many, ManyGroupPlan{
			Table:            rel.Target.Name,
			ForeignKeyColumn: rel.Column,
			OutputPath:       rel.Path,
		})
	}
	return desc, nil
}
