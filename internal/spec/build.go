package spec

import (
	"strings"

	"github.com/treeql/treeql/internal/dsl"
)

// Build translates a raw DSL node tree into a typed, pre-analysis TableSpec. Table
// identifiers default per spec.md §4.1: when no :id is given, ID is "<name>_id" and
// IDGenerated is set.
func Build(node *dsl.TableNode) (*TableSpec, error) {
	ts := &TableSpec{Name: node.Name}
	if node.HasID {
		ts.ID = node.ID
	} else {
		ts.ID = node.Name + "_id"
		ts.IDGenerated = true
	}

	for _, raw := range node.Fields {
		switch v := raw.(type) {
		case *dsl.FieldNode:
			ts.Fields = append(ts.Fields, FieldSpec{Column: v.Column})
		case *dsl.OptionVector:
			ts.Fields = append(ts.Fields, FieldSpec{
				Column:       v.Column,
				Alias:        v.Values["as"],
				TransformRef: v.Values["transform"],
			})
		case *dsl.RelNode:
			rel, err := buildRel(node.Name, &v.Join, v.Target)
			if err != nil {
				return nil, err
			}
			ts.PendingRels = append(ts.PendingRels, rel)
		default:
			return nil, &InvalidSpecError{Reason: "unrecognized field shape"}
		}
	}
	return ts, nil
}

func buildRel(sourceTable string, join *dsl.OptionVector, targetNode *dsl.TableNode) (*RelSpec, error) {
	target, err := Build(targetNode)
	if err != nil {
		return nil, err
	}

	column := join.Column
	reverse := strings.HasPrefix(column, "_")
	if reverse {
		column = strings.TrimPrefix(column, "_")
	}

	return &RelSpec{
		SourceTable: sourceTable,
		Column:      column,
		Reverse:     reverse,
		Alias:       join.Values["as"],
		Flatten:     join.Flags["flatten"],
		Target:      target,
	}, nil
}
