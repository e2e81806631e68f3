package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treeql/treeql"
)

func newPlanCmd() *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the SQL a spec's extraction would run",
		Long:  "Compiles a Table DSL spec file and prints the root query group's SQL, plus a summary of every many-valued relationship that will be queried and attached.",
		Example: `  treeqlcli plan --spec album.tree
  treeqlcli plan -s album.tree`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, specPath)
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "path to a Table DSL spec file (required)")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}

func runPlan(cmd *cobra.Command, specPath string) error {
	src, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("read spec: %w", err)
	}

	cs, err := treeql.Compile(string(src), nil)
	if err != nil {
		return fmt.Errorf("compile spec: %w", err)
	}

	plan, err := cs.Plan()
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "root (%s):\n  %s\n", plan.RootTable, plan.RootSQL)
	if len(plan.Many) == 0 {
		return nil
	}
	fmt.Fprintln(out, "many-valued:")
	for _, m := range plan.Many {
		fmt.Fprintf(out, "  %s (fk %s) -> %s\n", m.Table, m.ForeignKeyColumn, strings.Join(m.OutputPath, "."))
	}
	return nil
}
