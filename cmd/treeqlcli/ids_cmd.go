package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/treeql/treeql"
)

func newIDsCmd() *cobra.Command {
	var (
		specPath   string
		driverName string
		dsn        string
	)

	cmd := &cobra.Command{
		Use:   "ids",
		Short: "Resolve and print the id list a spec's root selection would fetch",
		Example: `  treeqlcli ids --spec album.tree --driver mysql --dsn "user:pass@tcp(127.0.0.1:3306)/music"
  treeqlcli ids --spec album.tree --driver sqlite3 --dsn ./music.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIDs(cmd, specPath, driverName, dsn)
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "path to a Table DSL spec file (required)")
	cmd.Flags().StringVar(&driverName, "driver", "mysql", "SQL driver name (mysql, sqlite3)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "data source name (required)")
	_ = cmd.MarkFlagRequired("spec")
	_ = cmd.MarkFlagRequired("dsn")

	return cmd
}

func runIDs(cmd *cobra.Command, specPath, driverName, dsn string) error {
	src, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("read spec: %w", err)
	}

	cs, err := treeql.Compile(string(src), nil)
	if err != nil {
		return fmt.Errorf("compile spec: %w", err)
	}

	db, err := treeql.Open(driverName, dsn, nil)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ids, err := treeql.EntityIDs(context.Background(), db, cs, treeql.SelectionOptions{})
	if err != nil {
		return fmt.Errorf("resolve ids: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}
