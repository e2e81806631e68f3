// Command treeqlcli is a small operator tool for inspecting a Table DSL spec
// without wiring it into an application: it compiles a spec file, prints the query
// plan a group would run, or resolves the id list a selection would fetch.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:]))
}
