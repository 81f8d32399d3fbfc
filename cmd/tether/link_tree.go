// Link tree command: render the reachable subgraph of an entity as a tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var linkTreeCmd = &cobra.Command{
	Use:   "tree <entity-id>",
	Short: "Show the link tree rooted at an entity",
	Long: `Render the entities reachable from the given entity through
outgoing links as an indented tree. A node that loops back to one of
its own ancestors is shown with a [cycle] marker and not expanded.

If the backend fails mid-traversal the tree built so far is printed and
marked incomplete.`,
	Args: cobra.ExactArgs(1),
	RunE: runLinkTree,
}

func runLinkTree(cmd *cobra.Command, args []string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}

	root, treeErr := eng.Tree(args[0])
	if root != nil {
		if flagJSON {
			if err := printJSON(root); err != nil {
				return err
			}
		} else {
			fmt.Print(root.Render())
		}
	}
	if treeErr != nil {
		fmt.Fprintln(os.Stderr, "warning: tree is incomplete")
		return fmt.Errorf("link tree: %w", treeErr)
	}
	return nil
}
