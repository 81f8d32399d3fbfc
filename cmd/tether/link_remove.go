// Link remove command: remove links, optionally with the reachable subgraph.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tether/pkg/types"
)

var (
	linkRemoveType      string
	linkRemoveRecursive bool
)

var linkRemoveCmd = &cobra.Command{
	Use:   "remove <source-id> <target-id> [target-id...]",
	Short: "Remove links from a source entity to targets",
	Long: `Remove the typed link from the source entity to each target.
With --recursive, every link of the same type reachable from the targets
is removed as well; entities themselves are left untouched.

Example:
  tether link remove et-1a2b3c4d et-5e6f7a8b --type blocks --recursive`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLinkRemove,
}

func init() {
	linkRemoveCmd.Flags().StringVarP(&linkRemoveType, "type", "t", types.LinkTypeRelatesTo, "link type (blocks, parent, relates-to)")
	linkRemoveCmd.Flags().BoolVarP(&linkRemoveRecursive, "recursive", "r", false, "also remove same-type links reachable from the targets")
}

func runLinkRemove(cmd *cobra.Command, args []string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}

	results, err := eng.RemoveLinks(args[0], args[1:], linkRemoveType, linkRemoveRecursive)

	var worst error
	for _, r := range results {
		if r.Ok() {
			fmt.Printf("Removed %s --[%s]--> %s\n", r.Source, r.Type, r.Target)
			continue
		}
		fmt.Printf("failed %s --[%s]--> %s: %v\n", r.Source, r.Type, r.Target, r.Err)
		if exitCodeFor(r.Err) > exitCodeFor(worst) {
			worst = r.Err
		}
	}
	if err != nil {
		return fmt.Errorf("link remove: %w", err)
	}
	if worst != nil {
		return fmt.Errorf("link remove: %w", worst)
	}
	return nil
}
