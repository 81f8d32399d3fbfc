// Link add command: create links from one source to one or more targets.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tether/pkg/types"
)

var linkAddType string

var linkAddCmd = &cobra.Command{
	Use:   "add <source-id> <target-id> [target-id...]",
	Short: "Add links from a source entity to targets",
	Long: `Add a typed link from the source entity to each target. Each
pair is attempted independently; a failure on one target does not stop
the rest. Duplicate links are reported but are not fatal.

Example:
  tether link add et-1a2b3c4d et-5e6f7a8b et-9c0d1e2f --type blocks`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLinkAdd,
}

func init() {
	linkAddCmd.Flags().StringVarP(&linkAddType, "type", "t", types.LinkTypeRelatesTo, "link type (blocks, parent, relates-to)")
}

func runLinkAdd(cmd *cobra.Command, args []string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}

	results := eng.AddLinks(args[0], args[1:], linkAddType)

	var worst error
	for _, r := range results {
		if r.Ok() {
			fmt.Printf("Linked %s --[%s]--> %s\n", r.Source, r.Type, r.Target)
			continue
		}
		fmt.Printf("failed %s --[%s]--> %s: %v\n", r.Source, r.Type, r.Target, r.Err)
		if exitCodeFor(r.Err) > exitCodeFor(worst) {
			worst = r.Err
		}
	}
	if worst != nil {
		return fmt.Errorf("link add: %w", worst)
	}
	return nil
}
