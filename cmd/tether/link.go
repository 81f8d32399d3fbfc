// Link command group: manage typed links between entities.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tether/internal/graph"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage links between entities",
	Long: `Manage typed, directed links between entities. Link types are
blocks, parent, and relates-to; a "B is blocked by A" relation is the
blocks-edge A -> B.`,
}

func init() {
	linkCmd.AddCommand(linkAddCmd)
	linkCmd.AddCommand(linkRemoveCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkTreeCmd)
	linkCmd.AddCommand(linkCycleCmd)
}

// getEngine builds a link graph engine over the configured backend.
func getEngine() (*graph.Engine, error) {
	b, err := getBackend()
	if err != nil {
		return nil, err
	}
	return graph.New(b, logger), nil
}
