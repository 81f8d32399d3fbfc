// Read command: show one entity by ID.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <entity-id>",
	Short: "Show an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

func runRead(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	entity, err := b.Read(args[0])
	if err != nil {
		return fmt.Errorf("read entity %s: %w", args[0], err)
	}

	if flagJSON {
		return printJSON(entity)
	}
	printEntity(entity)
	return nil
}
