// Delete command: remove one or more entities.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <entity-id> [entity-id...]",
	Short: "Delete entities",
	Long: `Delete one or more entities. Each deletion is attempted
independently; a failure on one ID does not stop the rest. The exit
code reflects the most severe failure across the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	var worst error
	for _, id := range args {
		if err := b.Delete(id); err != nil {
			fmt.Printf("failed %s: %v\n", id, err)
			if exitCodeFor(err) > exitCodeFor(worst) {
				worst = err
			}
			continue
		}
		fmt.Printf("Deleted entity %s\n", id)
	}
	if worst != nil {
		return fmt.Errorf("delete batch: %w", worst)
	}
	return nil
}
