// Create command: create a new entity.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	createDescription string
	createLabels      string
	createAssignee    string
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new entity",
	Long: `Create a new entity with the given title.

Labels use the comma syntax "key:value,flag".

Example:
  tether create "Fix login flow" --description "Users cannot log in" --labels area:auth,urgent
  tether create "Review PR" --assignee alice --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "entity description")
	createCmd.Flags().StringVarP(&createLabels, "labels", "l", "", "labels as key:value,key2")
	createCmd.Flags().StringVarP(&createAssignee, "assignee", "a", "", "assignee")
}

func runCreate(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	entity, err := b.Create(args[0], createDescription, parseLabels(createLabels), createAssignee)
	if err != nil {
		return fmt.Errorf("create entity: %w", err)
	}

	if flagJSON {
		return printJSON(entity)
	}
	fmt.Printf("Created entity %s: %s\n", entity.ID, entity.Title)
	return nil
}
