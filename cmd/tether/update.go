// Update command: modify fields on an existing entity.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tether/pkg/types"
)

var (
	updateTitle       string
	updateDescription string
	updateLabels      string
	updateAssignee    string
	updateStatus      string
)

var updateCmd = &cobra.Command{
	Use:   "update <entity-id>",
	Short: "Update fields on an entity",
	Long: `Update one or more fields on an entity. Only flags that are
explicitly set are applied; omitted fields keep their current value.
Setting --labels replaces the full label set.

Example:
  tether update et-1a2b3c4d --status in-progress --assignee bob`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "new title")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "new description")
	updateCmd.Flags().StringVarP(&updateLabels, "labels", "l", "", "replacement labels as key:value,key2")
	updateCmd.Flags().StringVarP(&updateAssignee, "assignee", "a", "", "new assignee")
	updateCmd.Flags().StringVarP(&updateStatus, "status", "s", "", "new status (open, in-progress, closed)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	var fields types.UpdateFields
	if cmd.Flags().Changed("title") {
		fields.Title = &updateTitle
	}
	if cmd.Flags().Changed("description") {
		fields.Description = &updateDescription
	}
	if cmd.Flags().Changed("labels") {
		labels := parseLabels(updateLabels)
		if labels == nil {
			// An explicit empty --labels clears the set.
			labels = map[string]string{}
		}
		fields.Labels = labels
	}
	if cmd.Flags().Changed("assignee") {
		fields.Assignee = &updateAssignee
	}
	if cmd.Flags().Changed("status") {
		if !types.ValidStatus(updateStatus) {
			return fmt.Errorf("%w: unknown status %q", types.ErrValidation, updateStatus)
		}
		fields.Status = &updateStatus
	}

	if fields.Empty() {
		return fmt.Errorf("%w: no fields to update", types.ErrValidation)
	}

	entity, err := b.Update(args[0], fields)
	if err != nil {
		return fmt.Errorf("update entity %s: %w", args[0], err)
	}

	if flagJSON {
		return printJSON(entity)
	}
	fmt.Printf("Updated entity %s\n", entity.ID)
	printEntity(entity)
	return nil
}
