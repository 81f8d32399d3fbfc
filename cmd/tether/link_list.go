// Link list command: show links touching an entity.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var linkListType string

var linkListCmd = &cobra.Command{
	Use:   "list <entity-id>",
	Short: "List links touching an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkList,
}

func init() {
	linkListCmd.Flags().StringVarP(&linkListType, "type", "t", "", "only show links of this type")
}

func runLinkList(cmd *cobra.Command, args []string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}

	links, err := eng.ListLinks(args[0], linkListType)
	if err != nil {
		return fmt.Errorf("list links for %s: %w", args[0], err)
	}

	if flagJSON {
		return printJSON(links)
	}

	if len(links) == 0 {
		fmt.Println("No links found.")
		return nil
	}
	for _, l := range links {
		fmt.Printf("%s --[%s]--> %s\n", l.SourceID, l.Type, l.TargetID)
	}
	return nil
}
