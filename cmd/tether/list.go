// List command: enumerate entities with optional filtering and sorting.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tether/pkg/types"
)

var (
	listFilters []string
	listSortBy  string
	listLimit   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List entities",
	Long: `List entities, optionally filtered and sorted. Filters are
key=value pairs combined with AND; keys may name a field (id, title,
status, assignee) or a label key.

Example:
  tether list --filter status=open --filter area:auth --sort title --limit 20`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringArrayVarP(&listFilters, "filter", "f", nil, "filter as key=value (repeatable)")
	listCmd.Flags().StringVarP(&listSortBy, "sort", "s", "", "sort field (id, title, status, assignee, or a label key)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of entities to print (0 = no limit)")
}

func runList(cmd *cobra.Command, args []string) error {
	b, err := getBackend()
	if err != nil {
		return err
	}

	filter, err := parseFilters(listFilters)
	if err != nil {
		return err
	}

	opts := types.ListOptions{
		Filter: filter,
		SortBy: listSortBy,
		Limit:  listLimit,
	}

	var entities []*types.Entity
	for entity, err := range b.List(opts) {
		if err != nil {
			return fmt.Errorf("list entities: %w", err)
		}
		entities = append(entities, entity)
	}

	if flagJSON {
		if entities == nil {
			entities = []*types.Entity{}
		}
		return printJSON(entities)
	}

	if len(entities) == 0 {
		fmt.Println("No entities found.")
		return nil
	}
	for _, e := range entities {
		line := fmt.Sprintf("%s  [%s]  %s", e.ID, e.Status, e.Title)
		if e.Assignee != "" {
			line += "  @" + e.Assignee
		}
		if len(e.Labels) > 0 {
			line += "  " + formatLabels(e.Labels)
		}
		fmt.Println(line)
	}
	return nil
}
