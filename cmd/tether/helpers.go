// Shared helpers for tether CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/tether/pkg/types"
)

// parseLabels parses the comma label syntax "key:value,flag" into a label
// map. A segment without a colon becomes a key with an empty value.
func parseLabels(s string) map[string]string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	labels := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, ":")
		labels[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return labels
}

// parseFilters parses repeated --filter key=value flags into the equality
// conjunction passed to List.
func parseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: filter %q must be key=value", types.ErrValidation, pair)
		}
		filter[k] = v
	}
	return filter, nil
}

// formatLabels renders a label map in the comma syntax, keys sorted for
// stable output.
func formatLabels(labels map[string]string) string {
	parts := make([]string, 0, len(labels))
	for _, k := range sortedKeys(labels) {
		if labels[k] == "" {
			parts = append(parts, k)
		} else {
			parts = append(parts, k+":"+labels[k])
		}
	}
	return strings.Join(parts, ",")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatCycles renders cycle reports one per line, each closing back on
// its first node.
func formatCycles(cycles [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d cycle(s):\n", len(cycles))
	for _, c := range cycles {
		fmt.Fprintf(&b, "  %s -> %s\n", strings.Join(c, " -> "), c[0])
	}
	return b.String()
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// printEntity writes one entity in the human format.
func printEntity(e *types.Entity) {
	fmt.Printf("Entity: %s\n", e.ID)
	fmt.Printf("Title: %s\n", e.Title)
	if e.Description != "" {
		fmt.Printf("Description: %s\n", e.Description)
	}
	fmt.Printf("Status: %s\n", e.Status)
	if e.Assignee != "" {
		fmt.Printf("Assignee: %s\n", e.Assignee)
	}
	if len(e.Labels) > 0 {
		fmt.Printf("Labels: %s\n", formatLabels(e.Labels))
	}
}
