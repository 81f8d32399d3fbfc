package graph

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tether/pkg/types"
)

// Traversal colors. Every node is in exactly one state: white nodes are
// unvisited, gray nodes are on the current DFS stack, black nodes are fully
// explored. An edge into a gray node is a back-edge, which identifies a
// cycle.
type color int

const (
	white color = iota
	gray
	black
)

// Cycles scans the full link graph for directed cycles and returns each one
// as the node sequence from the back-edge's target around to itself
// (1→2→3→1 is reported as [1 2 3]).
//
// The scan is a single three-color depth-first search over the whole
// fetched graph, O(V+E); it is not rerun per node. A backend failure while
// fetching the graph returns the cycles found in the portion fetched so
// far, together with the error.
func (e *Engine) Cycles() ([][]string, error) {
	adj, nodes, fetchErr := e.fetchGraph()

	colors := make(map[string]color, len(nodes))
	var cycles [][]string

	for _, start := range nodes {
		if colors[start] != white {
			continue
		}

		// Iterative DFS: path is the gray stack, frames track the next
		// edge to explore per node so a back-edge never recurses.
		type frame struct {
			node string
			next int
		}
		var path []string
		stack := []frame{{node: start}}

		for len(stack) > 0 {
			f := &stack[len(stack)-1]

			if f.next == 0 {
				colors[f.node] = gray
				path = append(path, f.node)
			}

			if f.next < len(adj[f.node]) {
				target := adj[f.node][f.next]
				f.next++

				switch colors[target] {
				case white:
					stack = append(stack, frame{node: target})
				case gray:
					// Back-edge: the cycle runs from target along the
					// current path back to this node.
					for i, n := range path {
						if n == target {
							cycles = append(cycles, append([]string(nil), path[i:]...))
							break
						}
					}
				}
				// Black targets are fully explored; nothing to do.
				continue
			}

			colors[f.node] = black
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
		}
	}

	e.log.Debug("cycle scan complete",
		zap.Int("nodes", len(nodes)), zap.Int("cycles", len(cycles)))
	return cycles, fetchErr
}

// fetchGraph builds the adjacency view of every persisted link: for each
// listed entity, its outgoing edges of every type, in backend order. Nodes
// known only as link targets are included so the scan covers every entity
// reachable through any fetched link. On a fetch failure the partial
// adjacency built so far is returned with the error.
func (e *Engine) fetchGraph() (map[string][]string, []string, error) {
	adj := make(map[string][]string)
	seen := make(map[string]bool)
	var nodes []string

	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			nodes = append(nodes, id)
		}
	}

	for entity, err := range e.backend.List(types.ListOptions{}) {
		if err != nil {
			return adj, sorted(nodes), fmt.Errorf("listing entities: %w", err)
		}
		add(entity.ID)

		links, err := e.backend.ListLinks(entity.ID, "")
		if err != nil {
			return adj, sorted(nodes), fmt.Errorf("listing links of %s: %w", entity.ID, err)
		}
		for _, l := range links {
			if l.SourceID != entity.ID {
				continue
			}
			adj[l.SourceID] = append(adj[l.SourceID], l.TargetID)
			add(l.TargetID)
		}
	}
	return adj, sorted(nodes), nil
}

// sorted returns the node list in lexical order so cycle reports are
// deterministic across runs.
func sorted(nodes []string) []string {
	sort.Strings(nodes)
	return nodes
}
