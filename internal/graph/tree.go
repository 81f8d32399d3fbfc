package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tether/pkg/types"
)

// TreeNode is one rendered node of a link tree. LinkType is the type of the
// edge that led here (empty at the root). Cycle marks a node that is an
// active ancestor on the current path; such a node is shown but not
// expanded, which is what bounds the traversal on cyclic graphs.
type TreeNode struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Status   string      `json:"status"`
	LinkType string      `json:"link_type,omitempty"`
	Cycle    bool        `json:"cycle,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// treeFrame is one node under expansion: the built node plus its outgoing
// links and the index of the next one to explore.
type treeFrame struct {
	node  *TreeNode
	links []types.Link
	next  int
}

// Tree renders the subgraph reachable from id through outgoing links as a
// rooted tree. A node reachable on several non-ancestor paths is expanded
// under each parent, so shared descendants of a DAG appear once per path.
// Sibling order follows the order links were returned by the backend.
//
// Like Cycles, the traversal is an explicit frame stack with the onPath
// set as the ancestor coloring; a frame is gray while on the stack.
//
// On a backend failure mid-traversal the tree built so far is returned
// together with the error, so the caller can show the partial result
// marked incomplete.
func (e *Engine) Tree(id string) (*TreeNode, error) {
	root, links, err := e.visit(id, "")
	if err != nil {
		return root, err
	}

	onPath := map[string]bool{root.ID: true}
	stack := []treeFrame{{node: root, links: links}}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		if f.next >= len(f.links) {
			delete(onPath, f.node.ID)
			stack = stack[:len(stack)-1]
			continue
		}
		l := f.links[f.next]
		f.next++

		if l.SourceID != f.node.ID {
			continue
		}
		if onPath[l.TargetID] {
			f.node.Children = append(f.node.Children, &TreeNode{
				ID:       l.TargetID,
				LinkType: l.Type,
				Cycle:    true,
			})
			continue
		}

		child, childLinks, err := e.visit(l.TargetID, l.Type)
		if child != nil {
			f.node.Children = append(f.node.Children, child)
		}
		if err != nil {
			return root, err
		}
		onPath[child.ID] = true
		stack = append(stack, treeFrame{node: child, links: childLinks})
	}
	return root, nil
}

// visit builds the node for id and fetches its outgoing links. A missing
// entity yields a bare node with no links, so the walk shows the ID
// without descending.
func (e *Engine) visit(id, linkType string) (*TreeNode, []types.Link, error) {
	node := &TreeNode{ID: id, LinkType: linkType}

	entity, err := e.backend.Read(id)
	switch {
	case err == nil:
		node.Title = entity.Title
		node.Status = entity.Status
	case errors.Is(err, types.ErrNotFound):
		// A link can outlive its endpoint in some backends.
		return node, nil, nil
	default:
		return node, nil, fmt.Errorf("reading %s: %w", id, err)
	}

	links, err := e.backend.ListLinks(id, "")
	if err != nil {
		return node, nil, fmt.Errorf("listing links of %s: %w", id, err)
	}
	return node, links, nil
}

// Render formats the tree as indented text, one node per line.
func (n *TreeNode) Render() string {
	var b strings.Builder
	n.render(&b, 0)
	return b.String()
}

func (n *TreeNode) render(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if n.LinkType != "" {
		fmt.Fprintf(b, "--[%s]--> ", n.LinkType)
	}
	b.WriteString(n.ID)
	if n.Title != "" {
		fmt.Fprintf(b, " %s", n.Title)
	}
	if n.Status != "" {
		fmt.Fprintf(b, " (%s)", n.Status)
	}
	if n.Cycle {
		b.WriteString(" [cycle]")
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		c.render(b, depth+1)
	}
}
