package github

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tether/pkg/types"
)

// inProgressLabel encodes the third entity status on a store that only
// knows open and closed.
const inProgressLabel = "state:in-progress"

// issueNode is the GraphQL shape shared by every query that returns an
// issue.
type issueNode struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	Labels struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
	Assignees struct {
		Nodes []struct {
			Login string `json:"login"`
		} `json:"nodes"`
	} `json:"assignees"`
}

// issueFields is the selection set matching issueNode.
const issueFields = `
	id
	number
	title
	body
	state
	labels(first: 100) { nodes { name } }
	assignees(first: 1) { nodes { login } }
`

// entityFromIssue normalizes an issue into the canonical entity shape:
// the number becomes the opaque ID, "key:value" label names become label
// entries, and the status is derived from the state plus the in-progress
// marker label.
func entityFromIssue(n issueNode) *types.Entity {
	e := &types.Entity{
		ID:          strconv.Itoa(n.Number),
		Title:       n.Title,
		Description: n.Body,
		Status:      types.StatusOpen,
	}
	if strings.EqualFold(n.State, "CLOSED") {
		e.Status = types.StatusClosed
	}

	for _, l := range n.Labels.Nodes {
		if l.Name == inProgressLabel {
			if e.Status == types.StatusOpen {
				e.Status = types.StatusInProgress
			}
			continue
		}
		k, v, _ := strings.Cut(l.Name, ":")
		if e.Labels == nil {
			e.Labels = make(map[string]string)
		}
		e.Labels[k] = v
	}

	if len(n.Assignees.Nodes) > 0 {
		e.Assignee = n.Assignees.Nodes[0].Login
	}
	return e
}

// labelNames renders a label map into GitHub label names, sorted for
// deterministic requests. The in-progress marker is appended when the
// status calls for it.
func labelNames(labels map[string]string, status string) []string {
	names := make([]string, 0, len(labels)+1)
	for k, v := range labels {
		if v == "" {
			names = append(names, k)
		} else {
			names = append(names, k+":"+v)
		}
	}
	sort.Strings(names)
	if status == types.StatusInProgress {
		names = append(names, inProgressLabel)
	}
	return names
}

// issueState maps an entity status onto the native two-state model.
func issueState(status string) string {
	if status == types.StatusClosed {
		return "CLOSED"
	}
	return "OPEN"
}
