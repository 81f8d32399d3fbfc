package github

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tether/pkg/types"
)

var _ types.Backend = (*Backend)(nil)

// Create opens a new issue. Missing repository labels are created on the
// fly so "key:value" label entries always resolve.
func (b *Backend) Create(title, description string, labels map[string]string, assignee string) (*types.Entity, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", types.ErrValidation)
	}

	repoID, err := b.repositoryID()
	if err != nil {
		return nil, err
	}

	labelIDs, err := b.labelIDs(labelNames(labels, ""))
	if err != nil {
		return nil, err
	}

	var assigneeIDs []string
	if assignee != "" {
		uid, err := b.userID(assignee)
		if err != nil {
			return nil, err
		}
		assigneeIDs = []string{uid}
	}

	var data struct {
		CreateIssue struct {
			Issue issueNode `json:"issue"`
		} `json:"createIssue"`
	}
	err = b.do(`mutation($repositoryId: ID!, $title: String!, $body: String, $labelIds: [ID!], $assigneeIds: [ID!]) {
		createIssue(input: {repositoryId: $repositoryId, title: $title, body: $body, labelIds: $labelIds, assigneeIds: $assigneeIds}) {
			issue {`+issueFields+`}
		}
	}`, map[string]any{
		"repositoryId": repoID,
		"title":        title,
		"body":         description,
		"labelIds":     labelIDs,
		"assigneeIds":  assigneeIDs,
	}, &data)
	if err != nil {
		return nil, err
	}

	entity := entityFromIssue(data.CreateIssue.Issue)
	b.log.Debug("created issue", zap.String("id", entity.ID))
	return entity, nil
}

// Read fetches the issue with the given (numeric) ID.
func (b *Backend) Read(id string) (*types.Entity, error) {
	node, err := b.issue(id)
	if err != nil {
		return nil, err
	}
	return entityFromIssue(*node), nil
}

// Update applies a partial update. The current issue is fetched first so
// label and status changes can be merged: both are encoded in the same
// label set on this backend.
func (b *Backend) Update(id string, fields types.UpdateFields) (*types.Entity, error) {
	if fields.Status != nil && !types.ValidStatus(*fields.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", types.ErrValidation, *fields.Status)
	}
	if fields.Title != nil && strings.TrimSpace(*fields.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", types.ErrValidation)
	}

	node, err := b.issue(id)
	if err != nil {
		return nil, err
	}
	current := entityFromIssue(*node)

	title := current.Title
	if fields.Title != nil {
		title = *fields.Title
	}
	body := current.Description
	if fields.Description != nil {
		body = *fields.Description
	}
	labels := current.Labels
	if fields.Labels != nil {
		labels = fields.Labels
	}
	status := current.Status
	if fields.Status != nil {
		status = *fields.Status
	}

	labelIDs, err := b.labelIDs(labelNames(labels, status))
	if err != nil {
		return nil, err
	}

	var data struct {
		UpdateIssue struct {
			Issue issueNode `json:"issue"`
		} `json:"updateIssue"`
	}
	err = b.do(`mutation($id: ID!, $title: String!, $body: String!, $state: IssueState!, $labelIds: [ID!]) {
		updateIssue(input: {id: $id, title: $title, body: $body, state: $state, labelIds: $labelIds}) {
			issue {`+issueFields+`}
		}
	}`, map[string]any{
		"id":       node.ID,
		"title":    title,
		"body":     body,
		"state":    issueState(status),
		"labelIds": labelIDs,
	}, &data)
	if err != nil {
		return nil, err
	}

	if fields.Assignee != nil && *fields.Assignee != current.Assignee {
		if err := b.reassign(node, *fields.Assignee); err != nil {
			return nil, err
		}
	}
	return b.Read(id)
}

// Delete removes the issue entirely. Issue numbers are never reused by the
// backend, so a deleted ID stays detectable as ErrNotFound.
func (b *Backend) Delete(id string) error {
	node, err := b.issue(id)
	if err != nil {
		return err
	}
	return b.do(`mutation($id: ID!) {
		deleteIssue(input: {issueId: $id}) { clientMutationId }
	}`, map[string]any{"id": node.ID}, nil)
}

// listPage is one page of the issues connection.
type listPage struct {
	Repository struct {
		Issues struct {
			Nodes    []issueNode `json:"nodes"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"issues"`
	} `json:"repository"`
}

// List streams issues page by page. Pagination is invisible to the caller:
// the next page is fetched only when the sequence is drained past it.
// Sorting forces the adapter to materialize the full result first, since
// the API cannot order by arbitrary entity fields.
func (b *Backend) List(opts types.ListOptions) iter.Seq2[*types.Entity, error] {
	return func(yield func(*types.Entity, error) bool) {
		if opts.SortBy != "" && !validSortField(opts.SortBy) {
			yield(nil, fmt.Errorf("%w: cannot sort by %q", types.ErrValidation, opts.SortBy))
			return
		}

		var collected []*types.Entity
		yielded := 0

		emit := func(e *types.Entity) bool {
			if opts.SortBy != "" {
				collected = append(collected, e)
				return true
			}
			if opts.Limit > 0 && yielded >= opts.Limit {
				return false
			}
			yielded++
			return yield(e, nil)
		}

		cursor := ""
		for {
			var page listPage
			vars := map[string]any{
				"owner": b.opts.Owner, "name": b.opts.Repo,
			}
			if cursor != "" {
				vars["after"] = cursor
			}
			err := b.do(`query($owner: String!, $name: String!, $after: String) {
				repository(owner: $owner, name: $name) {
					issues(first: 100, after: $after, states: [OPEN, CLOSED], orderBy: {field: CREATED_AT, direction: ASC}) {
						nodes {`+issueFields+`}
						pageInfo { hasNextPage endCursor }
					}
				}
			}`, vars, &page)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, n := range page.Repository.Issues.Nodes {
				e := entityFromIssue(n)
				if !matchesFilter(e, opts.Filter) {
					continue
				}
				if !emit(e) {
					return
				}
			}

			info := page.Repository.Issues.PageInfo
			if !info.HasNextPage {
				break
			}
			cursor = info.EndCursor
		}

		if opts.SortBy == "" {
			return
		}
		sort.Slice(collected, func(i, j int) bool {
			return sortField(collected[i], opts.SortBy) < sortField(collected[j], opts.SortBy)
		})
		if opts.Limit > 0 && len(collected) > opts.Limit {
			collected = collected[:opts.Limit]
		}
		for _, e := range collected {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func validSortField(field string) bool {
	switch field {
	case "id", "title", "status", "assignee":
		return true
	}
	return false
}

func sortField(e *types.Entity, field string) string {
	switch field {
	case "title":
		return e.Title
	case "status":
		return e.Status
	case "assignee":
		return e.Assignee
	default:
		// Numeric IDs sort naturally when padded by length first.
		return fmt.Sprintf("%09s", e.ID)
	}
}

func matchesFilter(e *types.Entity, filter map[string]string) bool {
	for k, want := range filter {
		var got string
		switch k {
		case "id":
			got = e.ID
		case "title":
			got = e.Title
		case "status":
			got = e.Status
		case "assignee":
			got = e.Assignee
		default:
			got = e.Labels[k]
		}
		if got != want {
			return false
		}
	}
	return true
}

// issue fetches one issue node by opaque ID.
func (b *Backend) issue(id string) (*issueNode, error) {
	number, err := issueNumber(id)
	if err != nil {
		return nil, err
	}
	var data struct {
		Repository struct {
			Issue *issueNode `json:"issue"`
		} `json:"repository"`
	}
	err = b.do(`query($owner: String!, $name: String!, $number: Int!) {
		repository(owner: $owner, name: $name) {
			issue(number: $number) {`+issueFields+`}
		}
	}`, map[string]any{"owner": b.opts.Owner, "name": b.opts.Repo, "number": number}, &data)
	if err != nil {
		return nil, err
	}
	if data.Repository.Issue == nil {
		return nil, fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
	}
	return data.Repository.Issue, nil
}

// labelIDs resolves label names to node IDs, creating repository labels
// that do not exist yet.
func (b *Backend) labelIDs(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var data struct {
		Repository struct {
			ID     string `json:"id"`
			Labels struct {
				Nodes []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"labels"`
		} `json:"repository"`
	}
	err := b.do(`query($owner: String!, $name: String!) {
		repository(owner: $owner, name: $name) {
			id
			labels(first: 100) { nodes { id name } }
		}
	}`, map[string]any{"owner": b.opts.Owner, "name": b.opts.Repo}, &data)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]string, len(data.Repository.Labels.Nodes))
	for _, l := range data.Repository.Labels.Nodes {
		existing[l.Name] = l.ID
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := existing[name]; ok {
			ids = append(ids, id)
			continue
		}
		var created struct {
			CreateLabel struct {
				Label struct {
					ID string `json:"id"`
				} `json:"label"`
			} `json:"createLabel"`
		}
		err := b.do(`mutation($repositoryId: ID!, $name: String!, $color: String!) {
			createLabel(input: {repositoryId: $repositoryId, name: $name, color: $color}) {
				label { id }
			}
		}`, map[string]any{"repositoryId": data.Repository.ID, "name": name, "color": "ededed"}, &created)
		if err != nil {
			return nil, fmt.Errorf("creating label %q: %w", name, err)
		}
		ids = append(ids, created.CreateLabel.Label.ID)
	}
	return ids, nil
}

// userID resolves a login to a user node ID.
func (b *Backend) userID(login string) (string, error) {
	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	err := b.do(`query($login: String!) {
		user(login: $login) { id }
	}`, map[string]any{"login": login}, &data)
	if err != nil {
		return "", err
	}
	return data.User.ID, nil
}

// reassign replaces the issue's assignees with the given login (or clears
// them when the login is empty).
func (b *Backend) reassign(node *issueNode, login string) error {
	if len(node.Assignees.Nodes) > 0 {
		uid, err := b.userID(node.Assignees.Nodes[0].Login)
		if err != nil {
			return err
		}
		err = b.do(`mutation($id: ID!, $ids: [ID!]!) {
			removeAssigneesFromAssignable(input: {assignableId: $id, assigneeIds: $ids}) { clientMutationId }
		}`, map[string]any{"id": node.ID, "ids": []string{uid}}, nil)
		if err != nil {
			return err
		}
	}
	if login == "" {
		return nil
	}
	uid, err := b.userID(login)
	if err != nil {
		return err
	}
	return b.do(`mutation($id: ID!, $ids: [ID!]!) {
		addAssigneesToAssignable(input: {assignableId: $id, assigneeIds: $ids}) { clientMutationId }
	}`, map[string]any{"id": node.ID, "ids": []string{uid}}, nil)
}
