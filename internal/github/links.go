package github

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tether/pkg/types"
)

// Native relation support. A blocks-edge X -> Y is stored as "Y is blocked
// by X"; a parent-edge is a sub-issue relation. Other link types have no
// native representation on this backend.
func nativeLinkType(typ string) bool {
	return typ == types.LinkTypeBlocks || typ == types.LinkTypeParent
}

// AddLink persists the triple through the native relation. Re-adding an
// existing relation is a no-op success on this backend; the duplicate
// policy is consistent per adapter.
func (b *Backend) AddLink(source, target, typ string) error {
	if !nativeLinkType(typ) {
		return fmt.Errorf("%w: github backend supports link types blocks and parent, not %q", types.ErrValidation, typ)
	}

	src, err := b.issue(source)
	if err != nil {
		return err
	}
	tgt, err := b.issue(target)
	if err != nil {
		return err
	}

	var mutation string
	var vars map[string]any
	if typ == types.LinkTypeBlocks {
		mutation = `mutation($issueId: ID!, $blockingIssueId: ID!) {
			addBlockedBy(input: {issueId: $issueId, blockingIssueId: $blockingIssueId}) { clientMutationId }
		}`
		vars = map[string]any{"issueId": tgt.ID, "blockingIssueId": src.ID}
	} else {
		mutation = `mutation($issueId: ID!, $subIssueId: ID!) {
			addSubIssue(input: {issueId: $issueId, subIssueId: $subIssueId}) { clientMutationId }
		}`
		vars = map[string]any{"issueId": src.ID, "subIssueId": tgt.ID}
	}

	if err := b.do(mutation, vars, nil); err != nil {
		return err
	}
	b.log.Debug("added link",
		zap.String("source", source), zap.String("target", target), zap.String("type", typ))
	return nil
}

// RemoveLink deletes the native relation behind the triple.
func (b *Backend) RemoveLink(source, target, typ string) error {
	if !nativeLinkType(typ) {
		return fmt.Errorf("%w: github backend supports link types blocks and parent, not %q", types.ErrValidation, typ)
	}

	// Verify the triple is actually persisted so removing a missing link
	// reports ErrNotFound instead of whatever the API answers.
	links, err := b.ListLinks(source, typ)
	if err != nil {
		return err
	}
	present := false
	for _, l := range links {
		if l.SourceID == source && l.TargetID == target {
			present = true
			break
		}
	}
	if !present {
		return fmt.Errorf("link %s -> %s (%s): %w", source, target, typ, types.ErrNotFound)
	}

	src, err := b.issue(source)
	if err != nil {
		return err
	}
	tgt, err := b.issue(target)
	if err != nil {
		return err
	}

	if typ == types.LinkTypeBlocks {
		return b.do(`mutation($issueId: ID!, $blockingIssueId: ID!) {
			removeBlockedBy(input: {issueId: $issueId, blockingIssueId: $blockingIssueId}) { clientMutationId }
		}`, map[string]any{"issueId": tgt.ID, "blockingIssueId": src.ID}, nil)
	}
	return b.do(`mutation($issueId: ID!, $subIssueId: ID!) {
		removeSubIssue(input: {issueId: $issueId, subIssueId: $subIssueId}) { clientMutationId }
	}`, map[string]any{"issueId": src.ID, "subIssueId": tgt.ID}, nil)
}

// relationNode carries just the number of a related issue.
type relationNode struct {
	Number int `json:"number"`
}

// ListLinks maps the issue's native relations onto canonical directed
// edges: blocking and blockedBy both become blocks-edges, sub-issues and
// the parent pointer become parent-edges.
func (b *Backend) ListLinks(id, typ string) ([]types.Link, error) {
	if typ != "" && !nativeLinkType(typ) {
		return nil, fmt.Errorf("%w: github backend supports link types blocks and parent, not %q", types.ErrValidation, typ)
	}

	number, err := issueNumber(id)
	if err != nil {
		return nil, err
	}

	var data struct {
		Repository struct {
			Issue *struct {
				BlockedBy struct {
					Nodes []relationNode `json:"nodes"`
				} `json:"blockedBy"`
				Blocking struct {
					Nodes []relationNode `json:"nodes"`
				} `json:"blocking"`
				Parent    *relationNode `json:"parent"`
				SubIssues struct {
					Nodes []relationNode `json:"nodes"`
				} `json:"subIssues"`
			} `json:"issue"`
		} `json:"repository"`
	}
	err = b.do(`query($owner: String!, $name: String!, $number: Int!) {
		repository(owner: $owner, name: $name) {
			issue(number: $number) {
				blockedBy(first: 100) { nodes { number } }
				blocking(first: 100) { nodes { number } }
				parent { number }
				subIssues(first: 100) { nodes { number } }
			}
		}
	}`, map[string]any{"owner": b.opts.Owner, "name": b.opts.Repo, "number": number}, &data)
	if err != nil {
		return nil, err
	}
	issue := data.Repository.Issue
	if issue == nil {
		return nil, fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
	}

	var links []types.Link
	add := func(src, tgt int, linkType string) {
		links = append(links, types.Link{
			SourceID: strconv.Itoa(src),
			TargetID: strconv.Itoa(tgt),
			Type:     linkType,
		})
	}

	if typ == "" || typ == types.LinkTypeBlocks {
		for _, n := range issue.Blocking.Nodes {
			add(number, n.Number, types.LinkTypeBlocks)
		}
		for _, n := range issue.BlockedBy.Nodes {
			add(n.Number, number, types.LinkTypeBlocks)
		}
	}
	if typ == "" || typ == types.LinkTypeParent {
		for _, n := range issue.SubIssues.Nodes {
			add(number, n.Number, types.LinkTypeParent)
		}
		if issue.Parent != nil {
			add(issue.Parent.Number, number, types.LinkTypeParent)
		}
	}
	return links, nil
}
