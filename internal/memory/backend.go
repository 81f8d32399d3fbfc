// Package memory implements the Backend interface using in-memory data
// structures. It backs the `backend: memory` configuration for throwaway
// sessions and serves as the test double for the link graph engine.
package memory

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tether/pkg/types"
)

var _ types.Backend = (*Backend)(nil)

// Backend stores entities and links in maps. The ID counter only ever
// advances, so a deleted ID is never reused within a session.
type Backend struct {
	entities map[string]*types.Entity
	links    []types.Link
	nextID   int
	log      *zap.Logger
}

// New returns an empty in-memory backend.
func New(log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		entities: make(map[string]*types.Entity),
		nextID:   1,
		log:      log,
	}
}

// Create stores a new entity under the next counter ID.
func (b *Backend) Create(title, description string, labels map[string]string, assignee string) (*types.Entity, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", types.ErrValidation)
	}

	e := &types.Entity{
		ID:          fmt.Sprintf("mem-%d", b.nextID),
		Title:       title,
		Description: description,
		Labels:      cloneLabels(labels),
		Assignee:    assignee,
		Status:      types.StatusOpen,
	}
	b.nextID++
	b.entities[e.ID] = e
	b.log.Debug("created entity", zap.String("id", e.ID))
	return cloneEntity(e), nil
}

// Read returns the entity with the given ID.
func (b *Backend) Read(id string) (*types.Entity, error) {
	e, ok := b.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
	}
	return cloneEntity(e), nil
}

// Update applies a partial update.
func (b *Backend) Update(id string, fields types.UpdateFields) (*types.Entity, error) {
	e, ok := b.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
	}

	if fields.Status != nil && !types.ValidStatus(*fields.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", types.ErrValidation, *fields.Status)
	}
	if fields.Title != nil {
		if strings.TrimSpace(*fields.Title) == "" {
			return nil, fmt.Errorf("%w: title must not be empty", types.ErrValidation)
		}
		e.Title = *fields.Title
	}
	if fields.Description != nil {
		e.Description = *fields.Description
	}
	if fields.Labels != nil {
		e.Labels = cloneLabels(fields.Labels)
	}
	if fields.Assignee != nil {
		e.Assignee = *fields.Assignee
	}
	if fields.Status != nil {
		e.Status = *fields.Status
	}
	return cloneEntity(e), nil
}

// Delete removes the entity and every link touching it. A second delete of
// the same ID returns ErrNotFound.
func (b *Backend) Delete(id string) error {
	if _, ok := b.entities[id]; !ok {
		return fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
	}
	delete(b.entities, id)

	kept := b.links[:0]
	for _, l := range b.links {
		if l.SourceID != id && l.TargetID != id {
			kept = append(kept, l)
		}
	}
	b.links = kept
	return nil
}

// List yields matching entities sorted by the requested field (ID when
// unspecified).
func (b *Backend) List(opts types.ListOptions) iter.Seq2[*types.Entity, error] {
	return func(yield func(*types.Entity, error) bool) {
		matched := make([]*types.Entity, 0, len(b.entities))
		for _, e := range b.entities {
			if matches(e, opts.Filter) {
				matched = append(matched, e)
			}
		}

		sortBy := opts.SortBy
		if sortBy == "" {
			sortBy = "id"
		}
		sort.Slice(matched, func(i, j int) bool {
			return fieldValue(matched[i], sortBy) < fieldValue(matched[j], sortBy)
		})

		if opts.Limit > 0 && len(matched) > opts.Limit {
			matched = matched[:opts.Limit]
		}
		for _, e := range matched {
			if !yield(cloneEntity(e), nil) {
				return
			}
		}
	}
}

// AddLink stores the triple after checking both endpoints and uniqueness.
func (b *Backend) AddLink(source, target, typ string) error {
	if _, ok := b.entities[source]; !ok {
		return fmt.Errorf("entity %s: %w", source, types.ErrNotFound)
	}
	if _, ok := b.entities[target]; !ok {
		return fmt.Errorf("entity %s: %w", target, types.ErrNotFound)
	}
	for _, l := range b.links {
		if l.SourceID == source && l.TargetID == target && l.Type == typ {
			return fmt.Errorf("%s -> %s (%s): %w", source, target, typ, types.ErrDuplicateLink)
		}
	}
	b.links = append(b.links, types.Link{SourceID: source, TargetID: target, Type: typ})
	return nil
}

// RemoveLink deletes the triple.
func (b *Backend) RemoveLink(source, target, typ string) error {
	for i, l := range b.links {
		if l.SourceID == source && l.TargetID == target && l.Type == typ {
			b.links = append(b.links[:i], b.links[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("link %s -> %s (%s): %w", source, target, typ, types.ErrNotFound)
}

// ListLinks returns links touching the entity in insertion order.
func (b *Backend) ListLinks(id, typ string) ([]types.Link, error) {
	if _, ok := b.entities[id]; !ok {
		return nil, fmt.Errorf("entity %s: %w", id, types.ErrNotFound)
	}
	var out []types.Link
	for _, l := range b.links {
		if l.SourceID != id && l.TargetID != id {
			continue
		}
		if typ != "" && l.Type != typ {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func matches(e *types.Entity, filter map[string]string) bool {
	for k, want := range filter {
		if fieldValue(e, k) != want {
			return false
		}
	}
	return true
}

// fieldValue resolves a filter/sort field name against an entity. Unknown
// names fall through to the label set.
func fieldValue(e *types.Entity, field string) string {
	switch field {
	case "id":
		return e.ID
	case "title":
		return e.Title
	case "status":
		return e.Status
	case "assignee":
		return e.Assignee
	default:
		return e.Labels[field]
	}
}

func cloneEntity(e *types.Entity) *types.Entity {
	c := *e
	c.Labels = cloneLabels(e.Labels)
	return &c
}

func cloneLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	c := make(map[string]string, len(labels))
	for k, v := range labels {
		c[k] = v
	}
	return c
}
