package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tether/internal/memory"
	"github.com/mesh-intelligence/tether/pkg/types"
)

// newTestGraph creates a memory backend with n entities and returns the
// engine plus the entity IDs in creation order.
func newTestGraph(t *testing.T, n int) (*Engine, *memory.Backend, []string) {
	t.Helper()
	b := memory.New(nil)
	ids := make([]string, n)
	for i := range ids {
		e, err := b.Create(fmt.Sprintf("entity %d", i+1), "", nil, "")
		require.NoError(t, err)
		ids[i] = e.ID
	}
	return New(b, nil), b, ids
}

func link(t *testing.T, b *memory.Backend, src, tgt, typ string) {
	t.Helper()
	require.NoError(t, b.AddLink(src, tgt, typ))
}

func TestAddLinksPartialSuccess(t *testing.T) {
	e, _, ids := newTestGraph(t, 3)

	results := e.AddLinks(ids[0], []string{ids[1], "no-such-id", ids[2]}, "blocks")
	require.Len(t, results, 3)

	assert.True(t, results[0].Ok())
	assert.ErrorIs(t, results[1].Err, types.ErrNotFound)
	assert.True(t, results[2].Ok(), "failure on one pair must not abort the rest")

	// Outcomes are reported in input argument order.
	assert.Equal(t, ids[1], results[0].Target)
	assert.Equal(t, "no-such-id", results[1].Target)
	assert.Equal(t, ids[2], results[2].Target)
}

func TestAddLinksDuplicateIsNonFatal(t *testing.T) {
	e, b, ids := newTestGraph(t, 2)
	link(t, b, ids[0], ids[1], "blocks")

	results := e.AddLinks(ids[0], []string{ids[1]}, "blocks")
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, types.ErrDuplicateLink)
}

func TestRemoveLinksExactTriples(t *testing.T) {
	e, b, ids := newTestGraph(t, 3)
	link(t, b, ids[0], ids[1], "blocks")
	link(t, b, ids[0], ids[1], "relates-to")
	link(t, b, ids[1], ids[2], "blocks")

	results, err := e.RemoveLinks(ids[0], []string{ids[1]}, "blocks", false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Ok())

	// Same pair with a different type survives, as does the downstream edge.
	left, err := b.ListLinks(ids[1], "")
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestRemoveLinksRecursiveClearsSubgraph(t *testing.T) {
	// 1 -> 2 -> {4, 5}, plus an unrelated-type edge touching 2.
	e, b, ids := newTestGraph(t, 5)
	link(t, b, ids[0], ids[1], "blocks")
	link(t, b, ids[1], ids[3], "blocks")
	link(t, b, ids[1], ids[4], "blocks")
	link(t, b, ids[1], ids[2], "relates-to")

	results, err := e.RemoveLinks(ids[0], []string{ids[1]}, "blocks", true)
	require.NoError(t, err)

	removed := map[string]bool{}
	for _, r := range results {
		require.True(t, r.Ok(), "removal of %s -> %s failed: %v", r.Source, r.Target, r.Err)
		removed[r.Source+">"+r.Target] = true
	}
	assert.True(t, removed[ids[0]+">"+ids[1]])
	assert.True(t, removed[ids[1]+">"+ids[3]])
	assert.True(t, removed[ids[1]+">"+ids[4]])

	// The unrelated-type edge is untouched.
	left, err := b.ListLinks(ids[1], "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "relates-to", left[0].Type)
}

func TestRemoveLinksRecursiveTerminatesOnCycle(t *testing.T) {
	// A -> B and B -> A: recursive removal of A's edges must remove both
	// and terminate.
	e, b, ids := newTestGraph(t, 2)
	link(t, b, ids[0], ids[1], "blocks")
	link(t, b, ids[1], ids[0], "blocks")

	results, err := e.RemoveLinks(ids[0], []string{ids[1]}, "blocks", true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Ok())
	}

	left, err := b.ListLinks(ids[0], "")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestListLinksPassthrough(t *testing.T) {
	e, b, ids := newTestGraph(t, 3)
	link(t, b, ids[0], ids[1], "blocks")
	link(t, b, ids[0], ids[2], "relates-to")

	all, err := e.ListLinks(ids[0], "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	typed, err := e.ListLinks(ids[0], "blocks")
	require.NoError(t, err)
	require.Len(t, typed, 1)
	assert.Equal(t, ids[1], typed[0].TargetID)
}

// unavailableAfter wraps a backend and fails every ListLinks call after the
// first n with ErrBackendUnavailable, simulating an outage mid-traversal.
type unavailableAfter struct {
	types.Backend
	n     int
	calls int
}

func (u *unavailableAfter) ListLinks(id, typ string) ([]types.Link, error) {
	u.calls++
	if u.calls > u.n {
		return nil, types.ErrBackendUnavailable
	}
	return u.Backend.ListLinks(id, typ)
}

func TestRemoveLinksRecursiveOutageIsFatal(t *testing.T) {
	_, b, ids := newTestGraph(t, 3)
	link(t, b, ids[0], ids[1], "blocks")
	link(t, b, ids[1], ids[2], "blocks")

	e := New(&unavailableAfter{Backend: b, n: 1}, nil)
	_, err := e.RemoveLinks(ids[0], []string{ids[1]}, "blocks", true)
	assert.True(t, errors.Is(err, types.ErrBackendUnavailable))
}
