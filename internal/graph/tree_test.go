package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tether/pkg/types"
)

func TestTreeLeafEntity(t *testing.T) {
	e, _, ids := newTestGraph(t, 1)

	root, err := e.Tree(ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], root.ID)
	assert.Equal(t, "entity 1", root.Title)
	assert.Empty(t, root.Children, "entity with no outgoing links is a single node")
}

func TestTreeFollowsOutgoingEdgesOnly(t *testing.T) {
	e, b, ids := newTestGraph(t, 3)
	link(t, b, ids[0], ids[1], "blocks")
	link(t, b, ids[2], ids[0], "blocks") // incoming, must not appear

	root, err := e.Tree(ids[0])
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	assert.Equal(t, ids[1], root.Children[0].ID)
	assert.Equal(t, "blocks", root.Children[0].LinkType)
}

func TestTreeCycleGuard(t *testing.T) {
	e, b, ids := newTestGraph(t, 2)
	link(t, b, ids[0], ids[1], "blocks")
	link(t, b, ids[1], ids[0], "blocks")

	root, err := e.Tree(ids[0])
	require.NoError(t, err)

	require.Len(t, root.Children, 1)
	child := root.Children[0]
	assert.Equal(t, ids[1], child.ID)

	// The back-edge to the active ancestor is marked and not expanded.
	require.Len(t, child.Children, 1)
	assert.Equal(t, ids[0], child.Children[0].ID)
	assert.True(t, child.Children[0].Cycle)
	assert.Empty(t, child.Children[0].Children)
}

func TestTreeSharedDescendantShownPerPath(t *testing.T) {
	// Diamond: 1 -> 2, 1 -> 3, 2 -> 4, 3 -> 4. Node 4 is not an ancestor
	// on either path, so it is expanded under both parents.
	e, b, ids := newTestGraph(t, 4)
	link(t, b, ids[0], ids[1], "blocks")
	link(t, b, ids[0], ids[2], "blocks")
	link(t, b, ids[1], ids[3], "blocks")
	link(t, b, ids[2], ids[3], "blocks")

	root, err := e.Tree(ids[0])
	require.NoError(t, err)
	require.Len(t, root.Children, 2)

	for _, child := range root.Children {
		require.Len(t, child.Children, 1)
		assert.Equal(t, ids[3], child.Children[0].ID)
		assert.False(t, child.Children[0].Cycle)
	}
}

func TestTreePartialOnOutage(t *testing.T) {
	_, b, ids := newTestGraph(t, 3)
	link(t, b, ids[0], ids[1], "blocks")
	link(t, b, ids[1], ids[2], "blocks")

	e := New(&unavailableAfter{Backend: b, n: 1}, nil)
	root, err := e.Tree(ids[0])

	assert.ErrorIs(t, err, types.ErrBackendUnavailable)
	require.NotNil(t, root, "partial tree is returned with the error")
	assert.Equal(t, ids[0], root.ID)
}

func TestTreeDeepChain(t *testing.T) {
	// A long linear chain: depth is bounded by the explicit frame stack,
	// not by call depth.
	const depth = 2000
	e, b, ids := newTestGraph(t, depth)
	for i := 0; i < depth-1; i++ {
		link(t, b, ids[i], ids[i+1], "blocks")
	}

	root, err := e.Tree(ids[0])
	require.NoError(t, err)

	n := root
	for i := 1; i < depth; i++ {
		require.Len(t, n.Children, 1, "chain broken at depth %d", i)
		n = n.Children[0]
	}
	assert.Equal(t, ids[depth-1], n.ID)
	assert.Empty(t, n.Children)
}

func TestTreeRender(t *testing.T) {
	e, b, ids := newTestGraph(t, 2)
	link(t, b, ids[0], ids[1], "blocks")

	root, err := e.Tree(ids[0])
	require.NoError(t, err)

	out := root.Render()
	assert.Contains(t, out, ids[0])
	assert.Contains(t, out, "--[blocks]--> "+ids[1])
}
