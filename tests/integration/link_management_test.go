// CLI integration tests for link management: add, remove, list, tree, cycle.
package integration

import (
	"strings"
	"testing"
)

func TestLinkAddAndList(t *testing.T) {
	env := NewTestEnv(t)
	a := env.MustCreate("Blocked work")
	b := env.MustCreate("Blocker one")
	c := env.MustCreate("Blocker two")

	result := env.MustRunTether("link", "add", a.ID, b.ID, c.ID, "--type", "blocks")
	if !strings.Contains(result.Stdout, b.ID) || !strings.Contains(result.Stdout, c.ID) {
		t.Errorf("per-target outcomes missing:\n%s", result.Stdout)
	}

	links := ParseJSON[[]Link](t, env.MustRunTether("link", "list", a.ID, "--json").Stdout)
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2: %+v", len(links), links)
	}
	for _, l := range links {
		if l.SourceID != a.ID || l.Type != "blocks" {
			t.Errorf("unexpected link %+v", l)
		}
	}
}

func TestLinkAddDuplicate(t *testing.T) {
	env := NewTestEnv(t)
	a := env.MustCreate("Source")
	b := env.MustCreate("Target")
	env.MustLink(a.ID, b.ID, "blocks")

	result := env.RunTether("link", "add", a.ID, b.ID, "--type", "blocks")
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3 (duplicate link)", result.ExitCode)
	}

	// The graph still has exactly one link.
	links := ParseJSON[[]Link](t, env.MustRunTether("link", "list", a.ID, "--json").Stdout)
	if len(links) != 1 {
		t.Errorf("got %d links after duplicate add, want 1", len(links))
	}
}

func TestLinkAddPartialSuccess(t *testing.T) {
	env := NewTestEnv(t)
	a := env.MustCreate("Source")
	b := env.MustCreate("Good target")

	// A missing target fails its pair but the good pair still lands.
	result := env.RunTether("link", "add", a.ID, "et-00000000", b.ID, "--type", "relates-to")
	if result.ExitCode != 2 {
		t.Errorf("exit code = %d, want 2 (not found)", result.ExitCode)
	}

	links := ParseJSON[[]Link](t, env.MustRunTether("link", "list", a.ID, "--json").Stdout)
	if len(links) != 1 || links[0].TargetID != b.ID {
		t.Errorf("expected one surviving link to %s, got %+v", b.ID, links)
	}
}

func TestLinkRemove(t *testing.T) {
	env := NewTestEnv(t)
	a := env.MustCreate("Source")
	b := env.MustCreate("Target")
	env.MustLink(a.ID, b.ID, "parent")

	env.MustRunTether("link", "remove", a.ID, b.ID, "--type", "parent")

	links := ParseJSON[[]Link](t, env.MustRunTether("link", "list", a.ID, "--json").Stdout)
	if len(links) != 0 {
		t.Errorf("links remain after remove: %+v", links)
	}

	// Removing again is a not-found failure.
	result := env.RunTether("link", "remove", a.ID, b.ID, "--type", "parent")
	if result.ExitCode != 2 {
		t.Errorf("exit code = %d, want 2 (not found)", result.ExitCode)
	}
}

func TestLinkRemoveRecursive(t *testing.T) {
	env := NewTestEnv(t)
	root := env.MustCreate("Root")
	mid := env.MustCreate("Middle")
	leaf := env.MustCreate("Leaf")
	other := env.MustCreate("Unrelated")

	env.MustLink(root.ID, mid.ID, "blocks")
	env.MustLink(mid.ID, leaf.ID, "blocks")
	// A different-type edge inside the subgraph must survive.
	env.MustLink(mid.ID, other.ID, "relates-to")

	env.MustRunTether("link", "remove", root.ID, mid.ID, "--type", "blocks", "--recursive")

	if links := ParseJSON[[]Link](t, env.MustRunTether("link", "list", root.ID, "--json").Stdout); len(links) != 0 {
		t.Errorf("root links remain: %+v", links)
	}
	midLinks := ParseJSON[[]Link](t, env.MustRunTether("link", "list", mid.ID, "--json").Stdout)
	if len(midLinks) != 1 || midLinks[0].Type != "relates-to" {
		t.Errorf("expected only the relates-to edge to survive, got %+v", midLinks)
	}

	// Entities are untouched.
	for _, id := range []string{root.ID, mid.ID, leaf.ID, other.ID} {
		env.MustRunTether("read", id)
	}
}

func TestLinkTree(t *testing.T) {
	env := NewTestEnv(t)
	root := env.MustCreate("Root")
	childA := env.MustCreate("Child A")
	childB := env.MustCreate("Child B")
	grand := env.MustCreate("Grandchild")

	env.MustLink(root.ID, childA.ID, "parent")
	env.MustLink(root.ID, childB.ID, "parent")
	env.MustLink(childA.ID, grand.ID, "blocks")

	tree := ParseJSON[TreeNode](t, env.MustRunTether("link", "tree", root.ID, "--json").Stdout)
	if tree.ID != root.ID || len(tree.Children) != 2 {
		t.Fatalf("unexpected tree root: %+v", tree)
	}
	var a *TreeNode
	for _, c := range tree.Children {
		if c.ID == childA.ID {
			a = c
		}
	}
	if a == nil || len(a.Children) != 1 || a.Children[0].ID != grand.ID {
		t.Errorf("grandchild missing under child A: %+v", tree)
	}

	// Human-readable rendering carries link types and titles.
	text := env.MustRunTether("link", "tree", root.ID).Stdout
	if !strings.Contains(text, "--[parent]-->") || !strings.Contains(text, "Grandchild") {
		t.Errorf("tree rendering:\n%s", text)
	}
}

func TestLinkTreeCycleGuard(t *testing.T) {
	env := NewTestEnv(t)
	a := env.MustCreate("A")
	b := env.MustCreate("B")
	env.MustLink(a.ID, b.ID, "blocks")
	env.MustLink(b.ID, a.ID, "blocks")

	// Must terminate and mark the back-reference.
	result := env.MustRunTether("link", "tree", a.ID)
	if !strings.Contains(result.Stdout, "[cycle]") {
		t.Errorf("cycle marker missing:\n%s", result.Stdout)
	}
}

func TestLinkCycleDetection(t *testing.T) {
	env := NewTestEnv(t)
	a := env.MustCreate("A")
	b := env.MustCreate("B")
	c := env.MustCreate("C")

	// Acyclic at first.
	env.MustLink(a.ID, b.ID, "blocks")
	env.MustLink(b.ID, c.ID, "blocks")
	result := env.MustRunTether("link", "cycle")
	if !strings.Contains(result.Stdout, "No cycles") {
		t.Errorf("expected no cycles:\n%s", result.Stdout)
	}

	// Close the loop.
	env.MustLink(c.ID, a.ID, "blocks")
	cycles := ParseJSON[[][]string](t, env.MustRunTether("link", "cycle", "--json").Stdout)
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1: %v", len(cycles), cycles)
	}
	if len(cycles[0]) != 3 {
		t.Errorf("cycle length = %d, want 3: %v", len(cycles[0]), cycles[0])
	}
}

func TestDeleteEntityRemovesItsLinks(t *testing.T) {
	env := NewTestEnv(t)
	a := env.MustCreate("Keeper")
	b := env.MustCreate("Goner")
	env.MustLink(a.ID, b.ID, "blocks")
	env.MustLink(b.ID, a.ID, "relates-to")

	env.MustRunTether("delete", b.ID)

	links := ParseJSON[[]Link](t, env.MustRunTether("link", "list", a.ID, "--json").Stdout)
	if len(links) != 0 {
		t.Errorf("dangling links remain after entity delete: %+v", links)
	}
}
