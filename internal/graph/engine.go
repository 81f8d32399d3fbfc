// Package graph implements the link graph engine: multi-entity relationship
// operations over a directed multigraph whose nodes are entity IDs and whose
// edges are typed links persisted through a Backend.
//
// The engine holds no state between operations. Every call rebuilds its view
// of the graph from the backend and discards it on return; an edge appears
// in that view only if the backend reported it at fetch time.
package graph

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tether/pkg/types"
)

// Engine executes link operations against a Backend. It is written entirely
// against the Backend interface; no concrete adapter leaks in.
type Engine struct {
	backend types.Backend
	log     *zap.Logger
}

// New returns an Engine over the given backend.
func New(backend types.Backend, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{backend: backend, log: log}
}

// Result is the outcome of one link operation within a batch. Err is nil on
// success; a duplicate-link error is a non-fatal outcome, not an abort.
type Result struct {
	Source string
	Target string
	Type   string
	Err    error
}

// Ok reports whether the operation succeeded.
func (r Result) Ok() bool { return r.Err == nil }

// AddLinks adds one link from source to each target, sequentially and in
// argument order. A failure on one pair is recorded and does not abort the
// remaining pairs; partial success is expected.
func (e *Engine) AddLinks(source string, targets []string, typ string) []Result {
	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		err := e.backend.AddLink(source, target, typ)
		if err != nil {
			e.log.Debug("add link failed",
				zap.String("source", source), zap.String("target", target),
				zap.String("type", typ), zap.Error(err))
		}
		results = append(results, Result{Source: source, Target: target, Type: typ, Err: err})
	}
	return results
}

// RemoveLinks removes the named (source, target, typ) triples. With
// recursive set, it additionally walks outgoing typ-edges from each target,
// collects the full reachable subgraph, and removes every typ-edge within
// it, not just the edges touching the named entities.
//
// Per-triple failures are recorded and processing continues. A backend
// outage during the recursive traversal is fatal: the results accumulated
// so far are returned together with the error.
func (e *Engine) RemoveLinks(source string, targets []string, typ string, recursive bool) ([]Result, error) {
	var results []Result

	// The reachable closure is collected up front, before any removal, so
	// the traversal sees the graph as persisted.
	var closure []string
	if recursive {
		var err error
		closure, err = e.reachable(targets, typ)
		if err != nil {
			return results, err
		}
	}

	removed := make(map[[3]string]bool)

	for _, target := range targets {
		res := Result{Source: source, Target: target, Type: typ}
		res.Err = e.backend.RemoveLink(source, target, typ)
		removed[[3]string{source, target, typ}] = true
		results = append(results, res)
	}

	if !recursive {
		return results, nil
	}

	// Every outgoing typ-edge of a node in the closure stays within the
	// closure, so removing those edges clears the whole subgraph.
	for _, node := range closure {
		links, err := e.backend.ListLinks(node, typ)
		if err != nil {
			return results, fmt.Errorf("listing links of %s: %w", node, err)
		}
		for _, l := range links {
			if l.SourceID != node || removed[l.Key()] {
				continue
			}
			res := Result{Source: l.SourceID, Target: l.TargetID, Type: l.Type}
			res.Err = e.backend.RemoveLink(l.SourceID, l.TargetID, l.Type)
			removed[l.Key()] = true
			results = append(results, res)
			if errors.Is(res.Err, types.ErrBackendUnavailable) {
				return results, res.Err
			}
		}
	}
	return results, nil
}

// ListLinks returns the backend's links for the entity as given; no graph
// computation is performed.
func (e *Engine) ListLinks(id, typ string) ([]types.Link, error) {
	return e.backend.ListLinks(id, typ)
}

// reachable returns the set of nodes reachable from roots following
// outgoing edges of the given type, in depth-first discovery order. The
// visited set guarantees termination on cyclic graphs.
func (e *Engine) reachable(roots []string, typ string) ([]string, error) {
	visited := make(map[string]bool)
	var order []string

	stack := make([]string, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[node] {
			continue
		}
		visited[node] = true
		order = append(order, node)

		links, err := e.backend.ListLinks(node, typ)
		if err != nil {
			return order, fmt.Errorf("listing links of %s: %w", node, err)
		}
		// Push in reverse so edges are explored in ListLinks order.
		for i := len(links) - 1; i >= 0; i-- {
			if links[i].SourceID == node && !visited[links[i].TargetID] {
				stack = append(stack, links[i].TargetID)
			}
		}
	}
	return order, nil
}
