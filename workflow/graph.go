//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package workflow

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidDefinition reports a malformed workflow definition. It is
// returned before any execution record is created.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

func invalidDefinition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, fmt.Sprintf(format, args...))
}

// Graph is the validated, indexed form of a workflow definition. It is
// immutable after Validate and safe for concurrent use; per-run mutable
// scheduling state lives in Run.
type Graph struct {
	nodes    map[string]Node
	order    []string // topological order, deterministic
	entries  []string
	incoming map[string][]Edge
	outgoing map[string][]Edge
}

// Validate checks node-id uniqueness, edge-endpoint existence and
// acyclicity, and returns the indexed graph. Acyclicity and topological
// ordering are computed together with Kahn's algorithm: if nodes remain
// once every zero-in-degree node has been removed, the definition
// contains a cycle.
func Validate(def Definition) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[string]Node, len(def.Nodes)),
		incoming: make(map[string][]Edge),
		outgoing: make(map[string][]Edge),
	}
	for _, n := range def.Nodes {
		if n.ID == "" {
			return nil, invalidDefinition("empty node id")
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, invalidDefinition("duplicate node id %q", n.ID)
		}
		g.nodes[n.ID] = n
	}
	for _, e := range def.Edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, invalidDefinition("edge references unknown node %q", e.From)
		}
		if _, ok := g.nodes[e.To]; !ok {
			return nil, invalidDefinition("edge references unknown node %q", e.To)
		}
		g.outgoing[e.From] = append(g.outgoing[e.From], e)
		g.incoming[e.To] = append(g.incoming[e.To], e)
	}

	// Kahn's algorithm over the indexed edges. The frontier is kept
	// sorted so the resulting order is deterministic.
	indegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = len(g.incoming[id])
	}
	var frontier []string
	for id, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}
	sort.Strings(frontier)
	g.entries = append([]string(nil), frontier...)

	if len(g.nodes) > 0 && len(g.entries) == 0 {
		return nil, invalidDefinition("no entry node")
	}

	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		g.order = append(g.order, id)
		var released []string
		for _, e := range g.outgoing[id] {
			indegree[e.To]--
			if indegree[e.To] == 0 {
				released = append(released, e.To)
			}
		}
		sort.Strings(released)
		frontier = append(frontier, released...)
	}
	if len(g.order) != len(g.nodes) {
		return nil, invalidDefinition("cycle")
	}
	return g, nil
}

// Size returns the number of nodes in the graph.
func (g *Graph) Size() int { return len(g.nodes) }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node, in topological order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// EntryNodes returns the ids of nodes with no incoming edge, sorted.
func (g *Graph) EntryNodes() []string {
	return append([]string(nil), g.entries...)
}

// Outgoing returns the edges leaving the given node.
func (g *Graph) Outgoing(id string) []Edge {
	return g.outgoing[id]
}

// Predecessors returns the ids of the node's direct predecessors in
// ascending order. The order fixes the output merge precedence: later
// predecessors overwrite colliding keys.
func (g *Graph) Predecessors(id string) []string {
	in := g.incoming[id]
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		if !seen[e.From] {
			seen[e.From] = true
			out = append(out, e.From)
		}
	}
	sort.Strings(out)
	return out
}

// Run is the per-execution mutable view of a graph. False edge guards
// prune edges from the view; nodes left without any live incoming edge
// become unreachable and are reported as skipped. A Run is owned by a
// single execution's scheduling loop and is not safe for concurrent use.
type Run struct {
	graph        *Graph
	liveIncoming map[string]map[string]bool // node id -> live predecessor ids
}

// NewRun creates a fresh scheduling view over the validated graph.
func (g *Graph) NewRun() *Run {
	live := make(map[string]map[string]bool, len(g.nodes))
	for id := range g.nodes {
		preds := make(map[string]bool)
		for _, e := range g.incoming[id] {
			preds[e.From] = true
		}
		live[id] = preds
	}
	return &Run{graph: g, liveIncoming: live}
}

// Ready returns the ids of nodes whose every live predecessor is in
// done and which are not themselves in done, sorted ascending.
func (r *Run) Ready(done map[string]bool) []string {
	var out []string
	for _, id := range r.graph.order {
		if done[id] {
			continue
		}
		ready := true
		for pred := range r.liveIncoming[id] {
			if !done[pred] {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// LivePredecessors returns the node's remaining predecessors in
// ascending order, excluding any pruned away by false edge guards.
func (r *Run) LivePredecessors(id string) []string {
	preds := r.liveIncoming[id]
	if len(preds) == 0 {
		return nil
	}
	out := make([]string, 0, len(preds))
	for p := range preds {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Prune removes the edge from->to from the view and returns the ids of
// every node that became unreachable as a result. A node is unreachable
// once all of its incoming edges are pruned; its own outgoing edges are
// then pruned transitively.
func (r *Run) Prune(from, to string) []string {
	var skipped []string
	r.prune(from, to, &skipped)
	sort.Strings(skipped)
	return skipped
}

func (r *Run) prune(from, to string, skipped *[]string) {
	preds, ok := r.liveIncoming[to]
	if !ok || !preds[from] {
		return
	}
	delete(preds, from)
	if len(preds) > 0 {
		return
	}
	// Entry nodes legitimately have no incoming edges; only nodes that
	// lost their last live edge are unreachable.
	if len(r.graph.incoming[to]) == 0 {
		return
	}
	*skipped = append(*skipped, to)
	for _, e := range r.graph.outgoing[to] {
		r.prune(to, e.To, skipped)
	}
}
