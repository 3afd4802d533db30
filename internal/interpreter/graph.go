// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package interpreter

import (
	"iter"
	"slices"
)

// ArgGraph records which concrete arguments may follow each argument of a
// grammar. Optional blocks add a bypass edge around themselves and repeated
// lists add a back edge from their last child to their first, so walking
// the graph from First visits every legal sequence of Keywords and
// Parameters.
//
// Nodes are compared by identity. The graph is read-only once built.
type ArgGraph struct {
	first  Argument
	roots  []Argument
	leaves []Argument
	edges  map[Argument][]Argument
}

// NewArgGraph builds the graph for an argument list.
func NewArgGraph(args []Argument) *ArgGraph {
	g := &ArgGraph{edges: make(map[Argument][]Argument)}
	g.roots, g.leaves = g.build(args)
	if len(g.roots) > 0 {
		g.first = g.roots[0]
	}
	return g
}

// First returns the entry point, or nil for an empty grammar.
func (g *ArgGraph) First() Argument { return g.first }

// Roots returns every argument a line may start with.
func (g *ArgGraph) Roots() []Argument { return slices.Clone(g.roots) }

// Next returns the arguments that may follow a, in declaration order.
func (g *ArgGraph) Next(a Argument) []Argument { return slices.Clone(g.edges[a]) }

// Terminal reports whether a line may end after a.
func (g *ArgGraph) Terminal(a Argument) bool {
	return slices.Contains(g.leaves, a) || len(g.edges[a]) == 0
}

// build links args in sequence and returns the entry and exit sets of the
// sequence.
func (g *ArgGraph) build(args []Argument) (roots, leaves []Argument) {
	mandatory := false
	for _, a := range args {
		switch v := a.(type) {
		case *OptionalArguments:
			subRoots, subLeaves := g.build(v.children)
			g.link(leaves, subRoots)
			if !mandatory {
				roots = union(roots, subRoots)
			}
			leaves = union(leaves, subLeaves)

		case *RepeatedArguments:
			subRoots, subLeaves := g.build(v.children)
			g.link(subLeaves, subRoots)
			g.link(leaves, subRoots)
			if !mandatory {
				roots = union(roots, subRoots)
				mandatory = true
			}
			leaves = subLeaves

		default:
			g.link(leaves, []Argument{a})
			if !mandatory {
				roots = union(roots, []Argument{a})
				mandatory = true
			}
			leaves = []Argument{a}
		}
	}
	return roots, leaves
}

func (g *ArgGraph) link(from, to []Argument) {
	for _, f := range from {
		g.edges[f] = union(g.edges[f], to)
	}
}

func union(a, b []Argument) []Argument {
	out := a
	for _, x := range b {
		if !slices.Contains(out, x) {
			out = append(out, x)
		}
	}
	return out
}

// Paths yields every path from First of at most limit arguments. A path
// ends where the line may end or where it reaches limit. Repeated lists
// make the graph cyclic, so limit must be positive.
func (g *ArgGraph) Paths(limit int) iter.Seq[[]Argument] {
	return func(yield func([]Argument) bool) {
		if g.first == nil || limit <= 0 {
			return
		}
		g.walk([]Argument{g.first}, limit, yield)
	}
}

func (g *ArgGraph) walk(path []Argument, limit int, yield func([]Argument) bool) bool {
	last := path[len(path)-1]
	next := g.edges[last]
	if len(path) == limit || g.Terminal(last) {
		if !yield(slices.Clone(path)) {
			return false
		}
	}
	if len(path) == limit {
		return true
	}
	for _, n := range next {
		if !g.walk(append(path, n), limit, yield) {
			return false
		}
	}
	return true
}
