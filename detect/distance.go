// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package detect

import (
	"fmt"

	"github.com/go-air/ginit/dgl"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
)

// GraphOuter is the engine as seen by a distance detector: it also
// tells which variable controls each edge.
type GraphOuter interface {
	inter.Outer
	// EdgeVar returns the variable whose truth enables e, or
	// inter.VarNull if e is always enabled.
	EdgeVar(e dgl.EdgeID) z.Var
}

type distKey struct {
	node   dgl.Node
	within int64
}

// Distance detects whether nodes are reachable from a source within a
// bound.
//
// The under graph must contain exactly the edges which are always
// enabled or whose variable is true, and the over graph those which are
// always enabled or whose variable is not false.  Both must have the
// same edges under the same ids.
type Distance struct {
	base
	o      GraphOuter
	under  dgl.G
	over   dgl.G
	source dgl.Node
	ur     *dgl.Reach
	or     *dgl.Reach
	facts  Facts[distKey]
	path   []dgl.EdgeID

	forcedMk inter.Marker
	forced   map[z.Var]distKey
}

// NewDistance creates a distance detector from source.
func NewDistance(id int, o GraphOuter, under, over dgl.G, source dgl.Node, opts Options) *Distance {
	d := &Distance{o: o, under: under, over: over, source: source}
	d.init("distance", id, o, opts)
	d.forcedMk = o.NewReasonMarker(id)
	d.forced = make(map[z.Var]distKey)
	d.ur = dgl.NewReach(under, source, opts.Weighted)
	d.or = dgl.NewReach(over, source, opts.Weighted)
	return d
}

// Source returns the source node.
func (d *Distance) Source() dgl.Node {
	return d.source
}

// AddLit returns a literal which is true iff node is reachable from the
// source by a path of length at most within.  If within is negative,
// the literal is true iff node is reachable.  If ext is not
// inter.VarNull, the literal is equal to ext.
func (d *Distance) AddLit(node dgl.Node, within int64, ext z.Var) z.Lit {
	if within < 0 {
		within = -1
	}
	m := d.facts.Add(d.o, d.id, distKey{node, within}, ext)
	d.stats.Facts = d.facts.Len()
	return m
}

func holds(r *dgl.Reach, k distKey) bool {
	if !r.Reachable(k.node) {
		return false
	}
	return k.within < 0 || r.Distance(k.node) <= k.within
}

// Propagate implements inter.Detector.
func (d *Distance) Propagate(conflict []z.Lit) ([]z.Lit, bool) {
	vs := d.facts.Vars()
	needUnder, needOver := d.needs(vs)
	if needUnder {
		d.ur.Update()
		d.stats.UnderUpdates++
	} else {
		d.stats.UnderSkips++
	}
	if needOver {
		d.or.Update()
		d.stats.OverUpdates++
	} else {
		d.stats.OverSkips++
	}
	for _, v := range vs {
		k := d.facts.MustKey(v)
		m := v.Pos()
		val := d.o.Value(m)
		switch {
		case needUnder && val != inter.True && holds(d.ur, k):
			if val == inter.False {
				d.stats.Conflicts++
				return d.reasonTrue(k, m, conflict), false
			}
			d.o.Enqueue(m, d.trueMk)
			d.stats.Propagations++
		case needOver && val != inter.False && !holds(d.or, k):
			if val == inter.True {
				d.stats.Conflicts++
				return d.reasonFalse(k, m.Not(), conflict), false
			}
			d.o.Enqueue(m.Not(), d.falseMk)
			d.stats.Propagations++
		}
	}
	if needOver {
		d.forceEdges()
	}
	return conflict, true
}

// forceEdges enqueues the variable of an unassigned edge lying on every
// path of the over graph to the node of a true, unbounded fact which
// the under graph does not prove yet.
func (d *Distance) forceEdges() {
	for _, v := range d.facts.Vars() {
		if d.o.Value(v.Pos()) != inter.True {
			continue
		}
		k := d.facts.MustKey(v)
		if k.within >= 0 || !holds(d.or, k) {
			continue
		}
		if d.ur.Update(); holds(d.ur, k) {
			continue
		}
		capacity := func(e dgl.Edge) int64 {
			ev := d.o.EdgeVar(e.ID)
			if ev == inter.VarNull {
				return dgl.Infinite
			}
			switch d.o.Value(ev.Pos()) {
			case inter.Unknown:
				return 1
			case inter.False:
				return 0
			}
			return dgl.Infinite
		}
		cut, ok := dgl.MinCut(d.over, d.source, k.node, capacity, d.path[:0])
		d.path = cut
		if !ok || len(cut) != 1 {
			continue
		}
		ev := d.o.EdgeVar(cut[0])
		if d.o.Value(ev.Pos()) != inter.Unknown {
			continue
		}
		d.forced[ev] = k
		d.o.Enqueue(ev.Pos(), d.forcedMk)
		d.stats.Propagations++
	}
}

// BuildReason implements inter.Detector.
func (d *Distance) BuildReason(m z.Lit, dst []z.Lit, mk inter.Marker) []z.Lit {
	d.stats.Reasons++
	switch mk {
	case d.trueMk:
		d.ur.Update()
		return d.reasonTrue(d.facts.MustKey(m.Var()), m, dst)
	case d.falseMk:
		d.or.Update()
		return d.reasonFalse(d.facts.MustKey(m.Var()), m, dst)
	case d.forcedMk:
		return d.reasonForced(m, dst)
	}
	d.badMarker(mk)
	return nil
}

// reasonForced appends the edge literal m, the negation of the fact
// which forced it and the false edges cutting every path to the fact's
// node which avoids the edges of m.
func (d *Distance) reasonForced(m z.Lit, dst []z.Lit) []z.Lit {
	k, ok := d.forced[m.Var()]
	if !ok {
		panic(fmt.Sprintf("detect: edge literal %s was not forced by distance detector %d", m, d.id))
	}
	fm, _ := d.facts.Lit(k)
	dst = append(dst, m, fm.Not())
	return d.cut(k, m.Var(), dst)
}

// reasonTrue appends m followed by the negations of the variables of
// the edges on a shortest path in the under graph.
func (d *Distance) reasonTrue(k distKey, m z.Lit, dst []z.Lit) []z.Lit {
	dst = append(dst, m)
	d.path = d.ur.Path(k.node, d.path[:0])
	for _, e := range d.path {
		v := d.o.EdgeVar(e)
		if v == inter.VarNull || !d.keep(v.Pos()) {
			continue
		}
		dst = append(dst, v.Neg())
	}
	return dst
}

// reasonFalse appends m followed by the variables of a set of false
// edges which cuts every short enough path to the node.
func (d *Distance) reasonFalse(k distKey, m z.Lit, dst []z.Lit) []z.Lit {
	dst = append(dst, m)
	return d.cut(k, inter.VarNull, dst)
}

// cut appends the variables of false edges which cut every path to
// k.node short enough for k, in the over graph without the edges of
// skip.  Unbounded facts use a minimum cut if the options say so.
// Otherwise the cut is the frontier of the over graph, restricted to
// edges from which k.node can be reached within the bound when every
// edge is enabled.
func (d *Distance) cut(k distKey, skip z.Var, dst []z.Lit) []z.Lit {
	if d.opts.MinCut && k.within < 0 {
		if out, ok := d.minCut(k, skip, dst); ok {
			return out
		}
	}
	fwd := dgl.Distances(d.over, d.source, false, func(e dgl.Edge) int64 {
		if !d.over.EdgeEnabled(e.ID) || (skip != inter.VarNull && d.o.EdgeVar(e.ID) == skip) {
			return -1
		}
		return d.length(e)
	})
	bwd := dgl.Distances(d.over, k.node, true, d.length)
	for i := 0; i < d.over.NumEdges(); i++ {
		id := dgl.EdgeID(i)
		if !d.over.HasEdgeID(id) {
			continue
		}
		v := d.o.EdgeVar(id)
		if v == inter.VarNull || v == skip || d.o.Value(v.Pos()) != inter.False || !d.keep(v.Pos()) {
			continue
		}
		e := d.over.Edge(id)
		if fwd[e.From] < 0 || bwd[e.To] < 0 {
			continue
		}
		if k.within >= 0 && fwd[e.From]+d.length(e)+bwd[e.To] > k.within {
			continue
		}
		dst = append(dst, v.Pos())
	}
	return dst
}

func (d *Distance) length(e dgl.Edge) int64 {
	if d.opts.Weighted {
		return e.Weight
	}
	return 1
}

func (d *Distance) minCut(k distKey, skip z.Var, dst []z.Lit) ([]z.Lit, bool) {
	capacity := func(e dgl.Edge) int64 {
		v := d.o.EdgeVar(e.ID)
		if v != inter.VarNull && v == skip {
			return 0
		}
		if v == inter.VarNull || d.o.Value(v.Pos()) != inter.False {
			return dgl.Infinite
		}
		if !d.keep(v.Pos()) {
			return 0
		}
		return 1
	}
	cut, ok := dgl.MinCut(d.over, d.source, k.node, capacity, d.path[:0])
	d.path = cut
	if !ok {
		return dst, false
	}
	for _, e := range cut {
		dst = append(dst, d.o.EdgeVar(e).Pos())
	}
	return dst, true
}

// Path appends to dst the edges of a shortest path from the source to
// n in the under graph, or nothing if the under graph does not reach
// n.
func (d *Distance) Path(n dgl.Node, dst []dgl.EdgeID) []dgl.EdgeID {
	d.ur.Update()
	return d.ur.Path(n, dst)
}

// CheckSatisfied implements inter.Detector.  It compares the value of
// every assigned fact literal with distances computed from scratch on
// a graph containing the edges which are always enabled or whose
// variable is true.
func (d *Distance) CheckSatisfied() bool {
	g := dgl.New(d.over.NumNodes())
	for i := 0; i < d.over.NumEdges(); i++ {
		id := dgl.EdgeID(i)
		if !d.over.HasEdgeID(id) {
			continue
		}
		e := d.over.Edge(id)
		g.AddEdge(e.From, e.To, id, e.Weight)
		if v := d.o.EdgeVar(id); v != inter.VarNull && d.o.Value(v.Pos()) != inter.True {
			g.DisableEdge(id)
		}
	}
	r := dgl.NewReach(g, d.source, d.opts.Weighted)
	r.Update()
	for _, v := range d.facts.Vars() {
		val := d.o.Value(v.Pos())
		if val == inter.Unknown {
			continue
		}
		if holds(r, d.facts.MustKey(v)) != (val == inter.True) {
			return false
		}
	}
	return true
}

// Decide implements inter.Detector.  For a fact literal which is true
// but not yet implied, it suggests enabling an unassigned edge on a
// shortest path in the over graph.
func (d *Distance) Decide() z.Lit {
	d.ur.Update()
	d.or.Update()
	for _, v := range d.facts.Vars() {
		if d.o.Value(v.Pos()) != inter.True {
			continue
		}
		k := d.facts.MustKey(v)
		if holds(d.ur, k) || !holds(d.or, k) {
			continue
		}
		d.path = d.or.Path(k.node, d.path[:0])
		for _, e := range d.path {
			ev := d.o.EdgeVar(e)
			if ev != inter.VarNull && d.o.Value(ev.Pos()) == inter.Unknown {
				d.stats.Decisions++
				return ev.Pos()
			}
		}
	}
	return z.LitNull
}
