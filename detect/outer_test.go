// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package detect

import (
	"github.com/go-air/ginit/dgl"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
)

type enqueued struct {
	m  z.Lit
	mk inter.Marker
}

// fakeOuter is a trail without propagation: tests assign literals at
// chosen levels and inspect what detectors enqueue.
type fakeOuter struct {
	vals     []int8
	levels   []int
	level    int
	next     z.Var
	markers  []int
	enq      []enqueued
	eqs      [][2]z.Lit
	edgeVars []z.Var
	ruleVars []z.Var
}

// newFakeOuter reserves the variables 1..n for the test.
func newFakeOuter(n int) *fakeOuter {
	return &fakeOuter{next: z.Var(n + 1), markers: []int{-1, -1}}
}

func (o *fakeOuter) grow(v z.Var) {
	for len(o.vals) <= int(v) {
		o.vals = append(o.vals, inter.Unknown)
		o.levels = append(o.levels, -1)
	}
}

func (o *fakeOuter) assign(m z.Lit, level int) {
	v := m.Var()
	o.grow(v)
	if m.IsPos() {
		o.vals[v] = inter.True
	} else {
		o.vals[v] = inter.False
	}
	o.levels[v] = level
	if level > o.level {
		o.level = level
	}
}

func (o *fakeOuter) unassign(v z.Var) {
	o.grow(v)
	o.vals[v] = inter.Unknown
	o.levels[v] = -1
}

func (o *fakeOuter) Value(m z.Lit) int8 {
	v := m.Var()
	if int(v) >= len(o.vals) {
		return inter.Unknown
	}
	if m.IsPos() {
		return o.vals[v]
	}
	return -o.vals[v]
}

func (o *fakeOuter) Level(v z.Var) int {
	if int(v) >= len(o.levels) {
		return -1
	}
	return o.levels[v]
}

func (o *fakeOuter) DecisionLevel() int {
	return o.level
}

func (o *fakeOuter) NewVar(hint z.Var, det int) z.Var {
	if hint != inter.VarNull {
		return hint
	}
	v := o.next
	o.next++
	return v
}

func (o *fakeOuter) NewReasonMarker(det int) inter.Marker {
	o.markers = append(o.markers, det)
	return inter.Marker(len(o.markers) - 1)
}

func (o *fakeOuter) Enqueue(m z.Lit, mk inter.Marker) {
	o.enq = append(o.enq, enqueued{m, mk})
	o.assign(m, o.level)
}

func (o *fakeOuter) MakeEqual(a, b z.Lit) {
	o.eqs = append(o.eqs, [2]z.Lit{a, b})
}

func (o *fakeOuter) ToSolver(m z.Lit) z.Lit   { return m }
func (o *fakeOuter) FromSolver(m z.Lit) z.Lit { return m }

func (o *fakeOuter) EdgeVar(e dgl.EdgeID) z.Var {
	if int(e) >= len(o.edgeVars) {
		return inter.VarNull
	}
	return o.edgeVars[e]
}

func (o *fakeOuter) RuleVar(r int) z.Var {
	if r >= len(o.ruleVars) {
		return inter.VarNull
	}
	return o.ruleVars[r]
}
