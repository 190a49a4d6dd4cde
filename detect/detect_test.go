// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package detect

import (
	"testing"

	"github.com/go-air/ginit/dgl"
	"github.com/go-air/ginit/fsm"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// graphPair keeps an under and an over graph with the same edges in
// step with the values of the edge variables of a fakeOuter.
type graphPair struct {
	o     *fakeOuter
	under *dgl.Graph
	over  *dgl.Graph
}

func newGraphPair(o *fakeOuter, nodes int) *graphPair {
	return &graphPair{o: o, under: dgl.New(nodes), over: dgl.New(nodes)}
}

func (p *graphPair) edge(from, to dgl.Node, v z.Var) dgl.EdgeID {
	e := p.under.NewEdge(from, to)
	p.over.NewEdge(from, to)
	for len(p.o.edgeVars) <= int(e) {
		p.o.edgeVars = append(p.o.edgeVars, inter.VarNull)
	}
	p.o.edgeVars[e] = v
	if v != inter.VarNull {
		p.under.DisableEdge(e)
	}
	return e
}

func (p *graphPair) set(e dgl.EdgeID, on bool, level int) {
	v := p.o.edgeVars[e]
	if on {
		p.o.assign(v.Pos(), level)
		p.under.EnableEdge(e)
	} else {
		p.o.assign(v.Neg(), level)
		p.over.DisableEdge(e)
	}
}

func TestDistanceForcedFalse(t *testing.T) {
	a, b := z.Var(1), z.Var(2)
	o := newFakeOuter(2)
	p := newGraphPair(o, 3)
	e01 := p.edge(0, 1, a)
	e12 := p.edge(1, 2, b)
	d := NewDistance(0, o, p.under, p.over, 0, DefaultOptions())
	m := d.AddLit(2, 2, inter.VarNull)

	_, ok := d.Propagate(nil)
	require.True(t, ok)
	require.Empty(t, o.enq)

	p.set(e01, true, 1)
	p.set(e12, false, 2)
	_, ok = d.Propagate(nil)
	require.True(t, ok)
	require.Len(t, o.enq, 1)
	require.Equal(t, m.Not(), o.enq[0].m)
	r := d.BuildReason(m.Not(), nil, o.enq[0].mk)
	assert.Equal(t, []z.Lit{m.Not(), b.Pos()}, r)
	assert.True(t, d.CheckSatisfied())
}

func TestDistanceForcedTrue(t *testing.T) {
	a, b := z.Var(1), z.Var(2)
	o := newFakeOuter(2)
	p := newGraphPair(o, 3)
	e01 := p.edge(0, 1, a)
	e12 := p.edge(1, 2, b)
	d := NewDistance(0, o, p.under, p.over, 0, DefaultOptions())
	m := d.AddLit(2, 2, inter.VarNull)

	p.set(e01, true, 1)
	p.set(e12, true, 2)
	_, ok := d.Propagate(nil)
	require.True(t, ok)
	require.Len(t, o.enq, 1)
	require.Equal(t, m, o.enq[0].m)
	r := d.BuildReason(m, nil, o.enq[0].mk)
	assert.Equal(t, []z.Lit{m, a.Neg(), b.Neg()}, r)
	assert.True(t, d.CheckSatisfied())

	o.assign(m.Not(), 2)
	assert.False(t, d.CheckSatisfied())
}

func TestDistanceBound(t *testing.T) {
	a, b := z.Var(1), z.Var(2)
	o := newFakeOuter(2)
	p := newGraphPair(o, 3)
	e01 := p.edge(0, 1, a)
	e12 := p.edge(1, 2, b)
	d := NewDistance(0, o, p.under, p.over, 0, DefaultOptions())
	m := d.AddLit(2, 1, inter.VarNull)

	_, ok := d.Propagate(nil)
	require.True(t, ok)
	require.Len(t, o.enq, 1)
	require.Equal(t, m.Not(), o.enq[0].m)
	// no edge is false, the bound alone refutes m
	assert.Equal(t, []z.Lit{m.Not()}, d.BuildReason(m.Not(), nil, o.enq[0].mk))

	p.set(e01, true, 1)
	p.set(e12, true, 1)
	_, ok = d.Propagate(nil)
	require.True(t, ok)
	assert.Len(t, o.enq, 1)
}

func TestDistanceConflict(t *testing.T) {
	a, b := z.Var(1), z.Var(2)
	o := newFakeOuter(2)
	p := newGraphPair(o, 3)
	e01 := p.edge(0, 1, a)
	e12 := p.edge(1, 2, b)
	d := NewDistance(0, o, p.under, p.over, 0, DefaultOptions())
	m := d.AddLit(2, -1, inter.VarNull)

	o.assign(m.Not(), 1)
	p.set(e01, true, 0)
	p.set(e12, true, 2)
	conflict, ok := d.Propagate(nil)
	require.False(t, ok)
	// a is fixed at level 0 and dropped
	assert.Equal(t, []z.Lit{m, b.Neg()}, conflict)
	for _, c := range conflict {
		assert.Equal(t, inter.False, o.Value(c))
	}
}

func TestDistanceDecide(t *testing.T) {
	a, b := z.Var(1), z.Var(2)
	o := newFakeOuter(2)
	p := newGraphPair(o, 3)
	p.edge(0, 1, a)
	e12 := p.edge(1, 2, b)
	d := NewDistance(0, o, p.under, p.over, 0, DefaultOptions())
	m := d.AddLit(2, -1, inter.VarNull)

	assert.Equal(t, z.LitNull, d.Decide())
	o.assign(m, 1)
	p.set(e12, true, 1)
	assert.Equal(t, a.Pos(), d.Decide())
}

func TestDistanceMinCut(t *testing.T) {
	o := newFakeOuter(4)
	p := newGraphPair(o, 4)
	e01 := p.edge(0, 1, 1)
	p.edge(0, 2, 2)
	p.edge(1, 3, 3)
	e23 := p.edge(2, 3, 4)
	for _, minCut := range []bool{false, true} {
		opts := DefaultOptions()
		opts.MinCut = minCut
		d := NewDistance(0, o, p.under, p.over, 0, opts)
		m := d.AddLit(3, -1, inter.VarNull)
		if !minCut {
			p.set(e01, false, 1)
			p.set(e23, false, 1)
		}
		o.enq = o.enq[:0]
		_, ok := d.Propagate(nil)
		require.True(t, ok)
		require.Len(t, o.enq, 1)
		r := d.BuildReason(m.Not(), nil, o.enq[0].mk)
		require.Equal(t, m.Not(), r[0])
		assert.ElementsMatch(t, []z.Lit{z.Var(1).Pos(), z.Var(4).Pos()}, r[1:])
	}
}

func TestAcceptScenario(t *testing.T) {
	const (
		A = iota
		B
	)
	rv := z.Var(1)
	for _, on := range []bool{true, false} {
		o := newFakeOuter(1)
		o.ruleVars = []z.Var{rv}
		under, over := fsm.NewLSystem(2), fsm.NewLSystem(2)
		r := under.AddRule(A, []int{B, B})
		over.AddRule(A, []int{B, B})
		under.DisableRule(r)

		d := NewAccept(0, o, under, over, DefaultOptions())
		m := d.AddLit(d.AddString([]int{B, B}), A, inter.VarNull)
		_, ok := d.Propagate(nil)
		require.True(t, ok)
		require.Empty(t, o.enq)

		if on {
			o.assign(rv.Pos(), 1)
			under.EnableRule(r)
		} else {
			o.assign(rv.Neg(), 1)
			over.DisableRule(r)
		}
		_, ok = d.Propagate(nil)
		require.True(t, ok)
		require.Len(t, o.enq, 1)
		if on {
			require.Equal(t, m, o.enq[0].m)
			assert.Equal(t, []z.Lit{m, rv.Neg()}, d.BuildReason(m, nil, o.enq[0].mk))
		} else {
			require.Equal(t, m.Not(), o.enq[0].m)
			assert.Equal(t, []z.Lit{m.Not(), rv.Pos()}, d.BuildReason(m.Not(), nil, o.enq[0].mk))
		}
		assert.True(t, d.CheckSatisfied())
	}
}

func TestAcceptBacktrack(t *testing.T) {
	const (
		A = iota
		B
		C
	)
	o := newFakeOuter(2)
	o.ruleVars = []z.Var{1, 2}
	under, over := fsm.NewLSystem(3), fsm.NewLSystem(3)
	for _, ls := range []*fsm.LSystem{under, over} {
		ls.AddRule(A, []int{B})
		ls.AddRule(B, []int{C, C})
	}
	under.DisableRule(0)
	under.DisableRule(1)
	d := NewAccept(0, o, under, over, DefaultOptions())
	m := d.AddLit(d.AddString([]int{C, C}), A, inter.VarNull)

	o.assign(z.Var(1).Neg(), 1)
	over.DisableRule(0)
	_, ok := d.Propagate(nil)
	require.True(t, ok)
	require.Len(t, o.enq, 1)
	require.Equal(t, m.Not(), o.enq[0].m)

	o.unassign(m.Var())
	o.unassign(1)
	over.UndoDisableRule(0)
	o.enq = o.enq[:0]
	o.assign(z.Var(1).Pos(), 1)
	under.EnableRule(0)
	o.assign(z.Var(2).Pos(), 2)
	under.EnableRule(1)
	_, ok = d.Propagate(nil)
	require.True(t, ok)
	require.Len(t, o.enq, 1)
	require.Equal(t, m, o.enq[0].m)
	r := d.BuildReason(m, nil, o.enq[0].mk)
	assert.Equal(t, m, r[0])
	assert.ElementsMatch(t, []z.Lit{z.Var(1).Neg(), z.Var(2).Neg()}, r[1:])
}

func TestAcceptAddRuleLater(t *testing.T) {
	o := newFakeOuter(1)
	o.ruleVars = []z.Var{inter.VarNull, 1}
	under, over := fsm.NewLSystem(2), fsm.NewLSystem(2)
	under.AddRule(0, []int{0, 0})
	over.AddRule(0, []int{0, 0})
	d := NewAccept(0, o, under, over, DefaultOptions())
	m := d.AddLit(d.AddString([]int{1}), 0, inter.VarNull)
	_, ok := d.Propagate(nil)
	require.True(t, ok)
	require.Len(t, o.enq, 1)
	require.Equal(t, m.Not(), o.enq[0].m)

	o.unassign(m.Var())
	o.enq = o.enq[:0]
	r := under.AddRule(0, []int{1})
	over.AddRule(0, []int{1})
	under.DisableRule(r)
	_, ok = d.Propagate(nil)
	require.True(t, ok)
	assert.Empty(t, o.enq)
}

func TestFacts(t *testing.T) {
	o := newFakeOuter(10)
	var f Facts[string]
	m := f.Add(o, 0, "x", 5)
	require.Equal(t, z.Var(5).Pos(), m)
	require.Equal(t, m, f.Add(o, 0, "x", inter.VarNull))
	require.Empty(t, o.eqs)
	require.Equal(t, m, f.Add(o, 0, "x", 7))
	require.Equal(t, [][2]z.Lit{{z.Var(7).Pos(), m}}, o.eqs)

	n := f.Add(o, 0, "y", 2)
	k, ok := f.Key(2)
	require.True(t, ok)
	require.Equal(t, "y", k)
	require.Equal(t, "x", f.MustKey(5))
	_, ok = f.Key(3)
	require.False(t, ok)
	require.Equal(t, []z.Var{5, 2}, f.Vars())
	require.Equal(t, 2, f.Len())
	got, ok := f.Lit("y")
	require.True(t, ok)
	require.Equal(t, n, got)
	require.Panics(t, func() { f.Add(o, 0, "z", 5) })
	require.Panics(t, func() { f.MustKey(9) })
}

func TestDistanceForcedEdge(t *testing.T) {
	a, b := z.Var(1), z.Var(2)
	o := newFakeOuter(2)
	p := newGraphPair(o, 4)
	p.edge(0, 1, a)
	p.edge(1, 2, inter.VarNull)
	e03 := p.edge(0, 3, b)
	p.edge(3, 2, inter.VarNull)
	d := NewDistance(0, o, p.under, p.over, 0, DefaultOptions())
	m := d.AddLit(2, -1, inter.VarNull)

	// two disjoint paths, neither edge is necessary
	o.assign(m, 1)
	_, ok := d.Propagate(nil)
	require.True(t, ok)
	require.Empty(t, o.enq)

	p.set(e03, false, 2)
	_, ok = d.Propagate(nil)
	require.True(t, ok)
	require.Len(t, o.enq, 1)
	require.Equal(t, a.Pos(), o.enq[0].m)
	assert.Equal(t, inter.True, o.Value(a.Pos()))
	r := d.BuildReason(a.Pos(), nil, o.enq[0].mk)
	assert.Equal(t, []z.Lit{a.Pos(), m.Not(), b.Pos()}, r)
	for _, c := range r[1:] {
		assert.Equal(t, inter.False, o.Value(c))
	}
	require.Panics(t, func() { d.BuildReason(b.Pos(), nil, o.enq[0].mk) })
}

func TestDistanceForcedEdgeOnlyPath(t *testing.T) {
	a := z.Var(1)
	o := newFakeOuter(1)
	p := newGraphPair(o, 3)
	p.edge(0, 1, a)
	p.edge(1, 2, inter.VarNull)
	d := NewDistance(0, o, p.under, p.over, 0, DefaultOptions())
	m := d.AddLit(2, -1, inter.VarNull)
	// bounded facts are not used to force edges
	n := d.AddLit(2, 5, inter.VarNull)

	o.assign(n, 1)
	_, ok := d.Propagate(nil)
	require.True(t, ok)
	require.Empty(t, o.enq)

	o.assign(m, 1)
	_, ok = d.Propagate(nil)
	require.True(t, ok)
	require.Len(t, o.enq, 1)
	require.Equal(t, a.Pos(), o.enq[0].m)
	assert.Equal(t, []z.Lit{a.Pos(), m.Not()}, d.BuildReason(a.Pos(), nil, o.enq[0].mk))
	assert.Equal(t, int64(1), d.Stats().Propagations)
}

func TestDistanceReasonSkipsDeadEnds(t *testing.T) {
	a, b := z.Var(1), z.Var(2)
	for _, minCut := range []bool{false, true} {
		o := newFakeOuter(2)
		p := newGraphPair(o, 4)
		e01 := p.edge(0, 1, a)
		p.edge(1, 2, inter.VarNull)
		e03 := p.edge(0, 3, b)
		opts := DefaultOptions()
		opts.MinCut = minCut
		d := NewDistance(0, o, p.under, p.over, 0, opts)
		m := d.AddLit(2, -1, inter.VarNull)

		p.set(e01, false, 1)
		p.set(e03, false, 1)
		_, ok := d.Propagate(nil)
		require.True(t, ok)
		require.Len(t, o.enq, 1)
		require.Equal(t, m.Not(), o.enq[0].m)
		assert.Equal(t, []z.Lit{m.Not(), a.Pos()}, d.BuildReason(m.Not(), nil, o.enq[0].mk), "min cut %t", minCut)
	}
}

func TestDistanceReasonSkipsLongBypass(t *testing.T) {
	a, b := z.Var(1), z.Var(2)
	o := newFakeOuter(2)
	p := newGraphPair(o, 6)
	e01 := p.edge(0, 1, a)
	p.edge(1, 2, inter.VarNull)
	e03 := p.edge(0, 3, b)
	p.edge(3, 4, inter.VarNull)
	p.edge(4, 5, inter.VarNull)
	p.edge(5, 2, inter.VarNull)
	d := NewDistance(0, o, p.under, p.over, 0, DefaultOptions())
	m := d.AddLit(2, 2, inter.VarNull)
	u := d.AddLit(2, -1, inter.VarNull)

	p.set(e01, false, 1)
	p.set(e03, false, 1)
	_, ok := d.Propagate(nil)
	require.True(t, ok)
	require.Len(t, o.enq, 2)
	reasons := map[z.Lit][]z.Lit{}
	for _, q := range o.enq {
		reasons[q.m] = d.BuildReason(q.m, nil, q.mk)
	}
	// through b, node 2 is 4 steps away
	assert.Equal(t, []z.Lit{m.Not(), a.Pos()}, reasons[m.Not()])
	assert.Equal(t, []z.Lit{u.Not(), a.Pos(), b.Pos()}, reasons[u.Not()])
}

func TestAcceptResyncWhenChanged(t *testing.T) {
	const (
		A = iota
		B
	)
	o := newFakeOuter(1)
	o.ruleVars = []z.Var{1}
	under, over := fsm.NewLSystem(2), fsm.NewLSystem(2)
	r := under.AddRule(A, []int{B, B})
	over.AddRule(A, []int{B, B})
	under.DisableRule(r)
	d := NewAccept(0, o, under, over, DefaultOptions())
	d.AddLit(d.AddString([]int{B, B}), A, inter.VarNull)

	for i := 0; i < 2; i++ {
		_, ok := d.Propagate(nil)
		require.True(t, ok)
	}
	require.Empty(t, o.enq)
	require.False(t, d.over.Graph().Changed())

	// out of step with over, and nothing in its history says so
	d.over.SetRuleEnabled(r, false)
	d.over.Graph().MarkChanged()
	_, ok := d.Propagate(nil)
	require.True(t, ok)
	assert.Empty(t, o.enq)
	assert.True(t, d.over.RuleEnabled(r))
	assert.False(t, d.over.Graph().Changed())
}
