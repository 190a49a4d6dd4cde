// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package theory

import (
	"math/rand"
	"testing"

	"github.com/go-air/ginit/detect"
	"github.com/go-air/ginit/dgl"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/ginit/internal/trail"
	"github.com/go-air/gini/z"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrail() (*trail.Trail, func() z.Var) {
	var next z.Var
	fresh := func() z.Var {
		next++
		return next
	}
	return trail.New(fresh, nil), fresh
}

func TestGraphScenario(t *testing.T) {
	tr, fresh := newTrail()
	a, b := fresh(), fresh()
	g := NewGraph(tr, detect.DefaultOptions(), nil)
	g.AddNodes(3)
	g.NewEdge(0, 1, a)
	g.NewEdge(1, 2, b)
	d := g.DistanceLeq(0, 2, 2, inter.VarNull)

	tr.NewLevel()
	_, ok := tr.Propagate()
	require.True(t, ok)
	require.Equal(t, inter.Unknown, tr.Value(d))

	tr.Decide(a.Pos())
	tr.Decide(b.Neg())
	_, ok = tr.Propagate()
	require.True(t, ok)
	require.Equal(t, inter.False, tr.Value(d))
	assert.Equal(t, []z.Lit{d.Not(), b.Pos()}, tr.Reason(d.Not(), nil))

	tr.Backtrack(2)
	require.Equal(t, inter.Unknown, tr.Value(d))
	tr.Decide(b.Pos())
	_, ok = tr.Propagate()
	require.True(t, ok)
	require.Equal(t, inter.True, tr.Value(d))
	assert.Equal(t, []z.Lit{d, a.Neg(), b.Neg()}, tr.Reason(d, nil))
	assert.True(t, tr.CheckSatisfied())

	st := g.Stats()
	require.Len(t, st, 1)
	assert.Equal(t, "distance", st[0].Kind)
	assert.Equal(t, 1, st[0].Facts)
	assert.Equal(t, int64(2), st[0].Propagations)
}

func TestGraphSharedFacts(t *testing.T) {
	tr, fresh := newTrail()
	g := NewGraph(tr, detect.DefaultOptions(), nil)
	g.AddNodes(2)
	e := fresh()
	g.NewEdge(0, 1, e)
	x, y := fresh(), fresh()
	m := g.Reaches(0, 1, x)
	require.Equal(t, x.Pos(), m)
	require.Equal(t, m, g.Reaches(0, 1, inter.VarNull))
	require.Equal(t, m, g.Reaches(0, 1, y))

	tr.NewLevel()
	tr.Decide(y.Neg())
	_, ok := tr.Propagate()
	require.True(t, ok)
	require.Equal(t, inter.False, tr.Value(m))
	assert.Equal(t, []z.Lit{m.Not(), y.Pos()}, tr.Reason(m.Not(), nil))

	tr.Decide(e.Pos())
	conflict, ok := tr.Propagate()
	require.False(t, ok)
	for _, c := range conflict {
		assert.Equal(t, inter.False, tr.Value(c), "%s in %v", c, conflict)
	}
}

func TestGraphBackward(t *testing.T) {
	tr, fresh := newTrail()
	g := NewGraph(tr, detect.DefaultOptions(), nil)
	g.AddNodes(4)
	a, b, c := fresh(), fresh(), fresh()
	g.NewEdge(0, 1, a)
	g.NewEdge(1, 3, b)
	g.NewEdge(2, 3, c)
	m0 := g.ReachesBackward(0, 3, inter.VarNull)
	m2 := g.ReachesBackward(2, 3, inter.VarNull)
	require.Len(t, g.Stats(), 1)

	tr.NewLevel()
	tr.Decide(a.Pos())
	tr.Decide(b.Pos())
	tr.Decide(c.Neg())
	_, ok := tr.Propagate()
	require.True(t, ok)
	require.Equal(t, inter.True, tr.Value(m0))
	require.Equal(t, inter.False, tr.Value(m2))
	r := tr.Reason(m0, nil)
	require.Equal(t, m0, r[0])
	assert.ElementsMatch(t, []z.Lit{a.Neg(), b.Neg()}, r[1:])
	assert.Equal(t, []z.Lit{m2.Not(), c.Pos()}, tr.Reason(m2.Not(), nil))
}

type graphAtom struct {
	from, to dgl.Node
	within   int64
}

// holdsIn returns whether the atom holds in the graph of the edges of
// g for which on returns true.
func holdsIn(g *Graph, on func(e dgl.EdgeID) bool, a graphAtom) bool {
	h := dgl.New(g.NumNodes())
	for i := 0; i < g.NumEdges(); i++ {
		e := g.Edge(dgl.EdgeID(i))
		h.AddEdge(e.From, e.To, e.ID, e.Weight)
		if !on(e.ID) {
			h.DisableEdge(e.ID)
		}
	}
	r := dgl.NewReach(h, a.from, false)
	r.Update()
	return r.Reachable(a.to) && (a.within < 0 || r.Distance(a.to) <= a.within)
}

func litSet(ms []z.Lit) map[z.Lit]bool {
	res := make(map[z.Lit]bool, len(ms))
	for _, m := range ms {
		res[m] = true
	}
	return res
}

// checkGraphReasons checks the reasons of the literals assigned since
// position start: every literal but the first is false, and reasons of
// atoms imply them over any completion of the assignment.
func checkGraphReasons(t *testing.T, tr *trail.Trail, g *Graph, atoms map[z.Var]graphAtom, start int) {
	t.Helper()
	for i := start; i < tr.Len(); i++ {
		m := tr.At(i)
		if tr.Marker(m.Var()) == inter.MarkerNull {
			continue
		}
		r := tr.Reason(m, nil)
		require.Equal(t, m, r[0])
		for _, c := range r[1:] {
			require.Equal(t, inter.False, tr.Value(c), "reason %v of %s", r, m)
		}
		a, ok := atoms[m.Var()]
		if !ok || tr.Marker(m.Var()) == trail.MarkerEqual {
			continue
		}
		in := litSet(r[1:])
		if m.IsPos() {
			on := func(e dgl.EdgeID) bool {
				v := g.EdgeVar(e)
				return v == inter.VarNull || in[v.Neg()]
			}
			require.True(t, holdsIn(g, on, a), "reason %v does not imply %s", r, m)
		} else {
			on := func(e dgl.EdgeID) bool {
				v := g.EdgeVar(e)
				return v == inter.VarNull || !in[v.Pos()]
			}
			require.False(t, holdsIn(g, on, a), "reason %v does not imply %s", r, m)
		}
	}
}

func TestGraphRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	for iter := 0; iter < 40; iter++ {
		tr, fresh := newTrail()
		opts := detect.DefaultOptions()
		opts.MinCut = iter%2 == 1
		opts.PureSkip = iter%3 != 2
		g := NewGraph(tr, opts, nil)
		n := 3 + rng.Intn(4)
		g.AddNodes(n)
		var pool []z.Var
		for i := 0; i < 2*n; i++ {
			v := inter.VarNull
			if rng.Intn(5) != 0 {
				v = fresh()
				pool = append(pool, v)
			}
			g.NewEdge(dgl.Node(rng.Intn(n)), dgl.Node(rng.Intn(n)), v)
		}
		atoms := map[z.Var]graphAtom{}
		for i := 0; i < 6; i++ {
			a := graphAtom{from: dgl.Node(rng.Intn(n)), to: dgl.Node(rng.Intn(n)), within: -1}
			ext := inter.VarNull
			if rng.Intn(3) == 0 {
				ext = fresh()
				pool = append(pool, ext)
			}
			var m z.Lit
			switch rng.Intn(3) {
			case 0:
				m = g.Reaches(a.from, a.to, ext)
			case 1:
				m = g.ReachesBackward(a.from, a.to, ext)
			default:
				a.within = 1 + int64(rng.Intn(3))
				m = g.DistanceLeq(a.from, a.to, a.within, ext)
			}
			atoms[m.Var()] = a
		}

		tr.NewLevel()
		_, ok := tr.Propagate()
		require.True(t, ok)
		checkGraphReasons(t, tr, g, atoms, 0)
		done := false
		for step := 0; step < 4*len(pool); step++ {
			var free []z.Var
			for _, v := range pool {
				if tr.Value(v.Pos()) == inter.Unknown {
					free = append(free, v)
				}
			}
			if len(free) == 0 {
				done = true
				break
			}
			m := free[rng.Intn(len(free))].Pos()
			if rng.Intn(2) == 0 {
				m = m.Not()
			}
			start := tr.Len()
			tr.Decide(m)
			conflict, ok := tr.Propagate()
			if !ok {
				require.NotEmpty(t, conflict)
				for _, c := range conflict {
					require.Equal(t, inter.False, tr.Value(c), "conflict %v", conflict)
				}
				tr.Backtrack(tr.DecisionLevel() - 1)
				continue
			}
			checkGraphReasons(t, tr, g, atoms, start)
		}
		if !done {
			continue
		}
		require.True(t, tr.CheckSatisfied())
		final := func(e dgl.EdgeID) bool {
			v := g.EdgeVar(e)
			return v == inter.VarNull || tr.Value(v.Pos()) == inter.True
		}
		for v, a := range atoms {
			val := tr.Value(v.Pos())
			require.NotEqual(t, inter.Unknown, val, "atom %+v unassigned", a)
			require.Equal(t, holdsIn(g, final, a), val == inter.True, "atom %+v", a)
		}
	}
}
