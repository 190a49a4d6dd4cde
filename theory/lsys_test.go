// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package theory

import (
	"math/rand"
	"testing"

	"github.com/go-air/ginit/detect"
	"github.com/go-air/ginit/fsm"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/ginit/internal/trail"
	"github.com/go-air/gini/z"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLSystemScenario(t *testing.T) {
	const (
		A = iota
		B
	)
	tr, fresh := newTrail()
	l := NewLSystem(tr, 2, detect.DefaultOptions(), nil)
	r := fresh()
	l.AddRule(A, []int{B, B}, r)
	p := l.Produces(A, []int{B, B}, inter.VarNull)
	require.Equal(t, p, l.Produces(A, []int{B, B}, inter.VarNull))

	tr.NewLevel()
	_, ok := tr.Propagate()
	require.True(t, ok)
	require.Equal(t, inter.Unknown, tr.Value(p))

	tr.Decide(r.Pos())
	_, ok = tr.Propagate()
	require.True(t, ok)
	require.Equal(t, inter.True, tr.Value(p))
	assert.Equal(t, []z.Lit{p, r.Neg()}, tr.Reason(p, nil))

	tr.Backtrack(1)
	tr.Decide(r.Neg())
	_, ok = tr.Propagate()
	require.True(t, ok)
	require.Equal(t, inter.False, tr.Value(p))
	assert.Equal(t, []z.Lit{p.Not(), r.Pos()}, tr.Reason(p.Not(), nil))
	assert.True(t, tr.CheckSatisfied())
}

func TestLSystemConstantRule(t *testing.T) {
	tr, _ := newTrail()
	l := NewLSystem(tr, 2, detect.DefaultOptions(), nil)
	l.AddRule(0, []int{1, 1}, inter.VarNull)
	p := l.Produces(0, []int{1, 1}, inter.VarNull)
	q := l.Produces(1, []int{0}, inter.VarNull)
	tr.NewLevel()
	_, ok := tr.Propagate()
	require.True(t, ok)
	require.Equal(t, inter.True, tr.Value(p))
	require.Equal(t, inter.False, tr.Value(q))
	assert.Equal(t, []z.Lit{p}, tr.Reason(p, nil))
	assert.Equal(t, []z.Lit{q.Not()}, tr.Reason(q.Not(), nil))
}

type lsysAtom struct {
	atom int
	w    []int
}

func producesIn(l *LSystem, on func(r int) bool, a lsysAtom) bool {
	ls := fsm.NewLSystem(l.NumChars())
	for r := 0; r < l.NumRules(); r++ {
		rule := l.Rule(r)
		ls.AddRule(rule.Char, rule.Body)
		if !on(r) {
			ls.DisableRule(r)
		}
	}
	return fsm.NewSearch(fsm.Compile(ls), detect.DefaultOptions().MaxDepth, nil).Accepts(a.atom, a.w)
}

func checkLSystemReasons(t *testing.T, tr *trail.Trail, l *LSystem, atoms map[z.Var]lsysAtom, start int) {
	t.Helper()
	for i := start; i < tr.Len(); i++ {
		m := tr.At(i)
		mk := tr.Marker(m.Var())
		if mk == inter.MarkerNull {
			continue
		}
		r := tr.Reason(m, nil)
		require.Equal(t, m, r[0])
		for _, c := range r[1:] {
			require.Equal(t, inter.False, tr.Value(c), "reason %v of %s", r, m)
		}
		a, ok := atoms[m.Var()]
		if !ok || mk == trail.MarkerEqual {
			continue
		}
		in := litSet(r[1:])
		if m.IsPos() {
			on := func(r int) bool {
				v := l.RuleVar(r)
				return v == inter.VarNull || in[v.Neg()]
			}
			require.True(t, producesIn(l, on, a), "reason %v does not imply %s", r, m)
		} else {
			on := func(r int) bool {
				v := l.RuleVar(r)
				return v == inter.VarNull || !in[v.Pos()]
			}
			require.False(t, producesIn(l, on, a), "reason %v does not imply %s", r, m)
		}
	}
}

func TestLSystemRandom(t *testing.T) {
	const nChars = 3
	rng := rand.New(rand.NewSource(17))
	for iter := 0; iter < 30; iter++ {
		tr, fresh := newTrail()
		opts := detect.DefaultOptions()
		opts.PureSkip = iter%2 == 0
		l := NewLSystem(tr, nChars, opts, nil)
		var pool []z.Var
		nRules := 3 + rng.Intn(4)
		for i := 0; i < nRules; i++ {
			body := make([]int, 1+rng.Intn(2))
			for j := range body {
				body[j] = rng.Intn(nChars)
			}
			v := inter.VarNull
			if rng.Intn(5) != 0 {
				v = fresh()
				pool = append(pool, v)
			}
			l.AddRule(rng.Intn(nChars), body, v)
		}
		atoms := map[z.Var]lsysAtom{}
		for i := 0; i < 5; i++ {
			a := lsysAtom{atom: rng.Intn(nChars), w: make([]int, 1+rng.Intn(3))}
			for j := range a.w {
				a.w[j] = rng.Intn(nChars)
			}
			ext := inter.VarNull
			if rng.Intn(3) == 0 {
				ext = fresh()
				pool = append(pool, ext)
			}
			atoms[l.Produces(a.atom, a.w, ext).Var()] = a
		}

		tr.NewLevel()
		_, ok := tr.Propagate()
		require.True(t, ok)
		checkLSystemReasons(t, tr, l, atoms, 0)
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
				for _, c := range conflict {
					require.Equal(t, inter.False, tr.Value(c), "conflict %v", conflict)
				}
				tr.Backtrack(tr.DecisionLevel() - 1)
				continue
			}
			checkLSystemReasons(t, tr, l, atoms, start)
		}
		if !done {
			continue
		}
		require.True(t, tr.CheckSatisfied())
		final := func(r int) bool {
			v := l.RuleVar(r)
			return v == inter.VarNull || tr.Value(v.Pos()) == inter.True
		}
		for v, a := range atoms {
			val := tr.Value(v.Pos())
			require.NotEqual(t, inter.Unknown, val, "atom %+v unassigned", a)
			require.Equal(t, producesIn(l, final, a), val == inter.True, "atom %+v", a)
		}
	}
}
