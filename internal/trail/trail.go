// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package trail provides the assignment trail theories run against.
//
// A Trail records literals in assignment order, each with the decision
// level it was assigned at and the reason marker it was enqueued with.
// It notifies theories of assignments to the variables they watch,
// runs their propagation to a fixpoint and dispatches reason requests
// to the detector which allocated the marker.
package trail

import (
	"fmt"
	"io"

	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"
)

// MarkerEqual marks literals implied by MakeEqual.
const MarkerEqual inter.Marker = 1

// Trail implements inter.Host.
type Trail struct {
	vals    []int8
	levels  []int
	reasons []inter.Marker
	src     []z.Lit // equality source, for MarkerEqual
	owner   []int
	watch   [][]int
	eqs     [][]z.Lit // v.Pos() == each literal
	lits    []z.Lit
	lims    []int
	qhead   int

	theories []inter.Theory
	dets     []int
	markers  []int
	pending  [][2]z.Lit

	newVar  func() z.Var
	onEqual func(a, b z.Lit)
	log     logrus.FieldLogger

	// Props counts Propagate calls, Backs backtracks.
	Props int64
	Backs int64
}

// New creates a Trail.  Fresh variables are obtained from newVar.  If
// log is nil, nothing is logged.
func New(newVar func() z.Var, log logrus.FieldLogger) *Trail {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Trail{
		newVar:  newVar,
		log:     log,
		markers: []int{-1, -1},
	}
}

// OnEqual sets a function called by MakeEqual, for example to make the
// boolean engine aware of the equality.
func (t *Trail) OnEqual(f func(a, b z.Lit)) {
	t.onEqual = f
}

func (t *Trail) grow(v z.Var) {
	for len(t.vals) <= int(v) {
		t.vals = append(t.vals, inter.Unknown)
		t.levels = append(t.levels, -1)
		t.reasons = append(t.reasons, inter.MarkerNull)
		t.src = append(t.src, z.LitNull)
		t.owner = append(t.owner, -1)
		t.watch = append(t.watch, nil)
		t.eqs = append(t.eqs, nil)
	}
}

// NumVars returns one more than the largest variable the trail knows.
func (t *Trail) NumVars() int {
	return len(t.vals)
}

// Value implements inter.Valuer.
func (t *Trail) Value(m z.Lit) int8 {
	v := m.Var()
	if int(v) >= len(t.vals) {
		return inter.Unknown
	}
	if m.IsPos() {
		return t.vals[v]
	}
	return -t.vals[v]
}

// Level implements inter.Valuer.
func (t *Trail) Level(v z.Var) int {
	if int(v) >= len(t.levels) {
		return -1
	}
	return t.levels[v]
}

// DecisionLevel implements inter.Valuer.
func (t *Trail) DecisionLevel() int {
	return len(t.lims)
}

// NewVar implements inter.Outer.  A hint owned by no detector is given
// to det; otherwise a fresh variable is made equal to the hint.
func (t *Trail) NewVar(hint z.Var, det int) z.Var {
	if hint != inter.VarNull {
		t.grow(hint)
		if t.owner[hint] == -1 {
			t.owner[hint] = det
			return hint
		}
	}
	v := t.newVar()
	t.grow(v)
	t.owner[v] = det
	if hint != inter.VarNull {
		t.MakeEqual(v.Pos(), hint.Pos())
	}
	return v
}

// NewReasonMarker implements inter.Outer.
func (t *Trail) NewReasonMarker(det int) inter.Marker {
	if det < 0 || det >= len(t.dets) {
		panic(fmt.Sprintf("trail: marker for unknown detector %d", det))
	}
	t.markers = append(t.markers, det)
	return inter.Marker(len(t.markers) - 1)
}

// Owner implements inter.Host.
func (t *Trail) Owner(mk inter.Marker) int {
	if mk <= MarkerEqual || int(mk) >= len(t.markers) {
		panic(fmt.Sprintf("trail: marker %d has no detector", mk))
	}
	return t.markers[mk]
}

// AddTheory implements inter.Host.
func (t *Trail) AddTheory(th inter.Theory) int {
	t.theories = append(t.theories, th)
	return len(t.theories) - 1
}

// AddDetector implements inter.Host.
func (t *Trail) AddDetector(th int) int {
	if th < 0 || th >= len(t.theories) {
		panic(fmt.Sprintf("trail: detector for unknown theory %d", th))
	}
	t.dets = append(t.dets, th)
	return len(t.dets) - 1
}

// Watch implements inter.Host.
func (t *Trail) Watch(v z.Var, th int) {
	t.grow(v)
	for _, w := range t.watch[v] {
		if w == th {
			return
		}
	}
	t.watch[v] = append(t.watch[v], th)
}

// Relevant returns whether v is watched, owned by a detector or equal
// to some other variable.
func (t *Trail) Relevant(v z.Var) bool {
	if int(v) >= len(t.vals) {
		return false
	}
	return len(t.watch[v]) > 0 || t.owner[v] != -1 || len(t.eqs[v]) > 0
}

// ToSolver implements inter.Outer.
func (t *Trail) ToSolver(m z.Lit) z.Lit { return m }

// FromSolver implements inter.Outer.
func (t *Trail) FromSolver(m z.Lit) z.Lit { return m }

// MakeEqual implements inter.Outer.  The equality takes effect at the
// next Propagate.
func (t *Trail) MakeEqual(a, b z.Lit) {
	if a.Var() == b.Var() {
		if a != b {
			panic(fmt.Sprintf("trail: %s cannot equal %s", a, b))
		}
		return
	}
	t.grow(a.Var())
	t.grow(b.Var())
	if !a.IsPos() {
		a, b = a.Not(), b.Not()
	}
	t.eqs[a.Var()] = append(t.eqs[a.Var()], b)
	if b.IsPos() {
		t.eqs[b.Var()] = append(t.eqs[b.Var()], a)
	} else {
		t.eqs[b.Var()] = append(t.eqs[b.Var()], a.Not())
	}
	t.pending = append(t.pending, [2]z.Lit{a, b})
	if t.onEqual != nil {
		t.onEqual(a, b)
	}
}

// Enqueue implements inter.Outer.
func (t *Trail) Enqueue(m z.Lit, mk inter.Marker) {
	if t.Value(m) != inter.Unknown {
		panic(fmt.Sprintf("trail: enqueue of assigned %s", m))
	}
	t.assign(m, mk)
}

func (t *Trail) assign(m z.Lit, mk inter.Marker) {
	v := m.Var()
	t.grow(v)
	if m.IsPos() {
		t.vals[v] = inter.True
	} else {
		t.vals[v] = inter.False
	}
	t.levels[v] = len(t.lims)
	t.reasons[v] = mk
	t.lits = append(t.lits, m)
}

// Decide opens a new decision level and assigns m at it.
func (t *Trail) Decide(m z.Lit) {
	if t.Value(m) != inter.Unknown {
		panic(fmt.Sprintf("trail: decision on assigned %s", m))
	}
	t.lims = append(t.lims, len(t.lits))
	t.assign(m, inter.MarkerNull)
}

// NewLevel opens a decision level without a decision.
func (t *Trail) NewLevel() {
	t.lims = append(t.lims, len(t.lits))
}

// Len returns the number of assigned literals.
func (t *Trail) Len() int {
	return len(t.lits)
}

// At returns the i'th assigned literal.
func (t *Trail) At(i int) z.Lit {
	return t.lits[i]
}

// Marker returns the reason marker of the assigned variable v.
func (t *Trail) Marker(v z.Var) inter.Marker {
	return t.reasons[v]
}

// Propagate notifies theories of new assignments and runs them until
// nothing more is implied.  If some theory finds a conflict, the
// conflict clause is returned with ok=false.
func (t *Trail) Propagate() (conflict []z.Lit, ok bool) {
	t.Props++
	for {
		if x := t.equalities(); x != nil {
			return x, false
		}
		for t.qhead < len(t.lits) {
			m := t.lits[t.qhead]
			t.qhead++
			for _, th := range t.watch[m.Var()] {
				t.theories[th].Assign(m)
			}
			if x := t.propagateEqual(m); x != nil {
				return x, false
			}
		}
		n := len(t.lits)
		for _, th := range t.theories {
			conflict, ok = th.Propagate(conflict[:0])
			if !ok {
				return conflict, false
			}
			if len(t.lits) != n {
				break
			}
		}
		if len(t.lits) == n && len(t.pending) == 0 {
			return nil, true
		}
	}
}

// equalities handles equalities made since the last Propagate whose
// literals are already assigned.
func (t *Trail) equalities() []z.Lit {
	for len(t.pending) > 0 {
		a, b := t.pending[0][0], t.pending[0][1]
		va, vb := t.Value(a), t.Value(b)
		switch {
		case va == vb:
		case vb == inter.Unknown:
			if va == inter.True {
				t.implyEqual(b, a)
			} else {
				t.implyEqual(b.Not(), a.Not())
			}
		case va == inter.Unknown:
			if vb == inter.True {
				t.implyEqual(a, b)
			} else {
				t.implyEqual(a.Not(), b.Not())
			}
		case va == inter.True:
			return []z.Lit{a.Not(), b}
		default:
			return []z.Lit{a, b.Not()}
		}
		t.pending = t.pending[1:]
	}
	return nil
}

// propagateEqual assigns the literals equal to the true literal m.
func (t *Trail) propagateEqual(m z.Lit) []z.Lit {
	for _, e := range t.eqs[m.Var()] {
		if !m.IsPos() {
			e = e.Not()
		}
		switch t.Value(e) {
		case inter.Unknown:
			t.implyEqual(e, m)
		case inter.False:
			return []z.Lit{e, m.Not()}
		}
	}
	return nil
}

func (t *Trail) implyEqual(m, src z.Lit) {
	t.assign(m, MarkerEqual)
	t.src[m.Var()] = src
}

// Reason appends to dst a clause with m first whose other literals are
// false and imply m.  Decisions have no reason: dst is returned
// unchanged.
func (t *Trail) Reason(m z.Lit, dst []z.Lit) []z.Lit {
	v := m.Var()
	if t.Value(m) != inter.True {
		panic(fmt.Sprintf("trail: reason for %s which is not true", m))
	}
	switch mk := t.reasons[v]; mk {
	case inter.MarkerNull:
		return dst
	case MarkerEqual:
		return append(dst, m, t.src[v].Not())
	default:
		th := t.dets[t.markers[mk]]
		return t.theories[th].BuildReason(m, dst, mk)
	}
}

// Backtrack unassigns every literal above level, in reverse
// assignment order.
func (t *Trail) Backtrack(level int) {
	if level >= len(t.lims) {
		return
	}
	if level < 0 {
		panic(fmt.Sprintf("trail: backtrack to level %d", level))
	}
	t.Backs++
	start := t.lims[level]
	t.log.WithFields(logrus.Fields{
		"from":   len(t.lims),
		"to":     level,
		"undone": len(t.lits) - start,
	}).Trace("backtrack")
	for i := len(t.lits) - 1; i >= start; i-- {
		m := t.lits[i]
		v := m.Var()
		if i < t.qhead {
			for _, th := range t.watch[v] {
				t.theories[th].Unassign(m)
			}
		}
		t.vals[v] = inter.Unknown
		t.levels[v] = -1
		t.reasons[v] = inter.MarkerNull
		t.src[v] = z.LitNull
	}
	t.lits = t.lits[:start]
	t.lims = t.lims[:level]
	if t.qhead > start {
		t.qhead = start
	}
}

// Suggest returns the first decision suggested by a theory which is
// unassigned, or z.LitNull.
func (t *Trail) Suggest() z.Lit {
	for _, th := range t.theories {
		m := th.Decide()
		if m != z.LitNull && t.Value(m) == inter.Unknown {
			return m
		}
	}
	return z.LitNull
}

// CheckSatisfied checks every theory from scratch.
func (t *Trail) CheckSatisfied() bool {
	for _, th := range t.theories {
		if !th.CheckSatisfied() {
			return false
		}
	}
	return true
}
