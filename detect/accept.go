// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package detect

import (
	"fmt"

	"github.com/go-air/ginit/dgl"
	"github.com/go-air/ginit/fsm"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
)

// RuleOuter is the engine as seen by an acceptance detector: it also
// tells which variable controls each rule.
type RuleOuter interface {
	inter.Outer
	// RuleVar returns the variable whose truth enables rule r, or
	// inter.VarNull if r is always enabled.
	RuleVar(r int) z.Var
}

type acceptKey struct {
	str  int
	atom int
}

// Accept detects whether atoms produce strings under the enabled rules
// of an L-system.
//
// The under L-system must have exactly the rules which are always
// enabled or whose variable is true enabled, and the over L-system
// those which are always enabled or whose variable is not false.  Both
// must have the same rules under the same ids.  Rules may be added to
// them at any time; the acceptors are then recompiled.
type Accept struct {
	base
	o       RuleOuter
	underLS *fsm.LSystem
	overLS  *fsm.LSystem
	strs    [][]int
	facts   Facts[acceptKey]

	nRules int
	under  *fsm.Acceptor
	over   *fsm.Acceptor
	shape  *fsm.Acceptor
	us, os *fsm.Search
	su, so *fsm.Search
	uwm    dgl.Watermark
	owm    dgl.Watermark
	ualg   int
	oalg   int
	rules  []int
}

// NewAccept creates an acceptance detector.
func NewAccept(id int, o RuleOuter, under, over *fsm.LSystem, opts Options) *Accept {
	if under.NumChars() != over.NumChars() {
		panic(fmt.Sprintf("detect: under and over alphabets differ: %d != %d", under.NumChars(), over.NumChars()))
	}
	d := &Accept{o: o, underLS: under, overLS: over, nRules: -1}
	d.init("accept", id, o, opts)
	d.ualg = under.History().AddDynamic(&d.uwm)
	d.oalg = over.History().AddDynamic(&d.owm)
	return d
}

// AddString adds the string w over the alphabet of the L-system and
// returns its identifier.
func (d *Accept) AddString(w []int) int {
	for _, c := range w {
		if c < 0 || c >= d.underLS.NumChars() {
			panic(fmt.Sprintf("detect: character %d outside [0..%d)", c, d.underLS.NumChars()))
		}
	}
	d.strs = append(d.strs, append([]int(nil), w...))
	return len(d.strs) - 1
}

// String returns the string with identifier str.
func (d *Accept) String(str int) []int {
	return d.strs[str]
}

// AddLit returns a literal which is true iff atom produces the string
// str.  If ext is not inter.VarNull, the literal is equal to ext.
func (d *Accept) AddLit(str, atom int, ext z.Var) z.Lit {
	if str < 0 || str >= len(d.strs) {
		panic(fmt.Sprintf("detect: unknown string %d", str))
	}
	if atom < 0 || atom >= d.underLS.NumChars() {
		panic(fmt.Sprintf("detect: atom %d outside [0..%d)", atom, d.underLS.NumChars()))
	}
	m := d.facts.Add(d.o, d.id, acceptKey{str, atom}, ext)
	d.stats.Facts = d.facts.Len()
	return m
}

func (d *Accept) compile() {
	d.nRules = d.underLS.NumRules()
	d.under = fsm.Compile(d.underLS)
	d.over = fsm.Compile(d.overLS)
	d.shape = d.under.Copy()
	depth := d.opts.MaxDepth
	d.us = fsm.NewSearch(d.under, depth, nil)
	d.os = fsm.NewSearch(d.over, depth, nil)
	d.su = fsm.NewSearch(d.shape, depth, d.trueRule)
	d.so = fsm.NewSearch(d.shape, depth, d.notFalseRule)
	d.uwm.Advance(d.underLS.History())
	d.owm.Advance(d.overLS.History())
	d.underLS.History().UpdateDynamic(d.ualg, d.uwm.QHead)
	d.overLS.History().UpdateDynamic(d.oalg, d.owm.QHead)
}

func (d *Accept) trueRule(e dgl.EdgeID) bool {
	r := d.shape.Rule(e)
	if r < 0 {
		return true
	}
	v := d.o.RuleVar(r)
	return v == inter.VarNull || d.o.Value(v.Pos()) == inter.True
}

func (d *Accept) notFalseRule(e dgl.EdgeID) bool {
	r := d.shape.Rule(e)
	if r < 0 {
		return true
	}
	v := d.o.RuleVar(r)
	return v == inter.VarNull || d.o.Value(v.Pos()) != inter.False
}

// sync brings the acceptors up to date with the L-systems.
func (d *Accept) sync(under, over bool) {
	if d.nRules != d.underLS.NumRules() || d.nRules != d.overLS.NumRules() {
		d.compile()
		return
	}
	if under {
		d.updateAcceptor(d.under, d.underLS, &d.uwm, d.ualg)
		d.stats.UnderUpdates++
	} else {
		d.stats.UnderSkips++
	}
	if over {
		d.updateAcceptor(d.over, d.overLS, &d.owm, d.oalg)
		d.stats.OverUpdates++
	} else {
		d.stats.OverSkips++
	}
}

// updateAcceptor replays the rule flips of ls since wm onto a.  The
// acceptor is resynchronized with every rule instead when the history
// no longer covers what happened since wm, or when a's graph is marked
// changed, as it is after compiling.
func (d *Accept) updateAcceptor(a *fsm.Acceptor, ls *fsm.LSystem, wm *dgl.Watermark, alg int) {
	h := ls.History()
	g := a.Graph()
	if wm.Current(h) && !g.Changed() {
		return
	}
	if !wm.Valid(h) || g.Changed() {
		for r := 0; r < ls.NumRules(); r++ {
			a.SetRuleEnabled(r, ls.RuleEnabled(r))
		}
	} else {
		for i := wm.QHead; i < h.Size(); i++ {
			r := h.At(i).ID
			a.SetRuleEnabled(r, ls.RuleEnabled(r))
		}
	}
	wm.Advance(h)
	h.UpdateDynamic(alg, wm.QHead)
	g.ClearHistory(false)
	g.ClearChanged()
}

// Propagate implements inter.Detector.
func (d *Accept) Propagate(conflict []z.Lit) ([]z.Lit, bool) {
	vs := d.facts.Vars()
	needUnder, needOver := d.needs(vs)
	d.sync(needUnder, needOver)
	for _, v := range vs {
		k := d.facts.MustKey(v)
		w := d.strs[k.str]
		m := v.Pos()
		val := d.o.Value(m)
		switch {
		case needUnder && val != inter.True && d.us.Accepts(k.atom, w):
			if val == inter.False {
				d.stats.Conflicts++
				return d.reasonTrue(k, m, conflict), false
			}
			d.o.Enqueue(m, d.trueMk)
			d.stats.Propagations++
		case needOver && val != inter.False && !d.os.Accepts(k.atom, w):
			if val == inter.True {
				d.stats.Conflicts++
				return d.reasonFalse(k, m.Not(), conflict), false
			}
			d.o.Enqueue(m.Not(), d.falseMk)
			d.stats.Propagations++
		}
	}
	return conflict, true
}

// BuildReason implements inter.Detector.
func (d *Accept) BuildReason(m z.Lit, dst []z.Lit, mk inter.Marker) []z.Lit {
	k := d.facts.MustKey(m.Var())
	d.stats.Reasons++
	if d.nRules != d.underLS.NumRules() {
		d.compile()
	}
	switch mk {
	case d.trueMk:
		return d.reasonTrue(k, m, dst)
	case d.falseMk:
		return d.reasonFalse(k, m, dst)
	}
	d.badMarker(mk)
	return nil
}

// reasonTrue appends m followed by the negations of the variables of
// the rules used in a derivation by true rules.
func (d *Accept) reasonTrue(k acceptKey, m z.Lit, dst []z.Lit) []z.Lit {
	if !d.su.Accepts(k.atom, d.strs[k.str]) {
		panic(fmt.Sprintf("detect: no derivation of %v from %d to explain %s", d.strs[k.str], k.atom, m))
	}
	dst = append(dst, m)
	d.rules = d.su.Used(d.rules[:0])
	for _, r := range d.rules {
		v := d.o.RuleVar(r)
		if v == inter.VarNull || !d.keep(v.Pos()) {
			continue
		}
		dst = append(dst, v.Neg())
	}
	return dst
}

// reasonFalse appends m followed by the variables of false rules
// without which no derivation exists.
func (d *Accept) reasonFalse(k acceptKey, m z.Lit, dst []z.Lit) []z.Lit {
	dst = append(dst, m)
	d.rules = d.so.Blocking(k.atom, d.strs[k.str], d.rules[:0])
	for _, r := range d.rules {
		v := d.o.RuleVar(r)
		if v == inter.VarNull || !d.keep(v.Pos()) {
			continue
		}
		dst = append(dst, v.Pos())
	}
	return dst
}

// CheckSatisfied implements inter.Detector.  It compiles the rules
// which are always enabled or whose variable is true and checks each
// assigned fact literal against it.
func (d *Accept) CheckSatisfied() bool {
	ls := d.underLS.Copy()
	for r := 0; r < ls.NumRules(); r++ {
		v := d.o.RuleVar(r)
		if v != inter.VarNull && d.o.Value(v.Pos()) != inter.True {
			ls.DisableRule(r)
		} else {
			ls.EnableRule(r)
		}
	}
	s := fsm.NewSearch(fsm.Compile(ls), d.opts.MaxDepth, nil)
	for _, v := range d.facts.Vars() {
		val := d.o.Value(v.Pos())
		if val == inter.Unknown {
			continue
		}
		k := d.facts.MustKey(v)
		if s.Accepts(k.atom, d.strs[k.str]) != (val == inter.True) {
			return false
		}
	}
	return true
}

// Decide implements inter.Detector.  For a fact literal which is true
// but not yet implied, it suggests enabling an unassigned rule of a
// derivation by the rules which are not false.
func (d *Accept) Decide() z.Lit {
	d.sync(true, true)
	for _, v := range d.facts.Vars() {
		if d.o.Value(v.Pos()) != inter.True {
			continue
		}
		k := d.facts.MustKey(v)
		w := d.strs[k.str]
		if d.us.Accepts(k.atom, w) || !d.os.Accepts(k.atom, w) {
			continue
		}
		d.rules = d.os.Used(d.rules[:0])
		for _, r := range d.rules {
			rv := d.o.RuleVar(r)
			if rv != inter.VarNull && d.o.Value(rv.Pos()) == inter.Unknown {
				d.stats.Decisions++
				return rv.Pos()
			}
		}
	}
	return z.LitNull
}
