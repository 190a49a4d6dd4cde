// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package theory

import (
	"fmt"

	"github.com/go-air/ginit/detect"
	"github.com/go-air/ginit/fsm"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"
)

// LSystem is a 0L system whose rules are controlled by variables, with
// atoms stating that a character produces a string.
type LSystem struct {
	hub
	under *fsm.LSystem
	over  *fsm.LSystem
	vars  []z.Var
	byVar map[z.Var][]int
	det   *detect.Accept
	strs  map[string]int
}

// NewLSystem creates an L-system theory over nChars characters
// registered with h.
func NewLSystem(h inter.Host, nChars int, opts detect.Options, log logrus.FieldLogger) *LSystem {
	l := &LSystem{
		under: fsm.NewLSystem(nChars),
		over:  fsm.NewLSystem(nChars),
		byVar: make(map[z.Var][]int),
		strs:  make(map[string]int),
	}
	l.init(h, l, opts, log)
	return l
}

// NumChars returns the size of the alphabet.
func (l *LSystem) NumChars() int {
	return l.over.NumChars()
}

// NumRules returns the number of rules.
func (l *LSystem) NumRules() int {
	return l.over.NumRules()
}

// AddRule adds the rule c -> body which is enabled iff v is true.  If
// v is inter.VarNull, the rule is always enabled.
func (l *LSystem) AddRule(c int, body []int, v z.Var) int {
	r := l.under.AddRule(c, body)
	l.over.AddRule(c, body)
	l.vars = append(l.vars, v)
	if v == inter.VarNull {
		return r
	}
	l.byVar[v] = append(l.byVar[v], r)
	l.host.Watch(v, l.id)
	switch l.host.Value(v.Pos()) {
	case inter.True:
	case inter.False:
		l.under.DisableRule(r)
		l.over.DisableRule(r)
	default:
		l.under.DisableRule(r)
	}
	return r
}

// Rule returns rule r.
func (l *LSystem) Rule(r int) fsm.Rule {
	return l.over.Rule(r)
}

// RuleVar returns the variable controlling r, or inter.VarNull.
func (l *LSystem) RuleVar(r int) z.Var {
	return l.vars[r]
}

type ruleOuter struct {
	inter.Host
	l *LSystem
}

func (o *ruleOuter) RuleVar(r int) z.Var {
	return o.l.vars[r]
}

func (l *LSystem) detector() *detect.Accept {
	if l.det != nil {
		return l.det
	}
	id := l.host.AddDetector(l.id)
	l.det = detect.NewAccept(id, &ruleOuter{Host: l.host, l: l}, l.under, l.over, l.opts)
	l.add(l.det)
	l.log.WithFields(logrus.Fields{
		"detector": id,
		"chars":    l.NumChars(),
	}).Debug("new accept detector")
	return l.det
}

// Produces returns a literal which is true iff atom produces w by the
// enabled rules, with derivations nested at most the theory's MaxDepth
// option deep.  If ext is not inter.VarNull, the literal is equal to
// ext.
func (l *LSystem) Produces(atom int, w []int, ext z.Var) z.Lit {
	if atom < 0 || atom >= l.NumChars() {
		panic(fmt.Sprintf("theory: atom %d outside [0..%d)", atom, l.NumChars()))
	}
	d := l.detector()
	key := fmt.Sprint(w)
	s, ok := l.strs[key]
	if !ok {
		s = d.AddString(w)
		l.strs[key] = s
	}
	return d.AddLit(s, atom, ext)
}

// Assign implements inter.Theory.
func (l *LSystem) Assign(m z.Lit) {
	for _, r := range l.byVar[m.Var()] {
		if m.IsPos() {
			l.under.EnableRule(r)
		} else {
			l.over.DisableRule(r)
		}
	}
}

// Unassign implements inter.Theory.
func (l *LSystem) Unassign(m z.Lit) {
	rs := l.byVar[m.Var()]
	for i := len(rs) - 1; i >= 0; i-- {
		if m.IsPos() {
			l.under.UndoEnableRule(rs[i])
		} else {
			l.over.UndoDisableRule(rs[i])
		}
	}
}
