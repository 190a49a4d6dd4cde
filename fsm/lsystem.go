// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package fsm

import (
	"fmt"

	"github.com/go-air/ginit/dgl"
)

// Rule is a 0L production Char -> Body.
type Rule struct {
	ID   int
	Char int
	Body []int
}

// LSystem is a set of 0L production rules over the characters
// 0..NumChars()-1, each of which can be enabled or disabled.  Flips of
// the enabled flags are recorded in a dgl.Log whose change ids are rule
// ids.
type LSystem struct {
	nChars  int
	rules   []Rule
	enabled []bool
	byChar  [][]int
	log     dgl.Log
}

// NewLSystem creates an LSystem with no rules over nChars characters.
func NewLSystem(nChars int) *LSystem {
	return &LSystem{nChars: nChars, byChar: make([][]int, nChars)}
}

// NumChars returns the size of the alphabet.
func (l *LSystem) NumChars() int {
	return l.nChars
}

// NumRules returns the number of rules.
func (l *LSystem) NumRules() int {
	return len(l.rules)
}

// AddRule adds the rule c -> body, enabled, and returns its id.  The
// body must be non-empty and use only characters of the alphabet.
func (l *LSystem) AddRule(c int, body []int) int {
	if c < 0 || c >= l.nChars {
		panic(fmt.Sprintf("fsm: rule for character %d outside [0..%d)", c, l.nChars))
	}
	if len(body) == 0 {
		panic(fmt.Sprintf("fsm: empty rule body for character %d", c))
	}
	for _, b := range body {
		if b < 0 || b >= l.nChars {
			panic(fmt.Sprintf("fsm: rule body character %d outside [0..%d)", b, l.nChars))
		}
	}
	id := len(l.rules)
	l.rules = append(l.rules, Rule{ID: id, Char: c, Body: append([]int(nil), body...)})
	l.enabled = append(l.enabled, true)
	l.byChar[c] = append(l.byChar[c], id)
	l.log.Append(id, true)
	return id
}

// Rule returns rule id.
func (l *LSystem) Rule(id int) Rule {
	return l.rules[id]
}

// Rules returns the ids of the rules rewriting c.
func (l *LSystem) Rules(c int) []int {
	return l.byChar[c]
}

// RuleEnabled returns whether rule id is enabled.
func (l *LSystem) RuleEnabled(id int) bool {
	return l.enabled[id]
}

// EnableRule enables rule id, returning whether it was disabled.
func (l *LSystem) EnableRule(id int) bool {
	return l.set(id, true)
}

// DisableRule disables rule id, returning whether it was enabled.
func (l *LSystem) DisableRule(id int) bool {
	return l.set(id, false)
}

func (l *LSystem) set(id int, on bool) bool {
	if l.enabled[id] == on {
		return false
	}
	l.enabled[id] = on
	l.log.Append(id, on)
	return true
}

// UndoEnableRule reverts a preceding EnableRule(id).
func (l *LSystem) UndoEnableRule(id int) {
	l.undo(id, true)
}

// UndoDisableRule reverts a preceding DisableRule(id).
func (l *LSystem) UndoDisableRule(id int) {
	l.undo(id, false)
}

func (l *LSystem) undo(id int, on bool) {
	if l.enabled[id] != on {
		return
	}
	l.enabled[id] = !on
	l.log.Undo(id, on)
}

// History returns the log of rule enable flips.
func (l *LSystem) History() *dgl.Log {
	return &l.log
}

// Copy returns a copy of l with the same rules and flags and an empty
// history.
func (l *LSystem) Copy() *LSystem {
	c := NewLSystem(l.nChars)
	for _, r := range l.rules {
		c.AddRule(r.Char, r.Body)
	}
	copy(c.enabled, l.enabled)
	c.log.Clear(true)
	return c
}

// Rewrite applies one parallel rewriting step to s, rewriting each
// character c with the enabled rule choose(c), and appends the result
// to dst.  If choose returns -1 for some character, Rewrite returns
// false.
func (l *LSystem) Rewrite(s []int, choose func(c int) int, dst []int) ([]int, bool) {
	for _, c := range s {
		r := choose(c)
		if r < 0 {
			return dst, false
		}
		if !l.enabled[r] || l.rules[r].Char != c {
			panic(fmt.Sprintf("fsm: rule %d cannot rewrite %d", r, c))
		}
		dst = append(dst, l.rules[r].Body...)
	}
	return dst, true
}
