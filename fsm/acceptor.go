// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package fsm

import (
	"fmt"

	"github.com/go-air/ginit/dgl"
)

// Epsilon is the empty symbol.  Character c is the symbol c+1.
const Epsilon = 0

// Sym returns the symbol for character c.
func Sym(c int) int {
	return c + 1
}

// Acceptor is a nondeterministic finite transducer whose transitions
// are the edges of a dgl.Graph, so that transitions can be enabled and
// disabled.  Each transition reads an input symbol and writes an output
// symbol, either of which may be Epsilon.
//
// A transition may be tagged with a rule.  A tagged transition is the
// primary transition of its rule: enabling or disabling the rule flips
// exactly that transition.
type Acceptor struct {
	g       *dgl.Graph
	in      []int
	out     []int
	rule    []int
	primary []dgl.EdgeID
	start   int
	final   int
}

// NewAcceptor creates an acceptor with no states.
func NewAcceptor() *Acceptor {
	return &Acceptor{g: dgl.New(0)}
}

// Compile builds the transducer of ls.  The transducer reads a string
// and writes a predecessor of it: from the start state, which is also
// final, an epsilon transition to a state for character c writes c, and
// each rule c -> b1..bk is a chain from that state reading b1..bk back
// to the start state.  The first transition of each chain is the
// primary transition of its rule and is enabled iff the rule is.
func Compile(ls *LSystem) *Acceptor {
	a := NewAcceptor()
	s := a.AddState()
	a.start, a.final = s, s
	a.primary = make([]dgl.EdgeID, ls.NumRules())
	for i := range a.primary {
		a.primary[i] = dgl.EdgeNull
	}
	for c := 0; c < ls.NumChars(); c++ {
		cs := a.AddState()
		a.AddTransition(s, cs, Epsilon, Sym(c))
		for _, r := range ls.Rules(c) {
			body := ls.Rule(r).Body
			from := cs
			for i, b := range body {
				to := s
				if i+1 < len(body) {
					to = a.AddState()
				}
				e := a.AddTransition(from, to, Sym(b), Epsilon)
				if i == 0 {
					a.tag(e, r)
					a.SetRuleEnabled(r, ls.RuleEnabled(r))
				}
				from = to
			}
		}
	}
	return a
}

// AddState adds a state and returns it.
func (a *Acceptor) AddState() int {
	return int(a.g.AddNode())
}

// NumStates returns the number of states.
func (a *Acceptor) NumStates() int {
	return a.g.NumNodes()
}

// Start returns the start state.
func (a *Acceptor) Start() int { return a.start }

// Final returns the final state.
func (a *Acceptor) Final() int { return a.final }

// AddTransition adds an enabled transition from -> to reading in and
// writing out.
func (a *Acceptor) AddTransition(from, to, in, out int) dgl.EdgeID {
	e := a.g.NewEdge(dgl.Node(from), dgl.Node(to))
	a.in = append(a.in, in)
	a.out = append(a.out, out)
	a.rule = append(a.rule, -1)
	return e
}

func (a *Acceptor) tag(e dgl.EdgeID, r int) {
	if a.rule[e] != -1 {
		panic(fmt.Sprintf("fsm: transition %d already tagged with rule %d", e, a.rule[e]))
	}
	for len(a.primary) <= r {
		a.primary = append(a.primary, dgl.EdgeNull)
	}
	a.rule[e] = r
	a.primary[r] = e
}

// Graph returns the graph of transitions.
func (a *Acceptor) Graph() *dgl.Graph {
	return a.g
}

// In returns the input symbol of e.
func (a *Acceptor) In(e dgl.EdgeID) int { return a.in[e] }

// Out returns the output symbol of e.
func (a *Acceptor) Out(e dgl.EdgeID) int { return a.out[e] }

// Rule returns the rule e is the primary transition of, or -1.
func (a *Acceptor) Rule(e dgl.EdgeID) int { return a.rule[e] }

// Primary returns the primary transition of rule r, or dgl.EdgeNull.
func (a *Acceptor) Primary(r int) dgl.EdgeID {
	if r >= len(a.primary) {
		return dgl.EdgeNull
	}
	return a.primary[r]
}

// NumRules returns one more than the largest tagged rule.
func (a *Acceptor) NumRules() int {
	return len(a.primary)
}

// TransitionEnabled returns whether e is enabled and reads in.
func (a *Acceptor) TransitionEnabled(e dgl.EdgeID, in int) bool {
	return a.in[e] == in && a.g.EdgeEnabled(e)
}

// RuleEnabled returns whether the primary transition of r is enabled.
func (a *Acceptor) RuleEnabled(r int) bool {
	return a.g.EdgeEnabled(a.primary[r])
}

// SetRuleEnabled enables or disables the primary transition of r,
// returning whether it changed.
func (a *Acceptor) SetRuleEnabled(r int, on bool) bool {
	e := a.Primary(r)
	if e == dgl.EdgeNull {
		panic(fmt.Sprintf("fsm: no transition for rule %d", r))
	}
	return a.g.SetEdgeEnabled(e, on)
}

// Copy returns an independent copy of a.
func (a *Acceptor) Copy() *Acceptor {
	return &Acceptor{
		g:       a.g.Copy(),
		in:      append([]int(nil), a.in...),
		out:     append([]int(nil), a.out...),
		rule:    append([]int(nil), a.rule...),
		primary: append([]dgl.EdgeID(nil), a.primary...),
		start:   a.start,
		final:   a.final,
	}
}
