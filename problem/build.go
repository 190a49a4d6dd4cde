// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package problem

import (
	"sort"
	"strings"

	"github.com/go-air/ginit"
	"github.com/go-air/ginit/dgl"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
)

// Instance is a problem built on a solver.
type Instance struct {
	S     *ginit.Solver
	lits  map[string]z.Lit
	names []string
}

// Build builds p on a new solver created with opts.
func (p *Problem) Build(opts ...ginit.Option) (*Instance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	in := &Instance{S: ginit.New(opts...), lits: map[string]z.Lit{}}
	for _, v := range p.Vars {
		in.variable(v)
	}
	for i := range p.Graphs {
		in.graph(&p.Graphs[i])
	}
	for i := range p.LSystems {
		in.lsystem(&p.LSystems[i])
	}
	for _, c := range p.Clauses {
		for _, m := range c {
			in.S.Add(in.lit(m))
		}
		in.S.Add(z.LitNull)
	}
	c := in.S.Circuit()
	for _, card := range p.AtMost {
		in.S.Assert(c.CardSort(in.litsOf(card.Lits)).Leq(card.K))
	}
	for _, card := range p.AtLeast {
		in.S.Assert(c.CardSort(in.litsOf(card.Lits)).Geq(card.K))
	}
	return in, nil
}

func (in *Instance) bind(name string, m z.Lit) {
	if _, ok := in.lits[name]; !ok {
		in.names = append(in.names, name)
	}
	in.lits[name] = m
}

// variable returns the variable named name, creating it if needed.
func (in *Instance) variable(name string) z.Var {
	if name == "" {
		return inter.VarNull
	}
	if m, ok := in.lits[name]; ok {
		return m.Var()
	}
	m := in.S.Lit()
	in.bind(name, m)
	return m.Var()
}

// ext returns the variable an atom named name must use, if any.
func (in *Instance) ext(name string) z.Var {
	if m, ok := in.lits[name]; ok {
		return m.Var()
	}
	return inter.VarNull
}

func (in *Instance) graph(pg *Graph) {
	g := in.S.NewGraph()
	g.AddNodes(pg.Nodes)
	for _, e := range pg.Edges {
		w := e.Weight
		if w == 0 {
			w = 1
		}
		g.NewWeightedEdge(dgl.Node(e.From), dgl.Node(e.To), in.variable(e.Var), w)
	}
	for _, a := range pg.Atoms {
		from, to := dgl.Node(a.From), dgl.Node(a.To)
		var m z.Lit
		switch a.Kind {
		case ReachBack:
			m = g.ReachesBackward(from, to, in.ext(a.Name))
		case Distance:
			m = g.DistanceLeq(from, to, a.Within, in.ext(a.Name))
		default:
			m = g.Reaches(from, to, in.ext(a.Name))
		}
		in.bind(a.Name, m)
	}
}

func (in *Instance) lsystem(pl *LSystem) {
	l := in.S.NewLSystem(pl.Chars)
	for _, r := range pl.Rules {
		l.AddRule(r.Char, r.Body, in.variable(r.Var))
	}
	for _, a := range pl.Atoms {
		in.bind(a.Name, l.Produces(a.Char, a.Word, in.ext(a.Name)))
	}
}

func (in *Instance) lit(s string) z.Lit {
	if name := strings.TrimPrefix(s, "-"); name != s {
		return in.lits[name].Not()
	}
	return in.lits[s]
}

func (in *Instance) litsOf(ss []string) []z.Lit {
	ms := make([]z.Lit, len(ss))
	for i, s := range ss {
		ms[i] = in.lit(s)
	}
	return ms
}

// Lit returns the literal named name.
func (in *Instance) Lit(name string) (z.Lit, bool) {
	m, ok := in.lits[name]
	return m, ok
}

// Names returns the names of the instance in order of definition.
func (in *Instance) Names() []string {
	return in.names
}

// Model returns the value of each name in the last model.  It is only
// meaningful after in.S.Solve() returned 1.
func (in *Instance) Model() map[string]bool {
	res := make(map[string]bool, len(in.lits))
	for name, m := range in.lits {
		res[name] = in.S.Value(m)
	}
	return res
}

// True returns the sorted names which are true in the last model.
func (in *Instance) True() []string {
	var res []string
	for name, m := range in.lits {
		if in.S.Value(m) {
			res = append(res, name)
		}
	}
	sort.Strings(res)
	return res
}
