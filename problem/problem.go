// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package problem reads problems with graph and L-system atoms from YAML
// and builds them on a ginit.Solver.
//
// Literals are named.  A name denotes a variable, declared in vars or as
// the variable of an edge or rule, or the fact literal of an atom.  An
// atom named like a variable is equal to it.  In clauses and cardinality
// constraints a leading '-' negates a name.
package problem

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Atom kinds of graphs.
const (
	Reach     = "reach"
	ReachBack = "reach-back"
	Distance  = "distance"
)

// Problem is a problem description.
type Problem struct {
	Vars     []string      `yaml:"vars"`
	Graphs   []Graph       `yaml:"graphs"`
	LSystems []LSystem     `yaml:"lsystems"`
	Clauses  [][]string    `yaml:"clauses"`
	AtMost   []Cardinality `yaml:"atMost"`
	AtLeast  []Cardinality `yaml:"atLeast"`
}

// Graph describes a graph theory.
type Graph struct {
	Nodes int         `yaml:"nodes"`
	Edges []Edge      `yaml:"edges"`
	Atoms []GraphAtom `yaml:"atoms"`
}

// Edge is an edge controlled by Var, or a constant edge if Var is
// empty.  Weight defaults to 1.
type Edge struct {
	From   int    `yaml:"from"`
	To     int    `yaml:"to"`
	Var    string `yaml:"var"`
	Weight int64  `yaml:"weight"`
}

// GraphAtom names a reachability or distance atom.
type GraphAtom struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	From   int    `yaml:"from"`
	To     int    `yaml:"to"`
	Within int64  `yaml:"within"`
}

// LSystem describes an L-system theory.
type LSystem struct {
	Chars int       `yaml:"chars"`
	Rules []Rule    `yaml:"rules"`
	Atoms []Produce `yaml:"atoms"`
}

// Rule rewrites Char to Body when Var is true, or always if Var is
// empty.
type Rule struct {
	Char int    `yaml:"char"`
	Body []int  `yaml:"body"`
	Var  string `yaml:"var"`
}

// Produce names the atom "Char produces Word".
type Produce struct {
	Name string `yaml:"name"`
	Char int    `yaml:"char"`
	Word []int  `yaml:"word"`
}

// Cardinality bounds the number of true literals of Lits by K.
type Cardinality struct {
	K    int      `yaml:"k"`
	Lits []string `yaml:"lits"`
}

// Parse decodes a problem and validates it.  Unknown fields are errors.
func Parse(data []byte) (*Problem, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	p := &Problem{}
	if err := dec.Decode(p); err != nil {
		return nil, errors.Wrap(err, "decoding problem")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads and parses the problem in file path.
func Load(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return p, nil
}

// problemErrors aggregates the errors of a problem.
type problemErrors []error

func (e problemErrors) Error() string {
	s := make([]string, len(e))
	for i, err := range e {
		s[i] = err.Error()
	}
	return fmt.Sprintf("%d errors encountered: %s", len(s), strings.Join(s, ", "))
}

func (e problemErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validate checks p, reporting every problem found.
func (p *Problem) Validate() error {
	var errs problemErrors
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	checkName := func(where, name string) {
		if name == "" || strings.HasPrefix(name, "-") {
			bad("%s: invalid name %q", where, name)
		}
	}
	defined := map[string]bool{}
	define := func(where, name string) {
		checkName(where, name)
		defined[name] = true
	}
	atoms := map[string]string{}
	checkAtom := func(where, name string) {
		define(where, name)
		if prev, ok := atoms[name]; ok {
			bad("%s: atom %q already defined at %s", where, name, prev)
		}
		atoms[name] = where
	}
	for i, v := range p.Vars {
		define(fmt.Sprintf("vars[%d]", i), v)
	}
	for i := range p.Graphs {
		g := &p.Graphs[i]
		where := fmt.Sprintf("graphs[%d]", i)
		if g.Nodes <= 0 {
			bad("%s: %d nodes", where, g.Nodes)
		}
		node := func(w string, n int) {
			if n < 0 || n >= g.Nodes {
				bad("%s: node %d out of range [0..%d)", w, n, g.Nodes)
			}
		}
		for j, e := range g.Edges {
			w := fmt.Sprintf("%s.edges[%d]", where, j)
			node(w, e.From)
			node(w, e.To)
			if e.Var != "" {
				define(w, e.Var)
			}
			if e.Weight < 0 {
				bad("%s: negative weight %d", w, e.Weight)
			}
		}
		for j, a := range g.Atoms {
			w := fmt.Sprintf("%s.atoms[%d]", where, j)
			checkAtom(w, a.Name)
			node(w, a.From)
			node(w, a.To)
			switch a.Kind {
			case Reach, ReachBack, "":
			case Distance:
				if a.Within < 0 {
					bad("%s: negative distance %d", w, a.Within)
				}
			default:
				bad("%s: unknown kind %q", w, a.Kind)
			}
		}
	}
	for i := range p.LSystems {
		l := &p.LSystems[i]
		where := fmt.Sprintf("lsystems[%d]", i)
		if l.Chars <= 0 {
			bad("%s: %d chars", where, l.Chars)
		}
		char := func(w string, c int) {
			if c < 0 || c >= l.Chars {
				bad("%s: char %d out of range [0..%d)", w, c, l.Chars)
			}
		}
		word := func(w string, cs []int) {
			if len(cs) == 0 {
				bad("%s: empty word", w)
			}
			for _, c := range cs {
				char(w, c)
			}
		}
		for j, r := range l.Rules {
			w := fmt.Sprintf("%s.rules[%d]", where, j)
			char(w, r.Char)
			word(w, r.Body)
			if r.Var != "" {
				define(w, r.Var)
			}
		}
		for j, a := range l.Atoms {
			w := fmt.Sprintf("%s.atoms[%d]", where, j)
			checkAtom(w, a.Name)
			char(w, a.Char)
			word(w, a.Word)
		}
	}
	use := func(where, m string) {
		name := strings.TrimPrefix(m, "-")
		checkName(where, name)
		if name != "" && !defined[name] {
			bad("%s: unknown literal %q", where, name)
		}
	}
	for i, c := range p.Clauses {
		for _, m := range c {
			use(fmt.Sprintf("clauses[%d]", i), m)
		}
	}
	cards := func(kind string, cs []Cardinality) {
		for i, c := range cs {
			w := fmt.Sprintf("%s[%d]", kind, i)
			if c.K < 0 {
				bad("%s: negative bound %d", w, c.K)
			}
			if len(c.Lits) == 0 {
				bad("%s: no literals", w)
			}
			for _, m := range c.Lits {
				use(w, m)
			}
		}
	}
	cards("atMost", p.AtMost)
	cards("atLeast", p.AtLeast)
	return errs.err()
}
