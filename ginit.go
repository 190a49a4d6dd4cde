// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package ginit solves boolean problems with graph and 0L-system atoms.
//
// A Solver combines the gini SAT solver with theories.  Variables
// control edges of graphs and rules of L-systems; atoms such as "node
// b is reachable from node a" or "character c produces the string w"
// are literals which may appear in clauses like any other.
//
// Solving is lazy: gini proposes a model of the clauses, the model is
// replayed on a trail which runs the theories' detectors, and the
// first disagreement between a detector and the model is learned as a
// clause.  This repeats until the model is consistent with every
// theory or the clauses become unsatisfiable.
package ginit

import (
	"io"
	"time"

	"github.com/go-air/ginit/detect"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/ginit/internal/trail"
	"github.com/go-air/ginit/theory"
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"
)

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger.  By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Solver) {
		s.log = log
	}
}

// WithTimeout bounds each call to Solve.  0, the default, means no
// bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Solver) {
		s.timeout = d
	}
}

// WithDetectorOptions sets the options of the detectors of theories
// created afterwards.  The default is detect.DefaultOptions().
func WithDetectorOptions(opts detect.Options) Option {
	return func(s *Solver) {
		s.opts = opts
	}
}

// WithCheck makes Solve check every theory from scratch before
// reporting a model, and panic if some theory is not satisfied.
func WithCheck(on bool) Option {
	return func(s *Solver) {
		s.check = on
	}
}

// Stats counts the work of a Solver.
type Stats struct {
	// Rounds counts models proposed by gini.
	Rounds int64
	// Lemmas counts clauses learned from theories.
	Lemmas int64
	// Conflicts counts lemmas which came from detector conflicts.
	Conflicts int64
	// Fallbacks counts lemmas made of decisions because a reason
	// was not falsified by the model.
	Fallbacks int64
	// Backtracks counts trail backtracks.
	Backtracks int64
	// Detectors has the statistics of each detector.
	Detectors []detect.Stats
}

// Solver is a lazy SMT solver over gini.
type Solver struct {
	g       *gini.Gini
	c       *logic.C
	mark    []int8
	roots   []z.Lit
	tr      *trail.Trail
	opts    detect.Options
	log     logrus.FieldLogger
	timeout time.Duration
	check   bool

	graphs []*theory.Graph
	lsys   []*theory.LSystem

	vars      []z.Var
	decisions []z.Lit
	lemma     []z.Lit
	result    int
	stats     Stats
}

// New creates a Solver.
func New(opts ...Option) *Solver {
	s := &Solver{
		g:    gini.New(),
		c:    logic.NewC(),
		opts: detect.DefaultOptions(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}
	s.tr = trail.New(s.newVar, s.log)
	s.tr.OnEqual(s.equal)
	return s
}

func (s *Solver) newVar() z.Var {
	return s.c.Lit().Var()
}

func (s *Solver) equal(a, b z.Lit) {
	s.clause(a.Not(), b)
	s.clause(a, b.Not())
}

// Lit returns a new variable's positive literal.
func (s *Solver) Lit() z.Lit {
	return s.c.Lit()
}

// Circuit returns the circuit new gates may be built in.  Gates are
// encoded into clauses when they are used in Add or Assert.
func (s *Solver) Circuit() *logic.C {
	return s.c
}

// Add adds a literal to the clause being built, ending it if m is
// z.LitNull, like gini.Gini.Add.
func (s *Solver) Add(m z.Lit) {
	if m != z.LitNull {
		s.roots = append(s.roots, m)
	}
	s.g.Add(m)
}

// Assert adds a unit clause for each of ms.
func (s *Solver) Assert(ms ...z.Lit) {
	for _, m := range ms {
		s.clause(m)
	}
}

func (s *Solver) clause(ms ...z.Lit) {
	for _, m := range ms {
		s.Add(m)
	}
	s.Add(z.LitNull)
}

// flush encodes the gates under literals used in clauses so far.
func (s *Solver) flush() {
	if len(s.roots) == 0 {
		return
	}
	s.mark, _ = s.c.CnfSince(s.g, s.mark, s.roots...)
	s.roots = s.roots[:0]
}

// NewGraph creates a graph theory.
func (s *Solver) NewGraph() *theory.Graph {
	g := theory.NewGraph(s.tr, s.opts, s.log.WithField("theory", "graph"))
	s.graphs = append(s.graphs, g)
	return g
}

// NewLSystem creates an L-system theory over nChars characters.
func (s *Solver) NewLSystem(nChars int) *theory.LSystem {
	l := theory.NewLSystem(s.tr, nChars, s.opts, s.log.WithField("theory", "lsystem"))
	s.lsys = append(s.lsys, l)
	return l
}

// Solve returns 1 if the clauses and atoms are satisfiable, -1 if not,
// and 0 if the solver's timeout expired first.
func (s *Solver) Solve() int {
	return s.Try(s.timeout)
}

// Try is like Solve with timeout d.  If d <= 0 there is no timeout.
func (s *Solver) Try(d time.Duration) int {
	var deadline time.Time
	if d > 0 {
		deadline = time.Now().Add(d)
	}
	for round := 0; ; round++ {
		s.flush()
		var res int
		if d > 0 {
			left := time.Until(deadline)
			if left <= 0 {
				s.result = 0
				return 0
			}
			res = s.g.GoSolve().Try(left)
		} else {
			res = s.g.Solve()
		}
		s.stats.Rounds++
		if res != 1 {
			s.log.WithFields(logrus.Fields{"round": round, "result": res}).Debug("boolean result")
			s.result = res
			return res
		}
		lemma, ok := s.replay()
		if ok {
			if s.check && !s.tr.CheckSatisfied() {
				panic("ginit: model not satisfied by theories")
			}
			s.log.WithFields(logrus.Fields{"round": round, "result": 1}).Debug("theory consistent")
			s.result = 1
			return 1
		}
		s.log.WithFields(logrus.Fields{"round": round, "lemma": len(lemma)}).Debug("learned")
		s.stats.Lemmas++
		s.clause(lemma...)
	}
}

// gval returns the value of m in gini's model.  Variables gini does not
// know are false.
func (s *Solver) gval(m z.Lit) bool {
	if m.Var() > s.g.MaxVar() {
		return !m.IsPos()
	}
	return s.g.Value(m)
}

func (s *Solver) falsified(ms []z.Lit) bool {
	for _, m := range ms {
		if s.gval(m) {
			return false
		}
	}
	return true
}

// replay replays gini's model on the trail.  If the theories agree
// with it, replay returns ok; otherwise it returns a clause which the
// model falsifies and the theories imply.
func (s *Solver) replay() ([]z.Lit, bool) {
	tr := s.tr
	tr.Backtrack(0)
	s.decisions = s.decisions[:0]
	s.vars = s.vars[:0]
	for v := z.Var(1); int(v) < tr.NumVars(); v++ {
		if tr.Relevant(v) {
			s.vars = append(s.vars, v)
		}
	}
	tr.NewLevel()
	next, start := 0, 0
	for {
		x, ok := tr.Propagate()
		if !ok {
			return s.conflict(x), false
		}
		if lemma, ok := s.disagreement(start); ok {
			return lemma, false
		}
		start = tr.Len()
		m := tr.Suggest()
		if m == z.LitNull {
			for next < len(s.vars) && tr.Value(s.vars[next].Pos()) != inter.Unknown {
				next++
			}
			if next == len(s.vars) {
				break
			}
			m = s.vars[next].Pos()
		}
		if !s.gval(m) {
			m = m.Not()
		}
		tr.Decide(m)
		s.decisions = append(s.decisions, m)
	}
	return nil, true
}

// disagreement looks for a literal assigned since start which the model
// falsifies.
func (s *Solver) disagreement(start int) ([]z.Lit, bool) {
	tr := s.tr
	for i := start; i < tr.Len(); i++ {
		m := tr.At(i)
		if s.gval(m) {
			continue
		}
		s.lemma = tr.Reason(m, s.lemma[:0])
		if len(s.lemma) == 0 || !s.falsified(s.lemma) {
			s.stats.Fallbacks++
			s.lemma = append(s.lemma[:0], m)
			for _, d := range s.decisions {
				s.lemma = append(s.lemma, d.Not())
			}
		}
		return s.lemma, true
	}
	return nil, false
}

func (s *Solver) conflict(x []z.Lit) []z.Lit {
	s.stats.Conflicts++
	s.lemma = append(s.lemma[:0], x...)
	if len(s.lemma) == 0 || !s.falsified(s.lemma) {
		s.stats.Fallbacks++
		s.lemma = s.lemma[:0]
		for _, d := range s.decisions {
			s.lemma = append(s.lemma, d.Not())
		}
	}
	return s.lemma
}

// Value returns the value of m in the last model found.  It is only
// meaningful after Solve returned 1.
func (s *Solver) Value(m z.Lit) bool {
	switch s.tr.Value(m) {
	case inter.True:
		return true
	case inter.False:
		return false
	}
	return s.gval(m)
}

// Result returns the result of the last call to Solve or Try.
func (s *Solver) Result() int {
	return s.result
}

// Stats returns the solver's statistics.
func (s *Solver) Stats() Stats {
	st := s.stats
	st.Backtracks = s.tr.Backs
	st.Detectors = nil
	for _, g := range s.graphs {
		st.Detectors = append(st.Detectors, g.Stats()...)
	}
	for _, l := range s.lsys {
		st.Detectors = append(st.Detectors, l.Stats()...)
	}
	return st
}
