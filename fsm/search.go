// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package fsm

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"
	"github.com/go-air/ginit/dgl"
)

// DefaultMaxDepth bounds the nesting of derivations by default.
const DefaultMaxDepth = 5

// Search answers whether an atom produces a string through the rules
// enabled in an Acceptor built by Compile, and explains the answer.
//
// An atom produces w at depth d <= MaxDepth if some parse of w by the
// transducer writes a predecessor p with p = [atom], or such that the
// atom produces p at depth d+1.  The empty string is never produced.
//
// Which transitions are enabled is decided by a predicate, so a Search
// may run over a structure snapshot while enablement follows some
// other state.  A Search holds scratch space and is not safe for
// concurrent use.
type Search struct {
	a        *Acceptor
	enabled  func(e dgl.EdgeID) bool
	maxDepth int
	levels   []level
	atom     int
	used     []int
	seen     *bitset.BitSet
	rules    []int
	layer    *bitset.BitSet
	next     *bitset.BitSet
	work     []int
	key      []byte
	visited  map[string]bool
	accept   func(depth int, p []int) bool
	block    func(depth int, p []int) bool
}

type level struct {
	suffix []*bitset.BitSet
	out    []int
}

// NewSearch creates a search over a.  If enabled is nil, the enabled
// flags of a's transitions are used.  maxDepth < 0 means
// DefaultMaxDepth.
func NewSearch(a *Acceptor, maxDepth int, enabled func(e dgl.EdgeID) bool) *Search {
	if enabled == nil {
		enabled = a.g.EdgeEnabled
	}
	if maxDepth < 0 {
		maxDepth = DefaultMaxDepth
	}
	n := uint(a.NumStates())
	s := &Search{
		a:        a,
		enabled:  enabled,
		maxDepth: maxDepth,
		levels:   make([]level, maxDepth+1),
		seen:     bitset.New(uint(a.NumRules())),
		layer:    bitset.New(n),
		next:     bitset.New(n),
		visited:  make(map[string]bool),
	}
	s.accept = s.acceptVisit
	s.block = s.blockVisit
	return s
}

// MaxDepth returns the depth bound.
func (s *Search) MaxDepth() int {
	return s.maxDepth
}

// Accepts returns whether atom produces w.
func (s *Search) Accepts(atom int, w []int) bool {
	s.atom = atom
	s.used = s.used[:0]
	return s.accepts(w, 0)
}

// Used appends to dst the rules used by the derivation found by the
// last successful call to Accepts, each rule once.
func (s *Search) Used(dst []int) []int {
	s.seen.ClearAll()
	for _, r := range s.used {
		if !s.seen.Test(uint(r)) {
			s.seen.Set(uint(r))
			dst = append(dst, r)
		}
	}
	return dst
}

func (s *Search) accepts(w []int, depth int) bool {
	if depth > s.maxDepth || len(w) == 0 {
		return false
	}
	lv := &s.levels[depth]
	s.suffixTable(lv, w)
	if !lv.suffix[0].Test(uint(s.a.start)) {
		return false
	}
	lv.out = lv.out[:0]
	return s.walk(depth, w, s.a.start, 0, 0, s.accept)
}

func (s *Search) acceptVisit(depth int, p []int) bool {
	if len(p) == 1 && p[0] == s.atom {
		return true
	}
	return s.accepts(p, depth+1)
}

// SuffixTable returns, for each position i of w, the set of states
// from which the final state is reachable reading w[i:].  The result is
// only valid until the next call on s.
func (s *Search) SuffixTable(w []int) []*bitset.BitSet {
	lv := &s.levels[0]
	s.suffixTable(lv, w)
	return lv.suffix[:len(w)+1]
}

func (s *Search) suffixTable(lv *level, w []int) {
	n := uint(s.a.NumStates())
	for len(lv.suffix) <= len(w) {
		lv.suffix = append(lv.suffix, bitset.New(n))
	}
	for i := 0; i <= len(w); i++ {
		lv.suffix[i].ClearAll()
	}
	t := lv.suffix[len(w)]
	t.Set(uint(s.a.final))
	s.closeBack(t, false)
	g := s.a.g
	for i := len(w) - 1; i >= 0; i-- {
		cur, nxt := lv.suffix[i], lv.suffix[i+1]
		sym := Sym(w[i])
		for st, ok := nxt.NextSet(0); ok; st, ok = nxt.NextSet(st + 1) {
			for _, e := range g.Incoming(dgl.Node(st)) {
				if s.a.in[e] == sym && s.enabled(e) {
					cur.Set(uint(g.Edge(e).From))
				}
			}
		}
		s.closeBack(cur, false)
	}
}

// closeBack adds to b every state reaching a state of b by enabled
// epsilon transitions.  If record is set, disabled epsilon transitions
// into b are recorded.
func (s *Search) closeBack(b *bitset.BitSet, record bool) {
	s.work = s.work[:0]
	for st, ok := b.NextSet(0); ok; st, ok = b.NextSet(st + 1) {
		s.work = append(s.work, int(st))
	}
	g := s.a.g
	for len(s.work) > 0 {
		st := s.work[len(s.work)-1]
		s.work = s.work[:len(s.work)-1]
		for _, e := range g.Incoming(dgl.Node(st)) {
			if s.a.in[e] != Epsilon {
				continue
			}
			if !s.enabled(e) {
				if record {
					s.record(e)
				}
				continue
			}
			from := uint(g.Edge(e).From)
			if !b.Test(from) {
				b.Set(from)
				s.work = append(s.work, int(from))
			}
		}
	}
}

// walk enumerates the parses of w from state st at position pos,
// calling visit with the output of each complete parse until visit
// returns true.  Consecutive epsilon transitions are bounded by the
// number of states.
func (s *Search) walk(depth int, w []int, st, pos, eps int, visit func(int, []int) bool) bool {
	lv := &s.levels[depth]
	if pos == len(w) && st == s.a.final && len(lv.out) > 0 {
		if visit(depth, lv.out) {
			return true
		}
	}
	g := s.a.g
	for _, e := range g.Incident(dgl.Node(st)) {
		if !s.enabled(e) {
			continue
		}
		next, neps := pos, 0
		if in := s.a.in[e]; in == Epsilon {
			if eps >= s.a.NumStates() {
				continue
			}
			neps = eps + 1
		} else {
			if pos == len(w) || in != Sym(w[pos]) {
				continue
			}
			next = pos + 1
		}
		to := int(g.Edge(e).To)
		if !lv.suffix[next].Test(uint(to)) {
			continue
		}
		nout, nused := len(lv.out), len(s.used)
		if o := s.a.out[e]; o != Epsilon {
			lv.out = append(lv.out, o-1)
		}
		if r := s.a.rule[e]; r >= 0 {
			s.used = append(s.used, r)
		}
		if s.walk(depth, w, to, next, neps, visit) {
			return true
		}
		lv.out = lv.out[:nout]
		s.used = s.used[:nused]
	}
	return false
}

// Blocking appends to dst the rules whose primary transitions are
// disabled and block some derivation of w from atom, each rule once.
// Enabling none of them leaves w not produced by atom, provided atom
// does not produce w now.
//
// The rules are found by a backward breadth first search from the final
// state over w reversed, recording disabled transitions reading the
// symbol at hand, repeated for each predecessor written by a parse of w
// up to the depth bound.
func (s *Search) Blocking(atom int, w []int, dst []int) []int {
	s.atom = atom
	s.seen.ClearAll()
	s.rules = dst
	for k := range s.visited {
		delete(s.visited, k)
	}
	s.blocking(w, 0)
	dst = s.rules
	s.rules = nil
	return dst
}

func (s *Search) blocking(w []int, depth int) {
	if depth > s.maxDepth {
		return
	}
	s.key = binary.AppendUvarint(s.key[:0], uint64(depth))
	for _, c := range w {
		s.key = binary.AppendUvarint(s.key, uint64(c))
	}
	if s.visited[string(s.key)] {
		return
	}
	s.visited[string(s.key)] = true
	s.analyze(w)
	if len(w) == 0 {
		return
	}
	lv := &s.levels[depth]
	s.suffixTable(lv, w)
	if !lv.suffix[0].Test(uint(s.a.start)) {
		return
	}
	lv.out = lv.out[:0]
	s.walk(depth, w, s.a.start, 0, 0, s.block)
}

func (s *Search) blockVisit(depth int, p []int) bool {
	s.blocking(p, depth+1)
	return false
}

func (s *Search) analyze(w []int) {
	cur, nxt := s.layer, s.next
	cur.ClearAll()
	cur.Set(uint(s.a.final))
	s.closeBack(cur, true)
	g := s.a.g
	for i := len(w) - 1; i >= 0; i-- {
		sym := Sym(w[i])
		nxt.ClearAll()
		for st, ok := cur.NextSet(0); ok; st, ok = cur.NextSet(st + 1) {
			for _, e := range g.Incoming(dgl.Node(st)) {
				if s.a.in[e] != sym {
					continue
				}
				if !s.enabled(e) {
					s.record(e)
					continue
				}
				nxt.Set(uint(g.Edge(e).From))
			}
		}
		s.closeBack(nxt, true)
		cur, nxt = nxt, cur
	}
}

func (s *Search) record(e dgl.EdgeID) {
	r := s.a.rule[e]
	if r < 0 || s.seen.Test(uint(r)) {
		return
	}
	s.seen.Set(uint(r))
	s.rules = append(s.rules, r)
}
