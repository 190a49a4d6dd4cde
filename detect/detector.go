// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package detect contains theory detectors: components which watch an
// incrementally changing structure through a pair of under and over
// approximations, force fact literals whose value the approximations
// decide, and explain forced literals and conflicts by clauses.
package detect

import (
	"fmt"

	"github.com/go-air/ginit/fsm"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
)

// Options configures detectors.
type Options struct {
	// MaxDepth bounds the nesting of derivations considered by
	// acceptance detectors.
	MaxDepth int
	// MinCut makes distance detectors explain unreachability of
	// unbounded atoms by a minimum cut rather than by the frontier
	// of the over approximation.  Bounded atoms always use the
	// frontier, restricted to edges which lead to the node.
	MinCut bool
	// PureSkip skips updating an approximation when no fact literal
	// could be forced by it.
	PureSkip bool
	// Weighted makes distance detectors use edge weights.
	Weighted bool
}

// DefaultOptions returns MaxDepth fsm.DefaultMaxDepth with MinCut and
// PureSkip on.
func DefaultOptions() Options {
	return Options{MaxDepth: fsm.DefaultMaxDepth, MinCut: true, PureSkip: true}
}

// Stats counts detector activity.
type Stats struct {
	Kind         string
	ID           int
	Facts        int
	UnderUpdates int64
	OverUpdates  int64
	UnderSkips   int64
	OverSkips    int64
	Propagations int64
	Conflicts    int64
	Reasons      int64
	Decisions    int64
}

// Add adds the counts of o to s.
func (s *Stats) Add(o *Stats) {
	s.Facts += o.Facts
	s.UnderUpdates += o.UnderUpdates
	s.OverUpdates += o.OverUpdates
	s.UnderSkips += o.UnderSkips
	s.OverSkips += o.OverSkips
	s.Propagations += o.Propagations
	s.Conflicts += o.Conflicts
	s.Reasons += o.Reasons
	s.Decisions += o.Decisions
}

type base struct {
	id      int
	o       inter.Outer
	opts    Options
	trueMk  inter.Marker
	falseMk inter.Marker
	stats   Stats
}

func (b *base) init(kind string, id int, o inter.Outer, opts Options) {
	b.id = id
	b.o = o
	b.opts = opts
	b.trueMk = o.NewReasonMarker(id)
	b.falseMk = o.NewReasonMarker(id)
	b.stats.Kind = kind
	b.stats.ID = id
}

// ID returns the identifier of the detector.
func (b *base) ID() int {
	return b.id
}

// Stats returns the counts of the detector's activity.
func (b *base) Stats() Stats {
	return b.stats
}

// needs reports which approximations can force some literal of vs:
// the under approximation only forces literals to true, the over
// approximation only to false.
func (b *base) needs(vs []z.Var) (under, over bool) {
	if !b.opts.PureSkip {
		return true, true
	}
	for _, v := range vs {
		switch b.o.Value(v.Pos()) {
		case inter.Unknown:
			return true, true
		case inter.False:
			under = true
		case inter.True:
			over = true
		}
		if under && over {
			break
		}
	}
	return
}

// keep returns whether the literal m, false in a reason, should be
// kept: literals fixed at level 0 are dropped.
func (b *base) keep(m z.Lit) bool {
	return b.o.Level(m.Var()) > 0
}

func (b *base) badMarker(mk inter.Marker) {
	panic(fmt.Sprintf("detect: marker %d does not belong to %s detector %d", mk, b.stats.Kind, b.id))
}
