// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package dgl

import "fmt"

// Change records one flip of an enabled flag.
//
// ID identifies the edge (or, for rule sets, the rule) whose flag
// changed.  Addition is true if the flag became set.  Mod is the value
// of the log's modification counter when the change was appended.
type Change struct {
	ID       int
	Addition bool
	Mod      int
}

// Dynamic is implemented by incremental algorithms consuming a Log.
// Invalidate is called when the log is rewound below the position the
// algorithm last reported, or cleared before it caught up.
type Dynamic interface {
	Invalidate()
}

// Log is an append only history of enable/disable changes.
//
// Replaying the changes from position 0 against an empty set
// reproduces the current set of enabled ids, as long as the log has
// not been cleared.  Clears() counts clears; a consumer whose recorded
// clear count differs must resynchronize from scratch.
type Log struct {
	changes []Change
	mods    int
	clears  int
	algs    []Dynamic
	algPos  []int
}

// Size returns the number of changes, which is also the position of
// the next change.
func (l *Log) Size() int {
	return len(l.changes)
}

// At returns the change at position i.
func (l *Log) At(i int) Change {
	return l.changes[i]
}

// Modifications returns a counter which changes whenever the log does.
func (l *Log) Modifications() int {
	return l.mods
}

// Clears returns the number of times the log was cleared.
func (l *Log) Clears() int {
	return l.clears
}

// Append adds a change for id and returns it.
func (l *Log) Append(id int, add bool) Change {
	l.mods++
	c := Change{ID: id, Addition: add, Mod: l.mods}
	l.changes = append(l.changes, c)
	return c
}

// Undo reverts the effect of the most recent change (id, add).  If that
// change is the last one in the log and no registered algorithm has
// consumed it, it is popped.  Otherwise the inverse change is appended.
// Undo returns true if it popped.
func (l *Log) Undo(id int, add bool) bool {
	n := len(l.changes)
	if n > 0 {
		c := l.changes[n-1]
		if c.ID == id && c.Addition == add && !l.consumed(n-1) {
			l.changes = l.changes[:n-1]
			l.mods++
			return true
		}
	}
	l.Append(id, !add)
	return false
}

func (l *Log) consumed(pos int) bool {
	for _, p := range l.algPos {
		if p > pos {
			return true
		}
	}
	return false
}

// Truncate drops every change at position n or later, returning the
// dropped changes, most recent first, in dst.
func (l *Log) Truncate(n int, dst []Change) []Change {
	if n < 0 || n > len(l.changes) {
		panic(fmt.Sprintf("dgl: truncate to %d of history of size %d", n, len(l.changes)))
	}
	for i := len(l.changes) - 1; i >= n; i-- {
		dst = append(dst, l.changes[i])
	}
	l.changes = l.changes[:n]
	l.mods++
	for i, p := range l.algPos {
		if p > n {
			l.algPos[i] = n
			l.algs[i].Invalidate()
		}
	}
	return dst
}

// Caught returns whether every registered algorithm has consumed the
// whole log.
func (l *Log) Caught() bool {
	for _, p := range l.algPos {
		if p < len(l.changes) {
			return false
		}
	}
	return true
}

// Clear empties the log.  Unless force is set, it does nothing and
// returns false when some registered algorithm has not caught up.
func (l *Log) Clear(force bool) bool {
	if !force && !l.Caught() {
		return false
	}
	n := len(l.changes)
	l.changes = l.changes[:0]
	l.mods++
	l.clears++
	for i, p := range l.algPos {
		if p < n {
			l.algs[i].Invalidate()
		}
		l.algPos[i] = 0
	}
	return true
}

// AddDynamic registers d and returns its identifier.  The position of
// a newly registered algorithm is 0.
func (l *Log) AddDynamic(d Dynamic) int {
	l.algs = append(l.algs, d)
	l.algPos = append(l.algPos, 0)
	return len(l.algs) - 1
}

// UpdateDynamic records that algorithm id consumed the log up to pos.
func (l *Log) UpdateDynamic(id, pos int) {
	if pos < 0 || pos > len(l.changes) {
		panic(fmt.Sprintf("dgl: algorithm %d at position %d of history of size %d", id, pos, len(l.changes)))
	}
	l.algPos[id] = pos
}

// DynamicPos returns the position last recorded for algorithm id.
func (l *Log) DynamicPos(id int) int {
	return l.algPos[id]
}

// InvalidateAll invalidates every registered algorithm.
func (l *Log) InvalidateAll() {
	l.mods++
	for i, d := range l.algs {
		l.algPos[i] = 0
		d.Invalidate()
	}
}

// Watermark is the part of a log consumer's state which tracks how much
// of the log it has incorporated.
type Watermark struct {
	QHead  int
	Mods   int
	Clears int
	Stale  bool
	Seen   bool
}

// Current returns whether nothing happened to l since w was advanced.
func (w *Watermark) Current(l *Log) bool {
	return w.Seen && !w.Stale && w.Mods == l.Modifications()
}

// Valid returns whether the changes from w.QHead on are exactly what
// happened since w was advanced.  If not, the consumer must
// resynchronize from scratch.
func (w *Watermark) Valid(l *Log) bool {
	return w.Seen && !w.Stale && w.Clears == l.Clears() && w.QHead <= l.Size()
}

// Advance marks the whole of l as consumed.
func (w *Watermark) Advance(l *Log) {
	w.QHead = l.Size()
	w.Mods = l.Modifications()
	w.Clears = l.Clears()
	w.Stale = false
	w.Seen = true
}

// Invalidate implements Dynamic.
func (w *Watermark) Invalidate() {
	w.Stale = true
}
