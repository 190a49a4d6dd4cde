// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package dgl

import (
	"container/heap"
	"fmt"
)

// Reach maintains shortest distances from a source node over the
// enabled edges of a graph, following the graph's history.
//
// In unit mode every edge has length 1 and distances are hop counts;
// in weighted mode edge weights are used.  Update replays the history
// since the last update: enabled edges are relaxed in place, and a
// full recomputation happens only when an edge of the current shortest
// path tree is disabled, or when the history was rewound or cleared
// below what was consumed.
type Reach struct {
	g        G
	source   Node
	weighted bool
	dist     []int64
	parent   []EdgeID
	wm       Watermark
	alg      int
	q        distQueue

	// Updates counts updates which did work, Full those which
	// recomputed from scratch.
	Updates int
	Full    int
}

// NewReach creates a Reach from source over g.
func NewReach(g G, source Node, weighted bool) *Reach {
	if source < 0 || int(source) >= g.NumNodes() {
		panic(fmt.Sprintf("dgl: reach source %d out of range [0..%d)", source, g.NumNodes()))
	}
	r := &Reach{g: g, source: source, weighted: weighted}
	r.alg = g.History().AddDynamic(&r.wm)
	return r
}

// Source returns the source node.
func (r *Reach) Source() Node {
	return r.source
}

// Weighted returns whether r uses edge weights.
func (r *Reach) Weighted() bool {
	return r.weighted
}

// Invalidate causes the next Update to recompute from scratch.
func (r *Reach) Invalidate() {
	r.wm.Invalidate()
}

// Update brings r up to date with the graph.
func (r *Reach) Update() {
	h := r.g.History()
	n := r.g.NumNodes()
	if r.wm.Current(h) && len(r.dist) == n {
		return
	}
	r.Updates++
	if !r.wm.Valid(h) {
		r.recompute()
	} else {
		r.grow(n)
		if !r.replay(h) {
			r.recompute()
		}
	}
	r.wm.Advance(h)
	h.UpdateDynamic(r.alg, r.wm.QHead)
}

func (r *Reach) grow(n int) {
	for len(r.dist) < n {
		r.dist = append(r.dist, -1)
		r.parent = append(r.parent, EdgeNull)
	}
}

func (r *Reach) replay(h *Log) bool {
	end := h.Size()
	for i := r.wm.QHead; i < end; i++ {
		c := h.At(i)
		id := EdgeID(c.ID)
		if c.Addition || r.g.EdgeEnabled(id) {
			continue
		}
		if r.parent[r.g.Edge(id).To] == id {
			return false
		}
	}
	r.q = r.q[:0]
	for i := r.wm.QHead; i < end; i++ {
		c := h.At(i)
		id := EdgeID(c.ID)
		if !c.Addition || !r.g.EdgeEnabled(id) {
			continue
		}
		r.relax(r.g.Edge(id))
	}
	r.run()
	return true
}

func (r *Reach) recompute() {
	r.Full++
	r.dist = r.dist[:0]
	r.parent = r.parent[:0]
	r.grow(r.g.NumNodes())
	r.dist[r.source] = 0
	r.q = r.q[:0]
	heap.Push(&r.q, distItem{r.source, 0})
	r.run()
}

func (r *Reach) length(e Edge) int64 {
	if r.weighted {
		return e.Weight
	}
	return 1
}

func (r *Reach) relax(e Edge) {
	du := r.dist[e.From]
	if du < 0 {
		return
	}
	d := du + r.length(e)
	if dv := r.dist[e.To]; dv >= 0 && dv <= d {
		return
	}
	r.dist[e.To] = d
	r.parent[e.To] = e.ID
	heap.Push(&r.q, distItem{e.To, d})
}

func (r *Reach) run() {
	for r.q.Len() > 0 {
		it := heap.Pop(&r.q).(distItem)
		if it.d != r.dist[it.n] {
			continue
		}
		for _, id := range r.g.Incident(it.n) {
			if r.g.EdgeEnabled(id) {
				r.relax(r.g.Edge(id))
			}
		}
	}
}

// Reachable returns whether n is reachable from the source.
func (r *Reach) Reachable(n Node) bool {
	return int(n) < len(r.dist) && r.dist[n] >= 0
}

// Distance returns the distance from the source to n, or -1 if n is
// unreachable.
func (r *Reach) Distance(n Node) int64 {
	if int(n) >= len(r.dist) {
		return -1
	}
	return r.dist[n]
}

// Path appends to dst the edges of a shortest path from the source to
// n, in order from the source.  If n is unreachable nothing is
// appended.
func (r *Reach) Path(n Node, dst []EdgeID) []EdgeID {
	if !r.Reachable(n) {
		return dst
	}
	start := len(dst)
	for n != r.source {
		e := r.parent[n]
		dst = append(dst, e)
		n = r.g.Edge(e).From
	}
	for i, j := start, len(dst)-1; i < j; i, j = i+1, j-1 {
		dst[i], dst[j] = dst[j], dst[i]
	}
	return dst
}

// Distances computes from scratch the distances from source over the
// edges of g for which length is not negative, whether or not they are
// enabled.  If backward is set, edges are followed from head to tail,
// giving the distances to source.  Unreachable nodes have distance -1.
func Distances(g G, source Node, backward bool, length func(e Edge) int64) []int64 {
	dist := make([]int64, g.NumNodes())
	for i := range dist {
		dist[i] = -1
	}
	dist[source] = 0
	q := distQueue{{source, 0}}
	for q.Len() > 0 {
		it := heap.Pop(&q).(distItem)
		if it.d != dist[it.n] {
			continue
		}
		es := g.Incident(it.n)
		if backward {
			es = g.Incoming(it.n)
		}
		for _, id := range es {
			e := g.Edge(id)
			l := length(e)
			if l < 0 {
				continue
			}
			v := e.To
			if backward {
				v = e.From
			}
			if d := it.d + l; dist[v] < 0 || d < dist[v] {
				dist[v] = d
				heap.Push(&q, distItem{v, d})
			}
		}
	}
	return dist
}

type distItem struct {
	n Node
	d int64
}

type distQueue []distItem

func (q distQueue) Len() int           { return len(q) }
func (q distQueue) Less(i, j int) bool { return q[i].d < q[j].d }
func (q distQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *distQueue) Push(x interface{}) {
	*q = append(*q, x.(distItem))
}

func (q *distQueue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
