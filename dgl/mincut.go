// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package dgl

// Infinite is a capacity no cut may use.
const Infinite int64 = 1 << 40

// MinCut computes a minimum s-t edge cut of g using Edmonds-Karp.
//
// capacity gives the capacity of each edge, whether or not the edge is
// enabled; a capacity of 0 removes the edge and Infinite makes it
// uncuttable.  The cut edges are appended to dst.  If the value of the
// maximum flow reaches Infinite, there is no finite cut and MinCut
// returns dst unchanged and false.
func MinCut(g G, s, t Node, capacity func(e Edge) int64, dst []EdgeID) ([]EdgeID, bool) {
	if s == t {
		return dst, false
	}
	n := g.NumNodes()
	caps := make([]int64, g.NumEdges())
	flow := make([]int64, g.NumEdges())
	for id := range caps {
		if !g.HasEdgeID(EdgeID(id)) {
			continue
		}
		caps[id] = capacity(g.Edge(EdgeID(id)))
	}
	prev := make([]EdgeID, n)
	back := make([]bool, n)
	seen := make([]bool, n)
	var queue []Node
	var total int64
	for {
		for i := range seen {
			seen[i] = false
			prev[i] = EdgeNull
		}
		queue = append(queue[:0], s)
		seen[s] = true
		for len(queue) > 0 && !seen[t] {
			u := queue[0]
			queue = queue[1:]
			for _, id := range g.Incident(u) {
				v := g.Edge(id).To
				if !seen[v] && flow[id] < caps[id] {
					seen[v] = true
					prev[v], back[v] = id, false
					queue = append(queue, v)
				}
			}
			for _, id := range g.Incoming(u) {
				v := g.Edge(id).From
				if !seen[v] && flow[id] > 0 {
					seen[v] = true
					prev[v], back[v] = id, true
					queue = append(queue, v)
				}
			}
		}
		if !seen[t] {
			break
		}
		aug := Infinite
		for v := t; v != s; {
			id := prev[v]
			e := g.Edge(id)
			if !back[v] {
				aug = min64(aug, caps[id]-flow[id])
				v = e.From
			} else {
				aug = min64(aug, flow[id])
				v = e.To
			}
		}
		for v := t; v != s; {
			id := prev[v]
			e := g.Edge(id)
			if !back[v] {
				flow[id] += aug
				v = e.From
			} else {
				flow[id] -= aug
				v = e.To
			}
		}
		total += aug
		if total >= Infinite {
			return dst, false
		}
	}
	// seen is the source side of the residual graph.
	for u := 0; u < n; u++ {
		if !seen[u] {
			continue
		}
		for _, id := range g.Incident(Node(u)) {
			if caps[id] > 0 && !seen[g.Edge(id).To] {
				dst = append(dst, id)
			}
		}
	}
	return dst, true
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
