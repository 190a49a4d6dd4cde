// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package dgl

import "fmt"

// Node identifies a node.  Nodes are numbered densely from 0.
type Node int

// EdgeID identifies an edge for its lifetime.  Edge ids index all
// per edge data.
type EdgeID int

// EdgeNull is returned when there is no edge.
const EdgeNull EdgeID = -1

// Edge is a directed, weighted edge.
type Edge struct {
	From   Node
	To     Node
	ID     EdgeID
	Weight int64
}

// G captures what incremental algorithms need from a graph.  It is
// implemented by *Graph and by its reversed view *Back.
type G interface {
	NumNodes() int
	NumEdges() int
	HasEdgeID(id EdgeID) bool
	Edge(id EdgeID) Edge
	EdgeEnabled(id EdgeID) bool
	// Incident returns the ids of edges leaving n.
	Incident(n Node) []EdgeID
	// Incoming returns the ids of edges entering n.
	Incoming(n Node) []EdgeID
	// History returns the change log, shared by all views.
	History() *Log
}

// Graph is a directed multigraph whose edges may be enabled and
// disabled, with every flip recorded in a history Log.
type Graph struct {
	edges   []Edge
	present []bool
	enabled []bool
	out     [][]EdgeID
	in      [][]EdgeID
	log     Log
	changed bool
}

// New creates a graph with n nodes.
func New(n int) *Graph {
	g := &Graph{}
	g.AddNodes(n)
	return g
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.out)
}

// NumEdges returns one more than the largest edge id in use.
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// AddNode adds a node and returns it.
func (g *Graph) AddNode() Node {
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.changed = true
	return Node(len(g.out) - 1)
}

// AddNodes adds n nodes and returns the first.
func (g *Graph) AddNodes(n int) Node {
	first := Node(len(g.out))
	for i := 0; i < n; i++ {
		g.AddNode()
	}
	return first
}

// NewEdge adds an edge of weight 1 with the next free id.
func (g *Graph) NewEdge(from, to Node) EdgeID {
	return g.AddEdge(from, to, EdgeNull, 1)
}

// AddEdge adds an edge with identifier id, or with the next free id if
// id is EdgeNull.  The edge is created enabled, and its creation is
// logged as an addition.  Reusing an id or a negative weight panics.
func (g *Graph) AddEdge(from, to Node, id EdgeID, weight int64) EdgeID {
	g.checkNode(from)
	g.checkNode(to)
	if id == EdgeNull {
		id = EdgeID(len(g.edges))
	}
	if id < 0 {
		panic(fmt.Sprintf("dgl: invalid edge id %d", id))
	}
	if weight < 0 {
		panic(fmt.Sprintf("dgl: negative weight %d on %d->%d", weight, from, to))
	}
	for EdgeID(len(g.edges)) <= id {
		g.edges = append(g.edges, Edge{From: -1, To: -1, ID: EdgeNull})
		g.present = append(g.present, false)
		g.enabled = append(g.enabled, false)
	}
	if g.present[id] {
		panic(fmt.Sprintf("dgl: edge id %d already used by %d->%d", id, g.edges[id].From, g.edges[id].To))
	}
	g.edges[id] = Edge{From: from, To: to, ID: id, Weight: weight}
	g.present[id] = true
	g.enabled[id] = true
	g.out[from] = append(g.out[from], id)
	g.in[to] = append(g.in[to], id)
	g.log.Append(int(id), true)
	g.changed = true
	return id
}

func (g *Graph) checkNode(n Node) {
	if n < 0 || int(n) >= len(g.out) {
		panic(fmt.Sprintf("dgl: node %d out of range [0..%d)", n, len(g.out)))
	}
}

func (g *Graph) checkEdge(id EdgeID) {
	if id < 0 || int(id) >= len(g.edges) || !g.present[id] {
		panic(fmt.Sprintf("dgl: no edge %d", id))
	}
}

// Edge returns the edge with identifier id.
func (g *Graph) Edge(id EdgeID) Edge {
	g.checkEdge(id)
	return g.edges[id]
}

// HasEdgeID returns whether id identifies an edge.
func (g *Graph) HasEdgeID(id EdgeID) bool {
	return id >= 0 && int(id) < len(g.edges) && g.present[id]
}

// EdgeEnabled returns whether edge id is enabled.
func (g *Graph) EdgeEnabled(id EdgeID) bool {
	g.checkEdge(id)
	return g.enabled[id]
}

// EnableEdge enables id, returning false if it already was enabled.
func (g *Graph) EnableEdge(id EdgeID) bool {
	return g.SetEdgeEnabled(id, true)
}

// DisableEdge disables id, returning false if it already was disabled.
func (g *Graph) DisableEdge(id EdgeID) bool {
	return g.SetEdgeEnabled(id, false)
}

// SetEdgeEnabled sets the enabled flag of id, logging a change if the
// flag flips.
func (g *Graph) SetEdgeEnabled(id EdgeID, on bool) bool {
	g.checkEdge(id)
	if g.enabled[id] == on {
		return false
	}
	g.enabled[id] = on
	g.log.Append(int(id), on)
	return true
}

// UndoEnableEdge reverts a preceding EnableEdge(id).  When the enable
// is the last change in the history, this takes constant time and
// leaves no trace in the history.
func (g *Graph) UndoEnableEdge(id EdgeID) {
	g.undo(id, true)
}

// UndoDisableEdge reverts a preceding DisableEdge(id).
func (g *Graph) UndoDisableEdge(id EdgeID) {
	g.undo(id, false)
}

func (g *Graph) undo(id EdgeID, on bool) {
	g.checkEdge(id)
	if g.enabled[id] != on {
		return
	}
	g.enabled[id] = !on
	g.log.Undo(int(id), on)
}

// HasEdge returns whether there is an edge from -> to.  It takes time
// linear in the out degree of from.
func (g *Graph) HasEdge(from, to Node) bool {
	return g.GetEdge(from, to) != EdgeNull
}

// GetEdge returns some edge from -> to, or EdgeNull.
func (g *Graph) GetEdge(from, to Node) EdgeID {
	g.checkNode(from)
	for _, e := range g.out[from] {
		if g.edges[e].To == to {
			return e
		}
	}
	return EdgeNull
}

// Incident returns the edges leaving n.  The result must not be
// modified.
func (g *Graph) Incident(n Node) []EdgeID {
	return g.out[n]
}

// NIncident returns the out degree of n.
func (g *Graph) NIncident(n Node) int {
	return len(g.out[n])
}

// Incoming returns the edges entering n.  The result must not be
// modified.
func (g *Graph) Incoming(n Node) []EdgeID {
	return g.in[n]
}

// NIncoming returns the in degree of n.
func (g *Graph) NIncoming(n Node) int {
	return len(g.in[n])
}

// History returns the change log of g.
func (g *Graph) History() *Log {
	return &g.log
}

// HistoryClears returns the number of times the history was cleared.
func (g *Graph) HistoryClears() int {
	return g.log.Clears()
}

// RewindHistory undoes the last steps changes, restoring the enabled
// flags they changed.  Rewinding past the start of the history panics.
func (g *Graph) RewindHistory(steps int) {
	n := g.log.Size() - steps
	if steps < 0 || n < 0 {
		panic(fmt.Sprintf("dgl: rewind %d steps of history of size %d", steps, g.log.Size()))
	}
	var buf [16]Change
	for _, c := range g.log.Truncate(n, buf[:0]) {
		g.enabled[c.ID] = !c.Addition
	}
}

// ClearHistory empties the history.  Unless force is set, it refuses
// and returns false while some registered algorithm has not consumed
// the whole history.
func (g *Graph) ClearHistory(force bool) bool {
	return g.log.Clear(force)
}

// AddDynamicAlgorithm registers an incremental algorithm consuming the
// history of g.
func (g *Graph) AddDynamicAlgorithm(d Dynamic) int {
	return g.log.AddDynamic(d)
}

// UpdateAlgorithmHistory records that algorithm id has consumed the
// history up to pos.
func (g *Graph) UpdateAlgorithmHistory(id, pos int) {
	g.log.UpdateDynamic(id, pos)
}

// AlgorithmHistory returns the position last recorded for algorithm
// id, from which it must replay.
func (g *Graph) AlgorithmHistory(id int) int {
	return g.log.DynamicPos(id)
}

// MarkChanged sets the coarse changed flag.
func (g *Graph) MarkChanged() {
	g.changed = true
}

// Changed returns the coarse changed flag.  Adding nodes or edges sets
// it.
func (g *Graph) Changed() bool {
	return g.changed
}

// ClearChanged clears the coarse changed flag.
func (g *Graph) ClearChanged() {
	g.changed = false
}

// Invalidate forces every registered algorithm to recompute from
// scratch.
func (g *Graph) Invalidate() {
	g.changed = true
	g.log.InvalidateAll()
}

// Copy returns a copy of g with the same nodes, edges and enabled
// flags.  The copy's history is empty and counts as cleared once.
func (g *Graph) Copy() *Graph {
	c := &Graph{
		log:     Log{clears: 1},
		edges:   append([]Edge(nil), g.edges...),
		present: append([]bool(nil), g.present...),
		enabled: append([]bool(nil), g.enabled...),
		out:     make([][]EdgeID, len(g.out)),
		in:      make([][]EdgeID, len(g.in)),
		changed: true,
	}
	for i := range g.out {
		c.out[i] = append([]EdgeID(nil), g.out[i]...)
		c.in[i] = append([]EdgeID(nil), g.in[i]...)
	}
	return c
}
