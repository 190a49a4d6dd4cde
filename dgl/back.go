// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package dgl

// Back is a view of a Graph with every edge reversed.
//
// Back holds no enablement or history of its own: mutations through
// Back are mutations of the underlying graph.  It only keeps a list of
// reversed edges, extended lazily as the underlying graph grows.
type Back struct {
	g     *Graph
	edges []Edge
}

// NewBack returns the reversed view of g.
func NewBack(g *Graph) *Back {
	return &Back{g: g}
}

// Base returns the underlying graph.
func (b *Back) Base() *Graph {
	return b.g
}

func (b *Back) sync() {
	for i := len(b.edges); i < len(b.g.edges); i++ {
		e := b.g.edges[i]
		e.From, e.To = e.To, e.From
		b.edges = append(b.edges, e)
	}
}

func (b *Back) NumNodes() int { return b.g.NumNodes() }
func (b *Back) NumEdges() int { return b.g.NumEdges() }

// Edge returns edge id with its endpoints swapped.
func (b *Back) Edge(id EdgeID) Edge {
	b.g.checkEdge(id)
	b.sync()
	if b.edges[id].ID != id {
		e := b.g.edges[id]
		e.From, e.To = e.To, e.From
		b.edges[id] = e
	}
	return b.edges[id]
}

func (b *Back) HasEdgeID(id EdgeID) bool          { return b.g.HasEdgeID(id) }
func (b *Back) EdgeEnabled(id EdgeID) bool        { return b.g.EdgeEnabled(id) }
func (b *Back) EnableEdge(id EdgeID) bool         { return b.g.EnableEdge(id) }
func (b *Back) DisableEdge(id EdgeID) bool        { return b.g.DisableEdge(id) }
func (b *Back) UndoEnableEdge(id EdgeID)          { b.g.UndoEnableEdge(id) }
func (b *Back) UndoDisableEdge(id EdgeID)         { b.g.UndoDisableEdge(id) }
func (b *Back) Incident(n Node) []EdgeID          { return b.g.Incoming(n) }
func (b *Back) Incoming(n Node) []EdgeID          { return b.g.Incident(n) }
func (b *Back) NIncident(n Node) int              { return b.g.NIncoming(n) }
func (b *Back) NIncoming(n Node) int              { return b.g.NIncident(n) }
func (b *Back) HasEdge(from, to Node) bool        { return b.g.HasEdge(to, from) }
func (b *Back) GetEdge(from, to Node) EdgeID      { return b.g.GetEdge(to, from) }
func (b *Back) History() *Log                     { return b.g.History() }
func (b *Back) AddDynamicAlgorithm(d Dynamic) int { return b.g.AddDynamicAlgorithm(d) }

// AddEdge adds the edge to -> from to the underlying graph, so that it
// appears as from -> to in b.
func (b *Back) AddEdge(from, to Node, id EdgeID, weight int64) EdgeID {
	return b.g.AddEdge(to, from, id, weight)
}
