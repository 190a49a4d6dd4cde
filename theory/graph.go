// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package theory

import (
	"fmt"

	"github.com/go-air/ginit/detect"
	"github.com/go-air/ginit/dgl"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"
)

type sourceKey struct {
	node dgl.Node
	back bool
}

// Graph is a directed graph whose edges are controlled by variables,
// with reachability and distance atoms.
type Graph struct {
	hub
	under   *dgl.Graph
	over    *dgl.Graph
	ub, ob  *dgl.Back
	vars    []z.Var
	byVar   map[z.Var][]dgl.EdgeID
	sources map[sourceKey]*detect.Distance
}

// NewGraph creates a graph theory with no nodes registered with h.
func NewGraph(h inter.Host, opts detect.Options, log logrus.FieldLogger) *Graph {
	g := &Graph{
		under:   dgl.New(0),
		over:    dgl.New(0),
		byVar:   make(map[z.Var][]dgl.EdgeID),
		sources: make(map[sourceKey]*detect.Distance),
	}
	g.init(h, g, opts, log)
	return g
}

// AddNode adds a node and returns it.
func (g *Graph) AddNode() dgl.Node {
	g.under.AddNode()
	return g.over.AddNode()
}

// AddNodes adds n nodes and returns the first.
func (g *Graph) AddNodes(n int) dgl.Node {
	g.under.AddNodes(n)
	return g.over.AddNodes(n)
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return g.over.NumNodes()
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int {
	return g.over.NumEdges()
}

// NewEdge adds an edge of weight 1 from -> to which is enabled iff v is
// true.  If v is inter.VarNull the edge is always enabled.
func (g *Graph) NewEdge(from, to dgl.Node, v z.Var) dgl.EdgeID {
	return g.NewWeightedEdge(from, to, v, 1)
}

// NewWeightedEdge is like NewEdge with weight w.
func (g *Graph) NewWeightedEdge(from, to dgl.Node, v z.Var, w int64) dgl.EdgeID {
	id := dgl.EdgeID(g.over.NumEdges())
	g.under.AddEdge(from, to, id, w)
	g.over.AddEdge(from, to, id, w)
	g.vars = append(g.vars, v)
	if v == inter.VarNull {
		return id
	}
	g.byVar[v] = append(g.byVar[v], id)
	g.host.Watch(v, g.id)
	switch g.host.Value(v.Pos()) {
	case inter.True:
	case inter.False:
		g.under.DisableEdge(id)
		g.over.DisableEdge(id)
	default:
		g.under.DisableEdge(id)
	}
	return id
}

// Edge returns edge e.
func (g *Graph) Edge(e dgl.EdgeID) dgl.Edge {
	return g.over.Edge(e)
}

// EdgeVar returns the variable controlling e, or inter.VarNull.
func (g *Graph) EdgeVar(e dgl.EdgeID) z.Var {
	return g.vars[e]
}

// Under returns the graph of edges which are constant or whose
// variable is true.
func (g *Graph) Under() *dgl.Graph {
	return g.under
}

// Over returns the graph of edges whose variable is not false.
func (g *Graph) Over() *dgl.Graph {
	return g.over
}

type graphOuter struct {
	inter.Host
	g *Graph
}

func (o *graphOuter) EdgeVar(e dgl.EdgeID) z.Var {
	return o.g.vars[e]
}

func (g *Graph) detector(source dgl.Node, back bool) *detect.Distance {
	k := sourceKey{source, back}
	if d, ok := g.sources[k]; ok {
		return d
	}
	var under, over dgl.G = g.under, g.over
	if back {
		if g.ub == nil {
			g.ub, g.ob = dgl.NewBack(g.under), dgl.NewBack(g.over)
		}
		under, over = g.ub, g.ob
	}
	id := g.host.AddDetector(g.id)
	d := detect.NewDistance(id, &graphOuter{Host: g.host, g: g}, under, over, source, g.opts)
	g.sources[k] = d
	g.add(d)
	g.log.WithFields(logrus.Fields{
		"detector": id,
		"source":   source,
		"backward": back,
	}).Debug("new distance detector")
	return d
}

func (g *Graph) checkNode(n dgl.Node) {
	if n < 0 || int(n) >= g.NumNodes() {
		panic(fmt.Sprintf("theory: node %d out of range [0..%d)", n, g.NumNodes()))
	}
}

// Reaches returns a literal which is true iff to is reachable from
// from over enabled edges.  If ext is not inter.VarNull, the literal is
// equal to ext.
func (g *Graph) Reaches(from, to dgl.Node, ext z.Var) z.Lit {
	g.checkNode(from)
	g.checkNode(to)
	return g.detector(from, false).AddLit(to, -1, ext)
}

// ReachesBackward is like Reaches, but the atom is answered by a
// search from to over the reversed graph.  Many atoms with a common
// target share one detector this way.
func (g *Graph) ReachesBackward(from, to dgl.Node, ext z.Var) z.Lit {
	g.checkNode(from)
	g.checkNode(to)
	return g.detector(to, true).AddLit(from, -1, ext)
}

// DistanceLeq returns a literal which is true iff to is reachable from
// from by a path of length at most d.  The length of a path is the
// number of its edges, or the sum of their weights if the theory's
// options are weighted.
func (g *Graph) DistanceLeq(from, to dgl.Node, d int64, ext z.Var) z.Lit {
	g.checkNode(from)
	g.checkNode(to)
	if d < 0 {
		panic(fmt.Sprintf("theory: negative distance bound %d", d))
	}
	return g.detector(from, false).AddLit(to, d, ext)
}

// PathEdges returns the edges of a shortest path from -> to over the
// edges which are constant or whose variable is true, or nil if there
// is none.  After a successful solve it is a witness of a true
// reachability atom.
func (g *Graph) PathEdges(from, to dgl.Node) []dgl.EdgeID {
	g.checkNode(from)
	g.checkNode(to)
	return g.detector(from, false).Path(to, nil)
}

// PathNodes returns the nodes of the path given by PathEdges, from
// first, or nil if there is no path.
func (g *Graph) PathNodes(from, to dgl.Node) []dgl.Node {
	es := g.PathEdges(from, to)
	if len(es) == 0 {
		if from == to {
			return []dgl.Node{from}
		}
		return nil
	}
	ns := []dgl.Node{from}
	for _, e := range es {
		ns = append(ns, g.Edge(e).To)
	}
	return ns
}

// OnPath returns whether n is a node of the path given by PathNodes.
func (g *Graph) OnPath(n, from, to dgl.Node) bool {
	for _, m := range g.PathNodes(from, to) {
		if m == n {
			return true
		}
	}
	return false
}

// Assign implements inter.Theory.
func (g *Graph) Assign(m z.Lit) {
	for _, e := range g.byVar[m.Var()] {
		if m.IsPos() {
			g.under.EnableEdge(e)
		} else {
			g.over.DisableEdge(e)
		}
	}
}

// Unassign implements inter.Theory.
func (g *Graph) Unassign(m z.Lit) {
	es := g.byVar[m.Var()]
	for i := len(es) - 1; i >= 0; i-- {
		if m.IsPos() {
			g.under.UndoEnableEdge(es[i])
		} else {
			g.over.UndoDisableEdge(es[i])
		}
	}
}
