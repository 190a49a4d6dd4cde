// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package gen

// Edge is an edge of a generated graph.  Edges which are not Free are
// constant: they are present in every model.
type Edge struct {
	From, To int
	Weight   int64
	Free     bool
}

// Graph is a generated graph over nodes 0..N-1.
type Graph struct {
	N     int
	Edges []Edge
}

// Atom asks whether To is reachable from From, within distance Within
// if Within >= 0.
type Atom struct {
	From, To int
	Within   int64
}

// RandGraph generates a graph with n nodes and m edges.  Each edge is
// free with probability pFree and has a weight in [1..maxWeight].
func RandGraph(n, m int, pFree float64, maxWeight int64) *Graph {
	mu.Lock()
	defer mu.Unlock()
	g := &Graph{N: n, Edges: make([]Edge, m)}
	for i := range g.Edges {
		g.Edges[i] = Edge{
			From:   rng.Intn(n),
			To:     rng.Intn(n),
			Weight: 1 + rng.Int63n(maxWeight),
			Free:   rng.Float64() < pFree}
	}
	return g
}

// RandAtoms generates k atoms over g.  About half of them are bounded
// by a distance in [1..maxWithin].
func RandAtoms(g *Graph, k int, maxWithin int64) []Atom {
	mu.Lock()
	defer mu.Unlock()
	res := make([]Atom, k)
	for i := range res {
		a := Atom{From: rng.Intn(g.N), To: rng.Intn(g.N), Within: -1}
		if rng.Intn(2) == 0 {
			a.Within = 1 + rng.Int63n(maxWithin)
		}
		res[i] = a
	}
	return res
}

// Rule is a rule of a generated L-system.
type Rule struct {
	Char int
	Body []int
	Free bool
}

// LSystem is a generated 0L-system over characters 0..NChars-1.
type LSystem struct {
	NChars int
	Rules  []Rule
}

// RandLSystem generates an L-system with nRules rules whose bodies have
// length in [1..maxBody].  Each rule is free with probability pFree.
func RandLSystem(nChars, nRules, maxBody int, pFree float64) *LSystem {
	mu.Lock()
	defer mu.Unlock()
	ls := &LSystem{NChars: nChars, Rules: make([]Rule, nRules)}
	for i := range ls.Rules {
		ls.Rules[i] = Rule{
			Char: rng.Intn(nChars),
			Body: randWord(nChars, maxBody),
			Free: rng.Float64() < pFree}
	}
	return ls
}

// RandWord generates a word of length in [1..maxLen].
func RandWord(nChars, maxLen int) []int {
	mu.Lock()
	defer mu.Unlock()
	return randWord(nChars, maxLen)
}

func randWord(nChars, maxLen int) []int {
	w := make([]int, 1+rng.Intn(maxLen))
	for i := range w {
		w[i] = rng.Intn(nChars)
	}
	return w
}
