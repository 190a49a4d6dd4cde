// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package gen

import (
	"math/rand"
	"sync"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"
)

// make the rng seedable
var rng = rand.New(rand.NewSource(33))
var mu sync.Mutex

// Seed reseeds the generators.
func Seed(s int64) {
	mu.Lock()
	defer mu.Unlock()
	rng = rand.New(rand.NewSource(s))
}

// LitAdder can create variables and add clauses.  ginit.Solver and
// gini.Gini are LitAdders.
type LitAdder interface {
	inter.Adder
	Lit() z.Lit
}

func lits(dst LitAdder, n int) []z.Lit {
	ms := make([]z.Lit, n)
	for i := range ms {
		ms[i] = dst.Lit()
	}
	return ms
}

// BinCycle generates
// (1,-2) (2,-3), (3,-4) ... (n-1, -(n)), (n, 1)
// over n new variables, which are returned.
func BinCycle(dst LitAdder, n int) []z.Lit {
	ms := lits(dst, n)
	for i := range ms {
		j := (i + 1) % n
		dst.Add(ms[i])
		dst.Add(ms[j].Not())
		dst.Add(z.LitNull)
	}
	return ms
}

// Rand3Cnf generates a random 3cnf with
// n new variables and m clauses.
func Rand3Cnf(dst LitAdder, n, m int) []z.Lit {
	vs := lits(dst, n)
	mu.Lock() // for package rng
	defer mu.Unlock()
	pick := func() z.Lit {
		m := vs[rng.Intn(n)]
		if rng.Intn(2) == 0 {
			return m.Not()
		}
		return m
	}
	ms := make([]z.Lit, 3)
	for i := 0; i < m; i++ {
		for j := 0; j < 3; j++ {
			ms[j] = pick()
			for j == 1 && ms[0].Var() == ms[1].Var() {
				ms[j] = pick()
			}
			for j == 2 && (ms[0].Var() == ms[2].Var() || ms[1].Var() == ms[2].Var()) {
				ms[j] = pick()
			}
		}
		dst.Add(ms[0])
		dst.Add(ms[1])
		dst.Add(ms[2])
		dst.Add(z.LitNull)
	}
	return vs
}

// Php generates a pigeon hole problem asking
// whether or not P pigeons can be placed
// in H holes with 1 pigeon per hole.  The
// variable of pigeon i in hole h is at index
// h*P+i of the result.
func Php(dst LitAdder, P, H int) []z.Lit {
	vs := lits(dst, P*H)
	at := func(i, h int) z.Lit {
		return vs[h*P+i]
	}
	for i := 0; i < P; i++ {
		for h := 0; h < H; h++ {
			dst.Add(at(i, h))
		}
		dst.Add(z.LitNull)
	}
	for i := 0; i < P; i++ {
		for j := 0; j < i; j++ {
			for h := 0; h < H; h++ {
				dst.Add(at(i, h).Not())
				dst.Add(at(j, h).Not())
				dst.Add(z.LitNull)
			}
		}
	}
	return vs
}
