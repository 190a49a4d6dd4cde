// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package detect

import (
	"fmt"

	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
)

// Facts binds variables of a detector to fact keys.
//
// Keys are stored in a table indexed by the variable's offset from the
// smallest bound variable.  A key is bound to at most one variable:
// adding it again returns the existing literal.
type Facts[K comparable] struct {
	first z.Var
	keys  []K
	has   []bool
	lits  map[K]z.Lit
	vars  []z.Var
}

// Add returns the literal bound to k, creating a variable for it with
// o.NewVar(ext, det) if there is none.  If k is already bound and ext
// is another variable, ext is made equal to the bound literal.
func (f *Facts[K]) Add(o inter.Outer, det int, k K, ext z.Var) z.Lit {
	if m, ok := f.lits[k]; ok {
		if ext != inter.VarNull && ext != m.Var() {
			o.MakeEqual(ext.Pos(), m)
		}
		return m
	}
	v := o.NewVar(ext, det)
	if v == inter.VarNull {
		panic(fmt.Sprintf("detect: no variable for fact %v", k))
	}
	if f.lits == nil {
		f.lits = make(map[K]z.Lit)
		f.first = v
	}
	if v < f.first {
		n := int(f.first - v)
		f.keys = append(make([]K, n), f.keys...)
		f.has = append(make([]bool, n), f.has...)
		f.first = v
	}
	i := int(v - f.first)
	for len(f.keys) <= i {
		var zero K
		f.keys = append(f.keys, zero)
		f.has = append(f.has, false)
	}
	if f.has[i] {
		panic(fmt.Sprintf("detect: variable %s already bound to %v", v, f.keys[i]))
	}
	f.keys[i] = k
	f.has[i] = true
	m := v.Pos()
	f.lits[k] = m
	f.vars = append(f.vars, v)
	return m
}

// Key returns the key bound to v.
func (f *Facts[K]) Key(v z.Var) (K, bool) {
	var zero K
	if v < f.first {
		return zero, false
	}
	i := int(v - f.first)
	if i >= len(f.keys) || !f.has[i] {
		return zero, false
	}
	return f.keys[i], true
}

// MustKey is like Key but panics if v is not bound.
func (f *Facts[K]) MustKey(v z.Var) K {
	k, ok := f.Key(v)
	if !ok {
		panic(fmt.Sprintf("detect: variable %s is not a fact", v))
	}
	return k
}

// Lit returns the literal bound to k.
func (f *Facts[K]) Lit(k K) (z.Lit, bool) {
	m, ok := f.lits[k]
	return m, ok
}

// Vars returns the bound variables in the order they were bound.
func (f *Facts[K]) Vars() []z.Var {
	return f.vars
}

// Len returns the number of bound keys.
func (f *Facts[K]) Len() int {
	return len(f.vars)
}
