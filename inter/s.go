// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package inter

import "github.com/go-air/gini/z"

// Truth values returned by Valuer.Value.  These follow the gini
// convention for results: 1 is true, -1 is false and 0 is unknown.
const (
	True    int8 = 1
	False   int8 = -1
	Unknown int8 = 0
)

// VarNull is the variable 0, which is never used as a variable.  It
// stands for "no variable", for example for edges without a controlling
// variable.
const VarNull z.Var = 0

// Marker tags a propagated literal with the detector that can later
// explain it.
type Marker uint32

// MarkerNull marks decisions and literals without a reason.
const MarkerNull Marker = 0

// Valuer gives read access to a partial assignment.
type Valuer interface {
	// Value returns True, False or Unknown for m.
	Value(m z.Lit) int8

	// Level returns the decision level at which v was assigned.  The
	// result is undefined if v is unassigned.
	Level(v z.Var) int

	// DecisionLevel returns the current decision level.
	DecisionLevel() int
}

// Interface Outer is the boolean engine as seen by a detector.
//
// Detectors never assign literals directly; they enqueue them with a
// Marker obtained from NewReasonMarker and are later asked, through
// Detector.BuildReason, to justify them.
type Outer interface {
	Valuer

	// NewVar returns a variable for a fact of the detector with
	// identifier det.  If hint is not VarNull, the hint variable is
	// used when possible; otherwise a fresh variable is made equal to
	// it.
	NewVar(hint z.Var, det int) z.Var

	// NewReasonMarker allocates a marker owned by detector det.
	NewReasonMarker(det int) Marker

	// Enqueue assigns m, which must be unassigned, at the current
	// decision level with reason marker mk.
	Enqueue(m z.Lit, mk Marker)

	// MakeEqual constrains a and b to have the same value.
	MakeEqual(a, b z.Lit)

	// ToSolver and FromSolver translate between a detector-local and
	// the engine literal space.
	ToSolver(m z.Lit) z.Lit
	FromSolver(m z.Lit) z.Lit
}

// Interface Detector is implemented by each theory detector.
//
// Reasons and conflicts are clauses: every literal of a conflict is
// false under the current assignment, and a reason for m has m first
// followed by literals which are all false.
type Detector interface {
	// ID returns the identifier given at construction.
	ID() int

	// Propagate brings the detector up to date with the assignment and
	// enqueues forced literals.  If a forced literal is already
	// assigned the opposite value, Propagate appends a conflict clause
	// to conflict and returns ok=false.
	Propagate(conflict []z.Lit) (out []z.Lit, ok bool)

	// BuildReason appends to dst a reason clause for m, which was
	// enqueued with marker mk.
	BuildReason(m z.Lit, dst []z.Lit, mk Marker) []z.Lit

	// CheckSatisfied verifies the assignment against a model built
	// from scratch.
	CheckSatisfied() bool

	// Decide suggests a decision literal, or z.LitNull.
	Decide() z.Lit
}

// Interface Theory groups detectors sharing incremental structures
// whose state follows assignments to watched variables.
type Theory interface {
	// Assign is called after a watched literal m becomes true.
	Assign(m z.Lit)

	// Unassign is called when m is undone by backtracking, in reverse
	// assignment order.
	Unassign(m z.Lit)

	// Propagate runs all detectors of the theory.
	Propagate(conflict []z.Lit) ([]z.Lit, bool)

	// BuildReason dispatches to the detector owning mk.
	BuildReason(m z.Lit, dst []z.Lit, mk Marker) []z.Lit

	// CheckSatisfied checks all detectors from scratch.
	CheckSatisfied() bool

	// Decide returns the first decision suggested by a detector of the
	// theory, or z.LitNull.
	Decide() z.Lit
}

// Interface Host is an Outer which theories register with.
type Host interface {
	Outer

	// AddTheory registers th and returns its identifier.
	AddTheory(th Theory) int

	// AddDetector returns a new detector identifier for theory th.
	AddDetector(th int) int

	// Owner returns the detector which allocated mk.
	Owner(mk Marker) int

	// Watch causes th's Assign and Unassign to be called for v.
	Watch(v z.Var, th int)
}
