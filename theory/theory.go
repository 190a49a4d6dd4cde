// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package theory binds boolean variables to the elements of
// incremental structures and runs detectors over them.
//
// A theory keeps an under and an over approximation of its structure:
// an element controlled by a variable is in the under approximation iff
// the variable is true and in the over approximation iff it is not
// false.  Elements without a variable are always in both.  The theory
// follows assignments through inter.Theory's Assign and Unassign and
// hands the approximations to its detectors.
package theory

import (
	"io"

	"github.com/go-air/ginit/detect"
	"github.com/go-air/ginit/inter"
	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"
)

type detector interface {
	inter.Detector
	Stats() detect.Stats
}

// hub holds what the theories have in common: registration with the
// host and dispatch to detectors.
type hub struct {
	host inter.Host
	id   int
	opts detect.Options
	dets []detector
	byID map[int]detector
	log  logrus.FieldLogger
}

func (h *hub) init(host inter.Host, th inter.Theory, opts detect.Options, log logrus.FieldLogger) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	h.host = host
	h.opts = opts
	h.byID = make(map[int]detector)
	h.log = log
	h.id = host.AddTheory(th)
}

func (h *hub) add(d detector) {
	h.dets = append(h.dets, d)
	h.byID[d.ID()] = d
}

// ID returns the identifier given by the host.
func (h *hub) ID() int {
	return h.id
}

// Propagate implements inter.Theory.
func (h *hub) Propagate(conflict []z.Lit) ([]z.Lit, bool) {
	for _, d := range h.dets {
		var ok bool
		conflict, ok = d.Propagate(conflict)
		if !ok {
			return conflict, false
		}
	}
	return conflict, true
}

// BuildReason implements inter.Theory.
func (h *hub) BuildReason(m z.Lit, dst []z.Lit, mk inter.Marker) []z.Lit {
	return h.byID[h.host.Owner(mk)].BuildReason(m, dst, mk)
}

// CheckSatisfied implements inter.Theory.
func (h *hub) CheckSatisfied() bool {
	for _, d := range h.dets {
		if !d.CheckSatisfied() {
			h.log.WithField("detector", d.ID()).Warn("detector not satisfied")
			return false
		}
	}
	return true
}

// Decide implements inter.Theory.
func (h *hub) Decide() z.Lit {
	for _, d := range h.dets {
		if m := d.Decide(); m != z.LitNull {
			return m
		}
	}
	return z.LitNull
}

// Stats returns the statistics of each detector of the theory.
func (h *hub) Stats() []detect.Stats {
	res := make([]detect.Stats, len(h.dets))
	for i, d := range h.dets {
		res[i] = d.Stats()
	}
	return res
}
