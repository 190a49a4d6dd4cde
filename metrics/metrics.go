// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package metrics exports solver and detector statistics to Prometheus.
package metrics

import (
	"io"
	"strconv"
	"time"

	"github.com/go-air/ginit"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const (
	ProblemLabel = "problem"
	KindLabel    = "kind"
	IDLabel      = "id"
	ApproxLabel  = "approx"
	ResultLabel  = "result"

	Under = "under"
	Over  = "over"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	rounds       *prometheus.CounterVec
	lemmas       *prometheus.CounterVec
	conflicts    *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	backtracks   *prometheus.CounterVec
	solve        *prometheus.SummaryVec
	facts        *prometheus.GaugeVec
	updates      *prometheus.CounterVec
	skips        *prometheus.CounterVec
	propagations *prometheus.CounterVec
	detConflicts *prometheus.CounterVec
	reasons      *prometheus.CounterVec
	decisions    *prometheus.CounterVec
}

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
}

// New creates the collectors and registers them with reg.  It panics if
// registration fails.
func New(reg prometheus.Registerer) *Metrics {
	det := []string{ProblemLabel, KindLabel, IDLabel}
	m := &Metrics{
		rounds:     counter("ginit_rounds_total", "Models proposed by the boolean engine", ProblemLabel),
		lemmas:     counter("ginit_lemmas_total", "Clauses learned from theories", ProblemLabel),
		conflicts:  counter("ginit_theory_conflicts_total", "Learned clauses which came from detector conflicts", ProblemLabel),
		fallbacks:  counter("ginit_fallback_lemmas_total", "Learned clauses made of decisions", ProblemLabel),
		backtracks: counter("ginit_backtracks_total", "Trail backtracks", ProblemLabel),
		solve: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "ginit_solve_duration_seconds",
				Help:       "The duration of a solve",
				Objectives: map[float64]float64{0.95: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{ResultLabel},
		),
		facts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ginit_detector_facts",
				Help: "Fact literals of a detector",
			},
			det,
		),
		updates:      counter("ginit_detector_updates_total", "Approximation updates", append(det, ApproxLabel)...),
		skips:        counter("ginit_detector_skips_total", "Approximation updates skipped because no fact could be forced", append(det, ApproxLabel)...),
		propagations: counter("ginit_detector_propagations_total", "Literals forced by a detector", det...),
		detConflicts: counter("ginit_detector_conflicts_total", "Conflicts found by a detector", det...),
		reasons:      counter("ginit_detector_reasons_total", "Reasons built by a detector", det...),
		decisions:    counter("ginit_detector_decisions_total", "Decisions suggested by a detector", det...),
	}
	reg.MustRegister(
		m.rounds, m.lemmas, m.conflicts, m.fallbacks, m.backtracks, m.solve,
		m.facts, m.updates, m.skips, m.propagations, m.detConflicts, m.reasons, m.decisions)
	return m
}

// ResultString names a solve result.
func ResultString(res int) string {
	switch res {
	case 1:
		return "sat"
	case -1:
		return "unsat"
	}
	return "unknown"
}

// ObserveSolve records the duration of a solve with result res.
func (m *Metrics) ObserveSolve(res int, d time.Duration) {
	m.solve.WithLabelValues(ResultString(res)).Observe(d.Seconds())
}

// Observe adds the statistics of a solver which solved problem.
func (m *Metrics) Observe(problem string, st ginit.Stats) {
	m.rounds.WithLabelValues(problem).Add(float64(st.Rounds))
	m.lemmas.WithLabelValues(problem).Add(float64(st.Lemmas))
	m.conflicts.WithLabelValues(problem).Add(float64(st.Conflicts))
	m.fallbacks.WithLabelValues(problem).Add(float64(st.Fallbacks))
	m.backtracks.WithLabelValues(problem).Add(float64(st.Backtracks))
	for i := range st.Detectors {
		d := &st.Detectors[i]
		id := strconv.Itoa(d.ID)
		m.facts.WithLabelValues(problem, d.Kind, id).Set(float64(d.Facts))
		m.updates.WithLabelValues(problem, d.Kind, id, Under).Add(float64(d.UnderUpdates))
		m.updates.WithLabelValues(problem, d.Kind, id, Over).Add(float64(d.OverUpdates))
		m.skips.WithLabelValues(problem, d.Kind, id, Under).Add(float64(d.UnderSkips))
		m.skips.WithLabelValues(problem, d.Kind, id, Over).Add(float64(d.OverSkips))
		m.propagations.WithLabelValues(problem, d.Kind, id).Add(float64(d.Propagations))
		m.detConflicts.WithLabelValues(problem, d.Kind, id).Add(float64(d.Conflicts))
		m.reasons.WithLabelValues(problem, d.Kind, id).Add(float64(d.Reasons))
		m.decisions.WithLabelValues(problem, d.Kind, id).Add(float64(d.Decisions))
	}
}

// WriteText writes the metrics gathered by g in the Prometheus text
// format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrapf(err, "writing %s", mf.GetName())
		}
	}
	return nil
}
