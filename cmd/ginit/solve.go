// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-air/ginit"
	"github.com/go-air/ginit/detect"
	"github.com/go-air/ginit/metrics"
	"github.com/go-air/ginit/problem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func (o *options) detectOptions() detect.Options {
	opts := detect.DefaultOptions()
	opts.MaxDepth = o.maxDepth
	opts.MinCut = o.minCut
	opts.Weighted = o.weighted
	return opts
}

// run solves the files, at most o.jobs at a time, and writes their
// results to w in the order of files.
func (o *options) run(w io.Writer, logger *logrus.Logger, files []string) error {
	reg := prometheus.NewRegistry()
	ms := metrics.New(reg)
	outs := make([]bytes.Buffer, len(files))
	var g errgroup.Group
	if o.jobs > 0 {
		g.SetLimit(o.jobs)
	}
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			return o.solve(&outs[i], logger.WithField("file", file), ms, file)
		})
	}
	err := g.Wait()
	for i := range outs {
		if _, werr := outs[i].WriteTo(w); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if o.metrics {
		return metrics.WriteText(w, reg)
	}
	return nil
}

func (o *options) solve(w io.Writer, log logrus.FieldLogger, ms *metrics.Metrics, file string) error {
	fmt.Fprintf(w, "c %s\n", file)
	p, err := problem.Load(file)
	if err != nil {
		fmt.Fprintf(w, "s UNKNOWN\n")
		return err
	}
	in, err := p.Build(
		ginit.WithLogger(log),
		ginit.WithTimeout(o.timeout),
		ginit.WithDetectorOptions(o.detectOptions()),
		ginit.WithCheck(o.check))
	if err != nil {
		fmt.Fprintf(w, "s UNKNOWN\n")
		return err
	}
	start := time.Now()
	res := in.S.Solve()
	dur := time.Since(start)
	st := in.S.Stats()
	log.WithFields(logrus.Fields{
		"result": metrics.ResultString(res),
		"dur":    dur,
		"rounds": st.Rounds,
		"lemmas": st.Lemmas,
	}).Info("solved")
	ms.ObserveSolve(res, dur)
	ms.Observe(filepath.Base(file), st)
	writeResult(w, res)
	if res == 1 && o.model {
		writeModel(w, in)
	}
	return nil
}

func writeResult(w io.Writer, res int) {
	switch res {
	case 1:
		fmt.Fprintf(w, "s SATISFIABLE\n")
	case -1:
		fmt.Fprintf(w, "s UNSATISFIABLE\n")
	case 0:
		fmt.Fprintf(w, "s UNKNOWN\n")
	default:
		panic(fmt.Sprintf("unknown result, %d", res))
	}
}

// writeModel writes the value of every name on "v" lines of at most 78
// columns, negated names prefixed by '-'.
func writeModel(w io.Writer, in *problem.Instance) {
	model := in.Model()
	col := 1
	fmt.Fprintf(w, "v")
	for _, name := range in.Names() {
		n := len(name) + 1
		if !model[name] {
			n++
		}
		if col+n > 78 {
			fmt.Fprintf(w, "\nv")
			col = 1
		}
		if model[name] {
			fmt.Fprintf(w, " %s", name)
		} else {
			fmt.Fprintf(w, " -%s", name)
		}
		col += n
	}
	fmt.Fprintf(w, "\n")
}
