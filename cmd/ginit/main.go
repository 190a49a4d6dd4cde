// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Command ginit solves problems with graph and L-system atoms.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-air/ginit/detect"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	timeout  time.Duration
	model    bool
	metrics  bool
	logLevel string
	maxDepth int
	minCut   bool
	weighted bool
	check    bool
	jobs     int
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ginit",
		Short:        "Solve boolean problems with graph and L-system atoms",
		SilenceUsage: true,
	}
	cmd.AddCommand(newSolveCmd())
	return cmd
}

func newSolveCmd() *cobra.Command {
	o := options{}
	cmd := &cobra.Command{
		Use:   "solve FILE...",
		Short: "Solve YAML problem files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(o.logLevel)
			if err != nil {
				return err
			}
			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetLevel(level)
			return o.run(cmd.OutOrStdout(), logger, args)
		},
	}
	def := detect.DefaultOptions()
	cmd.Flags().DurationVar(&o.timeout, "timeout", 30*time.Second, "timeout per problem, 0 means none")
	cmd.Flags().BoolVar(&o.model, "model", false, "output models")
	cmd.Flags().BoolVar(&o.metrics, "metrics", false, "output metrics in the Prometheus text format after solving")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "warning", "log level (trace, debug, info, warning, error)")
	cmd.Flags().IntVar(&o.maxDepth, "max-depth", def.MaxDepth, "maximum derivation depth of L-system atoms")
	cmd.Flags().BoolVar(&o.minCut, "min-cut", def.MinCut, "explain unreachability by minimum cuts")
	cmd.Flags().BoolVar(&o.weighted, "weighted", def.Weighted, "use edge weights in distance atoms")
	cmd.Flags().BoolVar(&o.check, "check", false, "check models against every theory from scratch")
	cmd.Flags().IntVar(&o.jobs, "jobs", 4, "number of problems solved concurrently")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
