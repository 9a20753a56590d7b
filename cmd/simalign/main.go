// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// simalign prepares a model directory for learning or inference of a bilingual sentence similarity model,
// and reports the resolved configuration.
//
// Run "simalign -h" for the options.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/simalign/pkg/config"
)

func main() {
	defer klog.Flush()
	program := filepath.Base(os.Args[0])
	args := os.Args[1:]

	// klog flags are kept apart from simalign's own options: "-debug" raises the verbosity.
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	if debugRequested(args) {
		must.M(klogFlags.Set("v", "2"))
	}

	cfg, err := config.New(args)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			fmt.Fprint(os.Stderr, config.Usage(program))
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if isUsageError(err) {
			fmt.Fprint(os.Stderr, config.Usage(program))
		}
		os.Exit(1)
	}
	defer func() { must.M(cfg.Close()) }()

	if !cfg.Quiet {
		fmt.Fprintln(os.Stderr, Summary(cfg))
	}
	if klog.V(2).Enabled() {
		ctx := cfg.Context()
		ctx.EnumerateParams(func(scope, key string, value any) {
			klog.Infof("hyperparameter %s/%s: (%T) %v", scope, key, value, value)
		})
	}
	if cfg.Learning {
		if err := cfg.WriteEpochConfig(); err != nil {
			klog.Fatalf("Failed with error: %+v", err)
		}
	}
}

// debugRequested parses args the same way config.New does, so "-debug=true" or "--debug" are also
// recognized before any configuration work (and its logging) starts. Parsing errors are left for config.New.
func debugRequested(args []string) bool {
	s := config.NewSettings()
	_ = s.Parse(args)
	return s.Debug
}

func isUsageError(err error) bool {
	for _, target := range []error{config.ErrUnparsed, config.ErrMissingModelDir, config.ErrNoMode, config.ErrBothModes} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
