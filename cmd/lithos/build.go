package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/lithos/internal/build"
	"git.home.luguber.info/inful/lithos/internal/config"
	"git.home.luguber.info/inful/lithos/internal/metrics"
	"git.home.luguber.info/inful/lithos/internal/site"
)

// loadSite locates the site root from the working directory and loads
// its configuration.
func loadSite() (site.Paths, *config.Site, error) {
	root, err := site.FindRoot()
	if err != nil {
		return site.Paths{}, nil, err
	}
	paths := site.ResolvePaths(root)
	cfg, err := config.Load(root)
	if err != nil {
		return site.Paths{}, nil, fmt.Errorf("load configuration: %w", err)
	}
	return paths, cfg, nil
}

func runBuild(ctx context.Context, minify bool, metricsFile string) error {
	paths, cfg, err := loadSite()
	if err != nil {
		return err
	}

	opts := build.Options{Minify: minify}
	var registry *prometheus.Registry
	if metricsFile != "" {
		registry = prometheus.NewRegistry()
		opts.Recorder = metrics.NewPrometheusRecorder(registry)
	}

	orch, err := build.New(paths, cfg, opts)
	if err != nil {
		return err
	}
	runErr := orch.Run(ctx)

	// The outcome counters are worth keeping for failed builds too.
	if registry != nil {
		if err := prometheus.WriteToTextfile(metricsFile, registry); err != nil {
			return errors.Join(runErr, fmt.Errorf("write metrics file: %w", err))
		}
	}
	return runErr
}
