// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/rvine/config"
	"github.com/katalvlaran/rvine/metrics"
	"github.com/katalvlaran/rvine/vinecop"
)

// env is the per-invocation runtime shared by the subcommands.
type env struct {
	log   *zap.Logger
	cfg   *config.File
	rec   *metrics.Recorder
	srv   *http.Server
	runID string
}

// newEnv reads the global flags: config file, logger, metrics endpoint.
func newEnv(cmd *cobra.Command) (*env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	addr, _ := cmd.Flags().GetString("metrics-addr")
	threads, _ := cmd.Flags().GetInt("threads")

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return nil, err
		}
	}
	if threads >= 0 {
		cfg.NumThreads = threads
	}

	build := zap.NewProduction
	if debug {
		build = zap.NewDevelopment
	}
	base, err := build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	e := &env{cfg: cfg, runID: uuid.NewString()}
	e.log = base.With(zap.String("run_id", e.runID), zap.String("command", cmd.Name()))

	reg := prometheus.NewRegistry()
	e.rec = metrics.New(reg)
	if addr != "" {
		e.serveMetrics(addr, reg)
	}

	return e, nil
}

func (e *env) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	e.srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := e.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Warn("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	e.log.Info("serving metrics", zap.String("addr", addr))
}

// controls returns the configured selection controls wired to the logger and recorder.
func (e *env) controls() (vinecop.Controls, error) {
	c, err := e.cfg.Controls()
	if err != nil {
		return c, err
	}
	c.Logger = e.log
	c.Observer = e.rec

	return c, nil
}

// close stops the metrics endpoint and flushes the logger.
func (e *env) close() {
	if e.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = e.srv.Shutdown(ctx)
	}
	_ = e.log.Sync()
}
