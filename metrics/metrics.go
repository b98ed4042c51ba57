// Copyright 2025 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides a health/metrics server for the serve
// daemon mode, plus the prometheus collectors the engine updates as
// it runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collectors are the prometheus series registered for the serve
// daemon. The serve loop updates Violations, ShrinkSteps, and
// SequenceDuration; Invocations is registered, but nothing in the
// engine increments it.
type Collectors struct {
	Invocations       *prometheus.CounterVec
	Violations        *prometheus.CounterVec
	ShrinkSteps       prometheus.Histogram
	SequenceDuration  prometheus.Histogram
}

// NewCollectors registers and returns the engine's metric collectors
// against reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weaver_invocations_total",
			Help: "Total HTTP calls the invoker sent, by operation and status class.",
		}, []string{"operation", "status_class"}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weaver_violations_total",
			Help: "Total meta-property violations found, by behaviour.",
		}, []string{"behaviour"}),
		ShrinkSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weaver_shrink_steps",
			Help:    "Number of simplification steps taken to minimize a counterexample.",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
		SequenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weaver_sequence_duration_seconds",
			Help:    "Wall-clock time of one exploration run (all draws plus shrinking) for one root operation.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(c.Invocations, c.Violations, c.ShrinkSteps, c.SequenceDuration)
	return c
}

// Server exposes /healthz, /readyz, and /metrics for the serve daemon
// mode (spec §4 supplemented feature: a long-running server that
// explores continuously and reports health to an orchestrator).
type Server struct {
	httpServer *http.Server
}

// Start starts a health/metrics server on port. It does not block.
func Start(logger *zap.Logger, port int, reg *prometheus.Registry, readyChecker func() bool) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if readyChecker != nil && readyChecker() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 40 * time.Second,
	}

	go func() {
		logger.Info("starting health/metrics server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", zap.Error(err))
		}
	}()

	return &Server{httpServer: srv}
}

// Shutdown gracefully stops the health/metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
