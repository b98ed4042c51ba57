package main

import (
	"context"
	"fmt"
	"math/rand"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/config"
	"github.com/apiweaver/weaver/eventbus"
	"github.com/apiweaver/weaver/explore"
	"github.com/apiweaver/weaver/invoke"
	"github.com/apiweaver/weaver/metrics"
	"github.com/apiweaver/weaver/report"
	"github.com/apiweaver/weaver/synth"
	"github.com/apiweaver/weaver/weaverlog"
)

var (
	serveConfigPath string
	serveSchemaURL  string
	serveSchemaFile string
	serveHealthPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run all five behaviours continuously as a daemon",
	Long: `Serve explores a target for every behaviour concurrently in a loop,
saving a fresh report each time a counterexample is found, and exposes
/healthz, /readyz, and /metrics until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to a weaver.yaml configuration file")
	serveCmd.Flags().StringVar(&serveSchemaURL, "url", "", "URL of the OpenAPI document describing the target")
	serveCmd.Flags().StringVar(&serveSchemaFile, "file", "", "Path to a local OpenAPI document")
	serveCmd.Flags().IntVar(&serveHealthPort, "health-port", 9090, "Port for the /healthz, /readyz, /metrics server")
}

var allBehaviours = []synth.Behaviour{
	synth.ResponseCheck,
	synth.ResponseEquality,
	synth.ResponseInequality,
	synth.StateMutation,
	synth.StateIdentity,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath, cmd.Flags())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if serveSchemaURL != "" {
		cfg.Target.SchemaURL = serveSchemaURL
	}
	if serveSchemaFile != "" {
		cfg.Target.SchemaFile = serveSchemaFile
	}

	logger, err := weaverlog.New(weaverlog.Config{Style: weaverlog.Style(cfg.Logging.Style), Level: cfg.Logging.Level})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	doc, err := loadSchema(cfg.Target.SchemaURL, cfg.Target.SchemaFile)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	a := amos.FromOpenAPI3(doc)
	if len(a.Operations) == 0 {
		return fmt.Errorf("schema describes no operations")
	}

	reg := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(reg)

	var ready atomic.Bool
	healthSrv := metrics.Start(logger, serveHealthPort, reg, ready.Load)
	defer healthSrv.Shutdown(context.Background()) //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var limiter *rate.Limiter
	if cfg.Execution.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Execution.RateLimitPerSecond), 1)
	}
	client := newHTTPClient(cfg.Execution.Timeout)
	transport := newTransport(client, cfg.Target.BaseURL())

	ready.Store(true)

	g, gctx := errgroup.WithContext(ctx)
	for _, behaviour := range allBehaviours {
		behaviour := behaviour
		g.Go(func() error {
			return serveLoop(gctx, logger, a, behaviour, cfg, transport, limiter, collectors)
		})
	}
	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	logger.Info("serve shutting down")
	return nil
}

// serveLoop repeatedly explores for one behaviour until ctx is done,
// rotating through every eligible root operation in turn and saving a
// report whenever a counterexample is found (spec §9 supplemented
// with a long-running daemon mode the distilled spec leaves to the
// out-of-scope CLI; spec §4 "one Explorer per ... eligible operation").
func serveLoop(ctx context.Context, logger *zap.Logger, a *amos.AMOS, behaviour synth.Behaviour, cfg *config.Config, transport invoke.Transport, limiter *rate.Limiter, collectors *metrics.Collectors) error {
	eligible, drawFor, checkFn, err := wireBehaviour(a, behaviour, cfg)
	if err != nil {
		logger.Warn("behaviour unsupported by this schema, skipping", zap.String("behaviour", behaviour.Kebab()), zap.Error(err))
		return nil
	}

	for i := 0; ; i++ {
		if ctx.Err() != nil {
			return nil
		}

		opName := eligible[i%len(eligible)]
		bus := eventbus.New(64)
		go drainEvents(bus, logger)

		inv := invoke.New(transport, limiter, bus)
		exp := explore.New(a, behaviour, inv, checkFn, bus)

		start := time.Now()
		cex, err := exp.Run(ctx, rand.New(rand.NewSource(time.Now().UnixNano())), drawFor(opName), cfg.Execution.MaxTests)
		bus.Close()
		collectors.SequenceDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("exploration run failed", zap.String("behaviour", behaviour.Kebab()), zap.String("operation", opName), zap.Error(err))
			continue
		}

		if cex != nil {
			collectors.Violations.WithLabelValues(behaviour.Kebab()).Inc()
			collectors.ShrinkSteps.Observe(float64(cex.ShrinkSteps))
			r := report.Build(a, behaviour, cfg.Execution.MaxTests, []report.OperationOutcome{{RootOperation: opName, Counterexample: cex}})
			if err := r.Save(cfg.Output.Directory, cfg.Output.Format); err != nil {
				logger.Error("saving report", zap.String("behaviour", behaviour.Kebab()), zap.Error(err))
			}
			logger.Info("counterexample found", zap.String("behaviour", behaviour.Kebab()), zap.String("operation", opName), zap.Int("shrink_steps", cex.ShrinkSteps))
		}
	}
}
