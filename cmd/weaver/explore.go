package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/bucket"
	"github.com/apiweaver/weaver/checks"
	"github.com/apiweaver/weaver/config"
	"github.com/apiweaver/weaver/eventbus"
	"github.com/apiweaver/weaver/explore"
	"github.com/apiweaver/weaver/genseq"
	"github.com/apiweaver/weaver/invoke"
	"github.com/apiweaver/weaver/report"
	"github.com/apiweaver/weaver/synth"
	"github.com/apiweaver/weaver/weaverlog"
)

var (
	exploreConfigPath string
	exploreHost       string
	explorePort       int
	exploreSchemaURL  string
	exploreSchemaFile string
	exploreBehaviour  string
	exploreMin        int
	exploreMax        int
	exploreTests      int
	exploreOutputDir  string
	exploreFormat     string
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Explore a target API for a behavioral witness",
	Long: `Explore draws sequences of calls against the target described by
--url or --file, searches for a sequence witnessing the chosen
behaviour, shrinks any witness found, and writes a report.`,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVarP(&exploreConfigPath, "config", "c", "", "Path to a weaver.yaml configuration file")
	exploreCmd.Flags().StringVar(&exploreHost, "host", "", "Target host (overrides config)")
	exploreCmd.Flags().IntVar(&explorePort, "port", 0, "Target port (overrides config)")
	exploreCmd.Flags().StringVar(&exploreSchemaURL, "url", "", "URL of the OpenAPI document describing the target")
	exploreCmd.Flags().StringVar(&exploreSchemaFile, "file", "", "Path to a local OpenAPI document")
	exploreCmd.Flags().StringVar(&exploreBehaviour, "behaviour", "", "Comma-separated behaviours to hunt: fuzz, response-equality, response-inequality, state-mutation, state-identity")
	exploreCmd.Flags().IntVar(&exploreMin, "min", 0, "Minimum sequence length (pinned behaviours)")
	exploreCmd.Flags().IntVar(&exploreMax, "max", 0, "Maximum sequence length (pinned behaviours)")
	exploreCmd.Flags().IntVar(&exploreTests, "tests", 0, "Number of draws to attempt before giving up")
	exploreCmd.Flags().StringVar(&exploreOutputDir, "output", "", "Directory to write the report into")
	exploreCmd.Flags().StringVar(&exploreFormat, "format", "", "Report format: json or yaml")
}

func behaviourFromKebab(s string) (synth.Behaviour, bool) {
	switch s {
	case "fuzz", "response-check":
		return synth.ResponseCheck, true
	case "response-equality":
		return synth.ResponseEquality, true
	case "response-inequality":
		return synth.ResponseInequality, true
	case "state-mutation":
		return synth.StateMutation, true
	case "state-identity":
		return synth.StateIdentity, true
	default:
		return 0, false
	}
}

func loadSchema(urlSrc, fileSrc string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	switch {
	case fileSrc != "":
		return loader.LoadFromFile(fileSrc)
	case urlSrc != "":
		u, err := url.Parse(urlSrc)
		if err != nil {
			return nil, fmt.Errorf("parsing schema url: %w", err)
		}
		return loader.LoadFromURI(u)
	default:
		return nil, fmt.Errorf("one of --url or --file is required")
	}
}

func runExplore(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	cfg, err := config.Load(exploreConfigPath, flags)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if exploreHost != "" {
		cfg.Target.Host = exploreHost
	}
	if explorePort != 0 {
		cfg.Target.Port = explorePort
	}
	if exploreSchemaURL != "" {
		cfg.Target.SchemaURL = exploreSchemaURL
	}
	if exploreSchemaFile != "" {
		cfg.Target.SchemaFile = exploreSchemaFile
	}
	if exploreBehaviour != "" {
		cfg.Execution.Behaviour = exploreBehaviour
	}
	if exploreMin != 0 {
		cfg.Execution.MinSequenceLength = exploreMin
	}
	if exploreMax != 0 {
		cfg.Execution.MaxSequenceLength = exploreMax
	}
	if exploreTests != 0 {
		cfg.Execution.MaxTests = exploreTests
	}
	if exploreOutputDir != "" {
		cfg.Output.Directory = exploreOutputDir
	}
	if exploreFormat != "" {
		cfg.Output.Format = exploreFormat
	}

	logger, err := weaverlog.New(weaverlog.Config{Style: weaverlog.Style(cfg.Logging.Style), Level: cfg.Logging.Level})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	behaviours, err := parseBehaviours(cfg.Execution.Behaviour)
	if err != nil {
		return err
	}

	doc, err := loadSchema(cfg.Target.SchemaURL, cfg.Target.SchemaFile)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	a := amos.FromOpenAPI3(doc)
	for _, w := range a.Warnings {
		logger.Warn("ingestion warning", zap.String("operation", w.Operation), zap.String("message", w.Message))
	}
	if len(a.Operations) == 0 {
		return fmt.Errorf("schema describes no operations")
	}

	var limiter *rate.Limiter
	if cfg.Execution.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Execution.RateLimitPerSecond), 1)
	}

	client := newHTTPClient(cfg.Execution.Timeout)
	transport := newTransport(client, cfg.Target.BaseURL())

	var failed bool
	for _, behaviour := range behaviours {
		if err := exploreOne(logger, a, behaviour, cfg, transport, limiter); err != nil {
			logger.Error("exploration failed", zap.String("behaviour", behaviour.Kebab()), zap.Error(err))
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("one or more behaviours failed to explore")
	}
	return nil
}

// exploreOne runs one Explorer per eligible root operation for a
// single behaviour and saves one aggregated report, used both for a
// single `--behaviour` and as one iteration of a comma-separated
// multi-behaviour batch (SPEC_FULL §4 "Multi-behaviour batch run").
func exploreOne(logger *zap.Logger, a *amos.AMOS, behaviour synth.Behaviour, cfg *config.Config, transport invoke.Transport, limiter *rate.Limiter) error {
	eligible, drawFor, checkFn, err := wireBehaviour(a, behaviour, cfg)
	if err != nil {
		return err
	}

	outcomes := make([]report.OperationOutcome, 0, len(eligible))
	for _, opName := range eligible {
		bus := eventbus.New(64)
		go drainEvents(bus, logger)

		inv := invoke.New(transport, limiter, bus)
		exp := explore.New(a, behaviour, inv, checkFn, bus)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Execution.Timeout*time.Duration(cfg.Execution.MaxTests+1))
		cex, err := exp.Run(ctx, rand.New(rand.NewSource(time.Now().UnixNano())), drawFor(opName), cfg.Execution.MaxTests)
		cancel()
		bus.Close()
		if err != nil {
			return fmt.Errorf("exploring %s/%s: %w", behaviour.Kebab(), opName, err)
		}
		outcomes = append(outcomes, report.OperationOutcome{RootOperation: opName, Counterexample: cex})
	}

	r := report.Build(a, behaviour, cfg.Execution.MaxTests, outcomes)
	r.PrintTo(os.Stdout)
	if err := r.Save(cfg.Output.Directory, cfg.Output.Format); err != nil {
		return fmt.Errorf("saving report for %s: %w", behaviour.Kebab(), err)
	}
	return nil
}

// parseBehaviours splits a comma-separated --behaviour value into the
// closed set of Behaviour constants.
func parseBehaviours(spec string) ([]synth.Behaviour, error) {
	var out []synth.Behaviour
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		b, ok := behaviourFromKebab(name)
		if !ok {
			return nil, fmt.Errorf("unknown behaviour %q", name)
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no behaviour specified")
	}
	return out, nil
}

// wireBehaviour picks the eligible root operations, draw shape, and
// meta-property check for the chosen behaviour (spec §4.5, §4.10):
// every operation with a static single-operation draw for the
// response-* behaviours, every query (GET) operation with a pinned
// query+pool draw for the state-* behaviours. drawFor binds a
// DrawFunc to one eligible operation name, so the caller can run one
// Explorer per eligible operation (spec §4 "one Explorer per
// requested behaviour per eligible operation").
func wireBehaviour(a *amos.AMOS, behaviour synth.Behaviour, cfg *config.Config) (eligible []string, drawFor func(string) explore.DrawFunc, check explore.CheckFunc, err error) {
	buckets := bucket.Classify(a.Operations)
	kindByName := make(map[string]bucket.Kind, len(buckets))
	for _, b := range buckets {
		kindByName[b.Name] = b.Kind
	}
	opByName := make(map[string]amos.Operation, len(a.Operations))
	var queries, mutators []amos.Operation
	for _, op := range a.Operations {
		opByName[op.Info.Name] = op
		if kindByName[op.Info.Name] == bucket.Read {
			queries = append(queries, op)
		} else {
			mutators = append(mutators, op)
		}
	}

	switch behaviour {
	case synth.ResponseCheck, synth.ResponseEquality, synth.ResponseInequality:
		if len(a.Operations) == 0 {
			return nil, nil, nil, fmt.Errorf("no operations to draw from")
		}
		names := make([]string, len(a.Operations))
		for i, op := range a.Operations {
			names[i] = op.Info.Name
		}
		drawFor := func(opName string) explore.DrawFunc {
			op := opByName[opName]
			return func(rng *rand.Rand) genseq.Draw { return genseq.Static(rng, op) }
		}
		var check explore.CheckFunc
		switch behaviour {
		case synth.ResponseEquality:
			check = checks.CheckResponseEquality
		case synth.ResponseInequality:
			check = checks.CheckResponseInequality
		default:
			check = checks.CheckResponse
		}
		return names, drawFor, check, nil

	case synth.StateMutation, synth.StateIdentity:
		if len(queries) == 0 {
			return nil, nil, nil, fmt.Errorf("schema has no query (GET) operation to pin a state behaviour to")
		}
		names := make([]string, len(queries))
		for i, q := range queries {
			names[i] = q.Info.Name
		}
		min, max := cfg.Execution.MinSequenceLength, cfg.Execution.MaxSequenceLength
		drawFor := func(opName string) explore.DrawFunc {
			query := opByName[opName]
			return func(rng *rand.Rand) genseq.Draw { return genseq.Pinned(rng, query, mutators, min, max) }
		}
		if behaviour == synth.StateMutation {
			return names, drawFor, checks.CheckStateMutation, nil
		}
		check := func(results []invoke.StepResult) error {
			if len(results) == 0 {
				return nil
			}
			return checks.CheckStateIdentityWithObservation(results, results[0].Operation.Info.Name)
		}
		return names, drawFor, check, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported behaviour")
	}
}

func drainEvents(bus *eventbus.Bus, logger *zap.Logger) {
	for ev := range bus.Subscribe() {
		logger.Debug("exploration event",
			zap.String("kind", ev.Kind.String()),
			zap.String("operation", ev.Operation),
			zap.String("detail", ev.Detail),
		)
	}
}
