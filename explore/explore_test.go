package explore

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/eventbus"
	"github.com/apiweaver/weaver/genseq"
	"github.com/apiweaver/weaver/genvalue"
	"github.com/apiweaver/weaver/httpx"
	"github.com/apiweaver/weaver/invoke"
)

func echoOp() amos.Operation {
	return amos.Operation{
		Info: amos.OperationInfo{Name: "echo"},
		Parameters: []amos.Parameter{
			{Name: "value", Schema: amos.Int(), Required: true, Meta: amos.ParamMeta{Target: amos.TargetQuery}},
		},
		Meta: amos.OperationMeta{URL: "/echo", Method: amos.GET},
	}
}

func fixtureAMOS() *amos.AMOS {
	return &amos.AMOS{Operations: []amos.Operation{echoOp()}}
}

// overThreshold fails CheckResponse-style whenever the "value" query
// parameter is present and non-zero, standing in for a target bug so the
// shrink loop has something deterministic to minimize.
func overThreshold(results []invoke.StepResult) error {
	for _, r := range results {
		if r.Call == nil {
			continue
		}
		if r.Call.Query["value"] != "" && r.Call.Query["value"] != "0" {
			return errors.New("value exceeded threshold")
		}
	}
	return nil
}

func TestRunReturnsNilWhenPropertyHolds(t *testing.T) {
	always := func(results []invoke.StepResult) error { return nil }
	transport := func(_ context.Context, _ httpx.HTTPCall) invoke.Result { return invoke.Result{Success: true, StatusCode: 200} }
	inv := invoke.New(transport, nil, nil)
	e := New(fixtureAMOS(), 0, inv, always, nil)

	drawFn := func(rng *rand.Rand) genseq.Draw {
		return genseq.Static(rng, echoOp())
	}
	cex, err := e.Run(context.Background(), rand.New(rand.NewSource(1)), drawFn, 5)
	if err != nil {
		t.Fatal(err)
	}
	if cex != nil {
		t.Fatalf("expected no counterexample, got %+v", cex)
	}
}

func TestRunShrinksToMinimalCounterexample(t *testing.T) {
	transport := func(_ context.Context, _ httpx.HTTPCall) invoke.Result { return invoke.Result{Success: true, StatusCode: 200} }
	inv := invoke.New(transport, nil, nil)
	e := New(fixtureAMOS(), 0, inv, overThreshold, nil)

	// Force a draw whose active value always violates so the loop
	// enters shrink on the first attempt.
	drawFn := func(rng *rand.Rand) genseq.Draw {
		return genseq.Draw{
			Slots: []genseq.Slot{{
				Operation: echoOp(),
				Values:    []genvalue.ParameterValue{{Kind: genvalue.KindInt, Active: true, Int: 9000, Seed: 8}},
			}},
		}
	}

	cex, err := e.Run(context.Background(), rand.New(rand.NewSource(1)), drawFn, 1)
	if err != nil {
		t.Fatal(err)
	}
	if cex == nil {
		t.Fatal("expected a counterexample")
	}
	// Deactivating the value (Active -> false) is the first
	// simplification: the parameter is Required, so shouldDrop keeps
	// it, and the deactivated Int still renders as 9000, so the
	// violation survives and the step is kept. At least one shrink
	// step must therefore have made progress.
	if cex.ShrinkSteps == 0 {
		t.Fatal("expected at least one shrink step to have made progress")
	}
}

func TestRunPropagatesContextCancellation(t *testing.T) {
	always := func(results []invoke.StepResult) error { return nil }
	transport := func(_ context.Context, _ httpx.HTTPCall) invoke.Result { return invoke.Result{Success: true} }
	inv := invoke.New(transport, nil, nil)
	e := New(fixtureAMOS(), 0, inv, always, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	drawFn := func(rng *rand.Rand) genseq.Draw { return genseq.Static(rng, echoOp()) }
	_, err := e.Run(ctx, rand.New(rand.NewSource(1)), drawFn, 5)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestEventBusReceivesLifecycleEvents(t *testing.T) {
	bus := eventbus.New(16)
	always := func(results []invoke.StepResult) error { return nil }
	transport := func(_ context.Context, _ httpx.HTTPCall) invoke.Result { return invoke.Result{Success: true} }
	inv := invoke.New(transport, nil, bus)
	e := New(fixtureAMOS(), 0, inv, always, bus)

	drawFn := func(rng *rand.Rand) genseq.Draw { return genseq.Static(rng, echoOp()) }
	go func() {
		_, _ = e.Run(context.Background(), rand.New(rand.NewSource(1)), drawFn, 1)
		bus.Close()
	}()

	var kinds []eventbus.Kind
	for ev := range bus.Subscribe() {
		kinds = append(kinds, ev.Kind)
	}
	if len(kinds) == 0 || kinds[0] != eventbus.ControlStarted {
		t.Fatalf("expected ControlStarted first, got %+v", kinds)
	}
	if len(kinds) < 2 || kinds[1] != eventbus.ExplorationStart {
		t.Fatalf("expected ExplorationStart second, got %+v", kinds)
	}
}
