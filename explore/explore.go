// Package explore drives the core property-check-and-shrink loop
// (spec §4.9): draw a sequence, synthesize it for one behaviour,
// invoke it, and check the behaviour's meta-property. On the first
// violation, it shrinks the failing draw to a minimal counterexample
// before reporting it.
package explore

import (
	"context"
	"math/rand"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/eventbus"
	"github.com/apiweaver/weaver/genseq"
	"github.com/apiweaver/weaver/genvalue"
	"github.com/apiweaver/weaver/invoke"
	"github.com/apiweaver/weaver/synth"
)

// CheckFunc evaluates one behaviour's meta-property against the
// invocation results of a single sequence. A non-nil error is a
// counterexample.
type CheckFunc func([]invoke.StepResult) error

// DrawFunc produces one candidate sequence draw for a fresh *rand.Rand.
type DrawFunc func(*rand.Rand) genseq.Draw

// Counterexample is a minimized, reproducing failure.
type Counterexample struct {
	Draw        genseq.Draw
	Sequence    []synth.GeneratedOperation
	Results     []invoke.StepResult
	Violation   error
	ShrinkSteps int
}

// Explorer runs one behaviour's exploration loop against a resolved
// AMOS.
type Explorer struct {
	amos      *amos.AMOS
	behaviour synth.Behaviour
	invoker   *invoke.Invoker
	check     CheckFunc
	bus       *eventbus.Bus
}

// New builds an Explorer. bus may be nil.
func New(a *amos.AMOS, behaviour synth.Behaviour, invoker *invoke.Invoker, check CheckFunc, bus *eventbus.Bus) *Explorer {
	return &Explorer{amos: a, behaviour: behaviour, invoker: invoker, check: check, bus: bus}
}

// Run draws up to maxTests sequences via drawFn. It returns the first
// minimized counterexample found, or (nil, nil) if the property held
// for every draw.
func (e *Explorer) Run(ctx context.Context, rng *rand.Rand, drawFn DrawFunc, maxTests int) (*Counterexample, error) {
	e.publish(eventbus.ControlStarted, "")
	defer e.publish(eventbus.ControlFinished, "")
	e.publish(eventbus.ExplorationStart, "")
	defer e.publish(eventbus.ExplorationEnd, "")

	for i := 0; i < maxTests; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		draw := drawFn(rng)
		e.publish(eventbus.SequenceStart, "")
		if draw.QueryPosition < len(draw.Slots) {
			e.publish(eventbus.CurrentQueryOperation, draw.Slots[draw.QueryPosition].Operation.Info.Name)
		}

		sequence, results, violation, err := e.attempt(ctx, draw)
		if err != nil {
			return nil, err
		}
		e.publishResult(violation)
		if violation == nil {
			continue
		}

		e.publish(eventbus.CounterexampleFound, violation.Error())
		return e.shrink(ctx, draw, sequence, results, violation)
	}

	return nil, nil
}

// attempt synthesizes and invokes one draw, returning its violation
// (if any). A broken reference chain (spec §7) is reported as an
// error rather than silently skipped: it means the sequence itself is
// malformed, not that the target misbehaved.
func (e *Explorer) attempt(ctx context.Context, draw genseq.Draw) ([]synth.GeneratedOperation, []invoke.StepResult, error, error) {
	sequence, err := synth.Synthesize(draw, e.behaviour)
	if err != nil {
		return nil, nil, nil, err
	}
	results, err := e.invoker.Invoke(ctx, e.amos, sequence)
	if err != nil {
		return nil, nil, nil, err
	}
	return sequence, results, e.check(results), nil
}

// treeRef addresses one flattened value tree back into its slot.
type treeRef struct {
	slot, param int
	tree        *genvalue.Tree
}

// shrink repeatedly shrinks the current draw, re-synthesizing and
// re-invoking the whole sequence afresh after every step (spec §9
// "invoke afresh every shrink step"), keeping any shrink that still
// reproduces the violation and undoing any that doesn't. Two kinds of
// step are tried each pass: dropping the trailing pool-drawn slot
// (spec §4.4 "sequence shrinks drop trailing elements", invariant 8
// "|S'| <= |S|"), tried first since it is coarser-grained, and
// per-parameter value simplification. It stops once a full pass makes
// no further progress in either dimension.
func (e *Explorer) shrink(ctx context.Context, draw genseq.Draw, sequence []synth.GeneratedOperation, results []invoke.StepResult, violation error) (*Counterexample, error) {
	trees := flatten(draw)
	steps := 0

	for {
		progressed := false

		for {
			dropped, ok := dropTrailingSlot(draw)
			if !ok {
				break
			}
			candidateSeq, candidateResults, candidateViolation, err := e.attempt(ctx, dropped)
			if err != nil || candidateViolation == nil {
				break
			}
			draw = dropped
			sequence, results, violation = candidateSeq, candidateResults, candidateViolation
			trees = flatten(draw)
			steps++
			progressed = true
			e.publish(eventbus.ShrinkStep, violation.Error())
		}

		for _, ref := range trees {
			if !ref.tree.Simplify() {
				continue
			}
			applyTree(draw, ref)

			candidateSeq, candidateResults, candidateViolation, err := e.attempt(ctx, draw)
			if err != nil {
				// A synth/invoke error means this simplification broke
				// the sequence outright; undo it and keep looking.
				ref.tree.Complicate()
				applyTree(draw, ref)
				continue
			}
			if candidateViolation == nil {
				ref.tree.Complicate()
				applyTree(draw, ref)
				continue
			}

			sequence, results, violation = candidateSeq, candidateResults, candidateViolation
			steps++
			progressed = true
			e.publish(eventbus.ShrinkStep, violation.Error())
		}
		if !progressed {
			break
		}
	}

	return &Counterexample{
		Draw:        draw,
		Sequence:    sequence,
		Results:     results,
		Violation:   violation,
		ShrinkSteps: steps,
	}, nil
}

// dropTrailingSlot returns a copy of draw with its last slot removed,
// used to shrink sequence length. The slot at QueryPosition is never
// dropped, so a Static draw (a single slot, itself the query position)
// never shrinks below one operation, and a Pinned draw never drops its
// pinned query.
func dropTrailingSlot(draw genseq.Draw) (genseq.Draw, bool) {
	if len(draw.Slots) <= draw.QueryPosition+1 {
		return genseq.Draw{}, false
	}
	slots := make([]genseq.Slot, len(draw.Slots)-1)
	copy(slots, draw.Slots[:len(draw.Slots)-1])
	return genseq.Draw{QueryPosition: draw.QueryPosition, Slots: slots}, true
}

func flatten(draw genseq.Draw) []treeRef {
	var refs []treeRef
	for si, slot := range draw.Slots {
		for pi, v := range slot.Values {
			refs = append(refs, treeRef{slot: si, param: pi, tree: genvalue.NewTree(v)})
		}
	}
	return refs
}

func applyTree(draw genseq.Draw, ref treeRef) {
	draw.Slots[ref.slot].Values[ref.param] = ref.tree.Current
}

func (e *Explorer) publish(kind eventbus.Kind, detail string) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(eventbus.Event{Kind: kind, Detail: detail})
}

// publishResult emits the per-attempt Result event: whether the
// predicate held for this draw, distinct from CounterexampleFound
// which only fires on the draw that enters shrinking.
func (e *Explorer) publishResult(violation error) {
	if e.bus == nil {
		return
	}
	ev := eventbus.Event{Kind: eventbus.Result, Success: violation == nil}
	if violation != nil {
		ev.Detail = violation.Error()
	}
	e.bus.Publish(ev)
}
