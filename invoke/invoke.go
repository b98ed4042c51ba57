// Package invoke drives a synthesized sequence of operations against
// a live target over HTTP, one call at a time, carrying forward the
// results each later call's Response relations may need (spec §4.8).
package invoke

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/eventbus"
	"github.com/apiweaver/weaver/httpx"
	"github.com/apiweaver/weaver/synth"
)

// Transport performs one rendered HTTP call and reports whether the
// target answered at all. A transport-level failure (connection
// refused, timeout) is reported as Success=false with no payload
// rather than a Go error: the engine treats an unreachable target the
// same as any other "unsuccessful earlier call" for the purposes of
// reference resolution and the meta-property checks (spec §7).
type Transport func(ctx context.Context, call httpx.HTTPCall) Result

// Result is one HTTP call's outcome as the rest of the engine sees it.
type Result struct {
	Success    bool
	StatusCode int
	Payload    string
	Duration   time.Duration
}

// StepResult pairs a Result with the synthesized call it answers. The
// step at which the translator aborted the sequence (spec §4.7 abort
// rule) is recorded too, as the last entry, with no Call and no
// Result.
type StepResult struct {
	Operation amos.Operation
	Generated synth.GeneratedOperation
	Call      *httpx.HTTPCall
	Result    Result
}

// Invoker replays a synthesized sequence against a resolved AMOS,
// translating each step just before sending it so Response relations
// can be resolved against the freshest prior result (spec §9 "invoke
// afresh every shrink step").
type Invoker struct {
	transport Transport
	limiter   *rate.Limiter
	bus       *eventbus.Bus
	tracer    trace.Tracer
}

// New builds an Invoker. limiter may be nil to disable throttling;
// bus may be nil to run without event emission (e.g. in tests).
func New(transport Transport, limiter *rate.Limiter, bus *eventbus.Bus) *Invoker {
	return &Invoker{
		transport: transport,
		limiter:   limiter,
		bus:       bus,
		tracer:    otel.Tracer("github.com/apiweaver/weaver/invoke"),
	}
}

// Invoke translates and sends every step of sequence in order,
// resolving each Response relation against the latest result seen for
// its origin slot. A step the translator aborts (httpx.Translate
// returning a nil call) aborts the whole sequence: the steps invoked
// so far are returned alongside a nil error, and no further step is
// sent (spec §4.8 point 1, scenario S5).
func (inv *Invoker) Invoke(ctx context.Context, a *amos.AMOS, sequence []synth.GeneratedOperation) ([]StepResult, error) {
	out := make([]StepResult, 0, len(sequence))
	priorByOrigin := make(map[int]httpx.PriorResult)

	for _, gen := range sequence {
		op, ok := a.ResolveOperation(gen.Name)
		if !ok {
			op, _ = a.FindOperation(gen.Name)
		}

		call, err := httpx.Translate(op, gen, priorByOrigin)
		if err != nil {
			return out, err
		}
		if call == nil {
			out = append(out, StepResult{Operation: op, Generated: gen})
			inv.publishLog("warn", "sequence aborted: no call for "+op.Info.Name)
			return out, nil
		}

		if inv.limiter != nil {
			if err := inv.limiter.Wait(ctx); err != nil {
				return out, err
			}
		}

		res := inv.invokeOne(ctx, op, *call)
		out = append(out, StepResult{Operation: op, Generated: gen, Call: call, Result: res})
		priorByOrigin[gen.OriginIndex] = httpx.PriorResult{Success: res.Success, Payload: res.Payload}
		inv.publishInvocation(op.Info.Name, res)
	}

	return out, nil
}

func (inv *Invoker) invokeOne(ctx context.Context, op amos.Operation, call httpx.HTTPCall) Result {
	ctx, span := inv.tracer.Start(ctx, "invoke."+op.Info.Name,
		trace.WithAttributes(
			attribute.String("weaver.operation", op.Info.Name),
			attribute.String("weaver.method", op.Meta.Method.String()),
			attribute.String("weaver.url", call.URL),
		),
	)
	inv.publish(eventbus.InvocationSpanEnter, op.Info.Name)
	defer func() {
		inv.publish(eventbus.InvocationSpanExit, op.Info.Name)
		span.End()
	}()

	start := time.Now()
	res := inv.transport(ctx, call)
	res.Duration = time.Since(start)

	if !res.Success {
		span.SetStatus(codes.Error, "transport failure")
	} else if res.StatusCode >= 500 {
		span.SetStatus(codes.Error, "server error")
	}
	span.SetAttributes(attribute.Int("weaver.status_code", res.StatusCode))

	return res
}

func (inv *Invoker) publish(kind eventbus.Kind, operation string) {
	if inv.bus == nil {
		return
	}
	inv.bus.Publish(eventbus.Event{Kind: kind, Operation: operation, At: time.Now()})
}

// publishInvocation emits the per-call Invocation{result, duration}
// event spec §4.8 point 1 requires, distinct from the
// InvocationSpanEnter/Exit pair published around the transport send.
func (inv *Invoker) publishInvocation(operation string, res Result) {
	if inv.bus == nil {
		return
	}
	inv.bus.Publish(eventbus.Event{
		Kind:       eventbus.Invocation,
		Operation:  operation,
		StatusCode: res.StatusCode,
		Success:    res.Success,
		Duration:   res.Duration,
		At:         time.Now(),
	})
}

// publishLog emits a Log event for a non-fatal condition encountered
// during invocation (spec §4.11 Log{level,message}).
func (inv *Invoker) publishLog(level, message string) {
	if inv.bus == nil {
		return
	}
	inv.bus.Publish(eventbus.Event{Kind: eventbus.Log, Level: level, Message: message, At: time.Now()})
}
