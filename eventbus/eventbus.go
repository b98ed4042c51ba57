// Package eventbus delivers exploration progress events from a
// single producer (the Explorer/Invoker) to a single consumer (a
// reporting sink, e.g. a progress bar or a structured log writer) in
// strict FIFO order (spec §4.11).
package eventbus

import (
	"sync"
	"time"
)

// Kind is the closed set of event variants the engine emits (spec
// §4.11's tagged union: TimeLineStart/Progress/End, Log, Control, //
// CurrentQueryOperation, InvocationSpanEnter/Exit, Invocation, Result).
type Kind int

const (
	ExplorationStart Kind = iota
	ExplorationEnd
	SequenceStart
	ControlStarted
	ControlFinished
	CurrentQueryOperation
	InvocationSpanEnter
	InvocationSpanExit
	Invocation
	Result
	ShrinkStep
	CounterexampleFound
	Log
)

func (k Kind) String() string {
	switch k {
	case ExplorationStart:
		return "ExplorationStart"
	case ExplorationEnd:
		return "ExplorationEnd"
	case SequenceStart:
		return "SequenceStart"
	case ControlStarted:
		return "ControlStarted"
	case ControlFinished:
		return "ControlFinished"
	case CurrentQueryOperation:
		return "CurrentQueryOperation"
	case InvocationSpanEnter:
		return "InvocationSpanEnter"
	case InvocationSpanExit:
		return "InvocationSpanExit"
	case Invocation:
		return "Invocation"
	case Result:
		return "Result"
	case ShrinkStep:
		return "ShrinkStep"
	case CounterexampleFound:
		return "CounterexampleFound"
	case Log:
		return "Log"
	default:
		return "Unknown"
	}
}

// Event is one point-in-time occurrence during exploration. Not every
// field is meaningful for every Kind: Level/Message belong to Log,
// StatusCode/Success/Duration to Invocation and Result.
type Event struct {
	Kind       Kind
	Operation  string
	Detail     string
	Level      string
	Message    string
	StatusCode int
	Success    bool
	Duration   time.Duration
	At         time.Time
}

// Bus is a bounded, ordered single-producer/single-consumer channel.
// Publish blocks once the buffer fills, applying back-pressure to the
// producer rather than dropping events: a consumer that falls behind
// slows exploration down instead of losing progress information.
type Bus struct {
	events chan Event
	once   sync.Once
}

// New creates a Bus with the given buffer size. A size of 0 makes
// Publish synchronous with Subscribe's receiver.
func New(size int) *Bus {
	return &Bus{events: make(chan Event, size)}
}

// Publish enqueues an event, blocking if the buffer is full. It is
// safe to call only from the single producer goroutine; callers that
// need fan-in from multiple goroutines must serialize Publish calls
// themselves to preserve FIFO ordering.
func (b *Bus) Publish(e Event) {
	b.events <- e
}

// Subscribe returns the receive-only channel of events. There is
// exactly one consumer by design: a second reader would race the
// first for each event rather than receiving a copy.
func (b *Bus) Subscribe() <-chan Event {
	return b.events
}

// Close signals the consumer that no further events will be
// published. Calling Close more than once is a no-op.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.events) })
}
