// Package checks implements the meta-property predicates the
// Explorer evaluates after each invocation (spec §4.10, §8). Each
// predicate takes the ordered invocation results for one behaviour's
// sequence and reports the first violation, if any, as an error; a
// violation is precisely a counterexample the shrinker then tries to
// minimize.
package checks

import (
	"fmt"

	"github.com/apiweaver/weaver/invoke"
)

// Violation names the behaviour-specific property that failed.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string { return v.Reason }

// CheckResponse is the response-check/fuzz property: the target must
// never answer with a transport failure or a 5xx status for any call
// in the sequence, regardless of what was sent.
func CheckResponse(results []invoke.StepResult) error {
	for _, r := range results {
		if r.Call == nil {
			continue
		}
		if !r.Result.Success {
			return &Violation{Reason: fmt.Sprintf("%s: transport failure", r.Operation.Info.Name)}
		}
		if r.Result.StatusCode >= 500 {
			return &Violation{Reason: fmt.Sprintf("%s: server error %d", r.Operation.Info.Name, r.Result.StatusCode)}
		}
	}
	return nil
}

// CheckResponseEquality is the response-equality property: two
// back-to-back calls to the same operation with the same parameters
// must return the same payload.
func CheckResponseEquality(results []invoke.StepResult) error {
	return checkDuplicatePayloads(results, true)
}

// CheckResponseInequality is the response-inequality property: two
// back-to-back calls to the same operation with the same parameters
// must NOT return the same payload (e.g. an endpoint that mints a
// fresh identifier or timestamp on every call).
func CheckResponseInequality(results []invoke.StepResult) error {
	return checkDuplicatePayloads(results, false)
}

func checkDuplicatePayloads(results []invoke.StepResult, wantEqual bool) error {
	invoked := invokedOnly(results)
	if len(invoked) != 2 {
		return &Violation{Reason: fmt.Sprintf("expected exactly 2 invoked calls, got %d", len(invoked))}
	}
	equal := invoked[0].Result.Payload == invoked[1].Result.Payload
	if equal != wantEqual {
		if wantEqual {
			return &Violation{Reason: "duplicate calls returned different payloads"}
		}
		return &Violation{Reason: "duplicate calls returned the identical payload"}
	}
	return nil
}

// CheckStateMutation is the state-mutation property: a query (Q),
// then a mutating operation (P), then the same query again (Q) must
// observe a different response the second time — the mutation must
// be visible.
func CheckStateMutation(results []invoke.StepResult) error {
	invoked := invokedOnly(results)
	if len(invoked) < 2 {
		return &Violation{Reason: "state-mutation sequence produced fewer than 2 observable calls"}
	}
	first := invoked[0]
	last := invoked[len(invoked)-1]
	if first.Result.Payload == last.Result.Payload {
		return &Violation{Reason: fmt.Sprintf("%s: response unchanged after mutation", first.Operation.Info.Name)}
	}
	return nil
}

// CheckStateIdentityWithObservation is the state-identity property:
// every occurrence of the pinned query in a Q-A-Q-B-Q... sequence
// must observe the SAME response, meaning none of the interleaved
// operations had an observable side effect on it.
func CheckStateIdentityWithObservation(results []invoke.StepResult, queryName string) error {
	var queryResponses []string
	for _, r := range invokedOnly(results) {
		if r.Operation.Info.Name != queryName {
			continue
		}
		queryResponses = append(queryResponses, r.Result.Payload)
	}
	if len(queryResponses) < 2 {
		return &Violation{Reason: "state-identity sequence observed the query fewer than 2 times"}
	}
	for i := 1; i < len(queryResponses); i++ {
		if queryResponses[i] != queryResponses[0] {
			return &Violation{Reason: fmt.Sprintf("%s: observation %d diverged from the first", queryName, i)}
		}
	}
	return nil
}

func invokedOnly(results []invoke.StepResult) []invoke.StepResult {
	out := make([]invoke.StepResult, 0, len(results))
	for _, r := range results {
		if r.Call != nil {
			out = append(out, r)
		}
	}
	return out
}
