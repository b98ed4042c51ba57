// Package synth resolves reference chains drawn by genseq into
// concrete, invocation-ready GeneratedOperation lists (spec §4.6).
package synth

import (
	"fmt"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/genseq"
	"github.com/apiweaver/weaver/genvalue"
	"github.com/apiweaver/weaver/relate"
)

// Behaviour is the closed set of properties the engine hunts for.
type Behaviour int

const (
	ResponseCheck Behaviour = iota
	ResponseEquality
	ResponseInequality
	StateMutation
	StateIdentity
)

// Kebab renders the behaviour using the file-naming convention of
// spec §6.
func (b Behaviour) Kebab() string {
	switch b {
	case ResponseCheck:
		return "fuzz"
	case ResponseEquality:
		return "response-equality"
	case ResponseInequality:
		return "response-inequality"
	case StateMutation:
		return "state-mutation"
	case StateIdentity:
		return "state-identity"
	default:
		return "unknown"
	}
}

// GeneratedParameter is the serialized, post-synthesis form of one
// operation parameter.
type GeneratedParameter struct {
	Name    string
	Value   genvalue.ParameterValue
	RefPath *string
}

// GeneratedOperation is the serialized, post-synthesis form of one
// operation call (spec §3). OriginIndex names the genseq slot this
// call was synthesized from: behaviour packaging duplicates or
// interleaves slots (Q-P-Q, Q-A-Q-B-Q) without renumbering them, so
// the invoker needs this to resolve a Response relation's RefIdx
// against the right prior result even when that slot appears more
// than once in the final call order.
type GeneratedOperation struct {
	Name        string
	Parameters  []GeneratedParameter
	OriginIndex int
}

// BrokenChainError is an invariant violation (spec §7): a reference
// chain pointed outside the sequence, or terminated in Empty.
type BrokenChainError struct {
	Reason string
}

func (e *BrokenChainError) Error() string { return "broken reference chain: " + e.Reason }

// resolveChain follows an active Parameter-relation Reference back to
// its terminal value. It never loops: references only ever point to an
// earlier slot index, so the walk strictly decreases. A Response
// relation is left wrapped for httpx to resolve against a live
// invocation result.
func resolveChain(slots []genseq.Slot, v genvalue.ParameterValue) (genvalue.ParameterValue, error) {
	for v.Kind == genvalue.KindReference {
		if !v.Active {
			v = *v.RefFallback
			continue
		}
		if v.RefRelation.Kind == relate.KindResponse {
			return v, nil
		}
		opIdx, paramIdx := v.RefIdx[0], v.RefIdx[1]
		if opIdx < 0 || opIdx >= len(slots) || paramIdx < 0 || paramIdx >= len(slots[opIdx].Values) {
			return genvalue.ParameterValue{}, &BrokenChainError{Reason: fmt.Sprintf("index %v out of range", v.RefIdx)}
		}
		v = slots[opIdx].Values[paramIdx]
	}
	if v.IsEmpty() {
		return v, &BrokenChainError{Reason: "chain terminated in Empty"}
	}
	return v, nil
}

// shouldDrop implements the refined drop predicate from spec §9 design
// note ii: a non-required parameter with seed>5 is dropped to produce
// sparse, realistic calls, UNLESS it is structural (Path) or a File
// field whose absence would make the call malformed regardless of the
// transport's tolerance for missing form fields.
func shouldDrop(p amos.Parameter, v genvalue.ParameterValue) bool {
	if p.Required || v.Seed <= 5 {
		return false
	}
	if p.Meta.Target == amos.TargetPath {
		return false
	}
	if p.Schema.Kind == amos.KindFile {
		return false
	}
	return true
}

func synthesizeParameter(slots []genseq.Slot, p amos.Parameter, v genvalue.ParameterValue) (*GeneratedParameter, error) {
	if shouldDrop(p, v) {
		return nil, nil
	}
	resolved, err := resolveChain(slots, v)
	if err != nil {
		return nil, err
	}
	gp := &GeneratedParameter{Name: p.Name, Value: resolved}
	if resolved.Kind == genvalue.KindReference {
		path := fmt.Sprintf("%s.%s", resolved.RefRelation.Info.Operation, resolved.RefRelation.Info.Name)
		gp.RefPath = &path
	}
	return gp, nil
}

func synthesizeOperation(slots []genseq.Slot, idx int) (GeneratedOperation, error) {
	slot := slots[idx]
	out := GeneratedOperation{Name: slot.Operation.Info.Name, OriginIndex: idx}
	for i, p := range slot.Operation.Parameters {
		gp, err := synthesizeParameter(slots, p, slot.Values[i])
		if err != nil {
			return GeneratedOperation{}, err
		}
		if gp == nil {
			continue
		}
		out.Parameters = append(out.Parameters, *gp)
	}
	return out, nil
}

// Synthesize turns a genseq.Draw into a concrete, invocation-ready
// operation list, packaged per behaviour (spec §4.6).
func Synthesize(draw genseq.Draw, behaviour Behaviour) ([]GeneratedOperation, error) {
	base := make([]GeneratedOperation, len(draw.Slots))
	for i := range draw.Slots {
		op, err := synthesizeOperation(draw.Slots, i)
		if err != nil {
			return nil, err
		}
		base[i] = op
	}

	switch behaviour {
	case ResponseCheck:
		return base, nil

	case ResponseEquality, ResponseInequality:
		if len(base) == 0 {
			return nil, &BrokenChainError{Reason: "empty draw for single-operation behaviour"}
		}
		return []GeneratedOperation{base[0], base[0]}, nil

	case StateMutation:
		if draw.QueryPosition < 0 || draw.QueryPosition >= len(base) {
			return nil, &BrokenChainError{Reason: "query position out of range"}
		}
		query := base[draw.QueryPosition]
		out := append([]GeneratedOperation{}, base...)
		out = append(out, query)
		return out, nil

	case StateIdentity:
		q := draw.QueryPosition
		if q < 0 || q >= len(base) {
			return nil, &BrokenChainError{Reason: "query position out of range"}
		}
		query := base[q]
		out := append([]GeneratedOperation{}, base[:q+1]...)
		for i := q + 1; i < len(base); i++ {
			out = append(out, base[i], query)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown behaviour %d", behaviour)
	}
}
