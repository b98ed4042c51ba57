// Package genvalue produces random, shrinkable ParameterValue drafts
// per AMOS schema (spec §4.4). The shrink tree threads through a Draw
// so synthesis and replay never lose the association between a drawn
// value and its shrink path (spec §9 "Generator vs. driver").
package genvalue

import "github.com/apiweaver/weaver/relate"

// ValueKind is the closed set of ParameterValue variants.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindString
	KindInt
	KindBool
	KindDouble
	KindIPV4
	KindArrayOfString
	KindFile
	KindReference
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInt:
		return "Int"
	case KindBool:
		return "Bool"
	case KindDouble:
		return "Double"
	case KindIPV4:
		return "IPV4"
	case KindArrayOfString:
		return "ArrayOfString"
	case KindFile:
		return "File"
	case KindReference:
		return "Reference"
	default:
		return "Empty"
	}
}

// ParameterValue is a concrete, generator-controlled value (spec §3).
// It is a flat tagged struct rather than an interface: the Reference
// variant's active/fallback/relation fields live alongside the
// primitive payload fields, never behind a dynamic dispatch.
type ParameterValue struct {
	Kind ValueKind

	Seed   int // in [1,10]
	Active bool

	Str    string
	Int    int64
	Bool   bool
	Double float64
	IPV4   [4]byte
	Strs   []string
	File   byte

	RefIdx      [2]int // [op_index, param_index]
	RefFallback *ParameterValue
	RefRelation relate.Relation
}

// Empty constructs the Empty variant: unsupported/undecided schemas
// generate this, and it propagates abort-on-invoke for required
// parameters (spec §3 invariant).
func Empty(seed int, active bool) ParameterValue {
	return ParameterValue{Kind: KindEmpty, Seed: seed, Active: active}
}

// IsEmpty reports whether v is the Empty variant.
func (v ParameterValue) IsEmpty() bool { return v.Kind == KindEmpty }

// WrapReference rewraps a drawn value as a Reference whose fallback is
// the original draw (spec §4.5: sequence generation wraps active
// parameter draws that have a relation candidate).
func WrapReference(base ParameterValue, idx [2]int, rel relate.Relation) ParameterValue {
	fallback := base
	return ParameterValue{
		Kind:        KindReference,
		Seed:        base.Seed,
		Active:      base.Active,
		RefIdx:      idx,
		RefFallback: &fallback,
		RefRelation: rel,
	}
}

// Resolve follows v down to its effective value: an inactive Reference
// behaves semantically as its fallback (spec §3 invariant, and
// invariant 4 in §8). An active Reference is returned as-is: a
// Response link can only be resolved against a live invocation
// result, and a Parameter link needs the values placed earlier in the
// sequence, which synth follows via RefIdx.
func Resolve(v ParameterValue) ParameterValue {
	for v.Kind == KindReference {
		if !v.Active {
			v = *v.RefFallback
			continue
		}
		if v.RefRelation.Kind == relate.KindResponse {
			return v
		}
		// Active Parameter relation: the chain terminates here: the
		// caller resolves idx against the concrete value placed
		// earlier in the sequence. genvalue itself does not carry
		// sequence state, so it returns v for the caller (synth) to
		// follow via RefIdx.
		return v
	}
	return v
}
