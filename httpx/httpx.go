// Package httpx translates a synthesized operation call into a
// concrete HTTP request shape (spec §4.7). It resolves Parameter
// references inline (synth already followed those chains) and
// Response references against the live results of earlier
// invocations in the same sequence.
package httpx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/genvalue"
	"github.com/apiweaver/weaver/jsonenc"
	"github.com/apiweaver/weaver/relate"
	"github.com/apiweaver/weaver/synth"
)

// PriorResult is the subset of an earlier invocation's outcome the
// translator needs to resolve a Response relation: whether the call
// succeeded, and its raw JSON payload.
type PriorResult struct {
	Success bool
	Payload string
}

// HTTPCall is the fully-rendered request ready for the Invoker
// (spec §3, §6).
type HTTPCall struct {
	URL      string
	Method   amos.Method
	Query    map[string]string
	FormData map[string]string
	FileData map[string][]byte
	Body     map[string]any
}

// abortError reports that an operation could not be translated at
// all: a Path parameter resolved to the empty string, or a required
// reference chain has nothing to fall back to (spec §4.7 "an
// unresolvable path segment aborts the call").
type abortError struct{ reason string }

func (e *abortError) Error() string { return "translation aborted: " + e.reason }

// Translate renders one synthesized operation against its resolved
// AMOS definition and the prior results of the sequence so far,
// keyed by genseq slot (synth.GeneratedOperation.OriginIndex).
//
// It returns (nil, nil) when the spec's abort rule fires (a Path
// parameter that renders empty or cannot be rendered, or a URL
// placeholder left unfilled): the caller aborts the rest of the
// sequence at this step instead of treating it as a hard error.
func Translate(op amos.Operation, gen synth.GeneratedOperation, priorByOrigin map[int]PriorResult) (*HTTPCall, error) {
	paramsByName := make(map[string]amos.Parameter, len(op.Parameters))
	for _, p := range op.Parameters {
		paramsByName[p.Name] = p
	}

	call := &HTTPCall{
		URL:    op.Meta.URL,
		Method: op.Meta.Method,
	}

	for _, gp := range gen.Parameters {
		meta, ok := paramsByName[gp.Name]
		if !ok {
			continue
		}

		if meta.Meta.Target == amos.TargetFormData && gp.Value.Kind == genvalue.KindFile {
			if call.FileData == nil {
				call.FileData = make(map[string][]byte)
			}
			call.FileData[gp.Name] = []byte{gp.Value.File}
			continue
		}

		rendered, ok, err := renderValue(gp.Value, priorByOrigin)
		if err != nil {
			return nil, err
		}
		if !ok {
			if meta.Meta.Target == amos.TargetPath {
				return nil, nil
			}
			continue
		}

		switch meta.Meta.Target {
		case amos.TargetPath:
			if rendered == "" {
				return nil, nil
			}
			encoded, err := runtime.StyleParamWithLocation("simple", false, gp.Name, runtime.ParamLocationPath, rendered)
			if err != nil {
				return nil, fmt.Errorf("styling path parameter %s: %w", gp.Name, err)
			}
			call.URL = strings.Replace(call.URL, "{"+gp.Name+"}", encoded, 1)

		case amos.TargetQuery:
			if call.Query == nil {
				call.Query = make(map[string]string)
			}
			// Stored unencoded: the transport URL-encodes query values
			// when it builds the request.
			call.Query[gp.Name] = rendered

		case amos.TargetFormData:
			if call.FormData == nil {
				call.FormData = make(map[string]string)
			}
			call.FormData[gp.Name] = rendered

		case amos.TargetBody:
			if call.Body == nil {
				call.Body = make(map[string]any)
			}
			call.Body[gp.Name] = bodyValue(gp.Value, rendered)

		default:
			// Header and unsupported targets carry no wire
			// representation the engine can act on; drop silently,
			// matching the ingestion-time warning for the same case.
		}
	}

	if strings.Contains(call.URL, "{") {
		return nil, nil
	}

	return call, nil
}

// bodyValue prefers the value's native Go type for JSON body fields
// so numbers and booleans don't round-trip as quoted strings.
func bodyValue(v genvalue.ParameterValue, rendered string) any {
	switch v.Kind {
	case genvalue.KindInt:
		return v.Int
	case genvalue.KindBool:
		return v.Bool
	case genvalue.KindDouble:
		return v.Double
	case genvalue.KindArrayOfString:
		return v.Strs
	default:
		return rendered
	}
}

// renderValue turns a resolved ParameterValue into its wire string
// form. The second return is false when the field has no string form:
// Empty, a File value (Translate sends form-data files as FileData
// before rendering), or a reference that could not be resolved and
// carries no fallback. A Path field with no string form aborts the
// call.
func renderValue(v genvalue.ParameterValue, priorByOrigin map[int]PriorResult) (string, bool, error) {
	if v.Kind == genvalue.KindReference {
		if v.RefRelation.Kind == relate.KindResponse {
			resolved, ok, err := resolveResponseRef(v, priorByOrigin)
			if err != nil {
				return "", false, err
			}
			if ok {
				return resolved, true, nil
			}
			if v.RefFallback == nil {
				return "", false, nil
			}
			return renderValue(*v.RefFallback, priorByOrigin)
		}
		if v.RefFallback != nil {
			return renderValue(*v.RefFallback, priorByOrigin)
		}
		return "", false, nil
	}

	switch v.Kind {
	case genvalue.KindEmpty:
		return "", false, nil
	case genvalue.KindString:
		return v.Str, true, nil
	case genvalue.KindInt:
		return strconv.FormatInt(v.Int, 10), true, nil
	case genvalue.KindBool:
		return strconv.FormatBool(v.Bool), true, nil
	case genvalue.KindDouble:
		return strconv.FormatFloat(v.Double, 'f', -1, 64), true, nil
	case genvalue.KindIPV4:
		return fmt.Sprintf("%d.%d.%d.%d", v.IPV4[0], v.IPV4[1], v.IPV4[2], v.IPV4[3]), true, nil
	case genvalue.KindArrayOfString:
		return strings.Join(v.Strs, ","), true, nil
	case genvalue.KindFile:
		return "", false, nil
	default:
		return "", false, nil
	}
}

// resolveResponseRef parses an earlier invocation's JSON payload and
// extracts the value a Response relation points at. The only shape
// spec §4.3 allows a Response relation to target is an
// ArrayOfString response feeding a String parameter, so the payload
// is expected to decode as a JSON array of strings; an empty array
// or an unsuccessful prior call falls through to the caller's
// fallback rather than aborting outright.
func resolveResponseRef(v genvalue.ParameterValue, priorByOrigin map[int]PriorResult) (string, bool, error) {
	prior, ok := priorByOrigin[v.RefIdx[0]]
	if !ok || !prior.Success {
		return "", false, nil
	}

	var items []string
	if err := jsonenc.UnmarshalString(prior.Payload, &items); err != nil {
		return "", false, fmt.Errorf("unexpected JSON shape in referenced response %s.%s: %w", v.RefRelation.Info.Operation, v.RefRelation.Info.Name, err)
	}
	if len(items) == 0 {
		return "", false, nil
	}
	return items[v.Seed%len(items)], true, nil
}
