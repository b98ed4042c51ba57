package invoke

import (
	"context"
	"testing"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/genvalue"
	"github.com/apiweaver/weaver/httpx"
	"github.com/apiweaver/weaver/relate"
	"github.com/apiweaver/weaver/synth"
)

func fixtureAMOS() *amos.AMOS {
	return &amos.AMOS{
		Name: "fixture",
		Operations: []amos.Operation{
			{
				Info:      amos.OperationInfo{Name: "getPersons"},
				Responses: []amos.Response{{Name: "200", Schema: amos.ArrayOfString()}},
				Meta:      amos.OperationMeta{URL: "/persons", Method: amos.GET},
			},
			{
				Info: amos.OperationInfo{Name: "deletePerson"},
				Parameters: []amos.Parameter{
					{Name: "personName", Schema: amos.String(), Required: true, Meta: amos.ParamMeta{Target: amos.TargetPath}},
				},
				Meta: amos.OperationMeta{URL: "/persons/{personName}", Method: amos.DELETE},
			},
		},
	}
}

func TestInvokeResolvesResponseReferenceAcrossSteps(t *testing.T) {
	sequence := []synth.GeneratedOperation{
		{Name: "getPersons", OriginIndex: 0},
		{
			Name:        "deletePerson",
			OriginIndex: 1,
			Parameters: []synth.GeneratedParameter{{
				Name: "personName",
				Value: genvalue.ParameterValue{
					Kind:   genvalue.KindReference,
					Active: true,
					RefIdx: [2]int{0, 0},
					RefRelation: relate.Relation{
						Kind: relate.KindResponse,
						Info: relate.Info{Operation: "getPersons", Name: "200"},
					},
				},
			}},
		},
	}

	var seenURLs []string
	transport := func(_ context.Context, call httpx.HTTPCall) Result {
		seenURLs = append(seenURLs, call.URL)
		if call.Method == amos.GET {
			return Result{Success: true, StatusCode: 200, Payload: `["alice"]`}
		}
		return Result{Success: true, StatusCode: 204}
	}

	inv := New(transport, nil, nil)
	results, err := inv.Invoke(context.Background(), fixtureAMOS(), sequence)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 step results, got %d", len(results))
	}
	if results[1].Call == nil || results[1].Call.URL != "/persons/alice" {
		t.Fatalf("expected second call resolved against first response, got %+v", results[1].Call)
	}
}

func TestInvokeSkipsAbortedSteps(t *testing.T) {
	sequence := []synth.GeneratedOperation{
		{
			Name:        "deletePerson",
			OriginIndex: 0,
			Parameters: []synth.GeneratedParameter{{
				Name:  "personName",
				Value: genvalue.ParameterValue{Kind: genvalue.KindEmpty},
			}},
		},
	}
	called := false
	transport := func(_ context.Context, _ httpx.HTTPCall) Result {
		called = true
		return Result{Success: true}
	}
	inv := New(transport, nil, nil)
	results, err := inv.Invoke(context.Background(), fixtureAMOS(), sequence)
	if err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("expected transport not to be called for an aborted step")
	}
	if len(results) != 1 || results[0].Call != nil {
		t.Fatalf("expected one result with no call, got %+v", results)
	}
}

func TestInvokeAbortsWholeSequenceOnTranslateAbort(t *testing.T) {
	sequence := []synth.GeneratedOperation{
		{
			Name:        "deletePerson",
			OriginIndex: 0,
			Parameters: []synth.GeneratedParameter{{
				Name:  "personName",
				Value: genvalue.ParameterValue{Kind: genvalue.KindEmpty},
			}},
		},
		{Name: "getPersons", OriginIndex: 1},
	}
	var calls int
	transport := func(_ context.Context, _ httpx.HTTPCall) Result {
		calls++
		return Result{Success: true, StatusCode: 200, Payload: "[]"}
	}
	inv := New(transport, nil, nil)
	results, err := inv.Invoke(context.Background(), fixtureAMOS(), sequence)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatalf("expected no steps invoked beyond the abort, transport called %d times", calls)
	}
	if len(results) != 1 || results[0].Call != nil {
		t.Fatalf("expected only the aborted step recorded, got %+v", results)
	}
}
