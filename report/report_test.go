package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/explore"
	"github.com/apiweaver/weaver/httpx"
	"github.com/apiweaver/weaver/invoke"
	"github.com/apiweaver/weaver/synth"
)

func fixtureAMOS() *amos.AMOS {
	return &amos.AMOS{Name: "fixture"}
}

func TestBuildNoExampleFound(t *testing.T) {
	r := Build(fixtureAMOS(), synth.ResponseCheck, 50, []OperationOutcome{{RootOperation: "getPersons"}})
	if len(r.Sequences) != 1 || r.Sequences[0].OutcomeName != "no_example_found" {
		t.Fatalf("expected one no_example_found sequence, got %+v", r.Sequences)
	}
	if r.RunID == "" {
		t.Fatal("expected a run id")
	}
	if r.Witnessed() {
		t.Fatal("expected no witness")
	}
}

func TestBuildCounterexample(t *testing.T) {
	cex := &explore.Counterexample{
		ShrinkSteps: 3,
		Violation:   errors.New("server error 500"),
		Results: []invoke.StepResult{
			{Generated: synth.GeneratedOperation{Name: "getPersons"}, Call: &httpx.HTTPCall{URL: "/persons"}, Result: invoke.Result{StatusCode: 500, Payload: "oops"}},
		},
	}
	r := Build(fixtureAMOS(), synth.ResponseCheck, 10, []OperationOutcome{{RootOperation: "getPersons", Counterexample: cex}})
	if len(r.Sequences) != 1 || r.Sequences[0].OutcomeName != "response_check" {
		t.Fatalf("expected response_check, got %+v", r.Sequences)
	}
	if r.Sequences[0].ShrinkSteps != 3 {
		t.Fatalf("expected 3 shrink steps, got %d", r.Sequences[0].ShrinkSteps)
	}
	if ops := r.Sequences[0].Operations; len(ops) != 1 || ops[0].StatusCode != 500 {
		t.Fatalf("unexpected operations: %+v", ops)
	}
	if !r.Witnessed() {
		t.Fatal("expected a witness")
	}
}

func TestToJSONAndYAMLRoundTrip(t *testing.T) {
	r := Build(fixtureAMOS(), synth.ResponseCheck, 5, []OperationOutcome{{RootOperation: "getPersons"}})
	j, err := r.ToJSON(false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(j), "no_example_found") {
		t.Fatalf("expected outcome in JSON, got %s", j)
	}
	y, err := r.ToYAML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(y), "no_example_found") {
		t.Fatalf("expected outcome in YAML, got %s", y)
	}
}

func TestFileNameUsesKebabBehaviour(t *testing.T) {
	r := Build(fixtureAMOS(), synth.StateMutation, 1, nil)
	if got := r.FileName("/tmp/out"); got != "/tmp/out/state-mutation.json" {
		t.Fatalf("unexpected file name: %s", got)
	}
}
