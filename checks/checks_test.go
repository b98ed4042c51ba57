package checks

import (
	"testing"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/httpx"
	"github.com/apiweaver/weaver/invoke"
)

func step(name string, status int, payload string, success bool) invoke.StepResult {
	return invoke.StepResult{
		Operation: amos.Operation{Info: amos.OperationInfo{Name: name}},
		Call:      &httpx.HTTPCall{},
		Result:    invoke.Result{Success: success, StatusCode: status, Payload: payload},
	}
}

func TestCheckResponseFailsOnServerError(t *testing.T) {
	results := []invoke.StepResult{step("op", 500, "", true)}
	if err := CheckResponse(results); err == nil {
		t.Fatal("expected violation for 5xx response")
	}
}

func TestCheckResponsePassesOnSuccess(t *testing.T) {
	results := []invoke.StepResult{step("op", 200, "ok", true)}
	if err := CheckResponse(results); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestCheckResponseEqualityDetectsDivergence(t *testing.T) {
	results := []invoke.StepResult{step("op", 200, "a", true), step("op", 200, "b", true)}
	if err := CheckResponseEquality(results); err == nil {
		t.Fatal("expected violation for divergent duplicate calls")
	}
}

func TestCheckResponseEqualityPassesOnMatch(t *testing.T) {
	results := []invoke.StepResult{step("op", 200, "same", true), step("op", 200, "same", true)}
	if err := CheckResponseEquality(results); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestCheckResponseInequalityDetectsMatch(t *testing.T) {
	results := []invoke.StepResult{step("op", 200, "same", true), step("op", 200, "same", true)}
	if err := CheckResponseInequality(results); err == nil {
		t.Fatal("expected violation for identical duplicate calls")
	}
}

func TestCheckStateMutationDetectsUnchangedResponse(t *testing.T) {
	results := []invoke.StepResult{
		step("getPersons", 200, "[]", true),
		step("createPerson", 201, "", true),
		step("getPersons", 200, "[]", true),
	}
	if err := CheckStateMutation(results); err == nil {
		t.Fatal("expected violation: response unchanged after mutation")
	}
}

func TestCheckStateMutationPassesOnChange(t *testing.T) {
	results := []invoke.StepResult{
		step("getPersons", 200, "[]", true),
		step("createPerson", 201, "", true),
		step("getPersons", 200, `["alice"]`, true),
	}
	if err := CheckStateMutation(results); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}

func TestCheckStateIdentityDetectsDivergence(t *testing.T) {
	results := []invoke.StepResult{
		step("getPersons", 200, "[]", true),
		step("createA", 201, "", true),
		step("getPersons", 200, `["a"]`, true),
		step("createB", 201, "", true),
		step("getPersons", 200, `["a","b"]`, true),
	}
	if err := CheckStateIdentityWithObservation(results, "getPersons"); err == nil {
		t.Fatal("expected violation for diverging observations")
	}
}

func TestCheckStateIdentityPassesWhenStable(t *testing.T) {
	results := []invoke.StepResult{
		step("getPersons", 200, "[]", true),
		step("noop", 200, "", true),
		step("getPersons", 200, "[]", true),
	}
	if err := CheckStateIdentityWithObservation(results, "getPersons"); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}
