package amos

import "testing"

func buildTestAMOS() *AMOS {
	return &AMOS{
		Name: "test",
		Definitions: []Definition{
			{Name: "Person", Schema: Object(
				Property{Name: "name", Schema: String()},
				Property{Name: "age", Schema: Int()},
			)},
		},
		Operations: []Operation{
			{
				Info: OperationInfo{Name: "createPerson"},
				Parameters: []Parameter{
					{Name: "body", Schema: Reference("#/definitions/Person"), Required: true, Meta: ParamMeta{Target: TargetBody}},
				},
				Meta: OperationMeta{URL: "/persons", Method: POST},
			},
		},
	}
}

func TestFindOperation(t *testing.T) {
	a := buildTestAMOS()
	op, ok := a.FindOperation("createPerson")
	if !ok {
		t.Fatal("expected to find createPerson")
	}
	if op.Meta.URL != "/persons" {
		t.Fatalf("unexpected URL: %s", op.Meta.URL)
	}
}

func TestResolveOperationFlattensReference(t *testing.T) {
	a := buildTestAMOS()
	op, ok := a.ResolveOperation("createPerson")
	if !ok {
		t.Fatal("expected to resolve createPerson")
	}
	for _, p := range op.Parameters {
		if p.Schema.Kind == KindReference {
			t.Fatalf("resolved operation still has a Reference parameter: %+v", p)
		}
	}
	if len(op.Parameters) != 2 {
		t.Fatalf("expected 2 flattened parameters, got %d: %+v", len(op.Parameters), op.Parameters)
	}
	names := map[string]bool{}
	for _, p := range op.Parameters {
		names[p.Name] = true
	}
	if !names["name"] || !names["age"] {
		t.Fatalf("expected name and age parameters, got %+v", op.Parameters)
	}
}

func TestResolveOperationUnresolvedRefIsUnchanged(t *testing.T) {
	a := &AMOS{
		Operations: []Operation{{
			Info: OperationInfo{Name: "op"},
			Parameters: []Parameter{
				{Name: "x", Schema: Reference("#/definitions/Missing")},
			},
		}},
	}
	op, ok := a.ResolveOperation("op")
	if !ok {
		t.Fatal("expected op to resolve")
	}
	if len(op.Parameters) != 1 || op.Parameters[0].Schema.Kind != KindReference {
		t.Fatalf("expected unresolved reference to remain, got %+v", op.Parameters)
	}
}

func TestDedupeParametersDropsDuplicates(t *testing.T) {
	a := &AMOS{
		Operations: []Operation{{
			Info: OperationInfo{Name: "op"},
			Parameters: []Parameter{
				{Name: "id", Schema: String()},
				{Name: "id", Schema: Int()},
			},
		}},
	}
	op, _ := a.ResolveOperation("op")
	if len(op.Parameters) != 1 {
		t.Fatalf("expected duplicate parameter dropped, got %+v", op.Parameters)
	}
}

func TestSchemaEqual(t *testing.T) {
	a := Object(Property{Name: "x", Schema: String()})
	b := Object(Property{Name: "x", Schema: String()})
	c := Object(Property{Name: "x", Schema: Int()})
	if !a.Equal(b) {
		t.Fatal("expected equal object schemas to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected differing object schemas to compare unequal")
	}
	if !StringRegex("[a-z]+").Equal(StringRegex("[a-z]+")) {
		t.Fatal("expected equal regex schemas to compare equal")
	}
	if StringRegex("[a-z]+").Equal(StringRegex("[0-9]+")) {
		t.Fatal("expected differing regex schemas to compare unequal")
	}
}
