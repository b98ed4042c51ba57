package relate

import (
	"testing"

	"github.com/apiweaver/weaver/amos"
)

func TestFindParameterRelationSameName(t *testing.T) {
	placed := []Placed{{
		OpIndex: 0,
		Operation: amos.Operation{
			Info: amos.OperationInfo{Name: "createPerson"},
			Parameters: []amos.Parameter{
				{Name: "name", Schema: amos.String()},
			},
		},
	}}
	target := amos.Parameter{Name: "name", Schema: amos.String()}
	rels := Find(placed, target)
	if len(rels) != 1 {
		t.Fatalf("expected 1 relation, got %d: %+v", len(rels), rels)
	}
	if rels[0].Kind != KindParameter || rels[0].Info.Strength != 1 {
		t.Fatalf("unexpected relation: %+v", rels[0])
	}
}

func TestFindParameterRelationWordOverlap(t *testing.T) {
	placed := []Placed{{
		OpIndex: 0,
		Operation: amos.Operation{
			Info: amos.OperationInfo{Name: "createPerson"},
			Parameters: []amos.Parameter{
				{Name: "personName", Schema: amos.String()},
			},
		},
	}}
	target := amos.Parameter{Name: "fullName", Schema: amos.String()}
	rels := Find(placed, target)
	if len(rels) != 1 || rels[0].Info.Strength != 1 {
		t.Fatalf("expected single word-overlap relation, got %+v", rels)
	}
}

func TestFindSkipsDifferentSchema(t *testing.T) {
	placed := []Placed{{
		Operation: amos.Operation{
			Info:       amos.OperationInfo{Name: "createPerson"},
			Parameters: []amos.Parameter{{Name: "name", Schema: amos.Int()}},
		},
	}}
	target := amos.Parameter{Name: "name", Schema: amos.String()}
	if rels := Find(placed, target); len(rels) != 0 {
		t.Fatalf("expected no relations across differing schemas, got %+v", rels)
	}
}

func TestFindResponseRelation(t *testing.T) {
	placed := []Placed{{
		OpIndex: 0,
		Operation: amos.Operation{
			Info:      amos.OperationInfo{Name: "getPersons"},
			Responses: []amos.Response{{Name: "200", Schema: amos.ArrayOfString()}},
		},
	}}
	target := amos.Parameter{Name: "personName", Schema: amos.String()}
	rels := Find(placed, target)
	if len(rels) != 1 || rels[0].Kind != KindResponse {
		t.Fatalf("expected response relation, got %+v", rels)
	}
}

func TestFindResponseRelationRequiresNameOverlap(t *testing.T) {
	placed := []Placed{{
		Operation: amos.Operation{
			Info:      amos.OperationInfo{Name: "getWidgets"},
			Responses: []amos.Response{{Name: "200", Schema: amos.ArrayOfString()}},
		},
	}}
	target := amos.Parameter{Name: "personName", Schema: amos.String()}
	if rels := Find(placed, target); len(rels) != 0 {
		t.Fatalf("expected no relation without operation-name overlap, got %+v", rels)
	}
}

func TestFindIsDeterministicOrder(t *testing.T) {
	placed := []Placed{{
		Operation: amos.Operation{
			Info: amos.OperationInfo{Name: "createPerson"},
			Parameters: []amos.Parameter{
				{Name: "name", Schema: amos.String()},
				{Name: "personName", Schema: amos.String()},
			},
		},
	}}
	target := amos.Parameter{Name: "name", Schema: amos.String()}
	r1 := Find(placed, target)
	r2 := Find(placed, target)
	if len(r1) != len(r2) {
		t.Fatalf("non-deterministic relation count")
	}
	for i := range r1 {
		if r1[i] != r2[i] {
			t.Fatalf("non-deterministic relation order at %d", i)
		}
	}
}
