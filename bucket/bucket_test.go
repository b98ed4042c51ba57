package bucket

import (
	"testing"

	"github.com/apiweaver/weaver/amos"
)

func op(method amos.Method, url string) amos.Operation {
	return amos.Operation{
		Info: amos.OperationInfo{Name: method.String() + " " + url},
		Meta: amos.OperationMeta{URL: url, Method: method},
	}
}

func TestClassifyGetCollection(t *testing.T) {
	b, ok := classifyOne(op(amos.GET, "/persons"))
	if !ok || b.Precedence != 0 || b.Kind != Read {
		t.Fatalf("unexpected bucket: %+v ok=%v", b, ok)
	}
}

func TestClassifyGetNestedEndingInPlaceholder(t *testing.T) {
	b, ok := classifyOne(op(amos.GET, "/persons/{id}"))
	if !ok || b.Precedence != 1 || b.Kind != Read {
		t.Fatalf("unexpected bucket: %+v ok=%v", b, ok)
	}
}

func TestClassifyGetNestedNotEndingInPlaceholder(t *testing.T) {
	b, ok := classifyOne(op(amos.GET, "/persons/{id}/pets"))
	if !ok || b.Precedence != 2 || b.Kind != Read {
		t.Fatalf("unexpected bucket: %+v ok=%v", b, ok)
	}
}

func TestClassifyDelete(t *testing.T) {
	b, ok := classifyOne(op(amos.DELETE, "/persons/{id}"))
	if !ok || b.Precedence != 3 || b.Kind != Delete {
		t.Fatalf("unexpected bucket: %+v ok=%v", b, ok)
	}
}

func TestClassifyPostCollection(t *testing.T) {
	b, ok := classifyOne(op(amos.POST, "/persons"))
	if !ok || b.Precedence != 0 || b.Kind != Create {
		t.Fatalf("unexpected bucket: %+v ok=%v", b, ok)
	}
}

func TestClassifyPostEndingInPlaceholderIsCreate(t *testing.T) {
	b, ok := classifyOne(op(amos.POST, "/persons/{id}"))
	if !ok || b.Precedence != 1 || b.Kind != Create {
		t.Fatalf("unexpected bucket: %+v ok=%v", b, ok)
	}
}

func TestClassifyPostNotEndingInPlaceholderIsUpdate(t *testing.T) {
	b, ok := classifyOne(op(amos.POST, "/persons/{id}/activate"))
	if !ok || b.Precedence != 2 || b.Kind != Update {
		t.Fatalf("unexpected bucket: %+v ok=%v", b, ok)
	}
}

func TestClassifyPutIsUpdate(t *testing.T) {
	b, ok := classifyOne(op(amos.PUT, "/persons/{id}"))
	if !ok || b.Precedence != 1 || b.Kind != Update {
		t.Fatalf("unexpected bucket: %+v ok=%v", b, ok)
	}
}

func TestClassifyUnsupportedMethodOmitted(t *testing.T) {
	_, ok := classifyOne(op(amos.MethodUnsupported, "/persons"))
	if ok {
		t.Fatal("expected unsupported method to be omitted")
	}
}

func TestClassifyIsTotalOverRecognizedMethods(t *testing.T) {
	ops := []amos.Operation{
		op(amos.GET, "/a"),
		op(amos.POST, "/a"),
		op(amos.PUT, "/a/{id}"),
		op(amos.DELETE, "/a/{id}"),
	}
	buckets := Classify(ops)
	if len(buckets) != len(ops) {
		t.Fatalf("expected one bucket per operation, got %d for %d ops", len(buckets), len(ops))
	}
}
