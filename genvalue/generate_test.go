package genvalue

import (
	"math/rand"
	"testing"

	"github.com/apiweaver/weaver/amos"
)

func TestDrawUnsupportedKindsYieldEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	unsupported := []amos.Schema{
		amos.Reference("x"), amos.Object(), amos.Number(), amos.DateTime(),
		amos.ArrayOfRefItems("x"), amos.ArrayOfUniqueRefItems("x"), amos.Unsupported(),
	}
	for _, s := range unsupported {
		v := Draw(rng, amos.Parameter{Name: "p", Schema: s})
		if !v.IsEmpty() {
			t.Fatalf("expected Empty for schema %v, got %+v", s.Kind, v)
		}
	}
}

func TestDrawInt8Range(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		v := Draw(rng, amos.Parameter{Name: "p", Schema: amos.Int8()})
		if v.Int < 0 || v.Int > 255 {
			t.Fatalf("Int8 out of range: %d", v.Int)
		}
	}
}

func TestDrawStringNonEmptyIsNonEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		v := Draw(rng, amos.Parameter{Name: "p", Schema: amos.StringNonEmpty()})
		if len(v.Str) == 0 {
			t.Fatal("expected non-empty string")
		}
	}
}

func TestActiveWeightHigherForOwned(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	activeCount := 0
	const n = 2000
	for i := 0; i < n; i++ {
		v := Draw(rng, amos.Parameter{Name: "p", Schema: amos.String(), Ownership: amos.Owned})
		if v.Active {
			activeCount++
		}
	}
	if float64(activeCount)/n < 0.85 {
		t.Fatalf("expected ~0.95 active rate for Owned, got %f", float64(activeCount)/n)
	}
}

func TestActiveWeightLowerForUnknown(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	activeCount := 0
	const n = 2000
	for i := 0; i < n; i++ {
		v := Draw(rng, amos.Parameter{Name: "p", Schema: amos.String(), Ownership: amos.Unknown})
		if v.Active {
			activeCount++
		}
	}
	rate := float64(activeCount) / n
	if rate < 0.35 || rate > 0.65 {
		t.Fatalf("expected ~0.5 active rate for Unknown, got %f", rate)
	}
}
