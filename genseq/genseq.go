// Package genseq composes AMOS operations into sequences with
// inter-operation value references (spec §4.5). It produces a Draw —
// an ordered list of (operation, parameter-values) slots plus the
// index of the sequence's query operation — ready for the Synthesizer.
package genseq

import (
	"math/rand"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/bucket"
	"github.com/apiweaver/weaver/genvalue"
	"github.com/apiweaver/weaver/relate"
)

// Slot is one operation placed in a sequence along with the drawn
// value for each of its parameters, in parameter order.
type Slot struct {
	Operation amos.Operation
	Values    []genvalue.ParameterValue
}

// Draw is one generator draw: a query position (spec §4.6 uses this to
// split the sequence for state-behaviour packaging) and the ordered
// slots of the sequence.
type Draw struct {
	QueryPosition int
	Slots         []Slot
}

// buildValues draws a value for every parameter of op and, for every
// value that comes up active, consults the relation finder against the
// operations already placed earlier in the sequence (spec §4.5).
func buildValues(rng *rand.Rand, placed []relate.Placed, op amos.Operation) []genvalue.ParameterValue {
	values := make([]genvalue.ParameterValue, len(op.Parameters))
	for i, p := range op.Parameters {
		v := genvalue.Draw(rng, p)
		if v.Active {
			candidates := relate.Find(placed, p)
			if len(candidates) > 0 {
				chosen := candidates[v.Seed%len(candidates)]
				idx := [2]int{chosen.Info.OpIdx, chosen.Info.Idx}
				v = genvalue.WrapReference(v, idx, chosen)
			}
		}
		values[i] = v
	}
	return values
}

// Static draws a single-operation sequence (spec §4.5 shape 1), used
// for response-check, response-equality, and response-inequality.
func Static(rng *rand.Rand, op amos.Operation) Draw {
	return Draw{
		QueryPosition: 0,
		Slots: []Slot{{
			Operation: op,
			Values:    buildValues(rng, nil, op),
		}},
	}
}

// Pinned draws a sequence that starts with the query operation and
// fills the remaining positions from pool (spec §4.5 shape 2), used
// for state-mutation and state-identity. The total length, query
// included, is uniform in [min,max]; an empty pool yields the query
// alone.
func Pinned(rng *rand.Rand, query amos.Operation, pool []amos.Operation, min, max int) Draw {
	if max < min {
		max = min
	}
	length := min
	if max > min {
		length = min + rng.Intn(max-min+1)
	}

	slots := []Slot{{Operation: query, Values: buildValues(rng, nil, query)}}
	placed := []relate.Placed{{OpIndex: 0, Operation: query}}

	for i := 1; i < length; i++ {
		if len(pool) == 0 {
			break
		}
		op := pool[rng.Intn(len(pool))]
		values := buildValues(rng, placed, op)
		slots = append(slots, Slot{Operation: op, Values: values})
		placed = append(placed, relate.Placed{OpIndex: i, Operation: op})
	}

	return Draw{QueryPosition: 0, Slots: slots}
}

// slotReq names the bucket kind and precedence range a bucket-shaped
// template slot must be drawn from.
type slotReq struct {
	kind         bucket.Kind
	precLo, precHi int
}

// templates implements the bucket templates of spec §4.5. Lengths
// outside [2,5] are not modeled; the bucket-shaped generator is
// reserved (not reached by default paths, spec §9 open question i).
var templates = map[int][]slotReq{
	2: {{bucket.Create, 1, 1}, {bucket.Delete, 2, 3}},
	3: {{bucket.Create, 1, 1}, {bucket.Create, 2, 2}, {bucket.Delete, 2, 4}},
	4: {{bucket.Create, 1, 1}, {bucket.Create, 2, 2}, {bucket.Update, 2, 3}, {bucket.Delete, 4, 4}},
	5: {{bucket.Create, 1, 1}, {bucket.Create, 2, 2}, {bucket.Create, 2, 3}, {bucket.Create, 3, 3}, {bucket.Delete, 4, 5}},
}

// updateFirstTemplate returns the "update-first" variant of a template:
// Update substitutes for Create in the interior slots (spec §4.5: "in
// slot 2 for length 3, and in slot 3..5 for longer sequences").
func updateFirstTemplate(length int) []slotReq {
	base := append([]slotReq(nil), templates[length]...)
	start := 1
	if length > 3 {
		start = 2
	}
	for i := start; i < len(base)-1; i++ {
		if base[i].kind == bucket.Create {
			base[i].kind = bucket.Update
		}
	}
	return base
}

// BucketShaped draws a sequence across the five precedence-bucket
// slots of spec §4.5. opsByBucket indexes available operations by
// bucket.Kind; length must be in [2,5]. A slot with no matching
// candidate is left empty and omitted from the resulting Draw.
func BucketShaped(rng *rand.Rand, opsByBucket map[bucket.Kind][]bucketOp, length int, updateFirst bool) Draw {
	tmpl := templates[length]
	if updateFirst {
		tmpl = updateFirstTemplate(length)
	}
	if tmpl == nil {
		return Draw{}
	}

	var slots []Slot
	var placed []relate.Placed
	for i, req := range tmpl {
		candidates := candidatesFor(opsByBucket[req.kind], req.precLo, req.precHi)
		if len(candidates) == 0 {
			continue
		}
		op := candidates[rng.Intn(len(candidates))]
		values := buildValues(rng, placed, op)
		slots = append(slots, Slot{Operation: op, Values: values})
		placed = append(placed, relate.Placed{OpIndex: len(placed), Operation: op})
		_ = i
	}

	return Draw{QueryPosition: 0, Slots: slots}
}

// bucketOp pairs an operation with its classified bucket so
// BucketShaped can filter by precedence.
type bucketOp struct {
	Bucket    bucket.Bucket
	Operation amos.Operation
}

func candidatesFor(ops []bucketOp, lo, hi int) []amos.Operation {
	var out []amos.Operation
	for _, bo := range ops {
		if bo.Bucket.Precedence >= lo && bo.Bucket.Precedence <= hi {
			out = append(out, bo.Operation)
		}
	}
	return out
}

// IndexByBucket groups resolved operations by CRUD kind for use with
// BucketShaped.
func IndexByBucket(ops []amos.Operation, buckets []bucket.Bucket) map[bucket.Kind][]bucketOp {
	byName := make(map[string]bucket.Bucket, len(buckets))
	for _, b := range buckets {
		byName[b.Name] = b
	}
	idx := make(map[bucket.Kind][]bucketOp)
	for _, op := range ops {
		b, ok := byName[op.Info.Name]
		if !ok {
			continue
		}
		idx[b.Kind] = append(idx[b.Kind], bucketOp{Bucket: b, Operation: op})
	}
	return idx
}
