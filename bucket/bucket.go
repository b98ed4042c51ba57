// Package bucket classifies AMOS operations into precedence-ranked CRUD
// buckets, the ordering the bucket-shaped generator and the pinned
// generator's candidate filtering both exploit (spec §4.2).
package bucket

import (
	"strings"

	"github.com/apiweaver/weaver/amos"
)

// Kind is the CRUD classification of an operation.
type Kind int

const (
	Create Kind = iota
	Read
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "Create"
	case Read:
		return "Read"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Bucket is the precedence-ranked classification of one operation.
type Bucket struct {
	Precedence int
	Kind       Kind
	Name       string
	URL        string
	Method     amos.Method
}

// placeholderCount returns the number of "{...}" path placeholders in a
// URL template.
func placeholderCount(url string) int {
	return strings.Count(url, "{")
}

// endsWithPlaceholder reports whether the URL template's final path
// segment is a "{...}" placeholder.
func endsWithPlaceholder(url string) bool {
	trimmed := strings.TrimRight(url, "/")
	return strings.HasSuffix(trimmed, "}")
}

// Classify assigns exactly one Bucket per operation with recognized
// HTTP metadata (spec invariant 2 in §8); operations with an
// unsupported method are omitted.
func Classify(ops []amos.Operation) []Bucket {
	buckets := make([]Bucket, 0, len(ops))
	for _, op := range ops {
		b, ok := classifyOne(op)
		if !ok {
			continue
		}
		buckets = append(buckets, b)
	}
	return buckets
}

func classifyOne(op amos.Operation) (Bucket, bool) {
	k := placeholderCount(op.Meta.URL)
	ends := endsWithPlaceholder(op.Meta.URL)

	var precedence int
	var kind Kind

	switch op.Meta.Method {
	case amos.GET:
		kind = Read
		switch {
		case k == 0:
			precedence = 0
		case ends:
			precedence = k
		default:
			precedence = k + 1
		}
	case amos.DELETE:
		kind = Delete
		precedence = k + 2
	case amos.POST:
		switch {
		case k == 0:
			kind = Create
			precedence = 0
		case ends:
			kind = Create
			precedence = k
		default:
			kind = Update
			precedence = k + 1
		}
	case amos.PUT:
		kind = Update
		switch {
		case ends:
			precedence = k
		default:
			precedence = k + 1
		}
	default:
		return Bucket{}, false
	}

	return Bucket{
		Precedence: precedence,
		Kind:       kind,
		Name:       op.Info.Name,
		URL:        op.Meta.URL,
		Method:     op.Meta.Method,
	}, true
}

// ByPrecedence indexes a bucket list by precedence rank.
func ByPrecedence(buckets []Bucket) map[int][]Bucket {
	idx := make(map[int][]Bucket)
	for _, b := range buckets {
		idx[b.Precedence] = append(idx[b.Precedence], b)
	}
	return idx
}
