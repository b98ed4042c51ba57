// Package relate detects reference candidates between a target
// parameter and earlier parameters or responses in the same sequence
// (spec §4.3).
package relate

import (
	"strings"
	"unicode"

	"github.com/apiweaver/weaver/amos"
)

// Kind distinguishes a Parameter relation (resolvable before HTTP
// translation) from a Response relation (resolved at translation time
// against a previously received response body).
type Kind int

const (
	KindParameter Kind = iota
	KindResponse
)

// Info carries the addressing and strength of one relation candidate.
type Info struct {
	Operation string
	Name      string
	Schema    amos.Schema
	Strength  int
	OpIdx     int
	Idx       int
}

// Relation is a candidate reference source for a target parameter.
type Relation struct {
	Kind Kind
	Info Info
}

// Placed is one already-sequenced operation, addressed by its position
// in the sequence being built.
type Placed struct {
	OpIndex   int
	Operation amos.Operation
}

// Find returns reference candidates for target, drawn from the
// parameters and responses of every operation placed earlier in the
// sequence. Candidate order is deterministic for a given input.
func Find(placed []Placed, target amos.Parameter) []Relation {
	targetWords := wordBag(target.Name)

	var out []Relation
	for _, p := range placed {
		for idx, q := range p.Operation.Parameters {
			if !q.Schema.Equal(target.Schema) {
				continue
			}
			var strength int
			if q.Name == target.Name {
				strength = len(wordsOf(target.Name))
			} else {
				inter := intersectionSize(targetWords, wordBag(q.Name))
				if inter == 0 {
					continue
				}
				strength = inter
			}
			out = append(out, Relation{
				Kind: KindParameter,
				Info: Info{
					Operation: p.Operation.Info.Name,
					Name:      q.Name,
					Schema:    q.Schema,
					Strength:  strength,
					OpIdx:     p.OpIndex,
					Idx:       idx,
				},
			})
		}

		opWords := wordBag(p.Operation.Info.Name)
		inter := intersectionSize(targetWords, opWords)
		if inter == 0 {
			continue
		}
		for idx, r := range p.Operation.Responses {
			if !responseCompatible(r.Schema, target.Schema) {
				continue
			}
			out = append(out, Relation{
				Kind: KindResponse,
				Info: Info{
					Operation: p.Operation.Info.Name,
					Name:      r.Name,
					Schema:    r.Schema,
					Strength:  inter,
					OpIdx:     p.OpIndex,
					Idx:       idx,
				},
			})
		}
	}
	return out
}

// responseCompatible reports whether a response schema can stand in for
// a parameter schema. The only compatible case named by spec §4.3 is an
// ArrayOfString response feeding a String parameter: httpx always
// decodes a referenced response payload as []string, so any other
// schema pairing would manufacture a relation the translator can't
// actually service.
func responseCompatible(response, param amos.Schema) bool {
	return response.Kind == amos.KindArrayOfString && param.Kind == amos.KindString
}

// wordsOf splits a name on camel-case boundaries and underscores.
func wordsOf(name string) []string {
	var words []string
	var cur strings.Builder
	runes := []rune(name)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			cur.WriteRune(r)
		case unicode.IsUpper(r) && i > 0 && unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

// wordBag collects the words of a name as a set. A trailing "s" is
// dropped from each word, so plural and singular forms ("persons",
// "person") count as the same word.
func wordBag(name string) map[string]bool {
	bag := make(map[string]bool)
	for _, w := range wordsOf(name) {
		bag[strings.TrimSuffix(w, "s")] = true
	}
	return bag
}

func intersectionSize(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}
