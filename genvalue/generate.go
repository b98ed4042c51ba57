package genvalue

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/apiweaver/weaver/amos"
)

const lowercase = "abcdefghijklmnopqrstuvwxyz"

// activeWeight returns the Bernoulli weight for the active field,
// biased by ownership (spec §4.4): Owned and Dependency parameters
// participate in reference resolution far more often than Unknown ones.
func activeWeight(o amos.Ownership) float64 {
	if o == amos.Unknown {
		return 0.5
	}
	return 0.95
}

// Draw produces a fresh random ParameterValue for a parameter's schema.
func Draw(rng *rand.Rand, p amos.Parameter) ParameterValue {
	seed := 1 + rng.Intn(10)
	active := rng.Float64() < activeWeight(p.Ownership)

	switch p.Schema.Kind {
	case amos.KindString:
		return stringValue(rng, seed, active, randLowercase(rng, rng.Intn(9)))
	case amos.KindStringNonEmpty:
		return stringValue(rng, seed, active, randLowercase(rng, 1+rng.Intn(8)))
	case amos.KindStringRegex:
		// Approximates the pattern with a lowercase string; the corpus
		// carries no regex-to-string generator, so this is a practical
		// stand-in rather than a true pattern match (see spec §4.4).
		return stringValue(rng, seed, active, randLowercase(rng, 1+rng.Intn(8)))
	case amos.KindStringDateTime:
		return stringValue(rng, seed, active, randDateTime(rng))
	case amos.KindInt:
		return intValue(seed, active, weightedInt(rng, -1000, 1000, math.MinInt64, -1000, 1000, math.MaxInt64))
	case amos.KindInt32:
		return intValue(seed, active, weightedInt(rng, -1000, 1000, math.MinInt32, -1000, 1000, math.MaxInt32))
	case amos.KindInt8:
		return intValue(seed, active, int64(rng.Intn(256)))
	case amos.KindNumber:
		return Empty(seed, active)
	case amos.KindDouble:
		return doubleValue(seed, active, weightedFloat(rng, -100, 100, -math.MaxFloat64, -100, 100, math.MaxFloat64))
	case amos.KindFloat:
		return doubleValue(seed, active, (rng.Float64()*2-1)*math.MaxFloat32)
	case amos.KindBool:
		return boolValue(seed, active, rng.Intn(2) == 1)
	case amos.KindIPV4:
		return ipv4Value(seed, active, [4]byte{
			byte(rng.Intn(256)), byte(rng.Intn(256)), byte(rng.Intn(256)), byte(rng.Intn(256)),
		})
	case amos.KindFile:
		return fileValue(seed, active, byte(rng.Intn(256)))
	case amos.KindArrayOfString:
		n := rng.Intn(10)
		strs := make([]string, n)
		for i := range strs {
			strs[i] = randLowercase(rng, rng.Intn(9))
		}
		return arrayValue(seed, active, strs)
	default:
		// Reference, Object, DateTime, ArrayOfRefItems,
		// ArrayOfUniqueRefItems, Unsupported all generate Empty (§4.4).
		return Empty(seed, active)
	}
}

func randLowercase(rng *rand.Rand, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(lowercase[rng.Intn(len(lowercase))])
	}
	return b.String()
}

func randDateTime(rng *rand.Rand) string {
	year := rng.Intn(10000)
	month := 1 + rng.Intn(12)
	day := 1 + rng.Intn(31)
	hour := rng.Intn(24)
	min := rng.Intn(60)
	sec := rng.Intn(60)
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ", year, month, day, hour, min, sec)
}

// weightedInt picks 8:1:1 across [lo,hi], [min,lo), (hi,max].
func weightedInt(rng *rand.Rand, lo, hi int64, min, lo2, hi2, max int64) int64 {
	switch roll := rng.Intn(10); {
	case roll < 8:
		return lo + rng.Int63n(hi-lo+1)
	case roll == 8:
		span := lo2 - min
		if span <= 0 {
			return min
		}
		return min + rng.Int63n(span)
	default:
		span := max - hi2
		if span <= 0 {
			return max
		}
		return hi2 + 1 + rng.Int63n(span)
	}
}

func weightedFloat(rng *rand.Rand, lo, hi, min, lo2, hi2, max float64) float64 {
	switch roll := rng.Intn(10); {
	case roll < 8:
		return lo + rng.Float64()*(hi-lo)
	case roll == 8:
		return min + rng.Float64()*(lo2-min)
	default:
		return hi2 + rng.Float64()*(max-hi2)
	}
}

func stringValue(rng *rand.Rand, seed int, active bool, s string) ParameterValue {
	return ParameterValue{Kind: KindString, Seed: seed, Active: active, Str: s}
}
func intValue(seed int, active bool, v int64) ParameterValue {
	return ParameterValue{Kind: KindInt, Seed: seed, Active: active, Int: v}
}
func boolValue(seed int, active bool, v bool) ParameterValue {
	return ParameterValue{Kind: KindBool, Seed: seed, Active: active, Bool: v}
}
func doubleValue(seed int, active bool, v float64) ParameterValue {
	return ParameterValue{Kind: KindDouble, Seed: seed, Active: active, Double: v}
}
func ipv4Value(seed int, active bool, v [4]byte) ParameterValue {
	return ParameterValue{Kind: KindIPV4, Seed: seed, Active: active, IPV4: v}
}
func fileValue(seed int, active bool, v byte) ParameterValue {
	return ParameterValue{Kind: KindFile, Seed: seed, Active: active, File: v}
}
func arrayValue(seed int, active bool, v []string) ParameterValue {
	return ParameterValue{Kind: KindArrayOfString, Seed: seed, Active: active, Strs: v}
}
