package amos

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonschema"
)

// Validate sanity-checks the Object-shaped definitions captured during
// ingestion by round-tripping them through a real JSON Schema compiler.
// This is AMOS self-validation, not SUT response conformance checking
// (conformance verification is an explicit non-goal): a definition that
// fails to compile indicates a bug in the ingestion fold itself, and is
// recorded as a translation warning rather than treated as fatal.
func (a *AMOS) Validate() []Warning {
	compiler := jsonschema.NewCompiler()
	compiler.WithEncoderJSON(sonic.Marshal)
	compiler.WithDecoderJSON(sonic.Unmarshal)

	var warnings []Warning
	for _, def := range a.Definitions {
		if def.Schema.Kind != KindObject {
			continue
		}
		doc := jsonSchemaDoc(def.Schema)
		raw, err := sonic.Marshal(doc)
		if err != nil {
			warnings = append(warnings, Warning{
				Operation: def.Name,
				Message:   fmt.Sprintf("marshalling definition %q: %v", def.Name, err),
			})
			continue
		}
		if _, err := compiler.Compile(raw); err != nil {
			warnings = append(warnings, Warning{
				Operation: def.Name,
				Message:   fmt.Sprintf("definition %q is not a well-formed schema: %v", def.Name, err),
			})
		}
	}
	return warnings
}

// jsonSchemaDoc renders a Schema as a minimal JSON Schema document,
// sufficient to exercise a compiler but making no claim about SUT
// conformance.
func jsonSchemaDoc(s Schema) map[string]any {
	switch s.Kind {
	case KindObject:
		props := make(map[string]any, len(s.Properties))
		for _, p := range s.Properties {
			props[p.Name] = jsonSchemaDoc(p.Schema)
		}
		return map[string]any{"type": "object", "properties": props}
	case KindString, KindStringNonEmpty, KindStringRegex, KindStringDateTime, KindIPV4:
		return map[string]any{"type": "string"}
	case KindInt, KindInt32, KindInt8:
		return map[string]any{"type": "integer"}
	case KindNumber, KindDouble, KindFloat:
		return map[string]any{"type": "number"}
	case KindBool:
		return map[string]any{"type": "boolean"}
	case KindArrayOfString, KindArrayOfRefItems, KindArrayOfUniqueRefItems:
		return map[string]any{"type": "array"}
	default:
		return map[string]any{}
	}
}
