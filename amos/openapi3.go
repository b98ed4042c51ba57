package amos

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// FromOpenAPI3 builds a ParseResult from a kin-openapi document and
// folds it into an AMOS. This is the concrete binding for the external
// "AMOS ingestion" interface (spec §6); the fold itself (FromParseResult)
// has no dependency on kin-openapi so it stays testable against
// hand-built ParseResult fixtures.
func FromOpenAPI3(doc *openapi3.T) *AMOS {
	return FromParseResult(parseResultFromOpenAPI3(doc))
}

func parseResultFromOpenAPI3(doc *openapi3.T) ParseResult {
	pr := ParseResult{Definitions: make(map[string]ParseSchema)}
	if doc == nil {
		return pr
	}

	if doc.Components != nil {
		for name, ref := range doc.Components.Schemas {
			if ref == nil || ref.Value == nil {
				continue
			}
			pr.Definitions[name] = parseSchemaFromOA3(ref)
		}
	}

	if doc.Paths == nil {
		return pr
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		pr.Operations = append(pr.Operations, operationsFromPathItem(path, item)...)
	}
	return pr
}

func operationsFromPathItem(path string, item *openapi3.PathItem) []ParseOperation {
	var ops []ParseOperation
	add := func(method string, op *openapi3.Operation) {
		if op == nil {
			return
		}
		ops = append(ops, parseOperationFromOA3(path, method, op, item.Parameters))
	}
	add("GET", item.Get)
	add("POST", item.Post)
	add("PUT", item.Put)
	add("DELETE", item.Delete)
	return ops
}

func parseOperationFromOA3(path, method string, op *openapi3.Operation, pathParams openapi3.Parameters) ParseOperation {
	id := op.OperationID
	if id == "" {
		id = method + "_" + path
	}
	po := ParseOperation{URL: path, Method: method, ID: id}

	allParams := append(openapi3.Parameters{}, pathParams...)
	allParams = append(allParams, op.Parameters...)
	for _, pref := range allParams {
		if pref == nil || pref.Value == nil {
			continue
		}
		p := pref.Value
		po.Parameters = append(po.Parameters, ParseParameter{
			Name:     p.Name,
			In:       p.In,
			Required: p.Required,
			Schema:   parseSchemaFromOA3(p.Schema),
		})
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		for ct, media := range op.RequestBody.Value.Content {
			if media == nil || media.Schema == nil {
				continue
			}
			target := "body"
			if ct == "multipart/form-data" || ct == "application/x-www-form-urlencoded" {
				target = "formData"
			}
			schema := parseSchemaFromOA3(media.Schema)
			if schema.Type == "object" {
				for name, sub := range schema.Properties {
					po.Parameters = append(po.Parameters, ParseParameter{
						Name:     name,
						In:       target,
						Required: op.RequestBody.Value.Required,
						Schema:   sub,
					})
				}
			}
			break
		}
	}

	if op.Responses != nil {
		for status, rref := range op.Responses.Map() {
			if rref == nil || rref.Value == nil {
				continue
			}
			for _, media := range rref.Value.Content {
				if media == nil || media.Schema == nil {
					continue
				}
				po.Responses = append(po.Responses, ParseResponse{
					Name:   status,
					Schema: parseSchemaFromOA3(media.Schema),
				})
				break
			}
		}
	}

	return po
}

func parseSchemaFromOA3(ref *openapi3.SchemaRef) ParseSchema {
	if ref == nil {
		return ParseSchema{}
	}
	if ref.Ref != "" {
		return ParseSchema{Ref: ref.Ref}
	}
	s := ref.Value
	if s == nil {
		return ParseSchema{}
	}

	ps := ParseSchema{
		Format:      s.Format,
		Pattern:     s.Pattern,
		UniqueItems: s.UniqueItems,
	}
	switch {
	case s.Type != nil && s.Type.Is("string"):
		ps.Type = "string"
	case s.Type != nil && s.Type.Is("integer"):
		ps.Type = "integer"
	case s.Type != nil && s.Type.Is("number"):
		ps.Type = "number"
	case s.Type != nil && s.Type.Is("boolean"):
		ps.Type = "boolean"
	case s.Type != nil && s.Type.Is("array"):
		ps.Type = "array"
		if s.Items != nil {
			items := parseSchemaFromOA3(s.Items)
			ps.Items = &items
		}
	case s.Type != nil && s.Type.Is("object"), len(s.Properties) > 0:
		ps.Type = "object"
	}
	if len(s.Properties) > 0 {
		ps.Properties = make(map[string]ParseSchema, len(s.Properties))
		for name, propRef := range s.Properties {
			ps.Properties[name] = parseSchemaFromOA3(propRef)
		}
	}
	return ps
}
