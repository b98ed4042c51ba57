package amos

import "fmt"

// ParseSchema is the spec-reader's schema shape (spec §6 "AMOS
// ingestion"): a minimal structural description that is translated,
// never interpreted, by the fold below.
type ParseSchema struct {
	Type       string
	Format     string
	Pattern    string
	Ref        string
	Items      *ParseSchema
	UniqueItems bool
	Properties map[string]ParseSchema
}

// ParseParameter is one parsed operation input.
type ParseParameter struct {
	Name     string
	In       string
	Required bool
	Schema   ParseSchema
}

// ParseResponse is one parsed operation output.
type ParseResponse struct {
	Name   string
	Schema ParseSchema
}

// ParseOperation is one parsed operation.
type ParseOperation struct {
	URL        string
	Method     string
	ID         string
	Parameters []ParseParameter
	Responses  []ParseResponse
}

// ParseResult is the complete output of the (external, out-of-scope)
// specification-document reader.
type ParseResult struct {
	Operations  []ParseOperation
	Definitions map[string]ParseSchema
	Warnings    []string
}

// FromParseResult performs the one-shot fold from a ParseResult into an
// AMOS (spec §6): duplicate parameters within one operation are dropped
// with a warning, unsupported schemas map to Unsupported, inline
// objects become Schema Object, and references become Schema
// Reference(path).
func FromParseResult(pr ParseResult) *AMOS {
	a := &AMOS{Name: "amos"}
	for msg := range uniqueStrings(pr.Warnings) {
		a.Warnings = append(a.Warnings, Warning{Message: msg})
	}

	for name, ps := range pr.Definitions {
		a.Definitions = append(a.Definitions, Definition{
			Name:   name,
			Schema: schemaFromParse(ps),
		})
	}

	for _, po := range pr.Operations {
		op := Operation{
			Info: OperationInfo{Name: po.ID, Key: po.Method + " " + po.URL},
			Meta: OperationMeta{URL: po.URL, Method: methodFromString(po.Method)},
		}
		seen := make(map[string]bool, len(po.Parameters))
		for _, pp := range po.Parameters {
			if seen[pp.Name] {
				a.Warnings = append(a.Warnings, Warning{
					Operation: po.ID,
					Message:   fmt.Sprintf("duplicate parameter %q dropped", pp.Name),
				})
				continue
			}
			seen[pp.Name] = true
			op.Parameters = append(op.Parameters, Parameter{
				Name:      pp.Name,
				Schema:    schemaFromParse(pp.Schema),
				Required:  pp.Required,
				Ownership: Unknown,
				Meta:      ParamMeta{Target: targetFromString(pp.In)},
			})
		}
		for _, pr := range po.Responses {
			op.Responses = append(op.Responses, Response{
				Name:   pr.Name,
				Schema: schemaFromParse(pr.Schema),
			})
		}
		a.Operations = append(a.Operations, op)
	}
	return a
}

func uniqueStrings(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[s] = struct{}{}
	}
	return out
}

func methodFromString(s string) Method {
	switch s {
	case "GET", "get":
		return GET
	case "POST", "post":
		return POST
	case "PUT", "put":
		return PUT
	case "DELETE", "delete":
		return DELETE
	default:
		return MethodUnsupported
	}
}

func targetFromString(in string) Target {
	switch in {
	case "path":
		return TargetPath
	case "query":
		return TargetQuery
	case "formData", "form":
		return TargetFormData
	case "body":
		return TargetBody
	case "header":
		return TargetHeader
	default:
		return TargetUnsupported
	}
}

func schemaFromParse(ps ParseSchema) Schema {
	if ps.Ref != "" {
		return Reference(ps.Ref)
	}
	switch ps.Type {
	case "string":
		switch {
		case ps.Format == "date-time":
			return StringDateTime()
		case ps.Format == "ipv4":
			return IPV4()
		case ps.Format == "binary":
			return File()
		case ps.Pattern != "":
			return StringRegex(ps.Pattern)
		default:
			return String()
		}
	case "integer":
		switch ps.Format {
		case "int32":
			return Int32()
		case "int8":
			return Int8()
		default:
			return Int()
		}
	case "number":
		switch ps.Format {
		case "float":
			return Float()
		case "double":
			return Double()
		default:
			return Number()
		}
	case "boolean":
		return Bool()
	case "array":
		if ps.Items == nil {
			return Unsupported()
		}
		if ps.Items.Ref != "" {
			if ps.UniqueItems {
				return ArrayOfUniqueRefItems(ps.Items.Ref)
			}
			return ArrayOfRefItems(ps.Items.Ref)
		}
		if ps.Items.Type == "string" {
			return ArrayOfString()
		}
		return Unsupported()
	case "object":
		props := make([]Property, 0, len(ps.Properties))
		for name, sub := range ps.Properties {
			props = append(props, Property{Name: name, Schema: schemaFromParse(sub)})
		}
		return Object(props...)
	default:
		if len(ps.Properties) > 0 {
			props := make([]Property, 0, len(ps.Properties))
			for name, sub := range ps.Properties {
				props = append(props, Property{Name: name, Schema: schemaFromParse(sub)})
			}
			return Object(props...)
		}
		return Unsupported()
	}
}
