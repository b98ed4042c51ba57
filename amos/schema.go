// Package amos implements the Abstract Model of Operations: a typed,
// structurally-comparable representation of an HTTP API's operations,
// parameters, responses, and shared definitions.
package amos

// Kind is the closed set of schema variants AMOS understands. Kind is a
// plain enum rather than an interface so schema dispatch never needs
// dynamic type assertions in hot paths (generation, relation-finding).
type Kind int

const (
	KindUnsupported Kind = iota
	KindString
	KindStringNonEmpty
	KindStringRegex
	KindStringDateTime
	KindInt
	KindInt32
	KindInt8
	KindNumber
	KindDouble
	KindFloat
	KindBool
	KindIPV4
	KindFile
	KindArrayOfString
	KindArrayOfRefItems
	KindArrayOfUniqueRefItems
	KindReference
	KindObject
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindStringNonEmpty:
		return "StringNonEmpty"
	case KindStringRegex:
		return "StringRegex"
	case KindStringDateTime:
		return "StringDateTime"
	case KindInt:
		return "Int"
	case KindInt32:
		return "Int32"
	case KindInt8:
		return "Int8"
	case KindNumber:
		return "Number"
	case KindDouble:
		return "Double"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindIPV4:
		return "IPV4"
	case KindFile:
		return "File"
	case KindArrayOfString:
		return "ArrayOfString"
	case KindArrayOfRefItems:
		return "ArrayOfRefItems"
	case KindArrayOfUniqueRefItems:
		return "ArrayOfUniqueRefItems"
	case KindReference:
		return "Reference"
	case KindObject:
		return "Object"
	case KindDateTime:
		return "DateTime"
	default:
		return "Unsupported"
	}
}

// Property is a named field of an Object schema.
type Property struct {
	Name   string
	Schema Schema
}

// Schema is a closed tagged variant describing a value's shape. Two
// schemas are equal only by structural equality (Equal), never by
// pointer identity.
type Schema struct {
	Kind Kind

	// Pattern holds the regex source for KindStringRegex.
	Pattern string

	// Ref holds the raw reference path (e.g. "#/definitions/Person")
	// for KindReference, or the item reference name for
	// KindArrayOfRefItems / KindArrayOfUniqueRefItems.
	Ref string

	// Properties holds the field list for KindObject.
	Properties []Property
}

func String() Schema             { return Schema{Kind: KindString} }
func StringNonEmpty() Schema     { return Schema{Kind: KindStringNonEmpty} }
func StringRegex(pat string) Schema {
	return Schema{Kind: KindStringRegex, Pattern: pat}
}
func StringDateTime() Schema { return Schema{Kind: KindStringDateTime} }
func Int() Schema            { return Schema{Kind: KindInt} }
func Int32() Schema          { return Schema{Kind: KindInt32} }
func Int8() Schema           { return Schema{Kind: KindInt8} }
func Number() Schema         { return Schema{Kind: KindNumber} }
func Double() Schema         { return Schema{Kind: KindDouble} }
func Float() Schema          { return Schema{Kind: KindFloat} }
func Bool() Schema           { return Schema{Kind: KindBool} }
func IPV4() Schema           { return Schema{Kind: KindIPV4} }
func File() Schema           { return Schema{Kind: KindFile} }
func ArrayOfString() Schema  { return Schema{Kind: KindArrayOfString} }
func ArrayOfRefItems(ref string) Schema {
	return Schema{Kind: KindArrayOfRefItems, Ref: ref}
}
func ArrayOfUniqueRefItems(ref string) Schema {
	return Schema{Kind: KindArrayOfUniqueRefItems, Ref: ref}
}
func Reference(ref string) Schema { return Schema{Kind: KindReference, Ref: ref} }
func Object(props ...Property) Schema {
	return Schema{Kind: KindObject, Properties: props}
}
func DateTime() Schema    { return Schema{Kind: KindDateTime} }
func Unsupported() Schema { return Schema{Kind: KindUnsupported} }

// Equal reports structural equality between two schemas.
func (s Schema) Equal(o Schema) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindStringRegex:
		return s.Pattern == o.Pattern
	case KindReference, KindArrayOfRefItems, KindArrayOfUniqueRefItems:
		return s.Ref == o.Ref
	case KindObject:
		if len(s.Properties) != len(o.Properties) {
			return false
		}
		for i := range s.Properties {
			if s.Properties[i].Name != o.Properties[i].Name {
				return false
			}
			if !s.Properties[i].Schema.Equal(o.Properties[i].Schema) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
