package avro

import (
	"encoding/json"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/nestedpath"
)

var scalarTypes = map[string]core.DataType{
	"string":  core.DataTypeString,
	"bytes":   core.DataTypeBytes,
	"int":     core.DataTypeInt,
	"long":    core.DataTypeLong,
	"float":   core.DataTypeFloat,
	"double":  core.DataTypeDouble,
	"boolean": core.DataTypeBoolean,
	"null":    core.DataTypeNull,
}

// convertField converts one AVRO field into a nestedpath.Node, handling
// the union-with-null nullability rule and nested record/array-of-record
// recursion (spec.md §4.4.3).
func convertField(f rawField) (*nestedpath.Node, []importer.ParseDiagnostic) {
	return convertType(f.Name, f.Type)
}

func convertType(name string, raw json.RawMessage) (*nestedpath.Node, []importer.ParseDiagnostic) {
	var diags []importer.ParseDiagnostic

	// Simple string type name ("string", "long", or a bare record/array
	// keyword without an object wrapper).
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if dt, ok := scalarTypes[asString]; ok {
			return &nestedpath.Node{Name: name, DataType: dt}, diags
		}
		// An unqualified reference to another named record; not resolved
		// here (no cross-schema registry at field-decode time), degrades
		// to string with a warning.
		diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticWarning, Field: name, Message: "unresolved named type reference " + asString + "; mapped to string"})
		return &nestedpath.Node{Name: name, DataType: core.DataTypeString}, diags
	}

	// Union: JSON array of type alternatives.
	var asUnion []json.RawMessage
	if err := json.Unmarshal(raw, &asUnion); err == nil {
		return convertUnion(name, asUnion)
	}

	// Complex type: object with its own "type" discriminator.
	var asObj struct {
		Type   string          `json:"type"`
		Items  json.RawMessage `json:"items"`
		Fields []rawField      `json:"fields"`
		Name   string          `json:"name"`
	}
	if err := json.Unmarshal(raw, &asObj); err == nil && asObj.Type != "" {
		switch asObj.Type {
		case "record":
			return convertRecordNode(name, asObj.Fields)
		case "array":
			return convertArrayNode(name, asObj.Items)
		case "map", "fixed", "enum":
			// map<V>/fixed/enum carry no canonical structural home; round
			// tripped as an opaque struct rather than guessed at further.
			return &nestedpath.Node{Name: name, DataType: core.DataTypeStruct}, diags
		default:
			if dt, ok := scalarTypes[asObj.Type]; ok {
				return &nestedpath.Node{Name: name, DataType: dt}, diags
			}
		}
	}

	diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticWarning, Field: name, Message: "unrecognized field type shape; mapped to struct"})
	return &nestedpath.Node{Name: name, DataType: core.DataTypeStruct}, diags
}

func convertUnion(name string, alts []json.RawMessage) (*nestedpath.Node, []importer.ParseDiagnostic) {
	nullable := false
	var nonNull []json.RawMessage
	for _, alt := range alts {
		var s string
		if err := json.Unmarshal(alt, &s); err == nil && s == "null" {
			nullable = true
			continue
		}
		nonNull = append(nonNull, alt)
	}

	if len(nonNull) == 0 {
		return &nestedpath.Node{Name: name, DataType: core.DataTypeNull, Nullable: true}, nil
	}

	// "richer unions take the first non-null branch and mark nullable"
	node, diags := convertType(name, nonNull[0])
	node.Nullable = nullable || len(nonNull) > 1
	return node, diags
}

func convertRecordNode(name string, fields []rawField) (*nestedpath.Node, []importer.ParseDiagnostic) {
	var diags []importer.ParseDiagnostic
	var children []*nestedpath.Node
	for _, f := range fields {
		child, d := convertField(f)
		diags = append(diags, d...)
		children = append(children, child)
	}
	return &nestedpath.Node{Name: name, DataType: core.DataTypeObject, Children: children}, diags
}

func convertArrayNode(name string, items json.RawMessage) (*nestedpath.Node, []importer.ParseDiagnostic) {
	var diags []importer.ParseDiagnostic

	var itemsStr string
	if err := json.Unmarshal(items, &itemsStr); err == nil {
		if dt, ok := scalarTypes[itemsStr]; ok {
			return &nestedpath.Node{Name: name, DataType: core.ArrayType(dt)}, diags
		}
		diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticWarning, Field: name, Message: "array item type " + itemsStr + " unresolved; mapped to array<string>"})
		return &nestedpath.Node{Name: name, DataType: core.ArrayType(core.DataTypeString)}, diags
	}

	var itemsObj struct {
		Type   string     `json:"type"`
		Fields []rawField `json:"fields"`
	}
	if err := json.Unmarshal(items, &itemsObj); err == nil && itemsObj.Type == "record" {
		var children []*nestedpath.Node
		for _, f := range itemsObj.Fields {
			child, d := convertField(f)
			diags = append(diags, d...)
			children = append(children, child)
		}
		return &nestedpath.Node{Name: name, DataType: core.ArrayType(core.DataTypeObject), Children: children}, diags
	}

	diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticWarning, Field: name, Message: "unrecognized array item shape; mapped to array<string>"})
	return &nestedpath.Node{Name: name, DataType: core.ArrayType(core.DataTypeString)}, diags
}
