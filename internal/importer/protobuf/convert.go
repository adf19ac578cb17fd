package protobuf

import (
	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/nestedpath"
)

// scalarTypes maps proto3 scalar keywords to the canonical vocabulary
// (spec.md §4.4.2's scalar mapping table).
var scalarTypes = map[string]core.DataType{
	"int32": core.DataTypeInt, "sint32": core.DataTypeInt, "sfixed32": core.DataTypeInt, "fixed32": core.DataTypeInt, "uint32": core.DataTypeInt,
	"int64": core.DataTypeLong, "sint64": core.DataTypeLong, "sfixed64": core.DataTypeLong, "fixed64": core.DataTypeLong, "uint64": core.DataTypeLong,
	"float":  core.DataTypeFloat,
	"double": core.DataTypeDouble,
	"bool":   core.DataTypeBoolean,
	"bytes":  core.DataTypeBytes,
	"string": core.DataTypeString,
}

// maxInlineDepth bounds recursive message inlining so a self-referential
// message definition (a message containing a field of its own type)
// terminates instead of looping forever; beyond this depth the field
// degrades to a string column with a diagnostic.
const maxInlineDepth = 8

// registry flattens every parsed message (top-level and nested) by short
// name so a field's type name can be resolved regardless of where its
// message definition lives in the source.
type registry struct {
	byName map[string]*messageDef
	enums  map[string]bool
}

func buildRegistry(top []*messageDef, enums map[string]bool) *registry {
	r := &registry{byName: map[string]*messageDef{}, enums: enums}
	var walk func(m *messageDef)
	walk = func(m *messageDef) {
		r.byName[m.name] = m
		for _, n := range m.nested {
			walk(n)
		}
	}
	for _, m := range top {
		walk(m)
	}
	return r
}

// convertMessages turns every top-level message into a canonical Table.
func convertMessages(top []*messageDef, enums map[string]bool) ([]*core.Table, []importer.ParseDiagnostic) {
	reg := buildRegistry(top, enums)
	var tables []*core.Table
	var diags []importer.ParseDiagnostic

	for _, m := range top {
		var roots []*nestedpath.Node
		for _, f := range m.fields {
			node, d := convertField(reg, m, f, 0)
			diags = append(diags, d...)
			roots = append(roots, node)
		}
		flat := nestedpath.Flatten(roots)

		cols := make([]*core.Column, 0, len(flat))
		for _, fc := range flat {
			cols = append(cols, &core.Column{
				Name:     fc.Name,
				DataType: fc.DataType,
				Nullable: fc.Nullable,
			})
		}

		t, err := core.NewTable(m.name, cols)
		if err != nil {
			diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Field: m.name, Message: err.Error()})
			continue
		}
		tables = append(tables, t)
	}
	return tables, diags
}

func convertField(reg *registry, owner *messageDef, f fieldDef, depth int) (*nestedpath.Node, []importer.ParseDiagnostic) {
	var diags []importer.ParseDiagnostic

	if f.isMap {
		// Neither spec.md nor the proto3 grammar gives map<K,V> a
		// canonical scalar home; it is round-tripped as an opaque object
		// rather than inlined, since V may itself be a message.
		return &nestedpath.Node{Name: f.name, DataType: core.DataTypeObject, Nullable: true}, diags
	}

	if scalar, ok := scalarTypes[f.typeName]; ok {
		nullable := f.repeated || f.optional
		dt := scalar
		if f.repeated {
			dt = core.ArrayType(scalar)
		}
		return &nestedpath.Node{Name: f.name, DataType: dt, Nullable: nullable}, diags
	}

	if reg.enums[f.typeName] || owner.enumType[f.typeName] {
		dt := core.DataTypeString
		if f.repeated {
			dt = core.ArrayType(core.DataTypeString)
		}
		return &nestedpath.Node{Name: f.name, DataType: dt, Nullable: true}, diags
	}

	nestedMsg, ok := owner.resolveNested(f.typeName)
	if !ok {
		nestedMsg, ok = reg.byName[shortName(f.typeName)]
	}
	if !ok {
		diags = append(diags, importer.ParseDiagnostic{
			Kind: importer.DiagnosticWarning, Field: f.name,
			Message: "unknown type " + f.typeName + "; mapped to string",
		})
		dt := core.DataTypeString
		if f.repeated {
			dt = core.ArrayType(core.DataTypeString)
		}
		return &nestedpath.Node{Name: f.name, DataType: dt, Nullable: true}, diags
	}

	if depth >= maxInlineDepth {
		diags = append(diags, importer.ParseDiagnostic{
			Kind: importer.DiagnosticWarning, Field: f.name,
			Message: "message type nested too deeply; truncated to string",
		})
		dt := core.DataTypeString
		if f.repeated {
			dt = core.ArrayType(core.DataTypeString)
		}
		return &nestedpath.Node{Name: f.name, DataType: dt, Nullable: true}, diags
	}

	var children []*nestedpath.Node
	for _, childField := range nestedMsg.fields {
		child, d := convertField(reg, nestedMsg, childField, depth+1)
		diags = append(diags, d...)
		children = append(children, child)
	}

	dt := core.DataTypeObject
	if f.repeated {
		dt = core.ArrayType(core.DataTypeObject)
	}
	return &nestedpath.Node{Name: f.name, DataType: dt, Nullable: true, Children: children}, diags
}

func shortName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
