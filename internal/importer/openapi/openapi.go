// Package openapi implements the OpenAPI components.schemas importer
// (spec.md §4.4.5). Field mapping reuses internal/importer/jsonschema's
// scalar rules and layers OpenAPI's own format-aware translations on top;
// unlike jsonschema/avro, nested objects and arrays-of-objects are not
// fanned out into dotted-path children here — per spec.md §9 this is an
// open question left as-is rather than guessed at, and each occurrence
// instead surfaces a diagnostic (DESIGN.md records the decision).
package openapi

import (
	"encoding/json"
	"sort"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/importer/jsonschema"
)

func init() {
	importer.Register(importer.FormatOpenAPI, importer.ImporterFunc(Import))
}

// document is the typed shape of the one part of an OpenAPI document this
// importer reads.
type document struct {
	Components struct {
		Schemas map[string]json.RawMessage `json:"schemas"`
	} `json:"components"`
}

// property is the typed shape of one components.schemas entry or nested
// property declaration.
type property struct {
	Type       string                     `json:"type"`
	Format     string                     `json:"format"`
	Properties map[string]json.RawMessage `json:"properties"`
	Required   []string                   `json:"required"`
	Items      json.RawMessage            `json:"items"`
	Title      string                     `json:"title"`
}

// Import parses an OpenAPI document and converts every components.schemas
// entry to a Table. Only JSON input is decoded: a YAML document fails with
// a *core.ParseError, and the CLI passes input bytes through unconverted.
func Import(data []byte, opts importer.Options) (*importer.ImportResult, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &core.ParseError{Format: string(importer.FormatOpenAPI), Detail: "top-level document", Err: err}
	}

	var tables []*core.Table
	var diags []importer.ParseDiagnostic

	for name, raw := range doc.Components.Schemas {
		t, d, err := convertSchema(name, raw)
		diags = append(diags, d...)
		if err != nil {
			diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Field: name, Message: err.Error()})
			continue
		}
		tables = append(tables, t)
	}

	if opts.UUIDOverride != nil && len(tables) > 1 {
		return nil, &core.MultipleTablesWithUUIDError{N: len(tables)}
	}
	importer.ApplyUUIDOverride(tables, opts.UUIDOverride)

	return &importer.ImportResult{Tables: tables, Diagnostics: diags}, nil
}

func convertSchema(name string, raw json.RawMessage) (*core.Table, []importer.ParseDiagnostic, error) {
	var prop property
	if err := json.Unmarshal(raw, &prop); err != nil {
		return nil, nil, err
	}
	if prop.Title != "" {
		name = prop.Title
	}

	cols, diags := convertProperties(prop.Properties, prop.Required)
	t, err := core.NewTable(name, cols)
	if err != nil {
		return nil, diags, err
	}
	return t, diags, nil
}

func convertProperties(props map[string]json.RawMessage, required []string) ([]*core.Column, []importer.ParseDiagnostic) {
	requiredSet := make(map[string]bool, len(required))
	for _, r := range required {
		requiredSet[r] = true
	}

	names := sortedKeys(props)

	var diags []importer.ParseDiagnostic
	cols := make([]*core.Column, 0, len(names))
	for _, name := range names {
		col, d := convertProperty(name, props[name], !requiredSet[name])
		diags = append(diags, d...)
		if col == nil {
			continue
		}
		cols = append(cols, col)
	}
	return cols, diags
}

// convertProperty maps one schema property, applying OpenAPI's own
// format-aware string translations before falling back to jsonschema's
// scalar mapping. Nested objects and arrays-of-objects refuse to fan out
// (spec.md §4.4.5) and report a diagnostic instead of a column.
func convertProperty(name string, raw json.RawMessage, nullable bool) (*core.Column, []importer.ParseDiagnostic) {
	var diags []importer.ParseDiagnostic
	var prop property
	if err := json.Unmarshal(raw, &prop); err != nil {
		diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Field: name, Message: err.Error()})
		return nil, diags
	}

	switch prop.Type {
	case "object":
		diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticWarning, Field: name, Message: "nested object properties are not fanned out by the OpenAPI importer"})
		return nil, diags
	case "array":
		var itemProp property
		if err := json.Unmarshal(prop.Items, &itemProp); err == nil && itemProp.Type == "object" {
			diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticWarning, Field: name, Message: "array-of-object properties are not fanned out by the OpenAPI importer"})
			return nil, diags
		}
		elem, d := mapType(itemProp.Type, itemProp.Format)
		diags = append(diags, d...)
		return &core.Column{Name: name, DataType: core.ArrayType(elem), Nullable: nullable}, diags
	default:
		dt, d := mapType(prop.Type, prop.Format)
		diags = append(diags, d...)
		return &core.Column{Name: name, DataType: dt, Nullable: nullable}, diags
	}
}

// mapType applies the OpenAPI-specific string/format translations
// (spec.md §4.4.5) on top of jsonschema.MapScalarType, warning whenever a
// format hint is present but dropped.
func mapType(typ, format string) (core.DataType, []importer.ParseDiagnostic) {
	if typ == "string" {
		switch format {
		case "date":
			return core.DataTypeDate, nil
		case "date-time":
			return core.DataTypeTimestamp, nil
		case "":
			return core.DataTypeText, nil
		default:
			return core.DataTypeText, []importer.ParseDiagnostic{{Kind: importer.DiagnosticWarning, Message: "string format " + format + " has no canonical home; mapped to text"}}
		}
	}
	return jsonschema.MapScalarType(typ), nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
