// Package avro implements the AVRO record-schema importer (spec.md
// §4.4.3). It decodes JSON into typed intermediate structs before walking
// them, the same "typed struct, not map[string]any, wherever the shape is
// known ahead of time" discipline the teacher applies to its TOML schema
// format (internal/parser/toml's tomlTable/tomlColumn structs).
package avro

import (
	"encoding/json"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/nestedpath"
)

func init() {
	importer.Register(importer.FormatAVRO, importer.ImporterFunc(Import))
}

// rawSchema is the typed shape of one AVRO record schema; fields that can
// hold more than one JSON shape (type, items) stay json.RawMessage and are
// decoded on demand by decodeType.
type rawSchema struct {
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Namespace string          `json:"namespace"`
	Doc       string          `json:"doc"`
	Fields    []rawField      `json:"fields"`
	Items     json.RawMessage `json:"items"`
}

type rawField struct {
	Name    string          `json:"name"`
	Doc     string          `json:"doc"`
	Aliases []string        `json:"aliases"`
	Type    json.RawMessage `json:"type"`
}

// Import accepts a JSON document that is either one record schema or an
// array of record schemas.
func Import(data []byte, opts importer.Options) (*importer.ImportResult, error) {
	var schemas []rawSchema

	var asArray []rawSchema
	if err := json.Unmarshal(data, &asArray); err == nil {
		schemas = asArray
	} else {
		var single rawSchema
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, &core.ParseError{Format: string(importer.FormatAVRO), Detail: "not a record schema or array of record schemas", Err: err}
		}
		schemas = []rawSchema{single}
	}

	var tables []*core.Table
	var diags []importer.ParseDiagnostic

	for _, sch := range schemas {
		if sch.Name == "" {
			diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Message: "record schema missing required \"name\""})
			continue
		}

		var roots []*nestedpath.Node
		for _, f := range sch.Fields {
			node, d := convertField(f)
			diags = append(diags, d...)
			roots = append(roots, node)
		}
		flat := dropArrayOfRecordSelf(nestedpath.Flatten(roots))

		cols := make([]*core.Column, 0, len(flat))
		for _, fc := range flat {
			cols = append(cols, &core.Column{Name: fc.Name, DataType: fc.DataType, Nullable: fc.Nullable})
		}
		applyTopLevelMetadata(cols, sch.Fields)

		var tableOpts []core.TableOption
		if sch.Namespace != "" {
			tableOpts = append(tableOpts, core.WithSchemaName(sch.Namespace))
		}
		t, err := core.NewTable(sch.Name, cols, tableOpts...)
		if err != nil {
			diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Field: sch.Name, Message: err.Error()})
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

// dropArrayOfRecordSelf removes the flattened row for an array-of-record
// field itself, keeping only its dotted-path children (spec.md §4.4.3:
// "the array itself is not emitted as a separate column"). This importer
// never produces array<object> any other way, so the type alone identifies
// which rows to drop.
func dropArrayOfRecordSelf(flat []nestedpath.FlatColumn) []nestedpath.FlatColumn {
	out := make([]nestedpath.FlatColumn, 0, len(flat))
	for _, fc := range flat {
		if fc.DataType == core.ArrayType(core.DataTypeObject) {
			continue
		}
		out = append(out, fc)
	}
	return out
}

// applyTopLevelMetadata attaches doc/aliases from the original top-level
// field list back onto the matching flattened column (same Name), since
// Flatten only carries Name/DataType/Nullable.
func applyTopLevelMetadata(cols []*core.Column, fields []rawField) {
	byName := make(map[string]rawField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	for _, c := range cols {
		f, ok := byName[c.Name]
		if !ok {
			continue
		}
		c.Description = f.Doc
		c.Tags = append(c.Tags, f.Aliases...)
	}
}
