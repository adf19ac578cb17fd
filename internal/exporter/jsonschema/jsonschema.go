// Package jsonschema implements the JSON Schema exporter half of the
// pair started in internal/importer/jsonschema (spec.md §4.5/§4.4.4).
// Unlike AVRO, JSON Schema's object and array-of-object fields keep their
// own flat row alongside their dotted-path children, so this exporter
// reconstructs the nested tree with the shared nestedpath.Unflatten
// codec rather than a bespoke trie. `quality` has no JSON Schema home and
// is dropped, matching spec.md §4.5's "non-ODCS exporters explicitly
// collapse features the target format cannot express."
package jsonschema

import (
	"encoding/json"

	"contractkit/internal/core"
	"contractkit/internal/exporter"
	"contractkit/internal/importer"
	"contractkit/internal/nestedpath"
)

func init() {
	exporter.Register(importer.FormatJSONSchema, exporter.ExporterFunc(Export))
}

// Export converts t to its JSON Schema byte representation: a single
// schema with a top-level "properties" object, the inverse of the
// single-schema branch of internal/importer/jsonschema.Import.
func Export(t *core.Table) (*exporter.Result, error) {
	flat := make([]nestedpath.FlatColumn, len(t.Schema))
	for i, c := range t.Schema {
		flat[i] = nestedpath.FlatColumn{Name: c.Name, DataType: c.DataType, Nullable: c.Nullable}
	}
	roots := nestedpath.Unflatten(flat)

	props, required := propertiesFor(roots)

	doc := map[string]any{
		"title":      t.Name,
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &core.IOError{Op: "jsonschema export marshal", Err: err}
	}
	return &exporter.Result{Format: importer.FormatJSONSchema, Data: data}, nil
}

func propertiesFor(nodes []*nestedpath.Node) (map[string]any, []string) {
	props := make(map[string]any, len(nodes))
	var required []string
	for _, n := range nodes {
		props[n.Name] = schemaFor(n)
		if !n.Nullable {
			required = append(required, n.Name)
		}
	}
	return props, required
}

func schemaFor(n *nestedpath.Node) map[string]any {
	if n.DataType == core.DataTypeObject || n.DataType == core.DataTypeStruct {
		props, required := propertiesFor(n.Children)
		s := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			s["required"] = required
		}
		return s
	}

	if elem, ok := core.IsArray(n.DataType); ok {
		elemType := core.DataType(elem)
		if elemType == core.DataTypeObject || elemType == core.DataTypeStruct {
			props, required := propertiesFor(n.Children)
			items := map[string]any{"type": "object", "properties": props}
			if len(required) > 0 {
				items["required"] = required
			}
			return map[string]any{"type": "array", "items": items}
		}
		return map[string]any{"type": "array", "items": map[string]any{"type": jsonType(elemType)}}
	}

	return map[string]any{"type": jsonType(n.DataType)}
}

// jsonType inverts internal/importer/jsonschema.MapScalarType.
func jsonType(dt core.DataType) string {
	switch dt {
	case core.DataTypeLong, core.DataTypeInt:
		return "integer"
	case core.DataTypeDouble, core.DataTypeFloat, core.DataTypeDecimal:
		return "number"
	case core.DataTypeBoolean:
		return "boolean"
	case core.DataTypeNull:
		return "null"
	default:
		return "string"
	}
}
