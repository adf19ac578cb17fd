// Package avro implements the AVRO exporter half of the pair started in
// internal/importer/avro (spec.md §4.5/§4.4.3). Unlike the other
// formats, AVRO's flattening rule drops the flat row for an array-of-
// record field itself (only its dotted-path children are columns), so
// this exporter cannot reuse nestedpath.Unflatten directly — a node with
// children but no matching column is exactly the "implied array-of-
// record" case and is rebuilt as an array<record> rather than treated as
// an orphaned path. `quality` has no AVRO home and is dropped, per
// spec.md §4.5 "non-ODCS exporters explicitly collapse features the
// target format cannot express."
package avro

import (
	"encoding/json"
	"strings"

	"contractkit/internal/core"
	"contractkit/internal/exporter"
	"contractkit/internal/importer"
)

func init() {
	exporter.Register(importer.FormatAVRO, exporter.ExporterFunc(Export))
}

// node is one segment of the dotted-path column list rebuilt as a tree;
// col is set when a column exists at exactly this path (explicit scalar,
// object, or array<scalar>) and nil when the path is only implied by
// deeper children (an array-of-record field, whose own row AVRO import
// never produces).
type node struct {
	name     string
	col      *core.Column
	children []*node
	byName   map[string]*node
}

func newNode(name string) *node { return &node{name: name, byName: map[string]*node{}} }

func (n *node) child(name string) *node {
	if c, ok := n.byName[name]; ok {
		return c
	}
	c := newNode(name)
	n.byName[name] = c
	n.children = append(n.children, c)
	return c
}

func buildTree(cols []*core.Column) *node {
	root := newNode("")
	for _, c := range cols {
		segments := strings.Split(c.Name, ".")
		cur := root
		for _, seg := range segments {
			cur = cur.child(seg)
		}
		cur.col = c
	}
	return root
}

// Export converts t to its AVRO JSON record schema byte representation.
func Export(t *core.Table) (*exporter.Result, error) {
	tree := buildTree(t.Schema)

	out := map[string]any{
		"type": "record",
		"name": t.Name,
	}
	if t.Domain != "" {
		out["namespace"] = t.Domain
	}
	out["fields"] = fieldsFor(tree.children)

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, &core.IOError{Op: "avro export marshal", Err: err}
	}
	return &exporter.Result{Format: importer.FormatAVRO, Data: data}, nil
}

func fieldsFor(nodes []*node) []map[string]any {
	fields := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		fields = append(fields, fieldFor(n))
	}
	return fields
}

func fieldFor(n *node) map[string]any {
	field := map[string]any{"name": n.name}

	if n.col == nil {
		// Implied array-of-record: this path exists only because deeper
		// columns share it as a prefix.
		field["type"] = map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":   "record",
				"name":   recordName(n.name),
				"fields": fieldsFor(n.children),
			},
		}
		return field
	}

	if n.col.Description != "" {
		field["doc"] = n.col.Description
	}
	if len(n.col.Tags) > 0 {
		field["aliases"] = n.col.Tags
	}
	field["type"] = typeFor(n)
	return field
}

func typeFor(n *node) any {
	col := n.col

	if col.DataType == core.DataTypeObject || col.DataType == core.DataTypeStruct {
		rec := map[string]any{
			"type":   "record",
			"name":   recordName(n.name),
			"fields": fieldsFor(n.children),
		}
		return wrapNullable(col.Nullable, rec)
	}

	if elem, ok := core.IsArray(col.DataType); ok {
		arr := map[string]any{"type": "array", "items": avroScalar(core.DataType(elem))}
		return wrapNullable(col.Nullable, arr)
	}

	return wrapNullable(col.Nullable, avroScalar(col.DataType))
}

func wrapNullable(nullable bool, t any) any {
	if !nullable {
		return t
	}
	return []any{"null", t}
}

// avroScalar inverts internal/importer/avro's scalarTypes map.
func avroScalar(dt core.DataType) string {
	switch dt {
	case core.DataTypeInt:
		return "int"
	case core.DataTypeLong:
		return "long"
	case core.DataTypeFloat:
		return "float"
	case core.DataTypeDouble:
		return "double"
	case core.DataTypeBoolean:
		return "boolean"
	case core.DataTypeBytes:
		return "bytes"
	case core.DataTypeNull:
		return "null"
	case core.DataTypeDate, core.DataTypeTimestamp, core.DataTypeDecimal, core.DataTypeText:
		return "string"
	default:
		return "string"
	}
}

// recordName builds a deterministic, collision-tolerant AVRO record name
// for a nested field from its own path segment; AVRO record names must be
// unique within a schema, which a plain field name already is here since
// sibling fields can't share a name.
func recordName(fieldName string) string {
	if fieldName == "" {
		return "Record"
	}
	return strings.ToUpper(fieldName[:1]) + fieldName[1:]
}
