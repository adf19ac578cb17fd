// Package jsonschema implements the JSON Schema importer (spec.md §4.4.4).
// Its scalar-mapping and recursion rules are reused by internal/importer/
// openapi, which only adds OpenAPI-specific type translations on top.
package jsonschema

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/nestedpath"
)

func init() {
	importer.Register(importer.FormatJSONSchema, importer.ImporterFunc(Import))
}

// Resolver fetches the raw bytes of an external (non-local) $ref target.
// Import leaves it nil; callers that want external resolution call
// ImportWithResolver directly, since importer.Options carries no
// format-specific fields.
type Resolver func(ref string) ([]byte, error)

// Document is the typed top-level shape: either a single schema (has
// Properties) or a multi-schema document (has Definitions).
type Document struct {
	Title       string                     `json:"title"`
	Properties  map[string]json.RawMessage `json:"properties"`
	Required    []string                   `json:"required"`
	Definitions map[string]json.RawMessage `json:"definitions"`
}

// Property is the typed shape of one JSON Schema property/definition.
type Property struct {
	Type       string                     `json:"type"`
	Format     string                     `json:"format"`
	Properties map[string]json.RawMessage `json:"properties"`
	Required   []string                   `json:"required"`
	Items      json.RawMessage            `json:"items"`
	Ref        string                     `json:"$ref"`
	Title      string                     `json:"title"`
}

// Import parses data with external $ref resolution disabled.
func Import(data []byte, opts importer.Options) (*importer.ImportResult, error) {
	return ImportWithResolver(data, opts, nil)
}

// ImportWithResolver parses data, fetching external $ref targets through
// resolve when opts.ResolveReferences is set.
func ImportWithResolver(data []byte, opts importer.Options, resolve Resolver) (*importer.ImportResult, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &core.ParseError{Format: string(importer.FormatJSONSchema), Detail: "top-level document", Err: err}
	}

	c := &converter{resolve: resolve, resolveEnabled: opts.ResolveReferences}

	var tables []*core.Table
	var diags []importer.ParseDiagnostic

	if len(doc.Definitions) > 0 {
		for name, raw := range doc.Definitions {
			t, d, err := c.convertSchema(name, raw)
			diags = append(diags, d...)
			if err != nil {
				var refErr *core.ReferenceResolutionError
				if errors.As(err, &refErr) {
					return nil, err
				}
				diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Field: name, Message: err.Error()})
				continue
			}
			tables = append(tables, t)
		}
	} else if len(doc.Properties) > 0 {
		name := doc.Title
		if name == "" {
			name = "Schema"
		}
		raw, _ := json.Marshal(Property{Type: "object", Properties: doc.Properties, Required: doc.Required})
		t, d, err := c.convertSchema(name, raw)
		diags = append(diags, d...)
		if err != nil {
			var refErr *core.ReferenceResolutionError
			if errors.As(err, &refErr) {
				return nil, err
			}
			diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Field: name, Message: err.Error()})
		} else {
			tables = append(tables, t)
		}
	}

	if opts.UUIDOverride != nil && len(tables) > 1 {
		return nil, &core.MultipleTablesWithUUIDError{N: len(tables)}
	}
	importer.ApplyUUIDOverride(tables, opts.UUIDOverride)

	return &importer.ImportResult{Tables: tables, Diagnostics: diags}, nil
}

type converter struct {
	resolve        Resolver
	resolveEnabled bool
}

func (c *converter) convertSchema(name string, raw json.RawMessage) (*core.Table, []importer.ParseDiagnostic, error) {
	var prop Property
	if err := json.Unmarshal(raw, &prop); err != nil {
		return nil, nil, err
	}
	if prop.Title != "" {
		name = prop.Title
	}

	var diags []importer.ParseDiagnostic
	roots, d, err := c.convertProperties(prop.Properties, prop.Required)
	diags = append(diags, d...)
	if err != nil {
		return nil, diags, err
	}

	flat := nestedpath.Flatten(roots)
	cols := make([]*core.Column, 0, len(flat))
	for _, fc := range flat {
		cols = append(cols, &core.Column{Name: fc.Name, DataType: fc.DataType, Nullable: fc.Nullable})
	}

	t, err := core.NewTable(name, cols)
	if err != nil {
		return nil, diags, err
	}
	return t, diags, nil
}

// convertProperties walks a properties map in a stable order (sorted by
// name, since JSON object key order is not preserved by encoding/json)
// building one Node per property. A *core.ReferenceResolutionError from a
// nested $ref is propagated as a hard error rather than downgraded to a
// diagnostic; any other per-property failure is recorded as a diagnostic
// and that property is skipped.
func (c *converter) convertProperties(props map[string]json.RawMessage, required []string) ([]*nestedpath.Node, []importer.ParseDiagnostic, error) {
	requiredSet := make(map[string]bool, len(required))
	for _, r := range required {
		requiredSet[r] = true
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var diags []importer.ParseDiagnostic
	var roots []*nestedpath.Node
	for _, name := range names {
		node, d, err := c.convertProperty(name, props[name], !requiredSet[name])
		diags = append(diags, d...)
		if err != nil {
			var refErr *core.ReferenceResolutionError
			if errors.As(err, &refErr) {
				return nil, diags, err
			}
			diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Field: name, Message: err.Error()})
			continue
		}
		roots = append(roots, node)
	}
	return roots, diags, nil
}

func (c *converter) convertProperty(name string, raw json.RawMessage, nullable bool) (*nestedpath.Node, []importer.ParseDiagnostic, error) {
	var diags []importer.ParseDiagnostic
	var prop Property
	if err := json.Unmarshal(raw, &prop); err != nil {
		return nil, diags, err
	}

	if prop.Ref != "" {
		resolved, d, err := c.resolveRef(name, prop.Ref, nullable)
		diags = append(diags, d...)
		return resolved, diags, err
	}

	switch prop.Type {
	case "object":
		if len(prop.Properties) > 0 {
			children, d, err := c.convertProperties(prop.Properties, prop.Required)
			diags = append(diags, d...)
			if err != nil {
				return nil, diags, err
			}
			return &nestedpath.Node{Name: name, DataType: core.DataTypeObject, Nullable: nullable, Children: children}, diags, nil
		}
		return &nestedpath.Node{Name: name, DataType: core.DataTypeObject, Nullable: nullable}, diags, nil
	case "array":
		node, d, err := c.convertArray(name, prop.Items, nullable)
		diags = append(diags, d...)
		if err != nil {
			return nil, diags, err
		}
		return node, diags, nil
	default:
		dt := MapScalarType(prop.Type)
		return &nestedpath.Node{Name: name, DataType: dt, Nullable: nullable}, diags, nil
	}
}

func (c *converter) convertArray(name string, items json.RawMessage, nullable bool) (*nestedpath.Node, []importer.ParseDiagnostic, error) {
	var diags []importer.ParseDiagnostic
	var itemProp Property
	if err := json.Unmarshal(items, &itemProp); err != nil {
		diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticWarning, Field: name, Message: "array items not parseable; mapped to array<string>"})
		return &nestedpath.Node{Name: name, DataType: core.ArrayType(core.DataTypeString), Nullable: nullable}, diags, nil
	}

	if itemProp.Type == "object" {
		children, d, err := c.convertProperties(itemProp.Properties, itemProp.Required)
		diags = append(diags, d...)
		if err != nil {
			return nil, diags, err
		}
		return &nestedpath.Node{Name: name, DataType: core.ArrayType(core.DataTypeObject), Nullable: nullable, Children: children}, diags, nil
	}

	return &nestedpath.Node{Name: name, DataType: core.ArrayType(MapScalarType(itemProp.Type)), Nullable: nullable}, diags, nil
}

// MapScalarType maps a JSON Schema scalar type keyword to the canonical
// vocabulary (spec.md §4.4.4). Exported so the OpenAPI importer can reuse
// it before layering its own type translations on top.
func MapScalarType(jsonType string) core.DataType {
	switch jsonType {
	case "integer":
		return core.DataTypeLong
	case "number":
		return core.DataTypeDouble
	case "string":
		return core.DataTypeString
	case "boolean":
		return core.DataTypeBoolean
	case "null":
		return core.DataTypeNull
	default:
		return core.DataTypeString
	}
}

// isExternalRef reports whether ref points outside the current document
// (spec.md §4.4.4: "$ref that is not a local pointer").
func isExternalRef(ref string) bool {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return true
	}
	return !strings.HasPrefix(ref, "#")
}

func (c *converter) resolveRef(name, ref string, nullable bool) (*nestedpath.Node, []importer.ParseDiagnostic, error) {
	if !isExternalRef(ref) {
		// Local anchor refs are not walked by this importer; they degrade
		// to an opaque pass-through column rather than a resolution error.
		return &nestedpath.Node{Name: name, DataType: core.DataTypeObject, Nullable: nullable}, nil, nil
	}
	if !c.resolveEnabled {
		return &nestedpath.Node{Name: name, DataType: core.DataTypeObject, Nullable: nullable}, nil, nil
	}
	if c.resolve == nil {
		return nil, nil, &core.ReferenceResolutionError{Ref: ref, Err: errNoResolver}
	}
	raw, err := c.resolve(ref)
	if err != nil {
		return nil, nil, &core.ReferenceResolutionError{Ref: ref, Err: err}
	}
	var resolvedProp Property
	if err := json.Unmarshal(raw, &resolvedProp); err != nil {
		return nil, nil, &core.ReferenceResolutionError{Ref: ref, Err: err}
	}
	merged, err := json.Marshal(resolvedProp)
	if err != nil {
		return nil, nil, &core.ReferenceResolutionError{Ref: ref, Err: err}
	}
	return c.convertProperty(name, merged, nullable)
}

var errNoResolver = &noResolverError{}

type noResolverError struct{}

func (e *noResolverError) Error() string {
	return "ResolveReferences is enabled but no Resolver was supplied"
}
