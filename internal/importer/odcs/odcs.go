// Package odcs implements the Open Data Contract Standard importer/
// exporter pair's read side (spec.md §4.4.6). ODCS YAML is the primary
// canonical on-disk form the sync engine round-trips bit-exactly, so
// this package decodes into typed structs the same way the teacher
// decodes its TOML schema format (internal/parser/toml), rather than
// walking a map[string]any.
package odcs

import (
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/nestedpath"
)

func init() {
	importer.Register(importer.FormatODCS, importer.ImporterFunc(Import))
}

// document is the typed shape of an ODCS contract document; only the
// fields this round-trip actually interprets are named, everything else
// a real document carries is out of scope for the distilled model.
type document struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	Status     string   `yaml:"status"`
	Domain     string   `yaml:"domain"`
	Tenant     string   `yaml:"tenant"`
	DataProduct string  `yaml:"dataProduct"`

	Schema []schemaObject `yaml:"schema"`

	Servers []server `yaml:"servers"`
	Team    []struct {
		Username string `yaml:"username"`
		Role     string `yaml:"role"`
	} `yaml:"team"`
	Support []struct {
		Channel string `yaml:"channel"`
		URL     string `yaml:"url"`
		Tool    string `yaml:"tool"`
	} `yaml:"support"`
	Roles []struct {
		Role        string `yaml:"role"`
		Description string `yaml:"description"`
	} `yaml:"roles"`
	SLAProperties []struct {
		Property string `yaml:"property"`
		Value    any    `yaml:"value"`
		Unit     string `yaml:"unit"`
	} `yaml:"slaProperties"`
	Price *struct {
		Amount   float64 `yaml:"priceAmount"`
		Currency string  `yaml:"priceCurrency"`
		Unit     string  `yaml:"priceUnit"`
	} `yaml:"price"`
	Quality          []map[string]any `yaml:"quality"`
	Tags             []string         `yaml:"tags"`
	CustomProperties []customProperty `yaml:"customProperties"`
	AuthoritativeDefinitions []authoritativeDefinition `yaml:"authoritativeDefinitions"`

	CreatedAt *time.Time `yaml:"createdAt"`
	UpdatedAt *time.Time `yaml:"updatedAt"`
}

// customProperty and authoritativeDefinition are shared by the table-level
// and column-level slices of the same name; both levels round-trip onto
// the identically-shaped core.CustomProperty/core.AuthoritativeDefinition.
type customProperty struct {
	Property string `yaml:"property"`
	Value    any    `yaml:"value"`
}

type authoritativeDefinition struct {
	URL  string `yaml:"url"`
	Type string `yaml:"type"`
}

type server struct {
	Server     string            `yaml:"server"`
	Type       string            `yaml:"type"`
	Properties map[string]string `yaml:"properties"`
}

// schemaObject is one entry of the top-level schema array: one table.
type schemaObject struct {
	Name         string           `yaml:"name"`
	PhysicalName string           `yaml:"physicalName"`
	Description  string           `yaml:"description"`
	Properties   []schemaProperty `yaml:"properties"`
}

// schemaProperty is one column, possibly carrying nested children
// (object) or an element shape (array). Every per-column field
// spec.md §3 names on core.Column has a home here so ODCS, the primary
// canonical on-disk form, round-trips it rather than silently dropping it
// (spec.md P5).
type schemaProperty struct {
	Name          string           `yaml:"name"`
	LogicalType   string           `yaml:"logicalType"`
	PhysicalType  string           `yaml:"physicalType"`
	PhysicalName  string           `yaml:"physicalName"`
	Required      bool             `yaml:"required"`
	Unique        bool             `yaml:"unique"`
	PrimaryKey    bool             `yaml:"primaryKey"`
	PrimaryKeyPosition   int       `yaml:"primaryKeyPosition"`
	Partitioned   bool             `yaml:"partitioned"`
	PartitionKeyPosition int       `yaml:"partitionKeyPosition"`
	Clustered     bool             `yaml:"clustered"`
	Description   string           `yaml:"description"`
	BusinessName  string           `yaml:"businessName"`
	Classification string          `yaml:"classification"`
	CriticalDataElement bool       `yaml:"criticalDataElement"`
	TransformLogic         string   `yaml:"transformLogic"`
	TransformSourceObjects []string `yaml:"transformSourceObjects"`
	TransformDescription   string   `yaml:"transformDescription"`
	Examples      []any            `yaml:"examples"`
	DefaultValue  *string          `yaml:"defaultValue"`
	EnumValues    []string         `yaml:"enum"`
	Quality       []map[string]any `yaml:"quality"`
	Relationships []string         `yaml:"relationships"`
	AuthoritativeDefinitions []authoritativeDefinition `yaml:"authoritativeDefinitions"`
	Tags          []string         `yaml:"tags"`
	CustomProperties []customProperty `yaml:"customProperties"`
	RefPath       string           `yaml:"$ref"`
	Properties    []schemaProperty `yaml:"properties"`
	Items         *schemaProperty  `yaml:"items"`
}

// Import decodes a single ODCS YAML document into one Table built from
// its first schema entry; any further entries are not converted to
// Tables but are preserved verbatim in Table.ODCSMetadata.
func Import(data []byte, opts importer.Options) (*importer.ImportResult, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &core.ParseError{Format: string(importer.FormatODCS), Detail: "top-level document", Err: err}
	}

	if len(doc.Schema) == 0 {
		return &importer.ImportResult{}, nil
	}

	primary := doc.Schema[0]
	cols := convertSchemaObject(primary)

	tableOpts := []core.TableOption{}
	if doc.ID != "" {
		if parsed, err := uuid.Parse(doc.ID); err == nil {
			tableOpts = append(tableOpts, core.WithUUIDOverride(parsed))
		}
	}

	t, err := core.NewTable(primary.Name, cols, tableOpts...)
	if err != nil {
		return nil, err
	}

	t.Version = doc.Version
	t.Status = core.Status(doc.Status)
	t.Domain = doc.Domain
	t.Tenant = doc.Tenant
	t.DataProduct = doc.DataProduct
	t.Tags = doc.Tags
	t.Quality = doc.Quality

	if doc.CreatedAt != nil {
		t.CreatedAt = *doc.CreatedAt
	}
	if doc.UpdatedAt != nil {
		t.UpdatedAt = *doc.UpdatedAt
	}

	for _, s := range doc.Servers {
		t.Servers = append(t.Servers, core.ServerConfig{Server: s.Server, Type: s.Type, Properties: s.Properties})
	}
	for _, m := range doc.Team {
		t.Team = append(t.Team, core.TeamMember{Username: m.Username, Role: m.Role})
	}
	for _, s := range doc.Support {
		t.Support = append(t.Support, core.SupportChannel{Channel: s.Channel, URL: s.URL, Tool: s.Tool})
	}
	for _, r := range doc.Roles {
		t.Roles = append(t.Roles, core.Role{Name: r.Role, Description: r.Description})
	}
	for _, p := range doc.SLAProperties {
		t.SLAProperties = append(t.SLAProperties, core.SLAProperty{Property: p.Property, Value: p.Value, Unit: p.Unit})
	}
	if doc.Price != nil {
		t.Price = &core.Price{Amount: doc.Price.Amount, Currency: doc.Price.Currency, Unit: doc.Price.Unit}
	}
	for _, cp := range doc.CustomProperties {
		t.CustomProperties = append(t.CustomProperties, core.CustomProperty{Property: cp.Property, Value: cp.Value})
	}
	for _, ad := range doc.AuthoritativeDefinitions {
		t.AuthoritativeDefinitions = append(t.AuthoritativeDefinitions, core.AuthoritativeDefinition{URL: ad.URL, Type: ad.Type})
	}

	if len(doc.Schema) > 1 {
		t.ODCSMetadata = map[string]any{"additionalSchemas": doc.Schema[1:]}
	}

	tables := []*core.Table{t}
	importer.ApplyUUIDOverride(tables, opts.UUIDOverride)

	return &importer.ImportResult{Tables: tables}, nil
}

// convertSchemaObject builds the flat column list for one schema entry
// via the shared nested-path codec.
func convertSchemaObject(obj schemaObject) []*core.Column {
	roots := make([]*nestedpath.Node, 0, len(obj.Properties))
	for _, p := range obj.Properties {
		roots = append(roots, convertProperty(p))
	}
	flat := nestedpath.Flatten(roots)

	byName := make(map[string]schemaProperty)
	collectProperties(obj.Properties, "", byName)

	cols := make([]*core.Column, 0, len(flat))
	for _, fc := range flat {
		col := &core.Column{Name: fc.Name, DataType: fc.DataType, Nullable: fc.Nullable}
		if src, ok := byName[fc.Name]; ok {
			col.PhysicalType = src.PhysicalType
			col.PhysicalName = src.PhysicalName
			col.Description = src.Description
			col.BusinessName = src.BusinessName
			col.Classification = src.Classification
			col.Unique = src.Unique
			col.PrimaryKey = src.PrimaryKey
			col.PrimaryKeyPosition = src.PrimaryKeyPosition
			col.Partitioned = src.Partitioned
			col.PartitionKeyPosition = src.PartitionKeyPosition
			col.Clustered = src.Clustered
			col.Examples = src.Examples
			col.CriticalDataElement = src.CriticalDataElement
			col.TransformLogic = src.TransformLogic
			col.TransformSourceObjects = src.TransformSourceObjects
			col.TransformDescription = src.TransformDescription
			col.DefaultValue = src.DefaultValue
			col.EnumValues = src.EnumValues
			col.Quality = src.Quality
			col.Relationships = src.Relationships
			col.Tags = src.Tags
			col.RefPath = src.RefPath
			for _, ad := range src.AuthoritativeDefinitions {
				col.AuthoritativeDefinitions = append(col.AuthoritativeDefinitions, core.AuthoritativeDefinition{URL: ad.URL, Type: ad.Type})
			}
			for _, cp := range src.CustomProperties {
				col.CustomProperties = append(col.CustomProperties, core.CustomProperty{Property: cp.Property, Value: cp.Value})
			}
		}
		cols = append(cols, col)
	}
	return cols
}

// collectProperties indexes every nested schemaProperty by its full
// dotted path so metadata fields that Flatten drops (description, etc.)
// can be re-attached after flattening.
func collectProperties(props []schemaProperty, prefix string, out map[string]schemaProperty) {
	for _, p := range props {
		full := p.Name
		if prefix != "" {
			full = prefix + "." + p.Name
		}
		out[full] = p
		if p.Properties != nil {
			collectProperties(p.Properties, full, out)
		}
		if p.Items != nil && p.Items.Properties != nil {
			collectProperties(p.Items.Properties, full, out)
		}
	}
}

// convertProperty builds one Node, recursing into object children or an
// array's item shape. required:true means nullable=false (spec.md
// §4.4.6); its absence defaults to nullable.
func convertProperty(p schemaProperty) *nestedpath.Node {
	node := &nestedpath.Node{Name: p.Name, Nullable: !p.Required}

	switch {
	case p.Items != nil:
		if len(p.Items.Properties) > 0 {
			node.DataType = core.ArrayType(core.DataTypeObject)
			for _, child := range p.Items.Properties {
				node.Children = append(node.Children, convertProperty(child))
			}
		} else {
			node.DataType = core.ArrayType(mapLogicalType(p.Items.LogicalType))
		}
	case len(p.Properties) > 0:
		node.DataType = core.DataTypeObject
		for _, child := range p.Properties {
			node.Children = append(node.Children, convertProperty(child))
		}
	default:
		node.DataType = mapLogicalType(p.LogicalType)
	}
	return node
}

func mapLogicalType(logicalType string) core.DataType {
	switch logicalType {
	case "string":
		return core.DataTypeString
	case "integer":
		return core.DataTypeInt
	case "number":
		return core.DataTypeDouble
	case "boolean":
		return core.DataTypeBoolean
	case "date":
		return core.DataTypeDate
	case "timestamp":
		return core.DataTypeTimestamp
	case "object":
		return core.DataTypeObject
	case "array":
		return core.ArrayType(core.DataTypeString)
	default:
		return core.DataTypeString
	}
}
