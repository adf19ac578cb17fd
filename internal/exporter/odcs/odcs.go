// Package odcs implements the ODCS exporter half of the package pair
// started in internal/importer/odcs (spec.md §4.5/§4.4.6). ODCS is the
// primary canonical on-disk form the sync engine round-trips bit-exactly,
// so key order matters: apiVersion, kind, id, name, version, status, ...,
// schema, customProperties, then timestamps, exactly as spec.md §4.5
// lists them. Go struct field order controls yaml.v3's key order, the
// same lever the teacher's TOML schema writer never needs (TOML key
// order is caller-controlled differently) but which this format's
// bit-exact round-trip requires.
package odcs

import (
	"time"

	"gopkg.in/yaml.v3"

	"contractkit/internal/core"
	"contractkit/internal/exporter"
	"contractkit/internal/importer"
	"contractkit/internal/nestedpath"
)

func init() {
	exporter.Register(importer.FormatODCS, exporter.ExporterFunc(Export))
}

// document mirrors internal/importer/odcs's document, field order pinned
// to spec.md §4.5's required key order.
type document struct {
	APIVersion  string `yaml:"apiVersion"`
	Kind        string `yaml:"kind"`
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Version     string `yaml:"version,omitempty"`
	Status      string `yaml:"status,omitempty"`
	Domain      string `yaml:"domain,omitempty"`
	Tenant      string `yaml:"tenant,omitempty"`
	DataProduct string `yaml:"dataProduct,omitempty"`

	Schema []schemaObject `yaml:"schema"`

	Servers []server `yaml:"servers,omitempty"`
	Team    []struct {
		Username string `yaml:"username,omitempty"`
		Role     string `yaml:"role,omitempty"`
	} `yaml:"team,omitempty"`
	Support []struct {
		Channel string `yaml:"channel"`
		URL     string `yaml:"url,omitempty"`
		Tool    string `yaml:"tool,omitempty"`
	} `yaml:"support,omitempty"`
	Roles []struct {
		Role        string `yaml:"role"`
		Description string `yaml:"description,omitempty"`
	} `yaml:"roles,omitempty"`
	SLAProperties []struct {
		Property string `yaml:"property"`
		Value    any    `yaml:"value"`
		Unit     string `yaml:"unit,omitempty"`
	} `yaml:"slaProperties,omitempty"`
	Price *struct {
		Amount   float64 `yaml:"priceAmount,omitempty"`
		Currency string  `yaml:"priceCurrency,omitempty"`
		Unit     string  `yaml:"priceUnit,omitempty"`
	} `yaml:"price,omitempty"`
	Quality []map[string]any `yaml:"quality,omitempty"`
	Tags    []string         `yaml:"tags,omitempty"`

	CustomProperties []customProperty `yaml:"customProperties,omitempty"`
	AuthoritativeDefinitions []authoritativeDefinition `yaml:"authoritativeDefinitions,omitempty"`

	CreatedAt time.Time `yaml:"createdAt"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

// customProperty and authoritativeDefinition serve both the table-level
// and column-level slices of the same name; both levels come from the
// identically-shaped core.CustomProperty/core.AuthoritativeDefinition.
type customProperty struct {
	Property string `yaml:"property"`
	Value    any    `yaml:"value"`
}

type authoritativeDefinition struct {
	URL  string `yaml:"url"`
	Type string `yaml:"type,omitempty"`
}

type server struct {
	Server     string            `yaml:"server"`
	Type       string            `yaml:"type,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

type schemaObject struct {
	Name         string           `yaml:"name"`
	PhysicalName string           `yaml:"physicalName,omitempty"`
	Description  string           `yaml:"description,omitempty"`
	Properties   []schemaProperty `yaml:"properties"`
}

// schemaProperty mirrors internal/importer/odcs's schemaProperty field by
// field: every per-column field spec.md §3 names on core.Column has a home
// here, so ODCS, the primary canonical on-disk form, round-trips it rather
// than silently dropping it (spec.md P5).
type schemaProperty struct {
	Name           string           `yaml:"name"`
	LogicalType    string           `yaml:"logicalType"`
	PhysicalType   string           `yaml:"physicalType,omitempty"`
	PhysicalName   string           `yaml:"physicalName,omitempty"`
	Required       bool             `yaml:"required,omitempty"`
	Unique         bool             `yaml:"unique,omitempty"`
	PrimaryKey     bool             `yaml:"primaryKey,omitempty"`
	PrimaryKeyPosition   int        `yaml:"primaryKeyPosition,omitempty"`
	Partitioned    bool             `yaml:"partitioned,omitempty"`
	PartitionKeyPosition int        `yaml:"partitionKeyPosition,omitempty"`
	Clustered      bool             `yaml:"clustered,omitempty"`
	Description    string           `yaml:"description,omitempty"`
	BusinessName   string           `yaml:"businessName,omitempty"`
	Classification string           `yaml:"classification,omitempty"`
	CriticalDataElement bool        `yaml:"criticalDataElement,omitempty"`
	TransformLogic         string   `yaml:"transformLogic,omitempty"`
	TransformSourceObjects []string `yaml:"transformSourceObjects,omitempty"`
	TransformDescription   string   `yaml:"transformDescription,omitempty"`
	Examples       []any            `yaml:"examples,omitempty"`
	DefaultValue   *string          `yaml:"defaultValue,omitempty"`
	EnumValues     []string         `yaml:"enum,omitempty"`
	Quality        []map[string]any `yaml:"quality,omitempty"`
	Relationships  []string         `yaml:"relationships,omitempty"`
	AuthoritativeDefinitions []authoritativeDefinition `yaml:"authoritativeDefinitions,omitempty"`
	Tags           []string         `yaml:"tags,omitempty"`
	CustomProperties []customProperty `yaml:"customProperties,omitempty"`
	RefPath        string           `yaml:"$ref,omitempty"`
	Properties     []schemaProperty `yaml:"properties,omitempty"`
	Items          *schemaProperty  `yaml:"items,omitempty"`
}

// Export converts t to its ODCS YAML byte representation.
func Export(t *core.Table) (*exporter.Result, error) {
	doc := document{
		APIVersion:  "v3.0.0",
		Kind:        "DataContract",
		ID:          t.ID.String(),
		Name:        t.Name,
		Version:     t.Version,
		Status:      string(t.Status),
		Domain:      t.Domain,
		Tenant:      t.Tenant,
		DataProduct: t.DataProduct,
		Tags:        t.Tags,
		Quality:     t.Quality,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}

	props := convertColumns(t.Schema)
	doc.Schema = append(doc.Schema, schemaObject{Name: t.Name, Properties: props})
	if extra, ok := t.ODCSMetadata["additionalSchemas"]; ok {
		// The importer stores its own package's schema type here, so the
		// entries are carried across by re-encoding them as YAML.
		if raw, err := yaml.Marshal(extra); err == nil {
			var more []schemaObject
			if err := yaml.Unmarshal(raw, &more); err == nil {
				doc.Schema = append(doc.Schema, more...)
			}
		}
	}

	for _, s := range t.Servers {
		doc.Servers = append(doc.Servers, server{Server: s.Server, Type: s.Type, Properties: s.Properties})
	}
	for _, m := range t.Team {
		doc.Team = append(doc.Team, struct {
			Username string `yaml:"username,omitempty"`
			Role     string `yaml:"role,omitempty"`
		}{Username: m.Username, Role: m.Role})
	}
	for _, s := range t.Support {
		doc.Support = append(doc.Support, struct {
			Channel string `yaml:"channel"`
			URL     string `yaml:"url,omitempty"`
			Tool    string `yaml:"tool,omitempty"`
		}{Channel: s.Channel, URL: s.URL, Tool: s.Tool})
	}
	for _, r := range t.Roles {
		doc.Roles = append(doc.Roles, struct {
			Role        string `yaml:"role"`
			Description string `yaml:"description,omitempty"`
		}{Role: r.Name, Description: r.Description})
	}
	for _, p := range t.SLAProperties {
		doc.SLAProperties = append(doc.SLAProperties, struct {
			Property string `yaml:"property"`
			Value    any    `yaml:"value"`
			Unit     string `yaml:"unit,omitempty"`
		}{Property: p.Property, Value: p.Value, Unit: p.Unit})
	}
	if t.Price != nil {
		doc.Price = &struct {
			Amount   float64 `yaml:"priceAmount,omitempty"`
			Currency string  `yaml:"priceCurrency,omitempty"`
			Unit     string  `yaml:"priceUnit,omitempty"`
		}{Amount: t.Price.Amount, Currency: t.Price.Currency, Unit: t.Price.Unit}
	}
	for _, cp := range t.CustomProperties {
		doc.CustomProperties = append(doc.CustomProperties, customProperty{Property: cp.Property, Value: cp.Value})
	}
	for _, ad := range t.AuthoritativeDefinitions {
		doc.AuthoritativeDefinitions = append(doc.AuthoritativeDefinitions, authoritativeDefinition{URL: ad.URL, Type: ad.Type})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, &core.IOError{Op: "odcs export marshal", Err: err}
	}
	return &exporter.Result{Format: importer.FormatODCS, Data: data}, nil
}

// convertColumns reconstructs the nested properties tree from t's flat,
// dotted-path column list via the shared codec, then attaches the
// per-column metadata Unflatten's Node doesn't carry.
func convertColumns(cols []*core.Column) []schemaProperty {
	flat := make([]nestedpath.FlatColumn, len(cols))
	for i, c := range cols {
		flat[i] = nestedpath.FlatColumn{Name: c.Name, DataType: c.DataType, Nullable: c.Nullable}
	}
	roots := nestedpath.Unflatten(flat)

	byName := make(map[string]*core.Column, len(cols))
	for _, c := range cols {
		byName[c.Name] = c
	}

	props := make([]schemaProperty, 0, len(roots))
	for _, n := range roots {
		props = append(props, convertNode(n, "", byName))
	}
	return props
}

func convertNode(n *nestedpath.Node, prefix string, byName map[string]*core.Column) schemaProperty {
	full := n.Name
	if prefix != "" {
		full = prefix + "." + n.Name
	}

	p := schemaProperty{Name: n.Name, Required: !n.Nullable}
	if src, ok := byName[full]; ok {
		p.PhysicalType = src.PhysicalType
		p.PhysicalName = src.PhysicalName
		p.Description = src.Description
		p.BusinessName = src.BusinessName
		p.Classification = src.Classification
		p.Unique = src.Unique
		p.PrimaryKey = src.PrimaryKey
		p.PrimaryKeyPosition = src.PrimaryKeyPosition
		p.Partitioned = src.Partitioned
		p.PartitionKeyPosition = src.PartitionKeyPosition
		p.Clustered = src.Clustered
		p.Examples = src.Examples
		p.CriticalDataElement = src.CriticalDataElement
		p.TransformLogic = src.TransformLogic
		p.TransformSourceObjects = src.TransformSourceObjects
		p.TransformDescription = src.TransformDescription
		p.DefaultValue = src.DefaultValue
		p.EnumValues = src.EnumValues
		p.Quality = src.Quality
		p.Relationships = src.Relationships
		p.Tags = src.Tags
		p.RefPath = src.RefPath
		for _, ad := range src.AuthoritativeDefinitions {
			p.AuthoritativeDefinitions = append(p.AuthoritativeDefinitions, authoritativeDefinition{URL: ad.URL, Type: ad.Type})
		}
		for _, cp := range src.CustomProperties {
			p.CustomProperties = append(p.CustomProperties, customProperty{Property: cp.Property, Value: cp.Value})
		}
	}

	if elem, ok := core.IsArray(n.DataType); ok {
		if len(n.Children) > 0 {
			items := &schemaProperty{LogicalType: "object"}
			for _, child := range n.Children {
				items.Properties = append(items.Properties, convertNode(child, full, byName))
			}
			p.LogicalType = "array"
			p.Items = items
		} else {
			p.LogicalType = "array"
			p.Items = &schemaProperty{LogicalType: mapDataType(core.DataType(elem))}
		}
		return p
	}

	if n.DataType == core.DataTypeObject || n.DataType == core.DataTypeStruct {
		p.LogicalType = "object"
		for _, child := range n.Children {
			p.Properties = append(p.Properties, convertNode(child, full, byName))
		}
		return p
	}

	p.LogicalType = mapDataType(n.DataType)
	return p
}

// mapDataType inverts internal/importer/odcs.mapLogicalType.
func mapDataType(dt core.DataType) string {
	switch dt {
	case core.DataTypeInt, core.DataTypeLong:
		return "integer"
	case core.DataTypeDouble, core.DataTypeFloat, core.DataTypeDecimal:
		return "number"
	case core.DataTypeBoolean:
		return "boolean"
	case core.DataTypeDate:
		return "date"
	case core.DataTypeTimestamp:
		return "timestamp"
	case core.DataTypeObject, core.DataTypeStruct:
		return "object"
	default:
		return "string"
	}
}
