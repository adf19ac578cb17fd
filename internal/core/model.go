package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a Table (contract).
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
	StatusRetired    Status = "retired"
)

// DataType is the canonical, format-independent column type vocabulary.
// Every importer maps its source format's types onto this set; every
// exporter maps back out of it.
type DataType string

const (
	DataTypeString    DataType = "string"
	DataTypeText      DataType = "text"
	DataTypeLong      DataType = "long"
	DataTypeInt       DataType = "int"
	DataTypeDouble    DataType = "double"
	DataTypeFloat     DataType = "float"
	DataTypeBoolean   DataType = "boolean"
	DataTypeBytes     DataType = "bytes"
	DataTypeDate      DataType = "date"
	DataTypeTimestamp DataType = "timestamp"
	DataTypeDecimal   DataType = "decimal"
	DataTypeStruct    DataType = "struct"
	DataTypeObject    DataType = "object"
	DataTypeNull      DataType = "null"
	dataTypeArray     DataType = "array" // base tag; always carries an element type, see ArrayType.
)

// ArrayType returns the canonical "array<T>" spelling for an element type.
func ArrayType(elem DataType) DataType {
	return DataType(fmt.Sprintf("%s<%s>", dataTypeArray, elem))
}

// IsArray reports whether dt is an "array<...>" type, and returns the
// element type string when it is.
func IsArray(dt DataType) (elem string, ok bool) {
	s := string(dt)
	if !strings.HasPrefix(s, string(dataTypeArray)+"<") || !strings.HasSuffix(s, ">") {
		return "", false
	}
	return s[len(dataTypeArray)+1 : len(s)-1], true
}

// Table is the canonical representation of a data contract: a named,
// versioned schema with an ordered column list. Table is the unit every
// importer produces and every exporter consumes.
type Table struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Version string    `json:"version,omitempty"`
	Status  Status    `json:"status,omitempty"`

	Domain      string `json:"domain,omitempty"`
	Tenant      string `json:"tenant,omitempty"`
	DataProduct string `json:"dataProduct,omitempty"`

	// Schema is the ordered column list. Insertion order is significant:
	// it is the positional layout preserved on round-trip (spec I1-I7).
	Schema []*Column `json:"schema"`

	Servers                  []ServerConfig           `json:"servers,omitempty"`
	Team                     []TeamMember             `json:"team,omitempty"`
	Support                  []SupportChannel         `json:"support,omitempty"`
	Roles                    []Role                   `json:"roles,omitempty"`
	SLAProperties            []SLAProperty            `json:"slaProperties,omitempty"`
	Price                    *Price                   `json:"price,omitempty"`
	Quality                  []map[string]any         `json:"quality,omitempty"`
	Tags                     []string                 `json:"tags,omitempty"`
	CustomProperties         []CustomProperty         `json:"customProperties,omitempty"`
	AuthoritativeDefinitions []AuthoritativeDefinition `json:"authoritativeDefinitions,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// ODCSMetadata carries format-specific data that has no canonical home
	// (e.g. secondary ODCS schema entries, §4.4.6) verbatim through a
	// round-trip.
	ODCSMetadata map[string]any `json:"odcsMetadata,omitempty"`

	// schemaNameForID and catalogNameForID only affect id derivation
	// (spec.md §4.2); they are not first-class round-tripped fields.
	schemaNameForID  string
	catalogNameForID string
	idOverridden     bool
}

// Column is a positional field of a Table. Name may contain dots to
// encode one level of nesting per segment; see package nestedpath.
type Column struct {
	Name string `json:"name"`

	DataType     DataType `json:"dataType"`
	PhysicalType string   `json:"physicalType,omitempty"`
	PhysicalName string   `json:"physicalName,omitempty"`

	Nullable bool `json:"nullable"`

	PrimaryKey         bool `json:"primaryKey"`
	PrimaryKeyPosition  int  `json:"primaryKeyPosition,omitempty"`
	Unique             bool `json:"unique,omitempty"`
	Partitioned        bool `json:"partitioned,omitempty"`
	PartitionKeyPosition int `json:"partitionKeyPosition,omitempty"`
	Clustered          bool `json:"clustered,omitempty"`

	Description        string `json:"description,omitempty"`
	BusinessName        string `json:"businessName,omitempty"`
	Classification       string `json:"classification,omitempty"`
	CriticalDataElement bool   `json:"criticalDataElement,omitempty"`

	TransformLogic         string `json:"transformLogic,omitempty"`
	TransformSourceObjects []string `json:"transformSourceObjects,omitempty"`
	TransformDescription    string `json:"transformDescription,omitempty"`

	Examples     []any  `json:"examples,omitempty"`
	DefaultValue *string `json:"defaultValue,omitempty"`

	EnumValues []string `json:"enumValues,omitempty"`

	Quality []map[string]any `json:"quality,omitempty"`

	Relationships            []string                  `json:"relationships,omitempty"`
	AuthoritativeDefinitions []AuthoritativeDefinition `json:"authoritativeDefinitions,omitempty"`
	Tags                     []string                  `json:"tags,omitempty"`
	CustomProperties         []CustomProperty          `json:"customProperties,omitempty"`

	// RefPath is a cross-contract pointer, resolved out of band.
	RefPath string `json:"refPath,omitempty"`
}

// AuthoritativeDefinition names an external document that is the
// authoritative source for a contract or column.
type AuthoritativeDefinition struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// ServerConfig describes one physical location the contract's data lives
// in (e.g. a warehouse schema, a bucket prefix).
type ServerConfig struct {
	Server     string            `json:"server"`
	Type       string            `json:"type,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// TeamMember names one person or role responsible for the contract.
type TeamMember struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// SupportChannel names a way to get help with the contract (Slack
// channel, mailing list, ticket queue, ...).
type SupportChannel struct {
	Channel string `json:"channel"`
	URL     string `json:"url,omitempty"`
	Tool    string `json:"tool,omitempty"`
}

// Role is a named access role a consumer may request for the contract.
type Role struct {
	Name        string `json:"role"`
	Description string `json:"description,omitempty"`
}

// SLAProperty is one measurable service-level commitment.
type SLAProperty struct {
	Property string `json:"property"`
	Value    any    `json:"value"`
	Unit     string `json:"unit,omitempty"`
}

// Price describes the commercial terms for consuming the contract.
type Price struct {
	Amount   float64 `json:"priceAmount,omitempty"`
	Currency string  `json:"priceCurrency,omitempty"`
	Unit     string  `json:"priceUnit,omitempty"`
}

// CustomProperty is an open-ended key/value pair, the pass-through
// extension point every format reserves for vendor-specific metadata.
type CustomProperty struct {
	Property string `json:"property"`
	Value    any    `json:"value"`
}

// Cardinality describes the multiplicity of a Relationship's two ends.
type Cardinality string

const (
	CardinalityOneToOne   Cardinality = "one-one"
	CardinalityOneToMany  Cardinality = "one-many"
	CardinalityManyToMany Cardinality = "many-many"
)

// Relationship is a directed, typed link between two tables.
type Relationship struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`

	FromTableID uuid.UUID `json:"fromTableId"`
	ToTableID   uuid.UUID `json:"toTableId"`

	Cardinality      Cardinality `json:"cardinality"`
	FromOptional     bool        `json:"fromOptional,omitempty"`
	ToOptional       bool        `json:"toOptional,omitempty"`

	ETLJob string `json:"etlJob,omitempty"`

	ForeignKeyColumns  []string `json:"foreignKeyColumns,omitempty"`
	ReferencedColumns  []string `json:"referencedColumns,omitempty"`

	// VisualMetadata is opaque layout/color metadata owned by an external
	// UI collaborator; the core round-trips it but never interprets it.
	VisualMetadata map[string]any `json:"visualMetadata,omitempty"`
}

// OrphanedRelationship is a Relationship whose endpoint(s) do not resolve
// to a known table. Invariant I6 requires these be surfaced, never
// silently dropped.
type OrphanedRelationship struct {
	Relationship *Relationship
	MissingFrom  bool
	MissingTo    bool
}

// AssetKind tags a compute Asset referenced from a Domain (model,
// pipeline, application, ...). Represented as a sum-type tag rather than
// a class hierarchy, per the re-architecture guidance in spec.md §9.
type AssetKind string

const (
	AssetKindModel              AssetKind = "model"
	AssetKindMLPipeline         AssetKind = "pipeline"
	AssetKindApplication        AssetKind = "application"
	AssetKindETLPipeline        AssetKind = "etl"
	AssetKindSourceSystem       AssetKind = "source"
	AssetKindDestinationSystem  AssetKind = "destination"
)

// Asset is a compute node a Domain may reference (CADS-described model,
// pipeline, or application) rather than a tabular contract.
type Asset struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Kind AssetKind `json:"kind"`
}

// Port is one input or output connection point of a DataProduct,
// referencing a Table (contract) by id.
type Port struct {
	Name       string    `json:"name"`
	ContractID uuid.UUID `json:"contractId"`
}

// DataProduct references zero or more contracts by id on its input and
// output ports (ODPS, spec.md §4.4.7).
type DataProduct struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Status      Status    `json:"status,omitempty"`
	InputPorts  []Port    `json:"inputPorts"`
	OutputPorts []Port    `json:"outputPorts"`
}

// Domain is a named container referencing zero or more tables, products,
// and assets by id.
type Domain struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	TableIDs []uuid.UUID `json:"tableIds,omitempty"`
	ProductIDs []uuid.UUID `json:"productIds,omitempty"`
	AssetIDs []uuid.UUID `json:"assetIds,omitempty"`
}

// FindColumn looks for a column by its full dotted name inside a table.
func (t *Table) FindColumn(name string) *Column {
	for _, c := range t.Schema {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// PrimaryKeyColumns returns the table's primary-key columns, in schema
// order.
func (t *Table) PrimaryKeyColumns() []*Column {
	var pk []*Column
	for _, c := range t.Schema {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// String returns a short human-readable summary of the table.
func (t *Table) String() string {
	return fmt.Sprintf("Table: %s (%d columns)", t.Name, len(t.Schema))
}
