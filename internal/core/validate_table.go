package core

import "time"

// TableOption mutates a Table at construction time.
type TableOption func(*Table)

// WithTenant sets the tenant component of the table's natural key.
func WithTenant(tenant string) TableOption { return func(t *Table) { t.Tenant = tenant } }

// WithDomainName sets the domain component of the table's natural key.
func WithDomainName(domain string) TableOption { return func(t *Table) { t.Domain = domain } }

// WithSchemaName attaches a source-schema component to the natural key
// without storing it as a first-class field (it only affects id
// derivation, mirroring spec.md §4.2's (tenant, domain, schema, catalog,
// name) tuple).
func WithSchemaName(schemaName string) TableOption {
	return func(t *Table) { t.schemaNameForID = schemaName }
}

// WithCatalogName is the catalog component of the natural key.
func WithCatalogName(catalogName string) TableOption {
	return func(t *Table) { t.catalogNameForID = catalogName }
}

// WithUUIDOverride pins the table's id instead of deriving it. Callers
// enforce the "override requires exactly one table" rule themselves
// (spec.md §4.2); NewTable does not know how many tables a caller's
// import batch produced.
func WithUUIDOverride(id [16]byte) TableOption {
	return func(t *Table) { t.ID = id; t.idOverridden = true }
}

// NewTable constructs a Table from a name and an ordered column list,
// deriving its id (§4.2) unless overridden, and validating invariants
// I2-I5. Construction fails with *InvalidModelError when they cannot be
// established.
func NewTable(name string, columns []*Column, opts ...TableOption) (*Table, error) {
	now := time.Now().UTC()
	t := &Table{
		Name:      name,
		Schema:    columns,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if !t.idOverridden {
		t.ID = DeriveTableID(t.Tenant, t.Domain, t.schemaNameForID, t.catalogNameForID, t.Name)
	}
	if err := Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ReplaceColumns atomically replaces the table's full column list,
// re-validating I2-I5. It is the only way to mutate Schema; partial
// (single-column) updates are not exposed (spec.md §4.1).
func (t *Table) ReplaceColumns(columns []*Column) error {
	prev := t.Schema
	t.Schema = columns
	if err := Validate(t); err != nil {
		t.Schema = prev
		return err
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// TableMetadataPatch carries the scalar fields ApplyMetadata may replace.
// Every field is applied; there is no partial/sparse patch semantics,
// matching spec.md §4.1's "merges ... replace scalar fields ... atomically".
type TableMetadataPatch struct {
	Version     string
	Status      Status
	Domain      string
	Tenant      string
	DataProduct string
}

// ApplyMetadata replaces the table's scalar metadata fields atomically.
func (t *Table) ApplyMetadata(patch TableMetadataPatch) {
	t.Version = patch.Version
	t.Status = patch.Status
	t.Domain = patch.Domain
	t.Tenant = patch.Tenant
	t.DataProduct = patch.DataProduct
	t.UpdatedAt = time.Now().UTC()
}
