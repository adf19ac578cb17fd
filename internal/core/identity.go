package core

import "github.com/google/uuid"

// IdentifierNamespace is the fixed UUIDv5 namespace every Table id is
// derived under. Keeping it constant is what lets independently
// generated files for the same logical contract converge on the same id
// (spec.md §4.2).
var IdentifierNamespace = uuid.MustParse("6f2a6e0a-6e6d-4c1a-9e2e-2c9a9d6a9f10")

// DeriveTableID computes the deterministic id for a table from its
// natural key: (tenant, domain, schema, catalog, name). Empty components
// are represented by the empty string; they still participate in the
// concatenation so that, e.g., (tenant="", name="orders") and
// (tenant="acme", name="orders") never collide.
func DeriveTableID(tenant, domain, schemaName, catalogName, tableName string) uuid.UUID {
	naturalKey := tenant + "\x1f" + domain + "\x1f" + schemaName + "\x1f" + catalogName + "\x1f" + tableName
	return uuid.NewSHA1(IdentifierNamespace, []byte(naturalKey))
}

// NewWorkspaceID returns a fresh random id for a workspace created for
// the first time. Workspaces have no natural key to derive from, so
// unlike table ids they are random (spec.md §9 "Identifier determinism").
func NewWorkspaceID() uuid.UUID {
	return uuid.New()
}
