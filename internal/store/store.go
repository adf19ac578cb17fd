// Package store defines the persistence capability set the sync engine
// depends on (spec.md §4.8/C9), grounded in the teacher's
// internal/introspect.Introspecter one-method capability-interface
// pattern, widened here to the full capability set spec.md lists. The
// core depends only on this interface, never on a concrete backend: four
// implementations are named in spec.md §1 as external collaborators
// (embedded columnar DB, remote SQL DB, browser KV, HTTP/API);
// only one, internal/store/sqlstore, is built here to give the teacher's
// github.com/go-sql-driver/mysql dependency a concrete, exercised home.
package store

import (
	"context"

	"github.com/google/uuid"

	"contractkit/internal/core"
)

// Workspace is the top-level persisted container a sync run reconciles
// against. Unlike Table ids, workspace ids are random (spec.md §9
// "Identifier determinism") since a workspace has no natural key.
type Workspace struct {
	ID   uuid.UUID
	Name string
}

// Store is the capability set every sync-engine-facing backend exposes.
// Every operation is a single transaction boundary; callers may not
// assume streaming semantics (spec.md §4.8).
type Store interface {
	Initialize(ctx context.Context) error
	Execute(ctx context.Context, query string) error
	ExecuteWithParams(ctx context.Context, query string, params []any) error

	UpsertWorkspace(ctx context.Context, w *Workspace) error
	GetWorkspace(ctx context.Context, idOrName string) (*Workspace, error)
	DeleteWorkspace(ctx context.Context, id uuid.UUID) error

	// SyncTables/SyncDomains/SyncRelationships are bulk upserts that
	// delete-then-insert each table's column rows, matching spec.md
	// §4.8's "bulk upserts (delete-then-insert columns per table)".
	// SyncTables records path alongside each table so a later
	// DeleteByPath(path) can find exactly the rows that file produced.
	SyncTables(ctx context.Context, workspaceID uuid.UUID, path string, tables []*core.Table) error
	SyncDomains(ctx context.Context, workspaceID uuid.UUID, domains []*core.Domain) error
	SyncRelationships(ctx context.Context, workspaceID uuid.UUID, rels []*core.Relationship) error

	ExportTables(ctx context.Context, workspaceID uuid.UUID) ([]*core.Table, error)
	ExportDomains(ctx context.Context, workspaceID uuid.UUID) ([]*core.Domain, error)
	ExportRelationships(ctx context.Context, workspaceID uuid.UUID) ([]*core.Relationship, error)

	RecordFileHash(ctx context.Context, workspaceID uuid.UUID, path, hash string) error
	GetFileHash(ctx context.Context, workspaceID uuid.UUID, path string) (hash string, ok bool, err error)
	// ListFileHashes returns the full stored path→hash index for
	// workspaceID, the "stored" side of the sync engine's Added/Deleted/
	// Modified set arithmetic (spec.md §4.7).
	ListFileHashes(ctx context.Context, workspaceID uuid.UUID) (map[string]string, error)
	// DeleteFileHash removes path's entry from the hash index, used when
	// the sync engine cascades a Deleted file.
	DeleteFileHash(ctx context.Context, workspaceID uuid.UUID, path string) error

	// DeleteByPath removes every table path's last SyncTables call
	// produced, cascading to their columns and incoming relationships
	// (spec.md §3 "Destruction is explicit through the sync engine").
	DeleteByPath(ctx context.Context, workspaceID uuid.UUID, path string) error

	HealthCheck(ctx context.Context) error
	Close() error
}

// FileSource lists and reads the raw bytes a sync run reconciles against
// (spec.md §4.7's "a set of files on a Store"). It is kept distinct from
// Store proper: Store persists canonical entities and file hashes, while
// FileSource is the read side of the workspace's file tree itself — a
// plain-filesystem backend can implement both from the same directory,
// but a remote-SQL or browser-KV Store needs a different file source
// (e.g. Git, an object bucket) that this package does not dictate. This
// split is recorded as an Open Question resolution in DESIGN.md: spec.md
// §4.8 does not separately name a file-reading capability, and folding
// it into Store would force every Store backend to also be a file
// system, which the four named backends are not uniformly.
type FileSource interface {
	ListFiles(ctx context.Context) ([]string, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
}
