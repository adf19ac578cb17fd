// Package syncengine reconciles a workspace's files on a store.FileSource
// against the canonical entities persisted in a store.Store (spec.md
// §4.7/C8). The change-detection algorithm is grounded in the teacher's
// internal/diff.Diff: build two path→hash maps, set-subtract them, the
// remainder is Modified — re-targeted here from table-name keys to
// file-path keys and from structural column diffing to opaque
// content-hash comparison, since a sync run reconciles files, not two
// schema revisions. The per-file transaction/rollback contract mirrors
// the teacher's internal/apply.Applier.applyWithTransaction begin/
// exec-loop/commit-or-rollback shape.
package syncengine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"contractkit/internal/core"
	"contractkit/internal/exporter"
	"contractkit/internal/importer"
	"contractkit/internal/store"
)

// Result is the outcome of one Sync run.
type Result struct {
	Added    []string
	Modified []string
	Deleted  []string
	Skipped  []string
	// TablesSynced counts Added+Modified files that were actually
	// re-imported and upserted (spec.md scenario 6: an unchanged-bytes
	// rerun reports tablesSynced=0).
	TablesSynced int
	// Warnings collects non-fatal diagnostics: classified files with no
	// registered importer (such as BPMN/DMN), and importer-level parse
	// diagnostics surfaced per file. Ignored files are listed in Skipped.
	Warnings []string
}

// Engine reconciles one workspace's FileSource against one Store.
type Engine struct {
	store  store.Store
	source store.FileSource

	// runLock is the advisory in-process "at most one sync in flight"
	// lock spec.md §5 names, one per Engine (and so per workspace only
	// while one Engine serves each workspace), per the teacher's own
	// introspect registry mutex pattern (a single shared primitive
	// guarding concurrent callers of the same resource).
	runLock sync.Mutex
}

// New returns an Engine reconciling files from source against st.
func New(st store.Store, source store.FileSource) *Engine {
	return &Engine{store: st, source: source}
}

// Sync performs one reconciliation pass for workspaceID: hashes every
// file on source, compares against the store's recorded hash index,
// imports and upserts Added/Modified files, cascade-deletes entities for
// Deleted files, and writes back the new hash index — all ordered and
// transactional per spec.md §4.7/§5.
func (e *Engine) Sync(ctx context.Context, workspaceID uuid.UUID) (*Result, error) {
	e.runLock.Lock()
	defer e.runLock.Unlock()

	paths, err := e.source.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	current := make(map[string]string, len(paths))
	contents := make(map[string][]byte, len(paths))

	for _, p := range paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, ok := ClassifyFile(p); !ok {
			result.Skipped = append(result.Skipped, p)
			continue
		}
		data, err := e.source.ReadFile(ctx, p)
		if err != nil {
			return nil, err
		}
		current[p] = hashBytes(data)
		contents[p] = data
	}

	stored, err := e.store.ListFileHashes(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	var added, modified, deleted []string
	for p, hash := range current {
		oldHash, ok := stored[p]
		if !ok {
			added = append(added, p)
		} else if oldHash != hash {
			modified = append(modified, p)
		}
	}
	for p := range stored {
		if _, ok := current[p]; !ok {
			deleted = append(deleted, p)
		}
	}

	result.Added = added
	result.Modified = modified
	result.Deleted = deleted

	changed := append(append([]string{}, added...), modified...)
	orderChangedFiles(changed)

	for _, p := range changed {
		if err := e.syncFile(ctx, workspaceID, p, contents[p], result); err != nil {
			return nil, fmt.Errorf("sync %s: %w", p, err)
		}
	}

	for _, p := range deleted {
		if err := e.deleteFile(ctx, workspaceID, p); err != nil {
			return nil, fmt.Errorf("delete %s: %w", p, err)
		}
	}

	return result, nil
}

// deleteFile cascades the entity a Tombstoned path resolved to and
// removes its hash-index entry, matching spec.md §4.7's "for each
// Deleted: cascade-delete the entity."
func (e *Engine) deleteFile(ctx context.Context, workspaceID uuid.UUID, path string) error {
	if err := e.store.DeleteByPath(ctx, workspaceID, path); err != nil {
		return err
	}
	return e.store.DeleteFileHash(ctx, workspaceID, path)
}

// syncFile imports one Added/Modified file and upserts its entities and
// hash within a single logical transaction: a parse/validation failure
// or a Store write failure leaves the old hash (and old entities) intact,
// matching spec.md §5's "committed the new hash with the new rows or
// committed neither."
func (e *Engine) syncFile(ctx context.Context, workspaceID uuid.UUID, path string, data []byte, result *Result) error {
	kind, ok := ClassifyFile(path)
	if !ok {
		return nil
	}
	if kind == AssetWorkspace {
		return e.syncWorkspaceFile(ctx, workspaceID, data, result)
	}
	if kind == AssetRelationships {
		return e.syncRelationshipsFile(ctx, workspaceID, data, result)
	}

	format, ok := ImporterFormat(kind)
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: classified as %s, no importer registered, skipped", path, kind))
		return e.recordHash(ctx, workspaceID, path, data)
	}

	imported, err := importer.Import(format, data, importer.Options{})
	if err != nil {
		return err
	}
	for _, d := range imported.Diagnostics {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s: %s", path, d.Field, d.Message))
	}
	if len(imported.Tables) == 0 {
		return &core.ParseError{Format: string(format), Detail: fmt.Sprintf("%s produced no tables", path)}
	}

	if err := e.store.SyncTables(ctx, workspaceID, path, imported.Tables); err != nil {
		return err
	}
	if err := e.recordHash(ctx, workspaceID, path, data); err != nil {
		return err
	}
	result.TablesSynced += len(imported.Tables)
	return nil
}

func (e *Engine) recordHash(ctx context.Context, workspaceID uuid.UUID, path string, data []byte) error {
	return e.store.RecordFileHash(ctx, workspaceID, path, hashBytes(data))
}

func (e *Engine) syncWorkspaceFile(ctx context.Context, workspaceID uuid.UUID, data []byte, result *Result) error {
	name, err := decodeYAMLName(data)
	if err != nil {
		return err
	}
	if err := e.store.UpsertWorkspace(ctx, &store.Workspace{ID: workspaceID, Name: name}); err != nil {
		return err
	}
	return e.recordHash(ctx, workspaceID, "workspace.yaml", data)
}

func (e *Engine) syncRelationshipsFile(ctx context.Context, workspaceID uuid.UUID, data []byte, result *Result) error {
	rels, err := decodeYAMLRelationships(data)
	if err != nil {
		return err
	}
	if err := e.store.SyncRelationships(ctx, workspaceID, rels); err != nil {
		return err
	}
	return e.recordHash(ctx, workspaceID, "relationships.yaml", data)
}

// kindRank orders an AssetKind per spec.md §5's mandated file-level
// processing order: workspace, then domains, then tables, then
// relationships. Every registered table format (odcs/odps/cads/openapi)
// and the unimportable bpmn/dmn kinds share the "tables" rank, since
// nothing in that order depends on which table format a file is.
func kindRank(kind AssetKind) int {
	switch kind {
	case AssetWorkspace:
		return 0
	case AssetRelationships:
		return 3
	default:
		return 2
	}
}

// orderChangedFiles sorts a batch of Added/Modified paths into spec.md
// §5's mandated order, so a single Sync pass that touches workspace.yaml,
// a table file, and relationships.yaml together never lets relationships
// run before the tables they reference exist. Go's map iteration order
// is randomized, so this must run as a deterministic sort rather than
// relying on the order changed paths happened to be collected in.
// Ordering within one rank is otherwise unspecified, matching spec.md
// §5's "ordering of files inside a single sync run is unspecified."
func orderChangedFiles(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		ki, _ := ClassifyFile(paths[i])
		kj, _ := ClassifyFile(paths[j])
		return kindRank(ki) < kindRank(kj)
	})
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ExportWorkspace round-trips every table persisted for workspaceID back
// to bytes in format, for a caller that wants to regenerate the flat
// on-disk files from the store (the inverse of Sync).
func ExportWorkspace(ctx context.Context, st store.Store, workspaceID uuid.UUID, format importer.Format) (map[string][]byte, error) {
	tables, err := st.ExportTables(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(tables))
	for _, t := range tables {
		res, err := exporter.Export(format, t)
		if err != nil {
			return nil, err
		}
		out[t.Name] = res.Data
	}
	return out, nil
}
