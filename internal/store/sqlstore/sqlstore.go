// Package sqlstore is the one reference store.Store implementation built
// in this repository, wiring the teacher's own
// github.com/go-sql-driver/mysql dependency against the capability
// interface (spec.md §4.8/C9). The other three named backends (embedded
// columnar DB, browser KV, HTTP/API) stay external collaborators
// per spec.md §1; this one exists so the driver has a concrete,
// exercised home rather than sitting in go.mod unused.
//
// Schema-version bookkeeping and transactional bulk upserts are grounded
// in the teacher's internal/apply.Applier (Connect/Close scoping a *sql.DB,
// applyWithTransaction's begin/exec-loop/commit-or-rollback shape).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"contractkit/internal/core"
	"contractkit/internal/store"
)

const schemaVersion = 1

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (version INT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS workspaces (
		id CHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS domains (
		id CHAR(36) PRIMARY KEY,
		workspace_id CHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		table_ids JSON,
		product_ids JSON,
		asset_ids JSON
	)`,
	`CREATE TABLE IF NOT EXISTS tables (
		id CHAR(36) PRIMARY KEY,
		workspace_id CHAR(36) NOT NULL,
		source_path VARCHAR(1024),
		name VARCHAR(255) NOT NULL,
		version VARCHAR(64),
		status VARCHAR(32),
		domain VARCHAR(255),
		tenant VARCHAR(255),
		data_product VARCHAR(255),
		metadata JSON,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS columns (
		table_id CHAR(36) NOT NULL,
		position INT NOT NULL,
		name VARCHAR(512) NOT NULL,
		data_type VARCHAR(128) NOT NULL,
		nullable BOOLEAN NOT NULL,
		primary_key BOOLEAN NOT NULL,
		attributes JSON,
		PRIMARY KEY (table_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS relationships (
		id CHAR(36) PRIMARY KEY,
		workspace_id CHAR(36) NOT NULL,
		from_table_id CHAR(36) NOT NULL,
		to_table_id CHAR(36) NOT NULL,
		cardinality VARCHAR(32) NOT NULL,
		attributes JSON
	)`,
	`CREATE TABLE IF NOT EXISTS file_hashes (
		workspace_id CHAR(36) NOT NULL,
		path VARCHAR(1024) NOT NULL,
		hash CHAR(64) NOT NULL,
		PRIMARY KEY (workspace_id, path)
	)`,
}

// Store is a store.Store backed by a database/sql handle over the MySQL
// driver.
type Store struct {
	db *sql.DB
}

// Open opens dsn with the mysql driver and returns a Store over it.
// Callers must call Close when done (spec.md §5: Store handles are
// interior-mutable and owned exclusively by the sync engine for the
// duration of a run).
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, &core.IOError{Op: "open sqlstore connection", Err: err}
	}
	return &Store{db: db}, nil
}

func (s *Store) Initialize(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.IOError{Op: "begin initialize transaction", Err: err}
	}
	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return &core.IOError{Op: "run schema DDL", Err: err}
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) SELECT ? WHERE NOT EXISTS (SELECT 1 FROM schema_version)", schemaVersion); err != nil {
		_ = tx.Rollback()
		return &core.IOError{Op: "seed schema_version", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &core.IOError{Op: "commit initialize transaction", Err: err}
	}
	return nil
}

func (s *Store) Execute(ctx context.Context, query string) error {
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return &core.IOError{Op: "execute query", Err: err}
	}
	return nil
}

func (s *Store) ExecuteWithParams(ctx context.Context, query string, params []any) error {
	if _, err := s.db.ExecContext(ctx, query, params...); err != nil {
		return &core.IOError{Op: "execute parameterized query", Err: err}
	}
	return nil
}

func (s *Store) UpsertWorkspace(ctx context.Context, w *store.Workspace) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, name) VALUES (?, ?) ON DUPLICATE KEY UPDATE name = VALUES(name)`,
		w.ID.String(), w.Name)
	if err != nil {
		return &core.IOError{Op: "upsert workspace", Err: err}
	}
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, idOrName string) (*store.Workspace, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name FROM workspaces WHERE id = ? OR name = ?`, idOrName, idOrName)
	var id, name string
	if err := row.Scan(&id, &name); err != nil {
		return nil, &core.IOError{Op: "get workspace", Err: err}
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, &core.IOError{Op: "parse workspace id", Err: err}
	}
	return &store.Workspace{ID: parsed, Name: name}, nil
}

func (s *Store) DeleteWorkspace(ctx context.Context, id uuid.UUID) error {
	// Cascades: relationships/columns/tables/domains reference
	// workspace_id and are removed alongside it (spec.md §3's "DELETE
	// cascades columns and incoming relationships").
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.IOError{Op: "begin delete workspace transaction", Err: err}
	}
	stmts := []string{
		`DELETE FROM columns WHERE table_id IN (SELECT id FROM tables WHERE workspace_id = ?)`,
		`DELETE FROM relationships WHERE workspace_id = ?`,
		`DELETE FROM tables WHERE workspace_id = ?`,
		`DELETE FROM domains WHERE workspace_id = ?`,
		`DELETE FROM file_hashes WHERE workspace_id = ?`,
		`DELETE FROM workspaces WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, id.String()); err != nil {
			_ = tx.Rollback()
			return &core.IOError{Op: "delete workspace cascade", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &core.IOError{Op: "commit delete workspace transaction", Err: err}
	}
	return nil
}

// tableAttrs carries the Table fields that aren't worth their own SQL
// column, round-tripped as a single JSON blob.
type tableAttrs struct {
	Servers                  []core.ServerConfig            `json:"servers,omitempty"`
	Team                     []core.TeamMember               `json:"team,omitempty"`
	Support                  []core.SupportChannel           `json:"support,omitempty"`
	Roles                    []core.Role                      `json:"roles,omitempty"`
	SLAProperties            []core.SLAProperty               `json:"slaProperties,omitempty"`
	Price                    *core.Price                      `json:"price,omitempty"`
	Quality                  []map[string]any                 `json:"quality,omitempty"`
	Tags                     []string                         `json:"tags,omitempty"`
	CustomProperties         []core.CustomProperty            `json:"customProperties,omitempty"`
	AuthoritativeDefinitions []core.AuthoritativeDefinition    `json:"authoritativeDefinitions,omitempty"`
	ODCSMetadata             map[string]any                   `json:"odcsMetadata,omitempty"`
}

type columnAttrs struct {
	PhysicalType           string                          `json:"physicalType,omitempty"`
	PhysicalName           string                          `json:"physicalName,omitempty"`
	PrimaryKeyPosition     int                             `json:"primaryKeyPosition,omitempty"`
	Unique                 bool                            `json:"unique,omitempty"`
	Partitioned            bool                            `json:"partitioned,omitempty"`
	PartitionKeyPosition   int                             `json:"partitionKeyPosition,omitempty"`
	Clustered              bool                            `json:"clustered,omitempty"`
	Description            string                          `json:"description,omitempty"`
	BusinessName           string                          `json:"businessName,omitempty"`
	Classification         string                          `json:"classification,omitempty"`
	CriticalDataElement    bool                            `json:"criticalDataElement,omitempty"`
	TransformLogic         string                          `json:"transformLogic,omitempty"`
	TransformSourceObjects []string                        `json:"transformSourceObjects,omitempty"`
	TransformDescription   string                          `json:"transformDescription,omitempty"`
	Examples               []any                           `json:"examples,omitempty"`
	DefaultValue           *string                         `json:"defaultValue,omitempty"`
	EnumValues             []string                        `json:"enumValues,omitempty"`
	Quality                []map[string]any                `json:"quality,omitempty"`
	Relationships          []string                        `json:"relationships,omitempty"`
	AuthoritativeDefinitions []core.AuthoritativeDefinition `json:"authoritativeDefinitions,omitempty"`
	Tags                   []string                        `json:"tags,omitempty"`
	CustomProperties       []core.CustomProperty            `json:"customProperties,omitempty"`
	RefPath                string                          `json:"refPath,omitempty"`
}

// SyncTables deletes and reinserts every table's full column set within
// one transaction per table, matching spec.md §4.7's "replace column/
// relationship rows atomically per table." path is stamped onto each
// row so DeleteByPath can later find exactly the rows this call
// produced.
func (s *Store) SyncTables(ctx context.Context, workspaceID uuid.UUID, path string, tables []*core.Table) error {
	for _, t := range tables {
		if err := s.syncOneTable(ctx, workspaceID, path, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) syncOneTable(ctx context.Context, workspaceID uuid.UUID, path string, t *core.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.IOError{Op: "begin sync table transaction", Err: err}
	}

	attrs, err := json.Marshal(tableAttrs{
		Servers: t.Servers, Team: t.Team, Support: t.Support, Roles: t.Roles,
		SLAProperties: t.SLAProperties, Price: t.Price, Quality: t.Quality,
		Tags: t.Tags, CustomProperties: t.CustomProperties,
		AuthoritativeDefinitions: t.AuthoritativeDefinitions, ODCSMetadata: t.ODCSMetadata,
	})
	if err != nil {
		_ = tx.Rollback()
		return &core.IOError{Op: "marshal table attributes", Err: err}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO tables
		(id, workspace_id, source_path, name, version, status, domain, tenant, data_product, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE source_path=VALUES(source_path), name=VALUES(name), version=VALUES(version), status=VALUES(status),
			domain=VALUES(domain), tenant=VALUES(tenant), data_product=VALUES(data_product),
			metadata=VALUES(metadata), updated_at=VALUES(updated_at)`,
		t.ID.String(), workspaceID.String(), path, t.Name, t.Version, string(t.Status),
		t.Domain, t.Tenant, t.DataProduct, attrs, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return &core.IOError{Op: "upsert table row", Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM columns WHERE table_id = ?`, t.ID.String()); err != nil {
		_ = tx.Rollback()
		return &core.IOError{Op: "delete existing columns", Err: err}
	}

	for i, c := range t.Schema {
		cAttrs, err := json.Marshal(columnAttrs{
			PhysicalType: c.PhysicalType, PhysicalName: c.PhysicalName,
			PrimaryKeyPosition: c.PrimaryKeyPosition, Unique: c.Unique,
			Partitioned: c.Partitioned, PartitionKeyPosition: c.PartitionKeyPosition,
			Clustered: c.Clustered, Description: c.Description, BusinessName: c.BusinessName,
			Classification: c.Classification, CriticalDataElement: c.CriticalDataElement,
			TransformLogic: c.TransformLogic, TransformSourceObjects: c.TransformSourceObjects,
			TransformDescription: c.TransformDescription, Examples: c.Examples,
			DefaultValue: c.DefaultValue, EnumValues: c.EnumValues, Quality: c.Quality,
			Relationships: c.Relationships, AuthoritativeDefinitions: c.AuthoritativeDefinitions,
			Tags: c.Tags, CustomProperties: c.CustomProperties, RefPath: c.RefPath,
		})
		if err != nil {
			_ = tx.Rollback()
			return &core.IOError{Op: "marshal column attributes", Err: err}
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO columns
			(table_id, position, name, data_type, nullable, primary_key, attributes)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID.String(), i, c.Name, string(c.DataType), c.Nullable, c.PrimaryKey, cAttrs)
		if err != nil {
			_ = tx.Rollback()
			return &core.IOError{Op: "insert column row", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &core.IOError{Op: "commit sync table transaction", Err: err}
	}
	return nil
}

func (s *Store) SyncDomains(ctx context.Context, workspaceID uuid.UUID, domains []*core.Domain) error {
	for _, d := range domains {
		tableIDs, _ := json.Marshal(d.TableIDs)
		productIDs, _ := json.Marshal(d.ProductIDs)
		assetIDs, _ := json.Marshal(d.AssetIDs)
		_, err := s.db.ExecContext(ctx, `INSERT INTO domains
			(id, workspace_id, name, table_ids, product_ids, asset_ids)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE name=VALUES(name), table_ids=VALUES(table_ids),
				product_ids=VALUES(product_ids), asset_ids=VALUES(asset_ids)`,
			d.ID.String(), workspaceID.String(), d.Name, tableIDs, productIDs, assetIDs)
		if err != nil {
			return &core.IOError{Op: "upsert domain row", Err: err}
		}
	}
	return nil
}

// relationshipAttrs carries the Relationship fields with no dedicated
// SQL column.
type relationshipAttrs struct {
	Name              string         `json:"name,omitempty"`
	FromOptional      bool           `json:"fromOptional,omitempty"`
	ToOptional        bool           `json:"toOptional,omitempty"`
	ETLJob            string         `json:"etlJob,omitempty"`
	ForeignKeyColumns []string       `json:"foreignKeyColumns,omitempty"`
	ReferencedColumns []string       `json:"referencedColumns,omitempty"`
	VisualMetadata    map[string]any `json:"visualMetadata,omitempty"`
}

func (s *Store) SyncRelationships(ctx context.Context, workspaceID uuid.UUID, rels []*core.Relationship) error {
	for _, r := range rels {
		attrs, err := json.Marshal(relationshipAttrs{
			Name: r.Name, FromOptional: r.FromOptional, ToOptional: r.ToOptional,
			ETLJob: r.ETLJob, ForeignKeyColumns: r.ForeignKeyColumns,
			ReferencedColumns: r.ReferencedColumns, VisualMetadata: r.VisualMetadata,
		})
		if err != nil {
			return &core.IOError{Op: "marshal relationship attributes", Err: err}
		}
		_, err = s.db.ExecContext(ctx, `INSERT INTO relationships
			(id, workspace_id, from_table_id, to_table_id, cardinality, attributes)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE from_table_id=VALUES(from_table_id), to_table_id=VALUES(to_table_id),
				cardinality=VALUES(cardinality), attributes=VALUES(attributes)`,
			r.ID.String(), workspaceID.String(), r.FromTableID.String(), r.ToTableID.String(),
			string(r.Cardinality), attrs)
		if err != nil {
			return &core.IOError{Op: "upsert relationship row", Err: err}
		}
	}
	return nil
}

func (s *Store) ExportTables(ctx context.Context, workspaceID uuid.UUID) ([]*core.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, version, status, domain, tenant, data_product,
		metadata, created_at, updated_at FROM tables WHERE workspace_id = ?`, workspaceID.String())
	if err != nil {
		return nil, &core.IOError{Op: "query tables", Err: err}
	}
	defer rows.Close()

	var tables []*core.Table
	for rows.Next() {
		var idStr, name, version, status, domain, tenant, dataProduct string
		var metadata []byte
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&idStr, &name, &version, &status, &domain, &tenant, &dataProduct, &metadata, &createdAt, &updatedAt); err != nil {
			return nil, &core.IOError{Op: "scan table row", Err: err}
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, &core.IOError{Op: "parse table id", Err: err}
		}
		var attrs tableAttrs
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &attrs); err != nil {
				return nil, &core.IOError{Op: "unmarshal table attributes", Err: err}
			}
		}
		cols, err := s.exportColumns(ctx, id)
		if err != nil {
			return nil, err
		}
		t := &core.Table{
			ID: id, Name: name, Version: version, Status: core.Status(status),
			Domain: domain, Tenant: tenant, DataProduct: dataProduct, Schema: cols,
			Servers: attrs.Servers, Team: attrs.Team, Support: attrs.Support, Roles: attrs.Roles,
			SLAProperties: attrs.SLAProperties, Price: attrs.Price, Quality: attrs.Quality,
			Tags: attrs.Tags, CustomProperties: attrs.CustomProperties,
			AuthoritativeDefinitions: attrs.AuthoritativeDefinitions, ODCSMetadata: attrs.ODCSMetadata,
			CreatedAt: createdAt.Time, UpdatedAt: updatedAt.Time,
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (s *Store) exportColumns(ctx context.Context, tableID uuid.UUID) ([]*core.Column, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, data_type, nullable, primary_key, attributes
		FROM columns WHERE table_id = ? ORDER BY position ASC`, tableID.String())
	if err != nil {
		return nil, &core.IOError{Op: "query columns", Err: err}
	}
	defer rows.Close()

	var cols []*core.Column
	for rows.Next() {
		var name, dataType string
		var nullable, primaryKey bool
		var attrsRaw []byte
		if err := rows.Scan(&name, &dataType, &nullable, &primaryKey, &attrsRaw); err != nil {
			return nil, &core.IOError{Op: "scan column row", Err: err}
		}
		var attrs columnAttrs
		if len(attrsRaw) > 0 {
			if err := json.Unmarshal(attrsRaw, &attrs); err != nil {
				return nil, &core.IOError{Op: "unmarshal column attributes", Err: err}
			}
		}
		cols = append(cols, &core.Column{
			Name: name, DataType: core.DataType(dataType), Nullable: nullable, PrimaryKey: primaryKey,
			PhysicalType: attrs.PhysicalType, PhysicalName: attrs.PhysicalName,
			PrimaryKeyPosition: attrs.PrimaryKeyPosition, Unique: attrs.Unique,
			Partitioned: attrs.Partitioned, PartitionKeyPosition: attrs.PartitionKeyPosition,
			Clustered: attrs.Clustered, Description: attrs.Description, BusinessName: attrs.BusinessName,
			Classification: attrs.Classification, CriticalDataElement: attrs.CriticalDataElement,
			TransformLogic: attrs.TransformLogic, TransformSourceObjects: attrs.TransformSourceObjects,
			TransformDescription: attrs.TransformDescription, Examples: attrs.Examples,
			DefaultValue: attrs.DefaultValue, EnumValues: attrs.EnumValues, Quality: attrs.Quality,
			Relationships: attrs.Relationships, AuthoritativeDefinitions: attrs.AuthoritativeDefinitions,
			Tags: attrs.Tags, CustomProperties: attrs.CustomProperties, RefPath: attrs.RefPath,
		})
	}
	return cols, rows.Err()
}

func (s *Store) ExportDomains(ctx context.Context, workspaceID uuid.UUID) ([]*core.Domain, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, table_ids, product_ids, asset_ids
		FROM domains WHERE workspace_id = ?`, workspaceID.String())
	if err != nil {
		return nil, &core.IOError{Op: "query domains", Err: err}
	}
	defer rows.Close()

	var domains []*core.Domain
	for rows.Next() {
		var idStr, name string
		var tableIDs, productIDs, assetIDs []byte
		if err := rows.Scan(&idStr, &name, &tableIDs, &productIDs, &assetIDs); err != nil {
			return nil, &core.IOError{Op: "scan domain row", Err: err}
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, &core.IOError{Op: "parse domain id", Err: err}
		}
		d := &core.Domain{ID: id, Name: name}
		_ = json.Unmarshal(tableIDs, &d.TableIDs)
		_ = json.Unmarshal(productIDs, &d.ProductIDs)
		_ = json.Unmarshal(assetIDs, &d.AssetIDs)
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (s *Store) ExportRelationships(ctx context.Context, workspaceID uuid.UUID) ([]*core.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, from_table_id, to_table_id, cardinality, attributes
		FROM relationships WHERE workspace_id = ?`, workspaceID.String())
	if err != nil {
		return nil, &core.IOError{Op: "query relationships", Err: err}
	}
	defer rows.Close()

	var rels []*core.Relationship
	for rows.Next() {
		var idStr, fromStr, toStr, cardinality string
		var attrsRaw []byte
		if err := rows.Scan(&idStr, &fromStr, &toStr, &cardinality, &attrsRaw); err != nil {
			return nil, &core.IOError{Op: "scan relationship row", Err: err}
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, &core.IOError{Op: "parse relationship id", Err: err}
		}
		from, err := uuid.Parse(fromStr)
		if err != nil {
			return nil, &core.IOError{Op: "parse relationship fromTableId", Err: err}
		}
		to, err := uuid.Parse(toStr)
		if err != nil {
			return nil, &core.IOError{Op: "parse relationship toTableId", Err: err}
		}
		var attrs relationshipAttrs
		if len(attrsRaw) > 0 {
			if err := json.Unmarshal(attrsRaw, &attrs); err != nil {
				return nil, &core.IOError{Op: "unmarshal relationship attributes", Err: err}
			}
		}
		rels = append(rels, &core.Relationship{
			ID: id, Name: attrs.Name, FromTableID: from, ToTableID: to,
			Cardinality: core.Cardinality(cardinality), FromOptional: attrs.FromOptional,
			ToOptional: attrs.ToOptional, ETLJob: attrs.ETLJob,
			ForeignKeyColumns: attrs.ForeignKeyColumns, ReferencedColumns: attrs.ReferencedColumns,
			VisualMetadata: attrs.VisualMetadata,
		})
	}
	return rels, rows.Err()
}

func (s *Store) RecordFileHash(ctx context.Context, workspaceID uuid.UUID, path, hash string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO file_hashes (workspace_id, path, hash) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE hash = VALUES(hash)`, workspaceID.String(), path, hash)
	if err != nil {
		return &core.IOError{Op: "record file hash", Err: err}
	}
	return nil
}

func (s *Store) GetFileHash(ctx context.Context, workspaceID uuid.UUID, path string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT hash FROM file_hashes WHERE workspace_id = ? AND path = ?`, workspaceID.String(), path)
	var hash string
	if err := row.Scan(&hash); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, &core.IOError{Op: "get file hash", Err: err}
	}
	return hash, true, nil
}

func (s *Store) ListFileHashes(ctx context.Context, workspaceID uuid.UUID) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, hash FROM file_hashes WHERE workspace_id = ?`, workspaceID.String())
	if err != nil {
		return nil, &core.IOError{Op: "list file hashes", Err: err}
	}
	defer rows.Close()

	index := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, &core.IOError{Op: "scan file hash row", Err: err}
		}
		index[path] = hash
	}
	return index, rows.Err()
}

func (s *Store) DeleteFileHash(ctx context.Context, workspaceID uuid.UUID, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM file_hashes WHERE workspace_id = ? AND path = ?`, workspaceID.String(), path); err != nil {
		return &core.IOError{Op: fmt.Sprintf("delete file hash for %s", path), Err: err}
	}
	return nil
}

// DeleteByPath cascades every table path's last SyncTables call
// produced: their columns, their incoming/outgoing relationships, then
// the table rows themselves, all in one transaction (spec.md §4.7's
// per-file transaction scope).
func (s *Store) DeleteByPath(ctx context.Context, workspaceID uuid.UUID, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.IOError{Op: "begin delete by path transaction", Err: err}
	}
	stmts := []string{
		`DELETE FROM columns WHERE table_id IN (SELECT id FROM tables WHERE workspace_id = ? AND source_path = ?)`,
		`DELETE FROM relationships WHERE workspace_id = ? AND (
			from_table_id IN (SELECT id FROM tables WHERE workspace_id = ? AND source_path = ?) OR
			to_table_id IN (SELECT id FROM tables WHERE workspace_id = ? AND source_path = ?)
		)`,
		`DELETE FROM tables WHERE workspace_id = ? AND source_path = ?`,
	}
	args := [][]any{
		{workspaceID.String(), path},
		{workspaceID.String(), workspaceID.String(), path, workspaceID.String(), path},
		{workspaceID.String(), path},
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, args[i]...); err != nil {
			_ = tx.Rollback()
			return &core.IOError{Op: fmt.Sprintf("delete by path for %s", path), Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &core.IOError{Op: "commit delete by path transaction", Err: err}
	}
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &core.IOError{Op: "health check ping", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &core.IOError{Op: "close store connection", Err: err}
	}
	return nil
}

var _ store.Store = (*Store)(nil)
