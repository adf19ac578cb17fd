// Package sql implements the SQL DDL importer (spec.md §4.4.1): it parses
// CREATE TABLE and CREATE VIEW statements across the postgres, mysql,
// sqlite, generic, and databricks dialects into the canonical model.
//
// It is grounded directly in the teacher's internal/parser/mysql package
// (Pieczasz-smf), which walks TiDB's AST for CREATE TABLE statements.
// TiDB's grammar already accepts MySQL-compatible syntax across the
// dialects this importer declares, so one parser instance serves all of
// them; "dialect" here mostly governs which preprocessing front-end runs
// before the shared AST walk (step 4.4.1's Databricks preprocessing is
// the one dialect that needs one).
package sql

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"contractkit/internal/core"
	"contractkit/internal/importer"
)

// Dialect selects preprocessing and minor parsing policy. All dialects
// share the same TiDB grammar for CREATE TABLE/VIEW.
type Dialect string

const (
	DialectPostgres   Dialect = "postgres"
	DialectMySQL      Dialect = "mysql"
	DialectSQLite     Dialect = "sqlite"
	DialectGeneric    Dialect = "generic"
	DialectDatabricks Dialect = "databricks"
)

func init() {
	importer.Register(importer.FormatSQL, importer.ImporterFunc(importWithDefaultDialect))
}

// importWithDefaultDialect is what the shared registry calls; dialect
// defaults to DialectGeneric since importer.Options carries no
// format-specific fields (spec.md §4.4's shared Options omit per-format
// knobs on purpose). Callers who need a specific dialect call Import
// directly instead of going through the registry.
func importWithDefaultDialect(data []byte, opts importer.Options) (*importer.ImportResult, error) {
	return Import(data, DialectGeneric, opts)
}

// Import parses sql under the given dialect.
func Import(data []byte, dialect Dialect, opts importer.Options) (*importer.ImportResult, error) {
	src := string(data)

	var tableNameSuggestions []importer.TableNameSuggestion
	var hoisted []databricksHoist
	if dialect == DialectDatabricks {
		preprocessed, suggestions, h, err := preprocessDatabricks(src)
		if err != nil {
			return nil, &core.ParseError{Format: string(importer.FormatSQL), Detail: "databricks preprocessing", Err: err}
		}
		src = preprocessed
		tableNameSuggestions = suggestions
		hoisted = h
	}

	p := parser.New()
	stmtNodes, _, err := p.Parse(src, "", "")
	if err != nil {
		return nil, &core.ParseError{Format: string(importer.FormatSQL), Detail: "statement parse", Err: err}
	}

	var tables []*core.Table
	var diags []importer.ParseDiagnostic
	for _, stmt := range stmtNodes {
		switch s := stmt.(type) {
		case *ast.CreateTableStmt:
			t, d := convertCreateTable(s)
			tables = append(tables, t)
			diags = append(diags, d...)
		case *ast.CreateViewStmt:
			// Views parse to zero-column tables; the projection list is
			// not mined (spec.md §4.4.1, and Open Question in spec.md §9).
			t, err := core.NewTable(s.ViewName.Name.O, nil)
			if err != nil {
				return nil, err
			}
			tables = append(tables, t)
		default:
			// Other statement kinds are ignored silently.
		}
	}

	if dialect == DialectDatabricks {
		reattachHoistedTypes(tables, hoisted)
		tables = reattachDatabricksTableNames(tables, tableNameSuggestions)
	}

	if opts.UUIDOverride != nil && len(tables) == 1 {
		importer.ApplyUUIDOverride(tables, opts.UUIDOverride)
	}

	return &importer.ImportResult{
		Tables:              tables,
		TablesRequiringName: tableNameSuggestions,
		Diagnostics:         diags,
	}, nil
}

func convertCreateTable(stmt *ast.CreateTableStmt) (*core.Table, []importer.ParseDiagnostic) {
	var cols []*core.Column
	var diags []importer.ParseDiagnostic

	pkPositions := map[string]bool{}
	var tablePK []string

	for _, colDef := range stmt.Cols {
		col := &core.Column{
			Name:         colDef.Name.Name.O,
			PhysicalType: colDef.Tp.String(),
			DataType:     core.NormalizeDataType(colDef.Tp.String()),
			Nullable:     true,
		}
		for _, opt := range colDef.Options {
			switch opt.Tp {
			case ast.ColumnOptionNotNull:
				col.Nullable = false
			case ast.ColumnOptionNull:
				col.Nullable = true
			case ast.ColumnOptionPrimaryKey:
				col.PrimaryKey = true
				col.Nullable = false
				tablePK = append(tablePK, col.Name)
			case ast.ColumnOptionUniqKey:
				col.Unique = true
			case ast.ColumnOptionComment:
				if s := exprToString(opt.Expr); s != nil {
					col.Description = *s
				}
			case ast.ColumnOptionDefaultValue:
				col.DefaultValue = exprToString(opt.Expr)
			}
		}
		cols = append(cols, col)
	}

	// Table-level CONSTRAINT ... PRIMARY KEY (...) marks columns too.
	for _, c := range stmt.Constraints {
		if c.Tp != ast.ConstraintPrimaryKey {
			continue
		}
		for i, key := range c.Keys {
			name := key.Column.Name.O
			tablePK = append(tablePK, name)
			for _, col := range cols {
				if col.Name == name {
					col.PrimaryKey = true
					col.Nullable = false
					col.PrimaryKeyPosition = i + 1
				}
			}
			pkPositions[name] = true
		}
	}
	if len(pkPositions) == 0 {
		for i, name := range tablePK {
			for _, col := range cols {
				if col.Name == name {
					col.PrimaryKeyPosition = i + 1
				}
			}
		}
	}

	tableName := stmt.Table.Name.O
	t, err := core.NewTable(tableName, cols)
	if err != nil {
		diags = append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Message: err.Error()})
		// The most common recoverable cause is a partial or conflicting
		// PK position ordering (I4); clearing positions and retrying
		// keeps the table and its columns rather than discarding a
		// parse over a cosmetic ordinal problem.
		for _, col := range cols {
			col.PrimaryKeyPosition = 0
		}
		t, err = core.NewTable(tableName, cols)
		if err != nil {
			return &core.Table{Name: tableName}, append(diags, importer.ParseDiagnostic{Kind: importer.DiagnosticError, Message: err.Error()})
		}
	}
	return t, diags
}

func exprToString(expr ast.ExprNode) *string {
	if expr == nil {
		return nil
	}
	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := expr.Restore(ctx); err != nil {
		return nil
	}
	s := strings.TrimSpace(sb.String())
	if unquoted, ok := tryUnquoteSQLStringLiteral(s); ok {
		return &unquoted
	}
	return &s
}

func tryUnquoteSQLStringLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
}
