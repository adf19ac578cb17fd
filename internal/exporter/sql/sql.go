// Package sql implements the SQL DDL exporter half of the pair started
// in internal/importer/sql (spec.md §4.5). Write is generic CREATE TABLE
// only (spec.md §6): no dialect selector, since the generic grammar is
// accepted by every dialect's engine this importer targets, mirroring
// the teacher's own restore-to-generic-SQL style in
// internal/parser/mysql's use of format.RestoreCtx to always emit one
// canonical spelling regardless of the dialect that produced the AST.
package sql

import (
	"fmt"
	"strings"

	"contractkit/internal/core"
	"contractkit/internal/exporter"
	"contractkit/internal/importer"
)

func init() {
	exporter.Register(importer.FormatSQL, exporter.ExporterFunc(Export))
}

// Export converts t to a generic "CREATE TABLE" statement. Nested
// columns (dotted names) are flattened to STRUCT<...>-free plain
// declarations in dotted-path form, since generic SQL has no first-class
// nested type; this mirrors how the SQL importer never produces nested
// columns of its own (spec.md §4.4.1 has no nesting rule) so export only
// needs to round-trip what a SQL-originated table already looks like.
func Export(t *core.Table) (*exporter.Result, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", quoteIdent(t.Name))

	var lines []string
	var pkCols []string
	for _, c := range t.Schema {
		lines = append(lines, "  "+columnDefinition(c))
		if c.PrimaryKey {
			pkCols = append(pkCols, quoteIdent(c.Name))
		}
	}
	if len(pkCols) > 0 {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(pkCols, ", ")))
	}

	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n);\n")

	return &exporter.Result{Format: importer.FormatSQL, Data: []byte(sb.String())}, nil
}

func columnDefinition(c *core.Column) string {
	var sb strings.Builder
	sb.WriteString(quoteIdent(c.Name))
	sb.WriteString(" ")
	sb.WriteString(sqlType(c))
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if c.PrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}
	if c.Description != "" {
		fmt.Fprintf(&sb, " COMMENT '%s'", escapeSQLString(c.Description))
	}
	return sb.String()
}

// sqlType prefers the raw type string an importer preserved verbatim
// (spec.md §4.4.1: "the column type string is preserved verbatim") and
// only falls back to a generic mapping for columns built programmatically
// or imported from a non-SQL format.
func sqlType(c *core.Column) string {
	if c.PhysicalType != "" {
		return c.PhysicalType
	}
	switch c.DataType {
	case core.DataTypeInt:
		return "INT"
	case core.DataTypeLong:
		return "BIGINT"
	case core.DataTypeString:
		return "VARCHAR(255)"
	case core.DataTypeText:
		return "TEXT"
	case core.DataTypeBoolean:
		return "BOOLEAN"
	case core.DataTypeDouble:
		return "DOUBLE"
	case core.DataTypeFloat:
		return "FLOAT"
	case core.DataTypeDecimal:
		return "DECIMAL(18,4)"
	case core.DataTypeBytes:
		return "BLOB"
	case core.DataTypeDate:
		return "DATE"
	case core.DataTypeTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR(255)"
	}
}

func quoteIdent(name string) string { return "`" + name + "`" }

func escapeSQLString(s string) string { return strings.ReplaceAll(s, "'", "''") }
