package core

import (
	"regexp"
	"strings"
)

var parenRe = regexp.MustCompile(`\([^)]*\)`)

// NormalizeSQLRawType extracts the base type name from a raw SQL type
// string the way the SQL importer needs before classifying it: it
// removes parenthesized length/precision/enum-value portions and
// trims surrounding whitespace, but preserves case so the caller can still
// distinguish e.g. "STRUCT<...>" from a plain scalar.
//
// Examples:
//
//	"VARCHAR(255)"        -> "VARCHAR"
//	"DECIMAL(10,2)"        -> "DECIMAL"
//	"enum('a','b')"        -> "enum"
func NormalizeSQLRawType(rawType string) string {
	base := parenRe.ReplaceAllString(rawType, "")
	return strings.TrimSpace(base)
}

type dataTypeRule struct {
	dataType   DataType
	substrings []string
}

// sqlTypeRules classifies a raw SQL type string into the canonical
// vocabulary. Order matters: the first matching rule wins, mirroring the
// teacher's substring-containment classifier (internal/core/schema.go's
// normalizeDataTypeRules in Pieczasz-smf) generalized from a DB-oriented
// enum to the portable vocabulary spec.md §3 defines.
var sqlTypeRules = []dataTypeRule{
	{DataTypeBoolean, []string{"bool"}},
	{DataTypeLong, []string{"bigint", "int8"}},
	{DataTypeInt, []string{"int", "serial"}},
	{DataTypeDecimal, []string{"decimal", "numeric"}},
	{DataTypeFloat, []string{"float", "real"}},
	{DataTypeDouble, []string{"double"}},
	{DataTypeTimestamp, []string{"timestamp", "datetime"}},
	{DataTypeDate, []string{"date"}},
	{DataTypeBytes, []string{"blob", "binary", "varbinary", "bytea"}},
	{DataTypeText, []string{"text", "clob"}},
	{DataTypeString, []string{"char", "string", "uuid", "set", "enum"}},
}

// NormalizeDataType maps a raw SQL type string to the canonical vocabulary,
// e.g. "VARCHAR(255)" -> DataTypeString. Unknown types fall back to
// DataTypeString; the SQL importer keeps the raw spelling in
// Column.PhysicalType.
func NormalizeDataType(rawType string) DataType {
	// tinyint(1) is MySQL's conventional boolean spelling; it has to be
	// checked against the un-stripped string since the parenthesized "1"
	// is exactly what distinguishes it from a plain tinyint counter.
	if strings.Contains(strings.ToLower(strings.TrimSpace(rawType)), "tinyint(1)") {
		return DataTypeBoolean
	}
	lower := strings.ToLower(NormalizeSQLRawType(rawType))
	for _, rule := range sqlTypeRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return rule.dataType
			}
		}
	}
	return DataTypeString
}
