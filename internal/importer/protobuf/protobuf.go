// Package protobuf implements the proto3 IDL importer (spec.md §4.4.2):
// each top-level message becomes a table, nested messages inline via the
// dotted-path codec, and a small hand-rolled recursive-descent scanner
// does the parsing rather than pulling in a full protobuf IDL-parsing
// dependency, since no repo in the retrieved pack vendors one. The scanner
// follows the teacher's line-oriented, typed-struct parsing discipline
// (internal/parser/toml) generalized from TOML's line grammar to proto3's
// brace-delimited one.
package protobuf

import (
	"contractkit/internal/core"
	"contractkit/internal/importer"
)

func init() {
	importer.Register(importer.FormatProtobuf, importer.ImporterFunc(Import))
}

// Import parses proto3 source text (not a JAR; use ImportJAR for archives).
func Import(data []byte, opts importer.Options) (*importer.ImportResult, error) {
	defs, enums, err := parseProto(string(data))
	if err != nil {
		return nil, &core.ParseError{Format: string(importer.FormatProtobuf), Detail: "proto3 source", Err: err}
	}

	tables, diags := convertMessages(defs, enums)

	if opts.UUIDOverride != nil && len(tables) > 1 {
		return nil, &core.MultipleTablesWithUUIDError{N: len(tables)}
	}
	importer.ApplyUUIDOverride(tables, opts.UUIDOverride)

	return &importer.ImportResult{Tables: tables, Diagnostics: diags}, nil
}

// ImportJAR extracts every *.proto entry from a JAR/ZIP archive (optionally
// filtered to those containing "message <name>"), concatenates them, and
// imports the result as one unit.
func ImportJAR(data []byte, messageNameFilter string, opts importer.Options) (*importer.ImportResult, error) {
	src, err := extractProtoFromJAR(data, messageNameFilter)
	if err != nil {
		return nil, err
	}
	return Import([]byte(src), opts)
}
