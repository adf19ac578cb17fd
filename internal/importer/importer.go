// Package importer defines the shared contract every format-specific
// importer implements (spec.md §4.4) and a dispatch table that replaces a
// class hierarchy with pairs of free functions registered by format
// identifier, per the re-architecture guidance in spec.md §9. The pattern
// is grounded in the teacher's internal/introspect registry
// (Register/NewIntrospecter keyed by core.Dialect), generalized from one
// capability method to the Importer interface below.
package importer

import (
	"fmt"
	"sync"

	"contractkit/internal/core"
)

// Format identifies a supported schema format.
type Format string

const (
	FormatSQL        Format = "sql"
	FormatProtobuf   Format = "protobuf"
	FormatAVRO       Format = "avro"
	FormatJSONSchema Format = "jsonschema"
	FormatOpenAPI    Format = "openapi"
	FormatODCS       Format = "odcs"
	FormatODPS       Format = "odps"

	// FormatLegacyODCL, FormatCADS, and FormatDomain are detect-only
	// identifiers (spec.md §4.6 rules 2, 7, 9): the core has no importer
	// for them, but internal/detect still needs a name for what it found.
	FormatLegacyODCL Format = "legacy-odcl"
	FormatCADS       Format = "cads"
	FormatDomain     Format = "domain"
)

// DiagnosticKind classifies a ParseDiagnostic.
type DiagnosticKind string

const (
	DiagnosticWarning DiagnosticKind = "warning"
	DiagnosticError   DiagnosticKind = "error"
)

// ParseDiagnostic is a non-fatal warning or parse error surfaced
// alongside whatever tables an importer did manage to produce.
type ParseDiagnostic struct {
	Kind    DiagnosticKind
	Field   string
	Message string
}

// TableNameSuggestion flags a table whose name could not be fully
// resolved (e.g. a Databricks IDENTIFIER() built from a pure variable
// reference, spec.md §4.4.1 step 5).
type TableNameSuggestion struct {
	TableIndex      int
	SuggestedName   string
	SuggestedNameOK bool
}

// ImportResult is the shared output shape of every importer.
type ImportResult struct {
	Tables              []*core.Table
	TablesRequiringName []TableNameSuggestion
	Diagnostics         []ParseDiagnostic
	// AISuggestions is opaque pass-through for a caller-supplied
	// enrichment step; the core never produces or reads it.
	AISuggestions any
}

// HasFatalError reports whether the import produced no tables and at
// least one diagnostic.
func (r *ImportResult) HasFatalError() bool {
	return len(r.Tables) == 0 && len(r.Diagnostics) > 0
}

// Options carries the caller-controlled knobs common across importers.
// Format-specific options (e.g. SQL dialect) are passed to that format's
// constructor instead, since they don't apply to every format.
type Options struct {
	// UUIDOverride pins the single table's id. Supplying it for a
	// multi-table import is *core.MultipleTablesWithUUIDError.
	UUIDOverride *[16]byte
	// ResolveReferences enables fetching external (non-local) $ref
	// pointers (JSON Schema importer, spec.md §4.4.4).
	ResolveReferences bool
}

// Importer is the shared contract every format-specific importer
// implements.
type Importer interface {
	Import(data []byte, opts Options) (*ImportResult, error)
}

// ImporterFunc adapts a plain function to the Importer interface.
type ImporterFunc func(data []byte, opts Options) (*ImportResult, error)

// Import implements Importer.
func (f ImporterFunc) Import(data []byte, opts Options) (*ImportResult, error) {
	return f(data, opts)
}

var (
	mu       sync.RWMutex
	registry = make(map[Format]Importer)
)

// Register adds an importer for format to the shared registry. Format
// packages call this from an init() function, the same wiring style the
// teacher's dialect-specific introspecters use.
func Register(format Format, imp Importer) {
	mu.Lock()
	defer mu.Unlock()
	registry[format] = imp
}

// Lookup returns the registered importer for format.
func Lookup(format Format) (Importer, error) {
	mu.RLock()
	imp, ok := registry[format]
	mu.RUnlock()
	if !ok {
		return nil, &core.UnsupportedFormatError{Detail: fmt.Sprintf("no importer registered for format %q", format)}
	}
	return imp, nil
}

// Import looks up the importer for format and runs it. It additionally
// enforces the multi-table + UUID-override invariant (spec.md §4.2),
// since that rule is shared by every format rather than format-specific.
func Import(format Format, data []byte, opts Options) (*ImportResult, error) {
	imp, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	result, err := imp.Import(data, opts)
	if err != nil {
		return nil, err
	}
	if opts.UUIDOverride != nil && len(result.Tables) > 1 {
		return nil, &core.MultipleTablesWithUUIDError{N: len(result.Tables)}
	}
	return result, nil
}

// ApplyUUIDOverride is a shared helper format packages call once they
// know their import produced exactly one table; Import (above) still
// rejects overrides against multi-table results, so this is a no-op in
// that case.
func ApplyUUIDOverride(tables []*core.Table, override *[16]byte) {
	if override == nil || len(tables) != 1 {
		return
	}
	tables[0].ID = *override
}
