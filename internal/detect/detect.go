// Package detect implements the content-sniffing auto-detector (spec.md
// §4.6/C7): an ordered list of literal heuristics that picks an importer
// when the caller hasn't declared a format. It is grounded in the
// teacher's preference for small, top-to-bottom ordered rule lists
// (internal/core/schema.go's normalizeDataTypeRules, see
// core.NormalizeDataType), generalized from substring-matching a type
// string to substring/prefix-matching a byte slice.
package detect

import (
	"strings"

	"contractkit/internal/core"
	"contractkit/internal/importer"
)

// rule is one ordered heuristic: Match reports whether data identifies
// as Format.
type rule struct {
	format importer.Format
	match  func(trimmed string, raw string) bool
}

// rules is evaluated top to bottom; the first match wins, exactly as
// spec.md §4.6 enumerates them.
var rules = []rule{
	{importer.FormatODCS, func(_ string, raw string) bool {
		return strings.Contains(raw, "apiVersion:") && strings.Contains(raw, "kind: DataContract")
	}},
	{importer.FormatLegacyODCL, func(_ string, raw string) bool {
		return strings.Contains(raw, "dataContractSpecification:")
	}},
	{importer.FormatSQL, func(_ string, raw string) bool {
		return strings.Contains(strings.ToUpper(raw), "CREATE TABLE")
	}},
	{importer.FormatJSONSchema, func(trimmed string, raw string) bool {
		return strings.HasPrefix(trimmed, "{") && (strings.Contains(raw, `"$schema"`) || strings.Contains(raw, `"type"`))
	}},
	{importer.FormatAVRO, func(_ string, raw string) bool {
		return strings.Contains(raw, `"type"`) && strings.Contains(raw, `"fields"`) && strings.Contains(raw, `"name"`)
	}},
	{importer.FormatProtobuf, func(_ string, raw string) bool {
		return strings.Contains(raw, "syntax") || strings.Contains(raw, "message") || strings.Contains(raw, "service")
	}},
	{importer.FormatCADS, func(_ string, raw string) bool {
		if !strings.Contains(raw, "apiVersion:") {
			return false
		}
		for _, kind := range []string{"kind: AIModel", "kind: MLPipeline", "kind: Application", "kind: ETLPipeline", "kind: SourceSystem", "kind: DestinationSystem"} {
			if strings.Contains(raw, kind) {
				return true
			}
		}
		return false
	}},
	{importer.FormatODPS, func(_ string, raw string) bool {
		return strings.Contains(raw, "apiVersion:") && strings.Contains(raw, "kind: DataProduct")
	}},
	{importer.FormatDomain, func(_ string, raw string) bool {
		return strings.Contains(raw, "systems:") && (strings.Contains(raw, "cads_nodes:") || strings.Contains(raw, "odcs_nodes:"))
	}},
}

// Detect sniffs data and returns the first matching format, in the exact
// rule order spec.md §4.6 lists. AutoDetectionFailedError is returned
// when no heuristic matches.
func Detect(data []byte) (importer.Format, error) {
	raw := string(data)
	trimmed := strings.TrimSpace(raw)

	for _, r := range rules {
		if r.match(trimmed, raw) {
			return r.format, nil
		}
	}
	return "", &core.AutoDetectionFailedError{}
}
