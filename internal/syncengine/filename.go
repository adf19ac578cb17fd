package syncengine

import (
	"fmt"
	"strings"

	"contractkit/internal/core"
	"contractkit/internal/importer"
)

// AssetKind is a §4.7 filename-suffix tag, distinct from importer.Format
// since bpmn/dmn files are recognized by the sync engine but carry no
// importer of their own.
type AssetKind string

const (
	AssetODCS     AssetKind = "odcs"
	AssetODPS     AssetKind = "odps"
	AssetCADS     AssetKind = "cads"
	AssetBPMN     AssetKind = "bpmn"
	AssetDMN      AssetKind = "dmn"
	AssetOpenAPI  AssetKind = "openapi"
	AssetWorkspace    AssetKind = "workspace"
	AssetRelationships AssetKind = "relationships"
)

// suffixRules maps a lower-cased filename suffix to the asset kind it
// names, evaluated longest-suffix-first so "*.openapi.yaml" isn't
// mistaken for a bare "*.yaml".
var suffixRules = []struct {
	suffix string
	kind   AssetKind
}{
	{".odcs.yaml", AssetODCS},
	{".odps.yaml", AssetODPS},
	{".cads.yaml", AssetCADS},
	{".bpmn.xml", AssetBPMN},
	{".dmn.xml", AssetDMN},
	{".openapi.yaml", AssetOpenAPI},
	{".openapi.json", AssetOpenAPI},
}

// ClassifyFile reports the asset kind a workspace file path names, per
// the §4.7 filename→asset-type rule. The two root-level reserved names
// are recognized regardless of directory component; everything else not
// matching a suffix rule is reported with ok=false ("other files
// ignored").
func ClassifyFile(path string) (kind AssetKind, ok bool) {
	base := strings.ToLower(baseName(path))
	switch base {
	case "workspace.yaml":
		return AssetWorkspace, true
	case "relationships.yaml":
		return AssetRelationships, true
	}
	for _, r := range suffixRules {
		if strings.HasSuffix(base, r.suffix) {
			return r.kind, true
		}
	}
	return "", false
}

// ImporterFormat maps an AssetKind to the importer.Format that parses
// it, when one is registered. BPMN/DMN files are classified but have no
// canonical importer (spec.md names no BPMN/DMN module), so ok is false
// for them, as it is for any kind whose format has no importer in the
// registry; callers skip such files rather than erroring.
func ImporterFormat(kind AssetKind) (format importer.Format, ok bool) {
	switch kind {
	case AssetODCS:
		format = importer.FormatODCS
	case AssetODPS:
		format = importer.FormatODPS
	case AssetCADS:
		format = importer.FormatCADS
	case AssetOpenAPI:
		format = importer.FormatOpenAPI
	default:
		return "", false
	}
	if _, err := importer.Lookup(format); err != nil {
		return "", false
	}
	return format, true
}

func baseName(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// extensions is every flat-filename asset's trailing "<kind>.<ext>" the
// GenerateFilename codec appends after the sanitized resource segment,
// keyed by AssetKind.
var extensions = map[AssetKind]string{
	AssetODCS:    "odcs.yaml",
	AssetODPS:    "odps.yaml",
	AssetCADS:    "cads.yaml",
	AssetBPMN:    "bpmn.xml",
	AssetDMN:     "dmn.xml",
	AssetOpenAPI: "openapi.yaml",
}

// NameParts is the four logical parts of a flat workspace filename,
// spec.md §4.7: "<workspace>_<domain>[_<system>]_<resource>.<kind>.<ext>".
type NameParts struct {
	Workspace string
	Domain    string
	System    string // optional; empty when the filename has no system segment.
	Resource  string
	Kind      AssetKind
}

// sanitize lower-cases s and replaces every character in the reserved
// set (space or one of /\:*?"<>|) with a hyphen, the exact substitution
// rule spec.md §4.7 names.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// GenerateFilename builds the flat on-disk name for parts, sanitizing
// each component. It is the generator half of the §4.7 codec; ParseFilename
// is its inverse up to sanitization (round-tripping a name that was
// itself produced by GenerateFilename is exact; an arbitrary
// hand-written name may not sanitize back to itself).
func GenerateFilename(parts NameParts) (string, error) {
	ext, ok := extensions[parts.Kind]
	if !ok {
		return "", &core.InvalidArgumentError{Detail: fmt.Sprintf("unknown asset kind %q", parts.Kind)}
	}
	segments := []string{sanitize(parts.Workspace), sanitize(parts.Domain)}
	if parts.System != "" {
		segments = append(segments, sanitize(parts.System))
	}
	segments = append(segments, sanitize(parts.Resource))
	return strings.Join(segments, "_") + "." + ext, nil
}

// ParseFilename extracts the four logical parts from a flat filename
// produced by GenerateFilename. A name with three underscore-joined
// segments before the kind suffix is workspace_domain_resource (no
// system); four segments is workspace_domain_system_resource.
func ParseFilename(name string) (NameParts, error) {
	kind, ok := ClassifyFile(name)
	if !ok || kind == AssetWorkspace || kind == AssetRelationships {
		return NameParts{}, &core.InvalidArgumentError{Detail: fmt.Sprintf("%q is not a flat asset filename", name)}
	}
	ext := extensions[kind]
	base := baseName(name)
	stem := strings.TrimSuffix(strings.ToLower(base), "."+ext)
	segments := strings.Split(stem, "_")
	switch len(segments) {
	case 3:
		return NameParts{Workspace: segments[0], Domain: segments[1], Resource: segments[2], Kind: kind}, nil
	case 4:
		return NameParts{Workspace: segments[0], Domain: segments[1], System: segments[2], Resource: segments[3], Kind: kind}, nil
	default:
		return NameParts{}, &core.InvalidArgumentError{Detail: fmt.Sprintf("%q does not have 3 or 4 underscore-joined segments", name)}
	}
}
