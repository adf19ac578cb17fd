// Package protobuf implements the Protobuf exporter half of the pair
// started in internal/importer/protobuf (spec.md §4.5/§4.4.2): a text
// `.proto` exporter parameterized by a proto2/proto3 version selector,
// plus a staged descriptor-set export that shells out to an external
// `protoc` (spec.md §4.5's "Protobuf descriptor export is a staged
// composition"). The subprocess/temp-file handling is grounded in the
// teacher's internal/apply package, which already wraps an external
// process-adjacent resource (a live DB connection) in scoped
// Connect/Close calls; this generalizes that scoping to a short-lived
// temp file around an external compiler instead of a DB handle.
package protobuf

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"contractkit/internal/core"
	"contractkit/internal/exporter"
	"contractkit/internal/importer"
	"contractkit/internal/nestedpath"
)

func init() {
	exporter.Register(importer.FormatProtobuf, exporter.ExporterFunc(func(t *core.Table) (*exporter.Result, error) {
		return ExportVersion(t, Version3)
	}))
}

// Version selects the proto2/proto3 syntax the text exporter emits.
type Version string

const (
	Version2 Version = "proto2"
	Version3 Version = "proto3"
)

// ExportVersion converts t to its `.proto` text byte representation under
// the given syntax version. Any value other than Version2/Version3 is
// *core.InvalidArgumentError (spec.md §4.5).
func ExportVersion(t *core.Table, version Version) (*exporter.Result, error) {
	if version != Version2 && version != Version3 {
		return nil, &core.InvalidArgumentError{Detail: fmt.Sprintf("unsupported protobuf version %q", version)}
	}

	flat := make([]nestedpath.FlatColumn, len(t.Schema))
	for i, c := range t.Schema {
		flat[i] = nestedpath.FlatColumn{Name: c.Name, DataType: c.DataType, Nullable: c.Nullable}
	}
	roots := nestedpath.Unflatten(flat)

	gen := &generator{version: version}
	gen.writeSyntax()
	body, nested := gen.message(t.Name, roots, 1)
	gen.sb.WriteString(body)
	for _, n := range nested {
		gen.sb.WriteString("\n")
		gen.sb.WriteString(n)
	}

	return &exporter.Result{Format: importer.FormatProtobuf, Data: []byte(gen.sb.String())}, nil
}

type generator struct {
	version Version
	sb      strings.Builder
}

func (g *generator) writeSyntax() {
	fmt.Fprintf(&g.sb, "syntax = \"%s\";\n\n", g.version)
}

// message renders one "message Name { ... }" block for nodes, returning
// the block text plus any further top-level message blocks its nested
// object fields required (flattened out rather than inlined, to keep
// field-number bookkeeping simple at every depth).
func (g *generator) message(name string, nodes []*nestedpath.Node, startTag int) (string, []string) {
	var sb strings.Builder
	var extra []string

	fmt.Fprintf(&sb, "message %s {\n", name)
	tag := startTag
	for _, n := range nodes {
		line, more := g.field(name, n, tag)
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
		extra = append(extra, more...)
		tag++
	}
	sb.WriteString("}\n")
	return sb.String(), extra
}

func (g *generator) field(owner string, n *nestedpath.Node, tag int) (string, []string) {
	if n.DataType == core.DataTypeObject || n.DataType == core.DataTypeStruct {
		typeName := nestedTypeName(owner, n.Name)
		block, more := g.message(typeName, n.Children, 1)
		line := fmt.Sprintf("%s %s = %d;", typeName, n.Name, tag)
		if g.version == Version2 {
			line = "optional " + line
		}
		return line, append(more, block)
	}

	if elem, ok := core.IsArray(n.DataType); ok {
		elemType := core.DataType(elem)
		if elemType == core.DataTypeObject || elemType == core.DataTypeStruct {
			typeName := nestedTypeName(owner, n.Name)
			block, more := g.message(typeName, n.Children, 1)
			return fmt.Sprintf("repeated %s %s = %d;", typeName, n.Name, tag), append(more, block)
		}
		return fmt.Sprintf("repeated %s %s = %d;", scalarType(elemType), n.Name, tag), nil
	}

	scalar := scalarType(n.DataType)
	if g.version == Version2 {
		keyword := "optional"
		if !n.Nullable {
			keyword = "required"
		}
		return fmt.Sprintf("%s %s %s = %d;", keyword, scalar, n.Name, tag), nil
	}
	if n.Nullable {
		return fmt.Sprintf("optional %s %s = %d;", scalar, n.Name, tag), nil
	}
	return fmt.Sprintf("%s %s = %d;", scalar, n.Name, tag), nil
}

func nestedTypeName(owner, field string) string {
	return owner + "_" + strings.ToUpper(field[:1]) + field[1:]
}

// scalarType inverts internal/importer/protobuf's scalarTypes map; types
// with no proto3 scalar home (date, timestamp, decimal, text) degrade to
// "string", matching spec.md §4.5's "collapse features the target format
// cannot express."
func scalarType(dt core.DataType) string {
	switch dt {
	case core.DataTypeInt:
		return "int32"
	case core.DataTypeLong:
		return "int64"
	case core.DataTypeFloat:
		return "float"
	case core.DataTypeDouble:
		return "double"
	case core.DataTypeBoolean:
		return "bool"
	case core.DataTypeBytes:
		return "bytes"
	default:
		return "string"
	}
}

// ExportDescriptorSet runs ExportVersion to a temporary .proto file, then
// shells out to protocPath (or "protoc" on PATH) with
// --include_imports --include_source_info --descriptor_set_out=<target>,
// reads the produced FileDescriptorSet bytes, and removes the temp file
// on every exit path (spec.md §4.5).
func ExportDescriptorSet(t *core.Table, version Version, protocPath string) (*exporter.Result, error) {
	textResult, err := ExportVersion(t, version)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "contractkit-protoc-")
	if err != nil {
		return nil, &core.IOError{Op: "create protoc temp dir", Err: err}
	}
	defer os.RemoveAll(dir)

	protoPath := filepath.Join(dir, t.Name+".proto")
	if err := os.WriteFile(protoPath, textResult.Data, 0o644); err != nil {
		return nil, &core.IOError{Op: "write temp .proto", Err: err}
	}
	outPath := filepath.Join(dir, t.Name+".desc")

	bin := protocPath
	if bin == "" {
		bin = "protoc"
	}
	if _, lookErr := exec.LookPath(bin); lookErr != nil && !filepath.IsAbs(bin) {
		return nil, &core.ProtocNotFoundError{Path: protocPath}
	}

	cmd := exec.Command(bin,
		"--include_imports",
		"--include_source_info",
		"--descriptor_set_out="+outPath,
		"--proto_path="+dir,
		protoPath,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &core.ProtocError{Detail: stderr.String(), Err: err}
	}

	descBytes, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &core.IOError{Op: "read descriptor set", Err: err}
	}

	return &exporter.Result{Format: importer.FormatProtobuf, Data: descBytes}, nil
}
