// Package main contains the CLI implementation of contractkit. It uses
// the cobra package for CLI wiring, the same library and command/flag
// structuring style as the teacher's cmd/smf/main.go (diffCmd/migrateCmd/
// applyCmd each building their own flags struct and cobra.Command).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"contractkit/internal/cliconfig"
	"contractkit/internal/core"
	"contractkit/internal/exporter"
	_ "contractkit/internal/exporter/avro"
	_ "contractkit/internal/exporter/jsonschema"
	exportodcs "contractkit/internal/exporter/odcs"
	protobufexp "contractkit/internal/exporter/protobuf"
	_ "contractkit/internal/exporter/sql"
	"contractkit/internal/importer"
	_ "contractkit/internal/importer/avro"
	_ "contractkit/internal/importer/jsonschema"
	_ "contractkit/internal/importer/odcs"
	_ "contractkit/internal/importer/openapi"
	protobufimp "contractkit/internal/importer/protobuf"
	sqlimp "contractkit/internal/importer/sql"
	"contractkit/internal/store"
	"contractkit/internal/store/fsstore"
	"contractkit/internal/store/sqlstore"
	"contractkit/internal/syncengine"
)

// exitError pairs an error with the §7 exit code its kind maps to,
// grounded in the teacher's own main() switching on a returned error's
// shape to pick os.Exit, generalized here from an ad hoc string switch
// to a typed lookup over the core error taxonomy.
type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	switch err.(type) {
	case *core.InvalidArgumentError, *core.MultipleTablesWithUUIDError:
		return 1
	case *core.ParseError, *core.ValidationError, *core.InvalidModelError,
		*core.ReferenceResolutionError, *core.AutoDetectionFailedError, *core.UnsupportedFormatError:
		return 2
	case *core.IOError:
		return 4
	case *core.ProtocNotFoundError, *core.ProtocError:
		return 5
	default:
		return 1
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "contractkit",
		Short: "Convert data contracts between schema formats",
	}

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(syncCmd())

	if err := rootCmd.Execute(); err != nil {
		code := 1
		var ee *exitError
		if as, ok := err.(*exitError); ok {
			ee = as
		}
		if ee != nil {
			code = ee.code
		} else {
			code = exitCodeFor(err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}

type importFlags struct {
	input             string
	dialect           string
	uuidOverride      string
	resolveReferences bool
	validate          bool
	jarPath           string
	messageType       string
	noODCS            bool
}

func importCmd() *cobra.Command {
	flags := &importFlags{}
	cmd := &cobra.Command{
		Use:   "import <format>",
		Short: "Import a schema file into the canonical contract model",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runImport(importer.Format(args[0]), flags)
		},
	}

	cmd.Flags().StringVar(&flags.input, "input", "", "Input file path, or - for stdin (required)")
	cmd.Flags().StringVar(&flags.dialect, "dialect", "", "SQL dialect (sql format only)")
	cmd.Flags().StringVar(&flags.uuidOverride, "uuid", "", "Pin the single imported table's id")
	cmd.Flags().BoolVar(&flags.resolveReferences, "resolve-references", false, "Enable external $ref resolution (jsonschema format only); no resolver is supplied, so an external $ref fails the import")
	cmd.Flags().BoolVar(&flags.validate, "validate", false, "Print import diagnostics as warnings on stderr")
	cmd.Flags().StringVar(&flags.jarPath, "jar", "", "Extract .proto sources from a JAR/ZIP archive (protobuf format only)")
	cmd.Flags().StringVar(&flags.messageType, "message-type", "", "Restrict JAR extraction to entries declaring this message (protobuf format only)")
	cmd.Flags().BoolVar(&flags.noODCS, "no-odcs", false, "Print the raw canonical model as JSON instead of ODCS YAML")

	return cmd
}

func runImport(format importer.Format, flags *importFlags) error {
	if flags.input == "" {
		return &exitError{err: &core.InvalidArgumentError{Detail: "--input is required"}, code: 1}
	}

	if flags.dialect == "" {
		if cfg, err := cliconfig.Load(".contractkit.toml"); err == nil {
			flags.dialect = cfg.Dialect
		}
	}

	data, err := readInput(flags.input)
	if err != nil {
		return &exitError{err: err, code: 4}
	}

	opts := importer.Options{ResolveReferences: flags.resolveReferences}
	if flags.uuidOverride != "" {
		parsed, err := uuid.Parse(flags.uuidOverride)
		if err != nil {
			return &exitError{err: &core.InvalidArgumentError{Detail: "--uuid is not a valid UUID"}, code: 1}
		}
		raw := [16]byte(parsed)
		opts.UUIDOverride = &raw
	}

	result, err := runFormatSpecificImport(format, data, flags, opts)
	if err != nil {
		return &exitError{err: err, code: exitCodeFor(err)}
	}

	if flags.validate {
		for _, diag := range result.Diagnostics {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", diag.Field, diag.Message)
		}
	}

	return printImportResult(result, flags.noODCS)
}

func runFormatSpecificImport(format importer.Format, data []byte, flags *importFlags, opts importer.Options) (*importer.ImportResult, error) {
	if format == importer.FormatProtobuf && flags.jarPath != "" {
		jarData, err := os.ReadFile(flags.jarPath)
		if err != nil {
			return nil, &core.IOError{Op: "read jar", Err: err}
		}
		return protobufimp.ImportJAR(jarData, flags.messageType, opts)
	}
	if format == importer.FormatSQL && flags.dialect != "" {
		return sqlimp.Import(data, sqlimp.Dialect(flags.dialect), opts)
	}
	return importer.Import(format, data, opts)
}

func printImportResult(result *importer.ImportResult, noODCS bool) error {
	if noODCS {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return &exitError{err: &core.IOError{Op: "marshal import result", Err: err}, code: 4}
		}
		fmt.Println(string(out))
		return nil
	}

	for _, t := range result.Tables {
		res, err := exportodcs.Export(t)
		if err != nil {
			return &exitError{err: err, code: 3}
		}
		fmt.Println(string(res.Data))
	}
	return nil
}

type exportFlags struct {
	input           string
	output          string
	force           bool
	protocPath      string
	protobufVersion string
}

func exportCmd() *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export <format>",
		Short: "Export a canonical contract (read back as ODCS YAML) to another format",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runExport(importer.Format(args[0]), flags)
		},
	}

	cmd.Flags().StringVar(&flags.input, "input", "", "ODCS YAML input file path (required)")
	cmd.Flags().StringVar(&flags.output, "output", "", "Output file path (required)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite --output if it already exists")
	cmd.Flags().StringVar(&flags.protocPath, "protoc-path", "", "Path to protoc (protobuf descriptor-set export only)")
	cmd.Flags().StringVar(&flags.protobufVersion, "protobuf-version", "proto3", "proto2 or proto3 (protobuf format only)")

	return cmd
}

func runExport(format importer.Format, flags *exportFlags) error {
	if flags.input == "" || flags.output == "" {
		return &exitError{err: &core.InvalidArgumentError{Detail: "--input and --output are required"}, code: 1}
	}

	if flags.protocPath == "" {
		if cfg, err := cliconfig.Load(".contractkit.toml"); err == nil {
			flags.protocPath = cfg.ProtocPath
		}
	}
	if !flags.force {
		if _, err := os.Stat(flags.output); err == nil {
			return &exitError{err: &core.InvalidArgumentError{Detail: fmt.Sprintf("%s already exists; use --force to overwrite", flags.output)}, code: 1}
		}
	}

	data, err := os.ReadFile(flags.input)
	if err != nil {
		return &exitError{err: &core.IOError{Op: "read input", Err: err}, code: 4}
	}

	imported, err := importer.Import(importer.FormatODCS, data, importer.Options{})
	if err != nil {
		return &exitError{err: err, code: 2}
	}
	if len(imported.Tables) == 0 {
		return &exitError{err: &core.ValidationError{Detail: "input produced no tables"}, code: 2}
	}
	table := imported.Tables[0]

	out, err := runFormatSpecificExport(format, table, flags)
	if err != nil {
		return &exitError{err: err, code: exitCodeFor(err)}
	}

	if err := os.WriteFile(flags.output, out, 0o644); err != nil {
		return &exitError{err: &core.IOError{Op: "write output", Err: err}, code: 4}
	}
	return nil
}

func runFormatSpecificExport(format importer.Format, t *core.Table, flags *exportFlags) ([]byte, error) {
	if format == importer.FormatProtobuf && flags.protocPath != "" {
		res, err := protobufexp.ExportDescriptorSet(t, protobufexp.Version(flags.protobufVersion), flags.protocPath)
		if err != nil {
			return nil, err
		}
		return res.Data, nil
	}
	if format == importer.FormatProtobuf {
		res, err := protobufexp.ExportVersion(t, protobufexp.Version(flags.protobufVersion))
		if err != nil {
			return nil, err
		}
		return res.Data, nil
	}

	res, err := exporter.Export(format, t)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

type syncFlags struct {
	workspaceDir  string
	workspaceName string
	dsn           string
}

func syncCmd() *cobra.Command {
	flags := &syncFlags{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile a workspace directory of asset files against the sqlstore backend",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSync(flags)
		},
	}

	cmd.Flags().StringVar(&flags.workspaceDir, "workspace-dir", "", "Directory of workspace asset files (required)")
	cmd.Flags().StringVar(&flags.workspaceName, "workspace", "", "Workspace name, created if it doesn't already exist (required)")
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "MySQL DSN for the sqlstore backend")

	return cmd
}

// runSync drives one syncengine.Engine.Sync pass: internal/store/fsstore
// reads the workspace directory's files, internal/store/sqlstore persists
// the reconciled canonical model, giving both a reachable, exercised
// caller beyond their own package tests (spec.md §4.7/§4.8/C8/C9).
func runSync(flags *syncFlags) error {
	if flags.workspaceDir == "" || flags.workspaceName == "" {
		return &exitError{err: &core.InvalidArgumentError{Detail: "--workspace-dir and --workspace are required"}, code: 1}
	}

	dsn := flags.dsn
	if dsn == "" {
		if cfg, err := cliconfig.Load(".contractkit.toml"); err == nil {
			dsn = cfg.StoreDSN
		}
	}
	if dsn == "" {
		return &exitError{err: &core.InvalidArgumentError{Detail: "--dsn is required (or set store_dsn in .contractkit.toml)"}, code: 1}
	}

	st, err := sqlstore.Open(dsn)
	if err != nil {
		return &exitError{err: err, code: 4}
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Initialize(ctx); err != nil {
		return &exitError{err: err, code: 4}
	}

	ws, err := resolveWorkspace(ctx, st, flags.workspaceName)
	if err != nil {
		return &exitError{err: err, code: 4}
	}

	engine := syncengine.New(st, fsstore.New(flags.workspaceDir))
	result, err := engine.Sync(ctx, ws.ID)
	if err != nil {
		return &exitError{err: err, code: exitCodeFor(err)}
	}

	fmt.Printf("added=%d modified=%d deleted=%d skipped=%d tablesSynced=%d\n",
		len(result.Added), len(result.Modified), len(result.Deleted), len(result.Skipped), result.TablesSynced)
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return nil
}

// resolveWorkspace looks up name in st, creating a new random-id
// workspace (spec.md §9: workspaces have no natural key) on first sync.
func resolveWorkspace(ctx context.Context, st store.Store, name string) (*store.Workspace, error) {
	if ws, err := st.GetWorkspace(ctx, name); err == nil {
		return ws, nil
	}
	ws := &store.Workspace{ID: uuid.New(), Name: name}
	if err := st.UpsertWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, &core.IOError{Op: "read stdin", Err: err}
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &core.IOError{Op: "read " + path, Err: err}
	}
	return data, nil
}
