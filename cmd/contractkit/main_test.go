package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/exporter"
	"contractkit/internal/importer"
)

const odcsFixture = `apiVersion: v3.0.1
kind: DataContract
id: 9b1f6c1e-2a5b-4f3b-9b3e-1a2b3c4d5e6f
name: orders
schema:
  - name: orders
    properties:
      - name: id
        logicalType: integer
        primaryKey: true
        required: true
      - name: total
        logicalType: number
`

func TestExitCodeFor_MapsErrorKindsToExitCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", &core.InvalidArgumentError{Detail: "bad"}, 1},
		{"parse error", &core.ParseError{Format: "sql", Detail: "bad", Err: assert.AnError}, 2},
		{"io error", &core.IOError{Op: "read", Err: assert.AnError}, 4},
		{"protoc not found", &core.ProtocNotFoundError{Path: "protoc"}, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCodeFor(tc.err))
		})
	}
}

func TestRunImport_MissingInputIsUsageError(t *testing.T) {
	err := runImport(importer.FormatODCS, &importFlags{})
	require.Error(t, err)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.code)
}

func TestRunImport_ODCSPrintsODCSYAMLByDefault(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "orders.odcs.yaml")
	require.NoError(t, os.WriteFile(input, []byte(odcsFixture), 0o644))

	err := runImport(importer.FormatODCS, &importFlags{input: input})
	require.NoError(t, err)
}

func TestRunExport_MissingOutputIsUsageError(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "orders.odcs.yaml")
	require.NoError(t, os.WriteFile(input, []byte(odcsFixture), 0o644))

	err := runExport(importer.FormatSQL, &exportFlags{input: input})
	require.Error(t, err)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.code)
}

func TestRunExport_SQLWritesCreateTableFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "orders.odcs.yaml")
	require.NoError(t, os.WriteFile(input, []byte(odcsFixture), 0o644))
	output := filepath.Join(dir, "orders.sql")

	err := runExport(importer.FormatSQL, &exportFlags{input: input, output: output, force: true})
	require.NoError(t, err)

	out, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(out), "CREATE TABLE")
}

func TestRunExport_RefusesToOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "orders.odcs.yaml")
	require.NoError(t, os.WriteFile(input, []byte(odcsFixture), 0o644))
	output := filepath.Join(dir, "orders.sql")
	require.NoError(t, os.WriteFile(output, []byte("existing"), 0o644))

	err := runExport(importer.FormatSQL, &exportFlags{input: input, output: output})
	require.Error(t, err)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.code)
}

// TestODCSRoundTrip_PreservesEveryColumnField is spec.md's P5 exercised
// end to end through the registered dispatch tables: import an ODCS
// document whose single column carries every metadata field spec.md §3
// names, export the resulting table back to ODCS, and re-import that
// output, checking every field survives both hops rather than just the
// handful convertSchemaObject/convertNode used to copy before this test
// was added.
func TestODCSRoundTrip_PreservesEveryColumnField(t *testing.T) {
	src := `
id: 9b1f6c1e-2a5b-4f3b-9b3e-1a2b3c4d5e6f
name: accounts
schema:
  - name: accounts
    properties:
      - name: id
        logicalType: integer
        required: true
        primaryKey: true
        primaryKeyPosition: 1
        partitioned: true
        partitionKeyPosition: 1
        clustered: true
        criticalDataElement: true
        transformLogic: "cast(raw_id as bigint)"
        transformSourceObjects: ["staging.raw_accounts"]
        transformDescription: "cast from staging"
        defaultValue: "0"
        enum: ["a", "b"]
        quality:
          - rule: notNull
        relationships: ["orders.account_id"]
        tags: ["pii"]
        customProperties:
          - property: owner
            value: finance
        authoritativeDefinitions:
          - url: https://example.com/accounts
            type: businessDefinition
        $ref: "#/definitions/account_id"
`
	first, err := importer.Import(importer.FormatODCS, []byte(src), importer.Options{})
	require.NoError(t, err)
	require.Len(t, first.Tables, 1)

	res, err := exporter.Export(importer.FormatODCS, first.Tables[0])
	require.NoError(t, err)

	second, err := importer.Import(importer.FormatODCS, res.Data, importer.Options{})
	require.NoError(t, err)
	require.Len(t, second.Tables, 1)

	col := second.Tables[0].FindColumn("id")
	require.NotNil(t, col)
	assert.True(t, col.PrimaryKey)
	assert.Equal(t, 1, col.PrimaryKeyPosition)
	assert.True(t, col.Partitioned)
	assert.Equal(t, 1, col.PartitionKeyPosition)
	assert.True(t, col.Clustered)
	assert.True(t, col.CriticalDataElement)
	assert.Equal(t, "cast(raw_id as bigint)", col.TransformLogic)
	assert.Equal(t, []string{"staging.raw_accounts"}, col.TransformSourceObjects)
	assert.Equal(t, "cast from staging", col.TransformDescription)
	require.NotNil(t, col.DefaultValue)
	assert.Equal(t, "0", *col.DefaultValue)
	assert.Equal(t, []string{"a", "b"}, col.EnumValues)
	require.Len(t, col.Quality, 1)
	assert.Equal(t, "notNull", col.Quality[0]["rule"])
	assert.Equal(t, []string{"orders.account_id"}, col.Relationships)
	assert.Equal(t, []string{"pii"}, col.Tags)
	require.Len(t, col.CustomProperties, 1)
	assert.Equal(t, "owner", col.CustomProperties[0].Property)
	assert.Equal(t, "finance", col.CustomProperties[0].Value)
	require.Len(t, col.AuthoritativeDefinitions, 1)
	assert.Equal(t, "https://example.com/accounts", col.AuthoritativeDefinitions[0].URL)
	assert.Equal(t, "businessDefinition", col.AuthoritativeDefinitions[0].Type)
	assert.Equal(t, "#/definitions/account_id", col.RefPath)
}
