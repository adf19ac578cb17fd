package jsonschema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/importer/jsonschema"
)

func TestImport_SingleSchemaWithRequired(t *testing.T) {
	src := `{
		"title": "Customer",
		"properties": {
			"id": {"type": "integer"},
			"email": {"type": "string"},
			"nickname": {"type": "string"}
		},
		"required": ["id", "email"]
	}`

	result, err := jsonschema.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)

	tbl := result.Tables[0]
	assert.Equal(t, "Customer", tbl.Name)

	idCol := tbl.FindColumn("id")
	require.NotNil(t, idCol)
	assert.Equal(t, core.DataTypeLong, idCol.DataType)
	assert.False(t, idCol.Nullable)

	nickCol := tbl.FindColumn("nickname")
	require.NotNil(t, nickCol)
	assert.True(t, nickCol.Nullable)
}

func TestImport_MultiSchemaDefinitions(t *testing.T) {
	src := `{
		"definitions": {
			"Customer": {"properties": {"id": {"type": "integer"}}},
			"Order": {"properties": {"total": {"type": "number"}}}
		}
	}`

	result, err := jsonschema.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	assert.Len(t, result.Tables, 2)
}

func TestImport_NestedObjectRecursesWithDottedPaths(t *testing.T) {
	src := `{
		"title": "Order",
		"properties": {
			"address": {
				"type": "object",
				"properties": {
					"street": {"type": "string"}
				},
				"required": ["street"]
			}
		}
	}`

	result, err := jsonschema.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	tbl := result.Tables[0]
	assert.NotNil(t, tbl.FindColumn("address"))
	streetCol := tbl.FindColumn("address.street")
	require.NotNil(t, streetCol)
	assert.False(t, streetCol.Nullable)
}

func TestImport_ArrayOfScalarItems(t *testing.T) {
	src := `{
		"title": "Post",
		"properties": {
			"tags": {"type": "array", "items": {"type": "string"}}
		}
	}`

	result, err := jsonschema.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	col := result.Tables[0].FindColumn("tags")
	require.NotNil(t, col)
	assert.Equal(t, core.ArrayType(core.DataTypeString), col.DataType)
}

func TestImportWithResolver_ExternalRefIsFetchedWhenEnabled(t *testing.T) {
	src := `{
		"title": "Order",
		"properties": {
			"customer": {"$ref": "https://example.com/schemas/customer.json"}
		}
	}`

	resolver := func(ref string) ([]byte, error) {
		assert.Equal(t, "https://example.com/schemas/customer.json", ref)
		return []byte(`{"type": "object", "properties": {"id": {"type": "integer"}}}`), nil
	}

	result, err := jsonschema.ImportWithResolver([]byte(src), importer.Options{ResolveReferences: true}, resolver)
	require.NoError(t, err)
	tbl := result.Tables[0]
	assert.NotNil(t, tbl.FindColumn("customer"))
	assert.NotNil(t, tbl.FindColumn("customer.id"))
}

func TestImportWithResolver_NoResolverSuppliedIsReferenceResolutionError(t *testing.T) {
	src := `{
		"title": "Order",
		"properties": {
			"customer": {"$ref": "https://example.com/schemas/customer.json"}
		}
	}`

	_, err := jsonschema.ImportWithResolver([]byte(src), importer.Options{ResolveReferences: true}, nil)
	require.Error(t, err)
	var refErr *core.ReferenceResolutionError
	assert.True(t, errors.As(err, &refErr))
}
