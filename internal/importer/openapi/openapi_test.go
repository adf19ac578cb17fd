package openapi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/importer/openapi"
)

func TestImport_ComponentSchemaBecomesTable(t *testing.T) {
	src := `{
		"components": {
			"schemas": {
				"Customer": {
					"type": "object",
					"properties": {
						"id": {"type": "integer"},
						"email": {"type": "string"},
						"createdAt": {"type": "string", "format": "date-time"},
						"birthDate": {"type": "string", "format": "date"}
					},
					"required": ["id", "email"]
				}
			}
		}
	}`

	result, err := openapi.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)

	tbl := result.Tables[0]
	assert.Equal(t, "Customer", tbl.Name)

	idCol := tbl.FindColumn("id")
	require.NotNil(t, idCol)
	assert.Equal(t, core.DataTypeLong, idCol.DataType)
	assert.False(t, idCol.Nullable)

	emailCol := tbl.FindColumn("email")
	require.NotNil(t, emailCol)
	assert.Equal(t, core.DataTypeText, emailCol.DataType)

	createdCol := tbl.FindColumn("createdAt")
	require.NotNil(t, createdCol)
	assert.Equal(t, core.DataTypeTimestamp, createdCol.DataType)
	assert.True(t, createdCol.Nullable)

	birthCol := tbl.FindColumn("birthDate")
	require.NotNil(t, birthCol)
	assert.Equal(t, core.DataTypeDate, birthCol.DataType)
}

func TestImport_MultipleSchemas(t *testing.T) {
	src := `{
		"components": {
			"schemas": {
				"Customer": {"type": "object", "properties": {"id": {"type": "integer"}}},
				"Order": {"type": "object", "properties": {"total": {"type": "number"}}}
			}
		}
	}`

	result, err := openapi.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	assert.Len(t, result.Tables, 2)
}

func TestImport_NestedObjectPropertyReportsdiagnosticNotColumn(t *testing.T) {
	src := `{
		"components": {
			"schemas": {
				"Order": {
					"type": "object",
					"properties": {
						"id": {"type": "integer"},
						"address": {
							"type": "object",
							"properties": {"street": {"type": "string"}}
						}
					}
				}
			}
		}
	}`

	result, err := openapi.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	tbl := result.Tables[0]
	assert.NotNil(t, tbl.FindColumn("id"))
	assert.Nil(t, tbl.FindColumn("address"))
	assert.Nil(t, tbl.FindColumn("address.street"))

	found := false
	for _, d := range result.Diagnostics {
		if d.Field == "address" && d.Kind == importer.DiagnosticWarning {
			found = true
		}
	}
	assert.True(t, found, "expected a warning diagnostic for the dropped nested object")
}

func TestImport_ArrayOfObjectReportsDiagnosticNotColumn(t *testing.T) {
	src := `{
		"components": {
			"schemas": {
				"Invoice": {
					"type": "object",
					"properties": {
						"lineItems": {
							"type": "array",
							"items": {
								"type": "object",
								"properties": {"sku": {"type": "string"}}
							}
						}
					}
				}
			}
		}
	}`

	result, err := openapi.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	tbl := result.Tables[0]
	assert.Nil(t, tbl.FindColumn("lineItems"))
}

func TestImport_ArrayOfScalarBecomesArrayColumn(t *testing.T) {
	src := `{
		"components": {
			"schemas": {
				"Post": {
					"type": "object",
					"properties": {
						"tags": {"type": "array", "items": {"type": "string"}}
					}
				}
			}
		}
	}`

	result, err := openapi.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	col := result.Tables[0].FindColumn("tags")
	require.NotNil(t, col)
	assert.Equal(t, core.ArrayType(core.DataTypeText), col.DataType)
}

func TestImport_MultipleTablesWithUUIDOverrideIsRejected(t *testing.T) {
	src := `{
		"components": {
			"schemas": {
				"Customer": {"type": "object", "properties": {"id": {"type": "integer"}}},
				"Order": {"type": "object", "properties": {"total": {"type": "number"}}}
			}
		}
	}`

	var override [16]byte
	_, err := openapi.Import([]byte(src), importer.Options{UUIDOverride: &override})
	require.Error(t, err)
	var uuidErr *core.MultipleTablesWithUUIDError
	require.ErrorAs(t, err, &uuidErr)
}
