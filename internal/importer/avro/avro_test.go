package avro_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/importer/avro"
)

func TestImport_SimpleRecord(t *testing.T) {
	src := `{
		"type": "record",
		"name": "Customer",
		"namespace": "com.example",
		"doc": "A customer",
		"fields": [
			{"name": "id", "type": "long"},
			{"name": "email", "type": "string", "doc": "contact email"}
		]
	}`

	result, err := avro.Import([]byte(src), importer.Options{})
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
	assert.Equal(t, "contact email", emailCol.Description)
}

func TestImport_UnionWithNullIsNullable(t *testing.T) {
	src := `{
		"type": "record",
		"name": "Account",
		"fields": [
			{"name": "id", "type": "long"},
			{"name": "nickname", "type": ["null", "string"]}
		]
	}`

	result, err := avro.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	col := result.Tables[0].FindColumn("nickname")
	require.NotNil(t, col)
	assert.Equal(t, core.DataTypeString, col.DataType)
	assert.True(t, col.Nullable)
}

func TestImport_NestedRecordEmitsDottedChildren(t *testing.T) {
	src := `{
		"type": "record",
		"name": "Order",
		"fields": [
			{"name": "id", "type": "long"},
			{"name": "address", "type": {
				"type": "record",
				"name": "Address",
				"fields": [
					{"name": "street", "type": "string"},
					{"name": "zip", "type": "string"}
				]
			}}
		]
	}`

	result, err := avro.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	tbl := result.Tables[0]
	assert.NotNil(t, tbl.FindColumn("address"))
	assert.NotNil(t, tbl.FindColumn("address.street"))
	assert.NotNil(t, tbl.FindColumn("address.zip"))
}

func TestImport_ArrayOfScalarBecomesArrayType(t *testing.T) {
	src := `{
		"type": "record",
		"name": "Post",
		"fields": [
			{"name": "tags", "type": {"type": "array", "items": "string"}}
		]
	}`

	result, err := avro.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	col := result.Tables[0].FindColumn("tags")
	require.NotNil(t, col)
	assert.Equal(t, core.ArrayType(core.DataTypeString), col.DataType)
}

func TestImport_ArrayOfRecordInlinesChildrenWithoutArrayColumn(t *testing.T) {
	src := `{
		"type": "record",
		"name": "Invoice",
		"fields": [
			{"name": "line_items", "type": {
				"type": "array",
				"items": {
					"type": "record",
					"name": "LineItem",
					"fields": [
						{"name": "sku", "type": "string"},
						{"name": "qty", "type": "int"}
					]
				}
			}}
		]
	}`

	result, err := avro.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	tbl := result.Tables[0]
	assert.Nil(t, tbl.FindColumn("line_items"))
	assert.NotNil(t, tbl.FindColumn("line_items.sku"))
	assert.NotNil(t, tbl.FindColumn("line_items.qty"))
}

func TestImport_ArrayOfSchemas(t *testing.T) {
	src := `[
		{"type": "record", "name": "A", "fields": [{"name": "id", "type": "long"}]},
		{"type": "record", "name": "B", "fields": [{"name": "name", "type": "string"}]}
	]`

	result, err := avro.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	assert.Len(t, result.Tables, 2)
}
