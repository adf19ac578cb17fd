package avro_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/exporter/avro"
)

func TestExport_ScalarFieldsRoundTripType(t *testing.T) {
	cols := []*core.Column{
		{Name: "id", DataType: core.DataTypeLong},
		{Name: "active", DataType: core.DataTypeBoolean, Nullable: true},
	}
	tbl, err := core.NewTable("accounts", cols)
	require.NoError(t, err)

	res, err := avro.Export(tbl)
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(res.Data, &schema))
	assert.Equal(t, "record", schema["type"])
	assert.Equal(t, "accounts", schema["name"])

	fields := schema["fields"].([]any)
	require.Len(t, fields, 2)

	idField := fields[0].(map[string]any)
	assert.Equal(t, "id", idField["name"])
	assert.Equal(t, "long", idField["type"])

	activeField := fields[1].(map[string]any)
	assert.Equal(t, []any{"null", "boolean"}, activeField["type"])
}

func TestExport_ArrayOfRecordInlinesChildrenWithoutOwnColumn(t *testing.T) {
	// Mirrors the importer's own asymmetry (avro_test.go in
	// internal/importer/avro): a flattened array-of-record field has no
	// column of its own, only dotted-path children, so the exporter must
	// rebuild it as an array<record> rather than emit an orphaned field.
	cols := []*core.Column{
		{Name: "id", DataType: core.DataTypeLong},
		{Name: "items.sku", DataType: core.DataTypeString},
		{Name: "items.qty", DataType: core.DataTypeInt},
	}
	tbl, err := core.NewTable("orders", cols)
	require.NoError(t, err)

	res, err := avro.Export(tbl)
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(res.Data, &schema))
	fields := schema["fields"].([]any)
	require.Len(t, fields, 2)

	itemsField := fields[1].(map[string]any)
	assert.Equal(t, "items", itemsField["name"])
	itemsType := itemsField["type"].(map[string]any)
	assert.Equal(t, "array", itemsType["type"])
	itemsRecord := itemsType["items"].(map[string]any)
	assert.Equal(t, "record", itemsRecord["type"])
	itemFields := itemsRecord["fields"].([]any)
	assert.Len(t, itemFields, 2)
}
