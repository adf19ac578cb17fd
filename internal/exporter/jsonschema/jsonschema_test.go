package jsonschema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/exporter/jsonschema"
)

func TestExport_TopLevelScalarsAndRequired(t *testing.T) {
	cols := []*core.Column{
		{Name: "id", DataType: core.DataTypeLong, Nullable: false},
		{Name: "nickname", DataType: core.DataTypeString, Nullable: true},
	}
	tbl, err := core.NewTable("users", cols)
	require.NoError(t, err)

	res, err := jsonschema.Export(tbl)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(res.Data, &doc))
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, "users", doc["title"])

	props := doc["properties"].(map[string]any)
	id := props["id"].(map[string]any)
	assert.Equal(t, "integer", id["type"])

	required := doc["required"].([]any)
	assert.Contains(t, required, "id")
	assert.NotContains(t, required, "nickname")
}

func TestExport_NestedObjectKeepsParentRow(t *testing.T) {
	// Unlike AVRO, JSON Schema keeps the parent object's own row
	// (internal/importer/jsonschema's own asymmetry), so export must
	// reconstruct it via nestedpath.Unflatten rather than a bespoke trie.
	cols := []*core.Column{
		{Name: "address", DataType: core.DataTypeObject},
		{Name: "address.city", DataType: core.DataTypeString},
	}
	tbl, err := core.NewTable("users", cols)
	require.NoError(t, err)

	res, err := jsonschema.Export(tbl)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(res.Data, &doc))
	props := doc["properties"].(map[string]any)
	address := props["address"].(map[string]any)
	assert.Equal(t, "object", address["type"])
	addrProps := address["properties"].(map[string]any)
	city := addrProps["city"].(map[string]any)
	assert.Equal(t, "string", city["type"])
}

func TestExport_ArrayOfScalar(t *testing.T) {
	cols := []*core.Column{
		{Name: "tags", DataType: core.ArrayType(core.DataTypeString)},
	}
	tbl, err := core.NewTable("posts", cols)
	require.NoError(t, err)

	res, err := jsonschema.Export(tbl)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(res.Data, &doc))
	props := doc["properties"].(map[string]any)
	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	items := tags["items"].(map[string]any)
	assert.Equal(t, "string", items["type"])
}
