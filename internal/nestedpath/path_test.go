package nestedpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/nestedpath"
)

func TestFlatten_NestedObject(t *testing.T) {
	roots := []*nestedpath.Node{
		{Name: "name", DataType: core.DataTypeString},
		{Name: "address", DataType: core.DataTypeObject, Children: []*nestedpath.Node{
			{Name: "street", DataType: core.DataTypeString},
			{Name: "zip", DataType: core.DataTypeString, Nullable: true},
		}},
	}

	got := nestedpath.Flatten(roots)
	require.Len(t, got, 4)
	assert.Equal(t, "name", got[0].Name)
	assert.Equal(t, "address", got[1].Name)
	assert.Equal(t, core.DataTypeObject, got[1].DataType)
	assert.Equal(t, "address.street", got[2].Name)
	assert.Equal(t, "address.zip", got[3].Name)
}

func TestFlatten_ArrayOfScalarCollapses(t *testing.T) {
	roots := []*nestedpath.Node{
		{Name: "tags", DataType: core.ArrayType(core.DataTypeString)},
	}
	got := nestedpath.Flatten(roots)
	require.Len(t, got, 1)
	assert.Equal(t, core.ArrayType(core.DataTypeString), got[0].DataType)
}

func TestFlatten_ArrayOfObjectKeepsArrayTypeAndChildren(t *testing.T) {
	roots := []*nestedpath.Node{
		{Name: "items", DataType: core.ArrayType(core.DataTypeObject), Children: []*nestedpath.Node{
			{Name: "sku", DataType: core.DataTypeString},
			{Name: "qty", DataType: core.DataTypeInt},
		}},
	}
	got := nestedpath.Flatten(roots)
	require.Len(t, got, 3)
	assert.Equal(t, "items", got[0].Name)
	assert.Equal(t, core.ArrayType(core.DataTypeObject), got[0].DataType)
	assert.Equal(t, "items.sku", got[1].Name)
	assert.Equal(t, "items.qty", got[2].Name)
}

func TestUnflatten_RoundTripsFlatten(t *testing.T) {
	roots := []*nestedpath.Node{
		{Name: "name", DataType: core.DataTypeString},
		{Name: "address", DataType: core.DataTypeObject, Children: []*nestedpath.Node{
			{Name: "street", DataType: core.DataTypeString},
			{Name: "zip", DataType: core.DataTypeString, Nullable: true},
		}},
	}

	flat := nestedpath.Flatten(roots)
	rebuilt := nestedpath.Unflatten(flat)

	require.Len(t, rebuilt, 2)
	assert.Equal(t, "name", rebuilt[0].Name)
	assert.Equal(t, "address", rebuilt[1].Name)
	require.Len(t, rebuilt[1].Children, 2)
	assert.Equal(t, "street", rebuilt[1].Children[0].Name)
	assert.Equal(t, "zip", rebuilt[1].Children[1].Name)

	// Re-flattening the rebuilt tree must reproduce the exact same flat
	// list (P6: nested round-trip).
	assert.Equal(t, flat, nestedpath.Flatten(rebuilt))
}

func TestFlatten_DottedNameNeverEmittedAtTopLevelOnly(t *testing.T) {
	// A nested child is emitted under its dotted full path: child "b" of
	// root "a" comes out as "a.b", never as a top-level "b".
	roots := []*nestedpath.Node{
		{Name: "a", DataType: core.DataTypeObject, Children: []*nestedpath.Node{
			{Name: "b", DataType: core.DataTypeString},
		}},
	}
	got := nestedpath.Flatten(roots)
	assert.Equal(t, []nestedpath.FlatColumn{
		{Name: "a", DataType: core.DataTypeObject},
		{Name: "a.b", DataType: core.DataTypeString},
	}, got)
}
