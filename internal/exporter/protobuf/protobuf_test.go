package protobuf_test

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/exporter/protobuf"
)

func newOrdersTable(t *testing.T) *core.Table {
	t.Helper()
	cols := []*core.Column{
		{Name: "id", DataType: core.DataTypeLong},
		{Name: "note", DataType: core.DataTypeString, Nullable: true},
	}
	tbl, err := core.NewTable("Order", cols)
	require.NoError(t, err)
	return tbl
}

func TestExportVersion_Proto3(t *testing.T) {
	tbl := newOrdersTable(t)
	res, err := protobuf.ExportVersion(tbl, protobuf.Version3)
	require.NoError(t, err)

	out := string(res.Data)
	assert.True(t, strings.HasPrefix(out, "syntax = \"proto3\";"))
	assert.Contains(t, out, "message Order {")
	assert.Contains(t, out, "int64 id = 1;")
	assert.Contains(t, out, "optional string note = 2;")
}

func TestExportVersion_Proto2UsesRequiredOptional(t *testing.T) {
	tbl := newOrdersTable(t)
	res, err := protobuf.ExportVersion(tbl, protobuf.Version2)
	require.NoError(t, err)

	out := string(res.Data)
	assert.Contains(t, out, "syntax = \"proto2\";")
	assert.Contains(t, out, "required int64 id = 1;")
	assert.Contains(t, out, "optional string note = 2;")
}

func TestExportVersion_InvalidVersionIsInvalidArgument(t *testing.T) {
	tbl := newOrdersTable(t)
	_, err := protobuf.ExportVersion(tbl, protobuf.Version("proto4"))
	require.Error(t, err)
	var invalid *core.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestExportVersion_NestedObjectEmitsSeparateMessage(t *testing.T) {
	cols := []*core.Column{
		{Name: "id", DataType: core.DataTypeLong},
		{Name: "customer", DataType: core.DataTypeObject},
		{Name: "customer.name", DataType: core.DataTypeString},
	}
	tbl, err := core.NewTable("Order", cols)
	require.NoError(t, err)

	res, err := protobuf.ExportVersion(tbl, protobuf.Version3)
	require.NoError(t, err)

	out := string(res.Data)
	assert.Contains(t, out, "Order_Customer customer = 2;")
	assert.Contains(t, out, "message Order_Customer {")
	assert.Contains(t, out, "string name = 1;")
}

func TestExportDescriptorSet_ProtocNotFoundIsReported(t *testing.T) {
	if _, err := exec.LookPath("protoc"); err == nil {
		t.Skip("protoc is present on PATH; not exercising the not-found path")
	}
	tbl := newOrdersTable(t)
	_, err := protobuf.ExportDescriptorSet(tbl, protobuf.Version3, "")
	require.Error(t, err)
	var notFound *core.ProtocNotFoundError
	require.ErrorAs(t, err, &notFound)
}
