package protobuf_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/importer/protobuf"
)

func TestImport_SimpleMessage(t *testing.T) {
	src := `
syntax = "proto3";

message Customer {
	int64 id = 1;
	string email = 2;
	repeated string tags = 3;
}
`
	result, err := protobuf.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)

	tbl := result.Tables[0]
	assert.Equal(t, "Customer", tbl.Name)

	idCol := tbl.FindColumn("id")
	require.NotNil(t, idCol)
	assert.Equal(t, core.DataTypeLong, idCol.DataType)

	tagsCol := tbl.FindColumn("tags")
	require.NotNil(t, tagsCol)
	assert.Equal(t, core.ArrayType(core.DataTypeString), tagsCol.DataType)
	assert.True(t, tagsCol.Nullable)
}

func TestImport_NestedMessageInlinesViaDottedPath(t *testing.T) {
	src := `
message Order {
	message Address {
		string street = 1;
		string zip = 2;
	}
	int64 id = 1;
	Address shipping_address = 2;
}
`
	result, err := protobuf.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)

	tbl := result.Tables[0]
	addrCol := tbl.FindColumn("shipping_address")
	require.NotNil(t, addrCol)
	assert.Equal(t, core.DataTypeObject, addrCol.DataType)

	streetCol := tbl.FindColumn("shipping_address.street")
	require.NotNil(t, streetCol)
	assert.Equal(t, core.DataTypeString, streetCol.DataType)
}

func TestImport_EnumFieldBecomesString(t *testing.T) {
	src := `
enum Status {
	ACTIVE = 0;
	INACTIVE = 1;
}

message Account {
	int64 id = 1;
	Status status = 2;
}
`
	result, err := protobuf.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)

	statusCol := result.Tables[0].FindColumn("status")
	require.NotNil(t, statusCol)
	assert.Equal(t, core.DataTypeString, statusCol.DataType)
}

func TestImport_UnknownTypeWarns(t *testing.T) {
	src := `
message Widget {
	int64 id = 1;
	Frobnicator weird = 2;
}
`
	result, err := protobuf.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)

	weirdCol := result.Tables[0].FindColumn("weird")
	require.NotNil(t, weirdCol)
	assert.Equal(t, core.DataTypeString, weirdCol.DataType)

	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, importer.DiagnosticWarning, result.Diagnostics[0].Kind)
}

func TestImportJAR_ExtractsAndConcatenatesProtoEntries(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	f1, err := zw.Create("a.proto")
	require.NoError(t, err)
	_, err = f1.Write([]byte(`message A { int64 id = 1; }`))
	require.NoError(t, err)

	f2, err := zw.Create("b.proto")
	require.NoError(t, err)
	_, err = f2.Write([]byte(`message B { string name = 1; }`))
	require.NoError(t, err)

	require.NoError(t, zw.Close())

	result, err := protobuf.ImportJAR(buf.Bytes(), "", importer.Options{})
	require.NoError(t, err)
	assert.Len(t, result.Tables, 2)
}

func TestImportJAR_EmptyResultIsError(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, zw.Close())

	_, err := protobuf.ImportJAR(buf.Bytes(), "", importer.Options{})
	require.Error(t, err)
}
