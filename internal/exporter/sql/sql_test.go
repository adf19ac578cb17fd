package sql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	sqlexp "contractkit/internal/exporter/sql"
)

func TestExport_GenericCreateTable(t *testing.T) {
	cols := []*core.Column{
		{Name: "id", DataType: core.DataTypeLong, PrimaryKey: true, PhysicalType: "BIGINT"},
		{Name: "name", DataType: core.DataTypeString, Nullable: true},
	}
	tbl, err := core.NewTable("orders", cols)
	require.NoError(t, err)

	res, err := sqlexp.Export(tbl)
	require.NoError(t, err)

	out := string(res.Data)
	assert.Contains(t, out, "CREATE TABLE `orders` (")
	assert.Contains(t, out, "`id` BIGINT NOT NULL PRIMARY KEY")
	assert.Contains(t, out, "`name` VARCHAR(255)")
	assert.Contains(t, out, "PRIMARY KEY (`id`)")
}

func TestExport_FallsBackToCanonicalTypeWithoutPhysicalType(t *testing.T) {
	cols := []*core.Column{{Name: "amount", DataType: core.DataTypeDecimal}}
	tbl, err := core.NewTable("payments", cols)
	require.NoError(t, err)

	res, err := sqlexp.Export(tbl)
	require.NoError(t, err)
	assert.Contains(t, string(res.Data), "`amount` DECIMAL(18,4)")
}
