package odcs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/importer"
	"contractkit/internal/importer/odcs"
)

func TestImport_SimpleSchemaWithRequiredProperty(t *testing.T) {
	src := `
apiVersion: v3.0.0
kind: DataContract
id: 4f6d8c2a-1b3e-4a5c-9f2d-6e7a8b9c0d1e
name: customer_contract
version: "1.0.0"
status: active
domain: sales
tags:
  - pii
schema:
  - name: customers
    properties:
      - name: id
        logicalType: integer
        required: true
      - name: email
        logicalType: string
        required: true
        classification: sensitive
      - name: nickname
        logicalType: string
`
	result, err := odcs.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)

	tbl := result.Tables[0]
	assert.Equal(t, "customers", tbl.Name)
	assert.Equal(t, "1.0.0", tbl.Version)
	assert.Equal(t, core.StatusActive, tbl.Status)
	assert.Equal(t, "sales", tbl.Domain)
	assert.Equal(t, []string{"pii"}, tbl.Tags)

	idCol := tbl.FindColumn("id")
	require.NotNil(t, idCol)
	assert.Equal(t, core.DataTypeInt, idCol.DataType)
	assert.False(t, idCol.Nullable)

	emailCol := tbl.FindColumn("email")
	require.NotNil(t, emailCol)
	assert.Equal(t, "sensitive", emailCol.Classification)

	nickCol := tbl.FindColumn("nickname")
	require.NotNil(t, nickCol)
	assert.True(t, nickCol.Nullable)
}

func TestImport_NestedObjectProperty(t *testing.T) {
	src := `
schema:
  - name: orders
    properties:
      - name: id
        logicalType: integer
        required: true
      - name: address
        logicalType: object
        properties:
          - name: street
            logicalType: string
            required: true
`
	result, err := odcs.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	tbl := result.Tables[0]
	assert.NotNil(t, tbl.FindColumn("address"))
	streetCol := tbl.FindColumn("address.street")
	require.NotNil(t, streetCol)
	assert.False(t, streetCol.Nullable)
}

func TestImport_AdditionalSchemaEntriesPreservedInMetadata(t *testing.T) {
	src := `
schema:
  - name: customers
    properties:
      - name: id
        logicalType: integer
  - name: orders
    properties:
      - name: total
        logicalType: number
`
	result, err := odcs.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	tbl := result.Tables[0]
	assert.Equal(t, "customers", tbl.Name)
	require.NotNil(t, tbl.ODCSMetadata)
	assert.Contains(t, tbl.ODCSMetadata, "additionalSchemas")
}

func TestImport_ExplicitIDIsUsedAsTableID(t *testing.T) {
	src := `
id: 4f6d8c2a-1b3e-4a5c-9f2d-6e7a8b9c0d1e
schema:
  - name: customers
    properties:
      - name: id
        logicalType: integer
`
	result, err := odcs.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	assert.Equal(t, "4f6d8c2a-1b3e-4a5c-9f2d-6e7a8b9c0d1e", result.Tables[0].ID.String())
}

func TestImport_ArrayOfObjectInlinesChildren(t *testing.T) {
	src := `
schema:
  - name: invoices
    properties:
      - name: lineItems
        logicalType: array
        items:
          properties:
            - name: sku
              logicalType: string
              required: true
            - name: qty
              logicalType: integer
              required: true
`
	result, err := odcs.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	tbl := result.Tables[0]
	assert.NotNil(t, tbl.FindColumn("lineItems.sku"))
	assert.NotNil(t, tbl.FindColumn("lineItems.qty"))
}

func TestImport_ColumnCarriesEveryMetadataField(t *testing.T) {
	src := `
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
	result, err := odcs.Import([]byte(src), importer.Options{})
	require.NoError(t, err)
	tbl := result.Tables[0]

	col := tbl.FindColumn("id")
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
