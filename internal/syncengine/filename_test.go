package syncengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/syncengine"
)

func TestClassifyFile(t *testing.T) {
	cases := []struct {
		path string
		kind syncengine.AssetKind
		ok   bool
	}{
		{"acme_sales_orders.odcs.yaml", syncengine.AssetODCS, true},
		{"acme_sales_orders.odps.yaml", syncengine.AssetODPS, true},
		{"acme_sales_pipeline.cads.yaml", syncengine.AssetCADS, true},
		{"acme_sales_checkout.bpmn.xml", syncengine.AssetBPMN, true},
		{"acme_sales_checkout.dmn.xml", syncengine.AssetDMN, true},
		{"acme_sales_catalog.openapi.yaml", syncengine.AssetOpenAPI, true},
		{"acme_sales_catalog.openapi.json", syncengine.AssetOpenAPI, true},
		{"workspace.yaml", syncengine.AssetWorkspace, true},
		{"relationships.yaml", syncengine.AssetRelationships, true},
		{"README.md", "", false},
		{"nested/dir/workspace.yaml", syncengine.AssetWorkspace, true},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			kind, ok := syncengine.ClassifyFile(tc.path)
			assert.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.kind, kind)
			}
		})
	}
}

func TestGenerateAndParseFilename_RoundTrip(t *testing.T) {
	parts := syncengine.NameParts{
		Workspace: "Acme", Domain: "Sales", System: "CRM", Resource: "Orders", Kind: syncengine.AssetODCS,
	}
	name, err := syncengine.GenerateFilename(parts)
	require.NoError(t, err)
	assert.Equal(t, "acme_sales_crm_orders.odcs.yaml", name)

	parsed, err := syncengine.ParseFilename(name)
	require.NoError(t, err)
	assert.Equal(t, syncengine.NameParts{
		Workspace: "acme", Domain: "sales", System: "crm", Resource: "orders", Kind: syncengine.AssetODCS,
	}, parsed)
}

func TestGenerateFilename_NoSystemSegment(t *testing.T) {
	parts := syncengine.NameParts{Workspace: "acme", Domain: "sales", Resource: "orders", Kind: syncengine.AssetODPS}
	name, err := syncengine.GenerateFilename(parts)
	require.NoError(t, err)
	assert.Equal(t, "acme_sales_orders.odps.yaml", name)

	parsed, err := syncengine.ParseFilename(name)
	require.NoError(t, err)
	assert.Empty(t, parsed.System)
	assert.Equal(t, "orders", parsed.Resource)
}

func TestGenerateFilename_SanitizesReservedCharacters(t *testing.T) {
	parts := syncengine.NameParts{Workspace: "Acme Corp", Domain: "Sales/EU", Resource: "Orders:V2", Kind: syncengine.AssetCADS}
	name, err := syncengine.GenerateFilename(parts)
	require.NoError(t, err)
	assert.Equal(t, "acme-corp_sales-eu_orders-v2.cads.yaml", name)
}

func TestParseFilename_RejectsNonAssetName(t *testing.T) {
	_, err := syncengine.ParseFilename("README.md")
	require.Error(t, err)
}
