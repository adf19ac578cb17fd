package detect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractkit/internal/core"
	"contractkit/internal/detect"
	"contractkit/internal/importer"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		data string
		want importer.Format
	}{
		{"odcs", "apiVersion: v3.0.0\nkind: DataContract\nname: orders\n", importer.FormatODCS},
		{"legacy odcl", "dataContractSpecification: 0.9.3\n", importer.FormatLegacyODCL},
		{"sql", "CREATE TABLE orders (id BIGINT PRIMARY KEY);", importer.FormatSQL},
		{"sql lower", "create table orders (id bigint primary key);", importer.FormatSQL},
		{"jsonschema", `{"$schema": "https://json-schema.org/draft/2020-12/schema", "type": "object"}`, importer.FormatJSONSchema},
		{"avro", `[{"type": "record", "name": "Order", "fields": []}]`, importer.FormatAVRO},
		{"protobuf", "syntax = \"proto3\";\nmessage Order {}\n", importer.FormatProtobuf},
		{"cads", "apiVersion: v1\nkind: AIModel\nname: recommender\n", importer.FormatCADS},
		{"odps", "apiVersion: v1\nkind: DataProduct\nname: orders-product\n", importer.FormatODPS},
		{"domain", "systems:\n  - name: crm\ncads_nodes:\n  - id: 1\n", importer.FormatDomain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := detect.Detect([]byte(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetect_NoMatchReturnsAutoDetectionFailed(t *testing.T) {
	_, err := detect.Detect([]byte("this is not a recognizable schema document"))
	require.Error(t, err)
	var autoErr *core.AutoDetectionFailedError
	require.ErrorAs(t, err, &autoErr)
}

func TestDetect_OrderedRulesPreferODCSOverSQL(t *testing.T) {
	// An ODCS document whose schema array happens to mention "CREATE
	// TABLE" inside a description must still be detected as ODCS: rule 1
	// precedes rule 3 (spec.md §4.6).
	data := "apiVersion: v3.0.0\nkind: DataContract\nschema:\n  - description: emitted from a CREATE TABLE statement\n"
	got, err := detect.Detect([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, importer.FormatODCS, got)
}
