package sqlstore_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"contractkit/internal/core"
	"contractkit/internal/store"
	"contractkit/internal/store/sqlstore"
)

// testMySQLContainer mirrors the teacher's internal/apply connector test
// fixture: a real MySQL container plus a direct *sql.DB handle that
// setupMySQL pings to confirm the container is reachable; the tests
// themselves go through sqlstore only.
type testMySQLContainer struct {
	container *mysql.MySQLContainer
	dsn       string
	db        *sql.DB
}

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	ctx := context.Background()

	st, err := sqlstore.Open(tc.dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Initialize(ctx))
	require.NoError(t, st.HealthCheck(ctx))

	t.Run("initialize is idempotent", func(t *testing.T) {
		require.NoError(t, st.Initialize(ctx))
	})

	ws := &store.Workspace{ID: uuid.New(), Name: "warehouse"}
	require.NoError(t, st.UpsertWorkspace(ctx, ws))

	t.Run("workspace round-trips by id and by name", func(t *testing.T) {
		byID, err := st.GetWorkspace(ctx, ws.ID.String())
		require.NoError(t, err)
		assert.Equal(t, ws.Name, byID.Name)

		byName, err := st.GetWorkspace(ctx, ws.Name)
		require.NoError(t, err)
		assert.Equal(t, ws.ID, byName.ID)
	})

	t.Run("sync and export a table preserves every column field", func(t *testing.T) {
		def := "0"
		cols := []*core.Column{
			{
				Name:                   "id",
				DataType:               core.DataTypeLong,
				PrimaryKey:             true,
				PrimaryKeyPosition:     1,
				Partitioned:            true,
				PartitionKeyPosition:   1,
				Clustered:              true,
				CriticalDataElement:    true,
				TransformLogic:         "cast(raw_id as bigint)",
				TransformSourceObjects: []string{"staging.raw_accounts"},
				TransformDescription:   "cast from staging",
				DefaultValue:           &def,
				EnumValues:             []string{"a", "b"},
				Quality:                []map[string]any{{"rule": "notNull"}},
				Relationships:          []string{"orders.account_id"},
				Tags:                   []string{"pii"},
				CustomProperties:       []core.CustomProperty{{Property: "owner", Value: "finance"}},
				AuthoritativeDefinitions: []core.AuthoritativeDefinition{
					{URL: "https://example.com/accounts", Type: "businessDefinition"},
				},
				RefPath: "#/definitions/account_id",
			},
			{Name: "email", DataType: core.DataTypeString, Nullable: true},
		}
		tbl, err := core.NewTable("accounts", cols)
		require.NoError(t, err)

		require.NoError(t, st.SyncTables(ctx, ws.ID, "accounts.odcs.yaml", []*core.Table{tbl}))

		exported, err := st.ExportTables(ctx, ws.ID)
		require.NoError(t, err)
		require.Len(t, exported, 1)

		got := exported[0].FindColumn("id")
		require.NotNil(t, got)
		assert.True(t, got.PrimaryKey)
		assert.Equal(t, 1, got.PrimaryKeyPosition)
		assert.True(t, got.Clustered)
		require.NotNil(t, got.DefaultValue)
		assert.Equal(t, "0", *got.DefaultValue)
		assert.Equal(t, []string{"a", "b"}, got.EnumValues)
		require.Len(t, got.CustomProperties, 1)
		assert.Equal(t, "owner", got.CustomProperties[0].Property)

		t.Run("re-syncing identical tables deletes and reinserts, not duplicates", func(t *testing.T) {
			require.NoError(t, st.SyncTables(ctx, ws.ID, "accounts.odcs.yaml", []*core.Table{tbl}))
			exported, err := st.ExportTables(ctx, ws.ID)
			require.NoError(t, err)
			require.Len(t, exported, 1)
		})

		t.Run("deleting by path cascades columns", func(t *testing.T) {
			require.NoError(t, st.DeleteByPath(ctx, ws.ID, "accounts.odcs.yaml"))
			exported, err := st.ExportTables(ctx, ws.ID)
			require.NoError(t, err)
			assert.Empty(t, exported)
		})
	})

	t.Run("file hash index round-trips and deletes", func(t *testing.T) {
		require.NoError(t, st.RecordFileHash(ctx, ws.ID, "orders.odcs.yaml", "deadbeef"))
		hash, ok, err := st.GetFileHash(ctx, ws.ID, "orders.odcs.yaml")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "deadbeef", hash)

		index, err := st.ListFileHashes(ctx, ws.ID)
		require.NoError(t, err)
		assert.Equal(t, "deadbeef", index["orders.odcs.yaml"])

		require.NoError(t, st.DeleteFileHash(ctx, ws.ID, "orders.odcs.yaml"))
		_, ok, err = st.GetFileHash(ctx, ws.ID, "orders.odcs.yaml")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete workspace cascades every row", func(t *testing.T) {
		require.NoError(t, st.DeleteWorkspace(ctx, ws.ID))
		_, err := st.GetWorkspace(ctx, ws.ID.String())
		assert.Error(t, err)
	})
}

func TestStore_InvalidDSNFailsHealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	st, err := sqlstore.Open("invalid:user@tcp(127.0.0.1:1)/nope")
	require.NoError(t, err, "Open only validates the DSN string, it does not dial")
	t.Cleanup(func() { _ = st.Close() })

	err = st.HealthCheck(context.Background())
	assert.Error(t, err)
}

func setupMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to open direct DB connection")
	require.NoError(t, db.PingContext(ctx), "failed to ping database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close DB connection: %v", err)
		}
	})

	return &testMySQLContainer{
		container: mysqlContainer,
		dsn:       dsn,
		db:        db,
	}
}
