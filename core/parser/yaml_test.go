package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/sqltask/core/domain"
)

const sampleConfig = `name: nightly-maintenance
log_level: 4
template_searchpath:
  - sql
  - shared/sql
connections:
  warehouse:
    connector: postgres
    connection_string: "postgres://etl@db:5432/warehouse"
    options:
      sslmode: disable
      connect_timeout: 10
  jdbc_default:
    connector: sqlite
    connection_string: /var/lib/sqltask/default.db
tasks:
  purge_sessions:
    jdbc_conn_id: warehouse
    sql: DELETE FROM sessions WHERE expires_at < now()
    autocommit: true
    retries: 2
    retry_delay: 30s
  rebuild_rollups:
    jdbc_conn_id: warehouse
    sql:
      - TRUNCATE daily_rollup
      - INSERT INTO daily_rollup SELECT * FROM staging_rollup
    parameters:
      id: 5
  archive:
    sql: archive.sql
    parameters: [1, "two"]
    retry_delay: 45
`

func TestParseYAML(t *testing.T) {
	model, err := ParseYAML([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "nightly-maintenance", model.Name)
	assert.Equal(t, 4, model.LogLevel)
	assert.Equal(t, []string{"sql", "shared/sql"}, model.TemplateSearchPath)

	require.Len(t, model.Connections, 2)
	assert.Equal(t, "jdbc_default", model.Connections[0].Name, "connections are sorted by name")
	assert.Equal(t, domain.ConnectorSQLite, model.Connections[0].Connector)

	warehouse, ok := model.Connection("warehouse")
	require.True(t, ok)
	assert.Equal(t, domain.ConnectorPostgres, warehouse.Connector)
	assert.Equal(t, "postgres://etl@db:5432/warehouse", warehouse.ConnectionString)
	assert.Equal(t, map[string]string{"sslmode": "disable", "connect_timeout": "10"}, warehouse.Options)

	require.Len(t, model.Tasks, 3)
	assert.Equal(t, []string{"archive", "purge_sessions", "rebuild_rollups"},
		[]string{model.Tasks[0].ID, model.Tasks[1].ID, model.Tasks[2].ID})

	purge, ok := model.Task("purge_sessions")
	require.True(t, ok)
	assert.Equal(t, domain.SQL{"DELETE FROM sessions WHERE expires_at < now()"}, purge.SQL)
	assert.Equal(t, "warehouse", purge.ConnID)
	assert.True(t, purge.Autocommit)
	assert.True(t, purge.Parameters.IsZero())
	assert.Equal(t, 2, purge.Retries)
	assert.Equal(t, 30*time.Second, purge.RetryDelay)

	rebuild, ok := model.Task("rebuild_rollups")
	require.True(t, ok)
	assert.Len(t, rebuild.SQL, 2)
	assert.False(t, rebuild.Autocommit)
	assert.True(t, rebuild.Parameters.IsNamed())
	assert.Equal(t, map[string]any{"id": 5}, rebuild.Parameters.Map())

	archive, ok := model.Task("archive")
	require.True(t, ok)
	assert.Empty(t, archive.ConnID)
	assert.Equal(t, domain.SQL{"archive.sql"}, archive.SQL)
	assert.Equal(t, []any{1, "two"}, archive.Parameters.Args())
	assert.Equal(t, 45*time.Second, archive.RetryDelay)
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			content: "name: [unterminated",
			wantErr: "failed to unmarshal YAML",
		},
		{
			name:    "unknown connector",
			content: "connections:\n  x:\n    connector: oracle\n",
			wantErr: "invalid connector 'oracle' for connection 'x'",
		},
		{
			name:    "connection not a map",
			content: "connections:\n  x: postgres\n",
			wantErr: "invalid connection structure for 'x'",
		},
		{
			name:    "sql of wrong type",
			content: "tasks:\n  t:\n    sql: {a: b}\n",
			wantErr: "invalid sql for task 't'",
		},
		{
			name:    "scalar parameters",
			content: "tasks:\n  t:\n    sql: SELECT 1\n    parameters: 5\n",
			wantErr: "invalid parameters for task 't'",
		},
		{
			name:    "bad retry delay",
			content: "tasks:\n  t:\n    sql: SELECT 1\n    retry_delay: soon\n",
			wantErr: "invalid retry_delay for task 't'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
