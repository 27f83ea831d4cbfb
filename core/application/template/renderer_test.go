package template

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/sqltask/core/domain"
)

var testContext = domain.TaskContext{
	RunID:       "manual__2026-03-01T00:00:00Z",
	TaskID:      "purge",
	TryNumber:   2,
	LogicalDate: time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC),
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRender_InlineStatements(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil)

	got, err := r.Render(domain.Statements(
		"DELETE FROM events WHERE day < '{{ ds }}'",
		"INSERT INTO audit VALUES ('{{run_id}}', '{{ task_id }}', {{ try_number }}, '{{ ts }}', '{{ ds_nodash }}')",
	), testContext)
	require.NoError(t, err)

	assert.Equal(t, domain.SQL{
		"DELETE FROM events WHERE day < '2026-03-01'",
		"INSERT INTO audit VALUES ('manual__2026-03-01T00:00:00Z', 'purge', 2, '2026-03-01T06:30:00Z', '20260301')",
	}, got)
}

func TestRender_LeavesDriverPlaceholdersAlone(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil)

	sql := domain.Statements("SELECT * FROM t WHERE id = %(id)s AND a = ? AND b = $1 AND c = :name")
	got, err := r.Render(sql, testContext)
	require.NoError(t, err)
	assert.Equal(t, sql, got)
}

func TestRender_TemplateFileFromBaseDir(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "purge.sql", "DELETE FROM sessions WHERE day < '{{ ds }}'")

	got, err := NewRenderer(base, nil).Render(domain.Statements("purge.sql"), testContext)
	require.NoError(t, err)
	assert.Equal(t, domain.SQL{"DELETE FROM sessions WHERE day < '2026-03-01'"}, got)
}

func TestRender_TemplateFileFromSearchPath(t *testing.T) {
	base := t.TempDir()
	shared := t.TempDir()
	writeFile(t, base, "sql/rollup.sql", "INSERT INTO rollup SELECT 1")
	writeFile(t, shared, "vacuum.sql", "VACUUM")

	r := NewRenderer(base, []string{"sql", shared})
	assert.Equal(t, []string{base, filepath.Join(base, "sql"), shared}, r.SearchPath())

	got, err := r.Render(domain.Statements("rollup.sql", "vacuum.sql", "SELECT 2"), testContext)
	require.NoError(t, err)
	assert.Equal(t, domain.SQL{"INSERT INTO rollup SELECT 1", "VACUUM", "SELECT 2"}, got)
}

func TestRender_FirstMatchWins(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "job.sql", "SELECT 'base'")
	writeFile(t, base, "sql/job.sql", "SELECT 'searchpath'")

	got, err := NewRenderer(base, []string{"sql"}).Render(domain.Statements("job.sql"), testContext)
	require.NoError(t, err)
	assert.Equal(t, domain.SQL{"SELECT 'base'"}, got)
}

func TestRender_Env(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil)
	r.lookupEnv = func(name string) (string, bool) {
		if name == "SCHEMA" {
			return "analytics", true
		}
		return "", false
	}

	got, err := r.Render(domain.Statements("TRUNCATE {{ env.SCHEMA }}.daily"), testContext)
	require.NoError(t, err)
	assert.Equal(t, domain.SQL{"TRUNCATE analytics.daily"}, got)

	_, err = r.Render(domain.Statements("TRUNCATE {{ env.MISSING }}.daily"), testContext)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment variable 'MISSING' not found")
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer(t.TempDir(), nil)

	_, err := r.Render(domain.Statements("missing.sql"), testContext)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template 'missing.sql' not found")

	_, err = r.Render(domain.Statements("SELECT {{ nope }}"), testContext)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown template variable 'nope'")
}
