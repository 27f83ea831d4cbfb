package hooks

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces/mocks"
)

func newMockedSQLHook(t *testing.T, connector domain.Connector) (*SQLHook, sqlmock.Sqlmock, *mocks.RecordingLogger) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)

	d := dialects[connector]
	log := mocks.NewRecordingLogger(nil)
	hook := &SQLHook{
		connID:  "wh",
		dsn:     "dsn",
		dialect: d,
		open: func(driverName, dsn string) (*sql.DB, error) {
			assert.Equal(t, d.driver, driverName)
			assert.Equal(t, "dsn", dsn)
			return db, nil
		},
		log: log,
	}
	return hook, mock, log
}

func TestSQLHook_Run_Transaction(t *testing.T) {
	hook, mock, _ := newMockedSQLHook(t, domain.ConnectorMySQL)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM sessions WHERE user_id = ?").WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO audit (user_id) VALUES (?)").WithArgs(5).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	err := hook.Run(context.Background(), domain.Statements(
		"DELETE FROM sessions WHERE user_id = :id",
		"INSERT INTO audit (user_id) VALUES (:id)",
	), false, domain.Named(map[string]any{"id": 5}))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHook_Run_RollsBackOnFailure(t *testing.T) {
	hook, mock, _ := newMockedSQLHook(t, domain.ConnectorSQLite)
	boom := errors.New("no such table: sessions")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM sessions").WillReturnError(boom)
	mock.ExpectRollback()
	mock.ExpectClose()

	err := hook.Run(context.Background(), domain.Statements("DELETE FROM sessions", "VACUUM"), false, domain.Parameters{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to execute statement 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHook_Run_Autocommit(t *testing.T) {
	hook, mock, _ := newMockedSQLHook(t, domain.ConnectorRedshift)

	mock.ExpectExec("UPDATE t SET a = $1 WHERE id = $2").WithArgs("x", 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE t_history SET a = $1 WHERE id = $2").WithArgs("x", 7).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	err := hook.Run(context.Background(), domain.Statements(
		"UPDATE t SET a = $1 WHERE id = $2",
		"UPDATE t_history SET a = $1 WHERE id = $2",
	), true, domain.Positional("x", 7))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHook_Run_NamedDollar(t *testing.T) {
	hook, mock, _ := newMockedSQLHook(t, domain.ConnectorRedshift)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM events WHERE day < CAST($1 AS date)").WithArgs("2026-03-01").WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectCommit()
	mock.ExpectClose()

	err := hook.Run(context.Background(), domain.Statements("DELETE FROM events WHERE day < CAST(:day AS date)"), false,
		domain.Named(map[string]any{"day": "2026-03-01"}))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHook_Run_NonTransactionalConnector(t *testing.T) {
	hook, mock, log := newMockedSQLHook(t, domain.ConnectorClickHouse)

	mock.ExpectExec("ALTER TABLE events DELETE WHERE day < ?").WithArgs("2026-03-01").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	err := hook.Run(context.Background(), domain.Statements("ALTER TABLE events DELETE WHERE day < :day"), false,
		domain.Named(map[string]any{"day": "2026-03-01"}))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, log.Messages("warn"), 1)
}

func TestSQLHook_Run_BindErrorRollsBack(t *testing.T) {
	hook, mock, _ := newMockedSQLHook(t, domain.ConnectorMySQL)

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectClose()

	err := hook.Run(context.Background(), domain.Statements("SELECT :missing"), false, domain.Named(map[string]any{"id": 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind named parameters")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHook_Run_CommitFailure(t *testing.T) {
	hook, mock, _ := newMockedSQLHook(t, domain.ConnectorDuckDB)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO t VALUES (1)").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("conflict"))
	mock.ExpectClose()

	err := hook.Run(context.Background(), domain.Statements("INSERT INTO t VALUES (1)"), false, domain.Parameters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction on 'wh'")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHook_Run_OpenFailure(t *testing.T) {
	hook := &SQLHook{
		connID:  "wh",
		dialect: dialects[domain.ConnectorMySQL],
		open: func(string, string) (*sql.DB, error) {
			return nil, errors.New("unknown driver")
		},
		log: mocks.NewRecordingLogger(nil),
	}

	err := hook.Run(context.Background(), domain.Statements("SELECT 1"), false, domain.Parameters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open connection 'wh'")
}

func TestSQLHook_Ping(t *testing.T) {
	hook, mock, _ := newMockedSQLHook(t, domain.ConnectorMySQL)

	mock.ExpectPing()
	mock.ExpectClose()

	require.NoError(t, hook.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHook_PingFailure(t *testing.T) {
	hook, mock, _ := newMockedSQLHook(t, domain.ConnectorMySQL)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	err := hook.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping 'wh'")
}
