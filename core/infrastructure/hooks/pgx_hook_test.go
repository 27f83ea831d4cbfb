package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces/mocks"
)

type execCall struct {
	sql  string
	args []any
}

// fakePgxConn records calls in order
type fakePgxConn struct {
	events  []string
	execs   []execCall
	execErr error
	pingErr error
}

func (c *fakePgxConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.events = append(c.events, "exec")
	c.execs = append(c.execs, execCall{sql: sql, args: args})
	if c.execErr != nil {
		return pgconn.CommandTag{}, c.execErr
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (c *fakePgxConn) Begin(context.Context) (pgx.Tx, error) {
	c.events = append(c.events, "begin")
	return &fakePgxTx{conn: c}, nil
}

func (c *fakePgxConn) Ping(context.Context) error {
	c.events = append(c.events, "ping")
	return c.pingErr
}

func (c *fakePgxConn) Close(context.Context) error {
	c.events = append(c.events, "close")
	return nil
}

type fakePgxTx struct {
	pgx.Tx
	conn   *fakePgxConn
	closed bool
}

func (tx *fakePgxTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.conn.Exec(ctx, sql, args...)
}

func (tx *fakePgxTx) Commit(context.Context) error {
	tx.closed = true
	tx.conn.events = append(tx.conn.events, "commit")
	return nil
}

func (tx *fakePgxTx) Rollback(context.Context) error {
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.conn.events = append(tx.conn.events, "rollback")
	return nil
}

func newFakePgxHook(conn *fakePgxConn) *PgxHook {
	return &PgxHook{
		connID:     "wh",
		connString: "postgres://etl@db/wh",
		connect: func(_ context.Context, connString string) (pgxConn, error) {
			return conn, nil
		},
		log: mocks.NewRecordingLogger(nil),
	}
}

func TestPgxHook_Run_Transaction(t *testing.T) {
	conn := &fakePgxConn{}
	hook := newFakePgxHook(conn)

	err := hook.Run(context.Background(), domain.Statements(
		"DELETE FROM sessions WHERE user_id = :id",
		"INSERT INTO audit (user_id) VALUES (:id)",
	), false, domain.Named(map[string]any{"id": 5}))
	require.NoError(t, err)

	assert.Equal(t, []string{"begin", "exec", "exec", "commit", "close"}, conn.events)
	assert.Equal(t, []execCall{
		{sql: "DELETE FROM sessions WHERE user_id = $1", args: []any{5}},
		{sql: "INSERT INTO audit (user_id) VALUES ($1)", args: []any{5}},
	}, conn.execs)
}

func TestPgxHook_Run_Autocommit(t *testing.T) {
	conn := &fakePgxConn{}
	hook := newFakePgxHook(conn)

	err := hook.Run(context.Background(), domain.Statements("VACUUM ANALYZE sessions"), true, domain.Parameters{})
	require.NoError(t, err)

	assert.Equal(t, []string{"exec", "close"}, conn.events)
	assert.Empty(t, conn.execs[0].args)
}

func TestPgxHook_Run_Positional(t *testing.T) {
	conn := &fakePgxConn{}
	hook := newFakePgxHook(conn)

	err := hook.Run(context.Background(), domain.Statements("DELETE FROM t WHERE id = $1"), true, domain.Positional(9))
	require.NoError(t, err)
	assert.Equal(t, []any{9}, conn.execs[0].args)
}

func TestPgxHook_Run_RollsBackOnFailure(t *testing.T) {
	boom := errors.New(`relation "sessions" does not exist`)
	conn := &fakePgxConn{execErr: boom}
	hook := newFakePgxHook(conn)

	err := hook.Run(context.Background(), domain.Statements("DELETE FROM sessions", "SELECT 1"), false, domain.Parameters{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"begin", "exec", "rollback", "close"}, conn.events)
}

func TestPgxHook_Run_ConnectFailure(t *testing.T) {
	hook := &PgxHook{
		connID: "wh",
		connect: func(context.Context, string) (pgxConn, error) {
			return nil, errors.New("connection refused")
		},
		log: mocks.NewRecordingLogger(nil),
	}

	err := hook.Run(context.Background(), domain.Statements("SELECT 1"), false, domain.Parameters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to 'wh'")
}

func TestPgxHook_Ping(t *testing.T) {
	conn := &fakePgxConn{}
	require.NoError(t, newFakePgxHook(conn).Ping(context.Background()))
	assert.Equal(t, []string{"ping", "close"}, conn.events)

	failing := &fakePgxConn{pingErr: errors.New("timeout")}
	err := newFakePgxHook(failing).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping 'wh'")
}
