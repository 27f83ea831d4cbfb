package hooks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces"
	"github.com/hyperterse/sqltask/core/infrastructure/logging"
)

// pgxConn is the subset of *pgx.Conn the hook uses
type pgxConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type connectFunc func(ctx context.Context, connString string) (pgxConn, error)

func pgxConnect(ctx context.Context, connString string) (pgxConn, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connection string: %w", err)
	}
	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// PgxHook runs statements on PostgreSQL with a single native pgx connection
type PgxHook struct {
	connID     string
	connString string
	connect    connectFunc
	log        interfaces.Logger
}

func newPgxHook(conn *domain.Connection, connect connectFunc) (*PgxHook, error) {
	connString, err := postgresDSN(conn.ConnectionString, conn.Options)
	if err != nil {
		return nil, err
	}
	return &PgxHook{
		connID:     conn.Name,
		connString: connString,
		connect:    connect,
		log:        logging.New("hook:postgres"),
	}, nil
}

// Run executes every statement in order, in one transaction unless autocommit is set
func (h *PgxHook) Run(ctx context.Context, stmts domain.SQL, autocommit bool, params domain.Parameters) error {
	h.log.Debugf("Opening PostgreSQL connection (pgx/v5)")
	conn, err := h.connect(ctx, h.connString)
	if err != nil {
		return fmt.Errorf("failed to connect to '%s': %w", h.connID, err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if autocommit {
		for i, stmt := range stmts {
			if err := h.exec(ctx, conn.Exec, i, stmt, params); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction on '%s': %w", h.connID, err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	for i, stmt := range stmts {
		if err := h.exec(ctx, tx.Exec, i, stmt, params); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction on '%s': %w", h.connID, err)
	}
	h.log.Debugf("Committed %d statement(s)", len(stmts))
	return nil
}

type pgxExecFunc func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)

func (h *PgxHook) exec(ctx context.Context, exec pgxExecFunc, i int, stmt string, params domain.Parameters) error {
	query, args, err := bindStatement(stmt, params, sqlx.DOLLAR)
	if err != nil {
		return err
	}

	h.log.Debugf("Running statement %d with parameters %s", i+1, params)
	tag, err := exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
	}
	h.log.Debugf("%s", tag.String())
	return nil
}

// Ping checks that the database is reachable
func (h *PgxHook) Ping(ctx context.Context) error {
	conn, err := h.connect(ctx, h.connString)
	if err != nil {
		return fmt.Errorf("failed to connect to '%s': %w", h.connID, err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping '%s': %w", h.connID, err)
	}
	return nil
}

var (
	_ interfaces.Hook   = (*PgxHook)(nil)
	_ interfaces.Pinger = (*PgxHook)(nil)
)
