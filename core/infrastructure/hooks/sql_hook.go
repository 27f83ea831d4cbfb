package hooks

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces"
	"github.com/hyperterse/sqltask/core/infrastructure/logging"
)

// openFunc opens a database handle; sql.Open outside tests
type openFunc func(driverName, dsn string) (*sql.DB, error)

// SQLHook runs statements through a database/sql driver. Each Run opens a
// handle, pins a single connection and closes both before returning.
type SQLHook struct {
	connID  string
	dsn     string
	dialect dialect
	open    openFunc
	log     interfaces.Logger
}

func newSQLHook(conn *domain.Connection, d dialect, open openFunc) (*SQLHook, error) {
	dsn, err := d.dsn(conn.ConnectionString, conn.Options)
	if err != nil {
		return nil, err
	}
	return &SQLHook{
		connID:  conn.Name,
		dsn:     dsn,
		dialect: d,
		open:    open,
		log:     logging.New("hook:" + conn.Connector.String()),
	}, nil
}

// Run executes every statement in order. With autocommit off the statements
// share one transaction committed after the last succeeds; with autocommit on
// each statement commits on its own.
func (h *SQLHook) Run(ctx context.Context, stmts domain.SQL, autocommit bool, params domain.Parameters) error {
	db, err := h.open(h.dialect.driver, h.dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection '%s': %w", h.connID, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to '%s': %w", h.connID, err)
	}
	defer conn.Close()

	if autocommit || !h.dialect.transactional {
		if !autocommit {
			h.log.Warnf("Connector for '%s' does not support transactions, statements are applied as they run", h.connID)
		}
		for i, stmt := range stmts {
			if err := h.exec(ctx, conn, i, stmt, params); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction on '%s': %w", h.connID, err)
	}
	defer tx.Rollback()

	for i, stmt := range stmts {
		if err := h.exec(ctx, tx, i, stmt, params); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction on '%s': %w", h.connID, err)
	}
	h.log.Debugf("Committed %d statement(s)", len(stmts))
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (h *SQLHook) exec(ctx context.Context, ex execer, i int, stmt string, params domain.Parameters) error {
	query, args, err := bindStatement(stmt, params, h.dialect.bindType)
	if err != nil {
		return err
	}

	h.log.Debugf("Running statement %d with parameters %s", i+1, params)
	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
	}
	if rows, err := result.RowsAffected(); err == nil {
		h.log.Debugf("Rows affected: %d", rows)
	}
	return nil
}

// Ping checks that the database is reachable
func (h *SQLHook) Ping(ctx context.Context) error {
	db, err := h.open(h.dialect.driver, h.dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection '%s': %w", h.connID, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping '%s': %w", h.connID, err)
	}
	return nil
}

var (
	_ interfaces.Hook   = (*SQLHook)(nil)
	_ interfaces.Pinger = (*SQLHook)(nil)
)
