// Package hooks bridges connection profiles to database drivers. A hook is
// created per task execution and opens exactly one connection per Run.
package hooks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces"
	"github.com/hyperterse/sqltask/core/infrastructure/logging"
	apperrors "github.com/hyperterse/sqltask/core/shared/errors"
)

// Factory creates hooks for connection ids using a ConnectionResolver
type Factory struct {
	resolver interfaces.ConnectionResolver
	open     openFunc
	connect  connectFunc
}

// NewFactory creates a hook factory backed by resolver
func NewFactory(resolver interfaces.ConnectionResolver) *Factory {
	return &Factory{
		resolver: resolver,
		open:     sql.Open,
		connect:  pgxConnect,
	}
}

// NewHook resolves connID and returns a hook for its connector.
// Resolution errors are returned unchanged.
func (f *Factory) NewHook(ctx context.Context, connID string) (interfaces.Hook, error) {
	conn, err := f.resolver.Resolve(connID)
	if err != nil {
		return nil, err
	}
	return f.hookFor(conn)
}

func (f *Factory) hookFor(conn *domain.Connection) (interfaces.Hook, error) {
	log := logging.New("hooks")
	log.Debugf("Creating %s hook for connection '%s'", conn.Connector, conn.Name)

	if conn.Connector == domain.ConnectorPostgres {
		hook, err := newPgxHook(conn, f.connect)
		if err != nil {
			return nil, err
		}
		return hook, nil
	}

	d, ok := dialects[conn.Connector]
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrCodeUnsupportedConnector,
			fmt.Sprintf("connector '%s' of connection '%s' is not supported", conn.Connector, conn.Name), nil)
	}
	hook, err := newSQLHook(conn, d, f.open)
	if err != nil {
		return nil, err
	}
	return hook, nil
}

// Ping creates a hook for connID and checks connectivity
func (f *Factory) Ping(ctx context.Context, connID string) error {
	hook, err := f.NewHook(ctx, connID)
	if err != nil {
		return err
	}
	pinger, ok := hook.(interfaces.Pinger)
	if !ok {
		return fmt.Errorf("connection '%s' does not support ping", connID)
	}
	return pinger.Ping(ctx)
}

var _ interfaces.HookFactory = (*Factory)(nil)
