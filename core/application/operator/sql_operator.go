// Package operator provides the SQL execution task: it runs one or more SQL
// statements through a hook bound to a named connection profile.
package operator

import (
	"context"
	"errors"

	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces"
	"github.com/hyperterse/sqltask/core/infrastructure/logging"
)

// DefaultConnID is the connection profile used when none is configured
const DefaultConnID = domain.DefaultConnID

var (
	ErrMissingSQL         = errors.New("sql is required")
	ErrMissingHookFactory = errors.New("hook factory is required")
)

// SQLOperator executes SQL against the connection named by its conn id.
// It is immutable after construction; a new hook is obtained on every Execute.
type SQLOperator struct {
	taskID     string
	sql        domain.SQL
	connID     string
	autocommit bool
	parameters domain.Parameters

	hooks interfaces.HookFactory
	log   interfaces.Logger
}

// New creates a SQL operator for taskID. The connection is not resolved here.
func New(taskID string, sql domain.SQL, hooks interfaces.HookFactory, opts ...Option) (*SQLOperator, error) {
	if len(sql) == 0 {
		return nil, ErrMissingSQL
	}
	if hooks == nil {
		return nil, ErrMissingHookFactory
	}

	op := &SQLOperator{
		taskID: taskID,
		sql:    sql,
		connID: DefaultConnID,
		hooks:  hooks,
	}
	for _, opt := range opts {
		opt(op)
	}
	if op.log == nil {
		op.log = logging.New("task:" + taskID)
	}
	return op, nil
}

// Execute logs the SQL, obtains a hook for the configured connection and runs
// the statements. Errors from the factory or the hook are returned as-is.
func (o *SQLOperator) Execute(ctx context.Context) error {
	o.log.Infof("Executing: %s", o.sql)

	hook, err := o.hooks.NewHook(ctx, o.connID)
	if err != nil {
		return err
	}

	return hook.Run(ctx, o.sql, o.autocommit, o.parameters)
}

// TaskID returns the task id
func (o *SQLOperator) TaskID() string { return o.taskID }

// SQL returns the statements the operator executes
func (o *SQLOperator) SQL() domain.SQL { return o.sql }

// ConnID returns the connection id the hook is resolved with
func (o *SQLOperator) ConnID() string { return o.connID }

// Autocommit reports whether statements are committed as they execute
func (o *SQLOperator) Autocommit() bool { return o.autocommit }

// Parameters returns the bind parameters
func (o *SQLOperator) Parameters() domain.Parameters { return o.parameters }

var _ domain.Task = (*SQLOperator)(nil)
