package operator

import (
	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces"
)

// Option configures a SQLOperator
type Option func(*SQLOperator)

// WithConnID sets the connection profile id. An empty id keeps the default.
func WithConnID(connID string) Option {
	return func(o *SQLOperator) {
		if connID != "" {
			o.connID = connID
		}
	}
}

// WithAutocommit sets whether each statement is committed as it executes
func WithAutocommit(autocommit bool) Option {
	return func(o *SQLOperator) {
		o.autocommit = autocommit
	}
}

// WithParameters sets the values bound into statement placeholders
func WithParameters(params domain.Parameters) Option {
	return func(o *SQLOperator) {
		o.parameters = params
	}
}

// WithLogger replaces the task logger
func WithLogger(log interfaces.Logger) Option {
	return func(o *SQLOperator) {
		o.log = log
	}
}
