package hooks

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hyperterse/sqltask/core/domain"
)

// bindStatement prepares stmt for the driver. Named parameters use :name
// placeholders and are rewritten to the driver's bind style; positional
// parameters are passed through untouched.
func bindStatement(stmt string, params domain.Parameters, bindType int) (string, []any, error) {
	if !params.IsNamed() {
		return stmt, params.Args(), nil
	}

	query, args, err := sqlx.Named(stmt, params.Map())
	if err != nil {
		return "", nil, fmt.Errorf("failed to bind named parameters: %w", err)
	}
	return sqlx.Rebind(bindType, query), args, nil
}
