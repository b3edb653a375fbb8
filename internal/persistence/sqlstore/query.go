package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// statement is any goqu dataset that can render itself to SQL.
type statement interface {
	ToSQL() (string, []any, error)
}

// QueryHelper renders goqu datasets and runs them against the pool or an open
// transaction. Driver errors are mapped to persistence errors.
type QueryHelper struct {
	mapper *ErrorMapper
}

// NewQueryHelper creates a new query helper.
func NewQueryHelper(mapper *ErrorMapper) *QueryHelper {
	return &QueryHelper{mapper: mapper}
}

func render(stmt statement) (string, []any, error) {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("sqlstore: build query: %w", err)
	}
	return query, args, nil
}

// Select scans every row of stmt into dest, a pointer to a slice.
func (qh *QueryHelper) Select(ctx context.Context, q sqlx.QueryerContext, dest any, stmt statement) error {
	query, args, err := render(stmt)
	if err != nil {
		return err
	}
	if err := sqlx.SelectContext(ctx, q, dest, query, args...); err != nil {
		return qh.mapper.MapError(err)
	}
	return nil
}

// Get scans the first row of stmt into dest. It reports false when the query
// returned no rows.
func (qh *QueryHelper) Get(ctx context.Context, q sqlx.QueryerContext, dest any, stmt statement) (bool, error) {
	query, args, err := render(stmt)
	if err != nil {
		return false, err
	}
	if err := sqlx.GetContext(ctx, q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, qh.mapper.MapError(err)
	}
	return true, nil
}

// Exec runs stmt and returns the number of affected rows.
func (qh *QueryHelper) Exec(ctx context.Context, e sqlx.ExecerContext, stmt statement) (int64, error) {
	query, args, err := render(stmt)
	if err != nil {
		return 0, err
	}
	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, qh.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: rows affected: %w", err)
	}
	return affected, nil
}
