package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tabeya-be/internal/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	StrategyProcedure = "procedure"
	StrategyDirect    = "direct"
	StrategyFallback  = "fallback"
)

// undefined_function
const sqlStateUndefinedFunction = "42883"

// Tx is the part of *sql.Tx a counter needs.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CounterIncrementer bumps a customer's order counter inside the caller's
// transaction. Exactly one increment per successful placement.
type CounterIncrementer interface {
	Increment(ctx context.Context, tx Tx, customerID int64) error
}

// ProcedureCounter calls the server-side increment_customer_order_count function.
type ProcedureCounter struct{}

func (ProcedureCounter) Increment(ctx context.Context, tx Tx, customerID int64) error {
	if _, err := tx.ExecContext(ctx, `SELECT increment_customer_order_count($1)`, customerID); err != nil {
		return fmt.Errorf("increment_customer_order_count: %w", err)
	}
	return nil
}

// DirectCounter updates the customers row itself.
type DirectCounter struct{}

func (DirectCounter) Increment(ctx context.Context, tx Tx, customerID int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE customers
		SET total_orders_count = total_orders_count + 1,
		    last_transaction_date = NOW()
		WHERE customer_id = $1
	`, customerID)
	if err != nil {
		return fmt.Errorf("update customer counter: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// FallbackCounter tries Primary under a savepoint and falls back to Secondary
// when the database reports the function as undefined. Postgres aborts the
// whole transaction on a failed statement, so the savepoint is what keeps the
// order inserts alive.
type FallbackCounter struct {
	Primary   CounterIncrementer
	Secondary CounterIncrementer
}

func (c FallbackCounter) Increment(ctx context.Context, tx Tx, customerID int64) error {
	if _, err := tx.ExecContext(ctx, `SAVEPOINT customer_counter`); err != nil {
		return err
	}

	err := c.Primary.Increment(ctx, tx, customerID)
	if err == nil {
		_, err = tx.ExecContext(ctx, `RELEASE SAVEPOINT customer_counter`)
		return err
	}
	if !IsUndefinedFunction(err) {
		return err
	}

	logger.FromCtx(ctx).Warn("counter procedure unavailable, using direct update",
		zap.Int64("customer_id", customerID),
	)
	if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT customer_counter`); err != nil {
		return err
	}
	return c.Secondary.Increment(ctx, tx, customerID)
}

// NewCounter builds the configured strategy. Unknown names fall back.
func NewCounter(strategy string) CounterIncrementer {
	switch strategy {
	case StrategyProcedure:
		return ProcedureCounter{}
	case StrategyDirect:
		return DirectCounter{}
	default:
		return FallbackCounter{Primary: ProcedureCounter{}, Secondary: DirectCounter{}}
	}
}

// IsUndefinedFunction reports SQLSTATE 42883 from either driver.
func IsUndefinedFunction(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == sqlStateUndefinedFunction
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateUndefinedFunction
	}
	return false
}
