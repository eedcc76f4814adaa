package cancellation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tabeya-be/internal/logger"
	"tabeya-be/internal/payment"

	"go.uber.org/zap"
)

type Repository interface {
	// Cancel moves a Pending row to Cancelled and refunds its payment in one
	// transaction. It returns the status observed under the row lock.
	Cancel(ctx context.Context, t Target, id, customerID int64) (previous string, err error)
}

type repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db, now: time.Now}
}

func (r *repository) Cancel(ctx context.Context, t Target, id, customerID int64) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Cancel"),
		zap.String("target", t.Table),
		zap.Int64("id", id),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return "", err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// 1. Lock the row; concurrent cancellations queue here.
	var status string
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND customer_id = $2 %s
		FOR UPDATE
	`, t.StatusColumn, t.Table, t.IDColumn, t.Scope), id, customerID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", t.ErrNotFound
	}
	if err != nil {
		log.Error("failed to lock row", zap.Error(err))
		return "", err
	}

	// 2. Only Pending may leave.
	if !strings.EqualFold(status, StatusPending) {
		return status, &IllegalTransitionError{Target: t.Name, Current: status}
	}

	// 3. Transition, guarded on the origin state.
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s
		SET %s = $1, updated_at = NOW()
		WHERE %s = $2 AND customer_id = $3 AND %s = $4
	`, t.Table, t.StatusColumn, t.IDColumn, t.StatusColumn), StatusCancelled, id, customerID, status)
	if err != nil {
		log.Error("failed to update status", zap.Error(err))
		return status, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return status, err
	} else if n == 0 {
		return status, &IllegalTransitionError{Target: t.Name, Current: status}
	}

	// 4. Refund the linked payment claim.
	n, err := payment.MarkRefundedTx(ctx, tx, t.PaymentOwner, id, payment.RefundNote(t.Name, r.now()))
	if err != nil {
		log.Error("failed to refund payment", zap.Error(err))
		return status, err
	}
	if n == 0 {
		log.Warn("no website payment linked, nothing refunded")
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit cancellation", zap.Error(err))
		return status, err
	}
	committed = true

	return status, nil
}
