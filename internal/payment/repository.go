package payment

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Tx is the part of *sql.Tx used to write payments inside a caller's
// transaction.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Owner selects which parent a payment row hangs off.
type Owner string

const (
	OwnerOrder       Owner = "order_id"
	OwnerReservation Owner = "reservation_id"
)

// InsertTx writes a pending payment claim and sets p.ID.
func InsertTx(ctx context.Context, tx Tx, p *Payment) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO payments (
			order_id, reservation_id, payment_method, payment_status,
			amount_paid, payment_source, proof_of_payment, receipt_file_name, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING payment_id
	`,
		p.OrderID,
		p.ReservationID,
		string(p.Method),
		string(p.Status),
		p.Amount,
		p.Source,
		p.ProofOfPayment,
		p.ReceiptFileName,
		p.Notes,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// MarkRefundedTx flips the website payment of an order or reservation to
// Refunded and appends note. It reports how many rows changed; zero is valid
// for legacy records without a payment.
func MarkRefundedTx(ctx context.Context, tx Tx, owner Owner, ownerID int64, note string) (int64, error) {
	var query string
	switch owner {
	case OwnerOrder:
		query = `
			UPDATE payments
			SET payment_status = $1,
			    notes = COALESCE(notes, '') || E'\n' || $2
			WHERE order_id = $3 AND payment_source = $4`
	case OwnerReservation:
		query = `
			UPDATE payments
			SET payment_status = $1,
			    notes = COALESCE(notes, '') || E'\n' || $2
			WHERE reservation_id = $3 AND payment_source = $4`
	default:
		return 0, fmt.Errorf("unknown payment owner %q", owner)
	}

	res, err := tx.ExecContext(ctx, query, string(StatusRefunded), note, ownerID, SourceWebsite)
	if err != nil {
		return 0, fmt.Errorf("refund payment: %w", err)
	}
	return res.RowsAffected()
}

// RefundNote is the line appended to a payment's notes on cancellation.
func RefundNote(subject string, at time.Time) string {
	return fmt.Sprintf("%s cancelled by customer on %s", subject, at.Format("2006-01-02 15:04:05"))
}
