package reservation

import (
	"context"
	"database/sql"

	"tabeya-be/internal/customer"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/payment"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	CreateReservationTx(ctx context.Context, r *Reservation, p *payment.Payment) error
	ListByCustomer(ctx context.Context, customerID int64) ([]Summary, error)
	CountActive(ctx context.Context, customerID int64) (int, error)
}

type repository struct {
	db      *sql.DB
	counter customer.CounterIncrementer
}

func NewRepository(db *sql.DB, counter customer.CounterIncrementer) Repository {
	if counter == nil {
		counter = customer.NewCounter(customer.StrategyFallback)
	}
	return &repository{db: db, counter: counter}
}

func (r *repository) CreateReservationTx(ctx context.Context, res *Reservation, p *payment.Payment) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateReservationTx"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO reservations (
			customer_id, event_date, event_time, event_type, number_of_guests,
			reservation_status, special_requests, delivery_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING reservation_id, created_at
	`,
		res.CustomerID,
		res.EventDate.Format(dateLayout),
		res.EventTime,
		res.EventType,
		res.NumberOfGuests,
		string(res.Status),
		res.SpecialRequests,
		res.DeliveryAddress,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		log.Error("failed to insert reservation", zap.Error(err))
		return err
	}

	for i := range res.Items {
		item := &res.Items[i]
		item.ReservationID = res.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO reservation_items (
				reservation_id, product_name, quantity, unit_price, total_price
			) VALUES ($1, $2, $3, $4, $5)
			RETURNING reservation_item_id
		`,
			res.ID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
		).Scan(&item.ID)
		if err != nil {
			log.Error("failed to insert reservation item", zap.Error(err))
			return err
		}
	}

	p.ReservationID = &res.ID
	if err = payment.InsertTx(ctx, tx, p); err != nil {
		log.Error("failed to insert payment", zap.Error(err))
		return err
	}

	if err = r.counter.Increment(ctx, tx, res.CustomerID); err != nil {
		log.Error("failed to increment customer order count", zap.Error(err))
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit reservation", zap.Error(err))
		return err
	}
	committed = true

	log.Info("reservation committed", zap.Int64("reservation_id", res.ID))
	return nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]Summary, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByCustomer"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT reservation_id,
		       to_char(event_date, 'YYYY-MM-DD'),
		       to_char(event_time, 'HH24:MI'),
		       event_type, number_of_guests,
		       COALESCE(reservation_status, 'Pending'),
		       delivery_address
		FROM reservations
		WHERE customer_id = $1
		ORDER BY event_date DESC, event_time DESC, reservation_id DESC
	`, customerID)
	if err != nil {
		log.Error("failed to query reservations", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var (
		out   = []Summary{}
		ids   []int64
		index = map[int64]int{}
	)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(
			&s.ReservationID,
			&s.EventDate,
			&s.EventTime,
			&s.EventType,
			&s.NumberOfGuests,
			&s.ReservationStatus,
			&s.DeliveryAddress,
		); err != nil {
			log.Error("failed to scan reservation row", zap.Error(err))
			return nil, err
		}
		s.Items = []SummaryItem{}
		index[s.ReservationID] = len(out)
		ids = append(ids, s.ReservationID)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT reservation_id, product_name, quantity, unit_price, total_price
		FROM reservation_items
		WHERE reservation_id = ANY($1)
		ORDER BY reservation_id, reservation_item_id
	`, pq.Array(ids))
	if err != nil {
		log.Error("failed to query reservation items", zap.Error(err))
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			id int64
			it SummaryItem
		)
		if err := itemRows.Scan(&id, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			out[i].Items = append(out[i].Items, it)
			out[i].TotalPrice = out[i].TotalPrice.Add(it.TotalPrice)
		}
	}

	return out, itemRows.Err()
}

// CountActive counts reservations that are not cancelled, NULL status included.
func (r *repository) CountActive(ctx context.Context, customerID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM reservations
		WHERE customer_id = $1
		  AND (reservation_status IS NULL OR LOWER(reservation_status) <> 'cancelled')
	`, customerID).Scan(&n)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to count reservations",
			zap.String("layer", "repository"),
			zap.String("method", "CountActive"),
			zap.Error(err),
		)
		return 0, err
	}
	return n, nil
}
