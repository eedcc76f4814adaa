package order

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
	// CreateOrderTx writes header, items, payment claim and the customer
	// counter in one transaction. On success o.ID, o.CreatedAt and p.ID are set.
	CreateOrderTx(ctx context.Context, o *Order, p *payment.Payment) error
	ListByCustomer(ctx context.Context, customerID int64) ([]Summary, error)
	// CountActive counts website orders that are not cancelled. A NULL status
	// counts as active.
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

func (r *repository) CreateOrderTx(ctx context.Context, o *Order, p *payment.Payment) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
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

	// 1. Header; every dependent row needs the generated id.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			customer_id, order_type, order_source, total_amount, order_status,
			items_ordered_count, remarks, delivery_address, special_requests,
			delivery_option
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING order_id, created_at
	`,
		o.CustomerID,
		o.OrderType,
		o.Source,
		o.TotalAmount,
		string(o.Status),
		len(o.Items),
		o.Remarks,
		o.DeliveryAddress,
		o.SpecialRequests,
		string(o.DeliveryOption),
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	// 2. Line items
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, product_name, quantity, unit_price, special_instructions
			) VALUES ($1, $2, $3, $4, $5)
			RETURNING order_item_id
		`,
			o.ID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.SpecialInstructions,
		).Scan(&item.ID)
		if err != nil {
			log.Error("failed to insert order item",
				zap.String("product_name", item.ProductName),
				zap.Error(err),
			)
			return err
		}
	}

	// 3. Payment claim
	p.OrderID = &o.ID
	if err = payment.InsertTx(ctx, tx, p); err != nil {
		log.Error("failed to insert payment", zap.Error(err))
		return err
	}

	// 4. Customer counter
	if err = r.counter.Increment(ctx, tx, o.CustomerID); err != nil {
		log.Error("failed to increment customer order count", zap.Error(err))
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit order", zap.Error(err))
		return err
	}
	committed = true

	log.Info("order committed",
		zap.Int64("order_id", o.ID),
		zap.Int("items", len(o.Items)),
	)
	return nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]Summary, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByCustomer"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.order_id, o.created_at, COALESCE(o.order_status, 'Pending'),
		       o.delivery_option, o.delivery_address, o.total_amount,
		       o.items_ordered_count, o.special_requests,
		       p.payment_method, p.payment_status
		FROM orders o
		LEFT JOIN payments p ON p.order_id = o.order_id
		WHERE o.customer_id = $1 AND o.order_source = $2
		ORDER BY o.created_at DESC, o.order_id DESC
	`, customerID, SourceWebsite)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
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
			&s.OrderID,
			&s.OrderDate,
			&s.OrderStatus,
			&s.DeliveryOption,
			&s.DeliveryAddress,
			&s.TotalAmount,
			&s.ItemsCount,
			&s.SpecialRequests,
			&s.PaymentMethod,
			&s.PaymentStatus,
		); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		s.Items = []SummaryItem{}
		index[s.OrderID] = len(out)
		ids = append(ids, s.OrderID)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Summary{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, order_item_id
	`, pq.Array(ids))
	if err != nil {
		log.Error("failed to query order items", zap.Error(err))
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID int64
			it      SummaryItem
		)
		if err := itemRows.Scan(&orderID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}

	return out, itemRows.Err()
}

func (r *repository) CountActive(ctx context.Context, customerID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders
		WHERE customer_id = $1
		  AND order_source = $2
		  AND (order_status IS NULL OR LOWER(order_status) <> 'cancelled')
	`, customerID, SourceWebsite).Scan(&n)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to count orders",
			zap.String("layer", "repository"),
			zap.String("method", "CountActive"),
			zap.Error(err),
		)
		return 0, err
	}
	return n, nil
}
