package review

import (
	"context"
	"database/sql"
	"time"

	"tabeya-be/internal/logger"

	"go.uber.org/zap"
)

const statusCompleted = "Completed"

type Repository interface {
	ReviewableOrders(ctx context.Context, customerID int64, since time.Time) ([]ReviewableOrder, error)
	ReviewableReservations(ctx context.Context, customerID int64, since time.Time) ([]ReviewableReservation, error)
	InsertFeedback(ctx context.Context, f *Feedback) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ReviewableOrders(ctx context.Context, customerID int64, since time.Time) ([]ReviewableOrder, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ReviewableOrders"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.order_id, o.created_at, o.total_amount, o.order_status,
		       COALESCE(string_agg(oi.quantity || 'x ' || oi.product_name, ', ' ORDER BY oi.order_item_id), ''),
		       EXISTS (
		           SELECT 1 FROM customer_feedback cf
		           WHERE cf.order_id = o.order_id AND cf.customer_id = o.customer_id
		       )
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.order_id
		WHERE o.customer_id = $1 AND o.order_status = $2 AND o.created_at >= $3
		GROUP BY o.order_id
		ORDER BY o.created_at DESC
		LIMIT $4
	`, customerID, statusCompleted, since, ListLimit)
	if err != nil {
		log.Error("failed to query reviewable orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []ReviewableOrder{}
	for rows.Next() {
		var o ReviewableOrder
		if err := rows.Scan(&o.ID, &o.Date, &o.Total, &o.Status, &o.Items, &o.HasReview); err != nil {
			log.Error("failed to scan reviewable order", zap.Error(err))
			return nil, err
		}
		if o.Items == "" {
			o.Items = noItems
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repository) ReviewableReservations(ctx context.Context, customerID int64, since time.Time) ([]ReviewableReservation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ReviewableReservations"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.reservation_id, to_char(r.event_date, 'YYYY-MM-DD'), r.event_type, r.number_of_guests,
		       COALESCE(string_agg(ri.quantity || 'x ' || ri.product_name, ', ' ORDER BY ri.reservation_item_id), ''),
		       COALESCE(SUM(ri.total_price), 0),
		       EXISTS (
		           SELECT 1 FROM customer_feedback cf
		           WHERE cf.reservation_id = r.reservation_id AND cf.customer_id = r.customer_id
		       )
		FROM reservations r
		LEFT JOIN reservation_items ri ON ri.reservation_id = r.reservation_id
		WHERE r.customer_id = $1 AND r.reservation_status = $2 AND r.event_date >= $3
		GROUP BY r.reservation_id
		ORDER BY r.event_date DESC
		LIMIT $4
	`, customerID, statusCompleted, since.Format("2006-01-02"), ListLimit)
	if err != nil {
		log.Error("failed to query reviewable reservations", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []ReviewableReservation{}
	for rows.Next() {
		var rv ReviewableReservation
		if err := rows.Scan(&rv.ID, &rv.Date, &rv.EventType, &rv.Guests, &rv.Items, &rv.Total, &rv.HasReview); err != nil {
			log.Error("failed to scan reviewable reservation", zap.Error(err))
			return nil, err
		}
		if rv.Items == "" {
			rv.Items = noItems
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *repository) InsertFeedback(ctx context.Context, f *Feedback) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customer_feedback (
			customer_id, order_id, reservation_id, feedback_type, overall_rating,
			food_taste_rating, portion_size_rating, customer_service_rating,
			ambience_rating, cleanliness_rating,
			food_taste_comment, portion_size_comment, customer_service_comment,
			ambience_comment, cleanliness_comment,
			review_message, is_anonymous, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING feedback_id
	`,
		f.CustomerID, f.OrderID, f.ReservationID, string(f.FeedbackType), f.OverallRating,
		f.FoodRating, f.PortionRating, f.ServiceRating, f.AmbienceRating, f.CleanlinessRating,
		f.FoodComment, f.PortionComment, f.ServiceComment, f.AmbienceComment, f.CleanlinessComment,
		f.ReviewMessage, f.IsAnonymous, f.Status,
	).Scan(&f.ID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert feedback",
			zap.String("layer", "repository"),
			zap.String("method", "InsertFeedback"),
			zap.Error(err),
		)
		return err
	}
	return nil
}

const noItems = "No items"
