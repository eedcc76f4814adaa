package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var since = time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC)

func TestRepository_ReviewableOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	placed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM orders o LEFT JOIN order_items oi").
		WithArgs(int64(7), "Completed", since, ListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "created_at", "total_amount", "order_status", "items", "has_review"}).
			AddRow(12, placed, "450.00", "Completed", "2x Adobo, 1x Rice", true).
			AddRow(11, placed.Add(-time.Hour), "90.00", "Completed", "", false))

	out, err := repo.ReviewableOrders(context.Background(), 7, since)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(12), out[0].ID)
	assert.True(t, out[0].HasReview)
	assert.True(t, out[0].Total.Equal(decimal.RequireFromString("450")))
	assert.Equal(t, "No items", out[1].Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ReviewableReservations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery("FROM reservations r LEFT JOIN reservation_items ri").
		WithArgs(int64(7), "Completed", "2025-12-14", ListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "event_date", "event_type", "guests", "items", "total", "has_review"}).
			AddRow(33, "2026-02-01", "Birthday", 30, "2x Pancit Bilao", "1700.00", false))

	out, err := repo.ReviewableReservations(context.Background(), 7, since)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Birthday", out[0].EventType)
	assert.Equal(t, 30, out[0].Guests)
	assert.False(t, out[0].HasReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ReviewableOrders_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM orders").WillReturnError(errors.New("connection reset"))

	out, err := NewRepository(db).ReviewableOrders(context.Background(), 7, since)
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestRepository_InsertFeedback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orderID := int64(12)
	food := 4
	msg := "Great adobo"
	f := &Feedback{
		CustomerID:    7,
		OrderID:       &orderID,
		FeedbackType:  TypeOrder,
		OverallRating: 5,
		FoodRating:    &food,
		ReviewMessage: &msg,
		Status:        StatusPending,
	}

	mock.ExpectQuery("INSERT INTO customer_feedback").
		WithArgs(int64(7), int64(12), nil, "Order", 5,
			int64(4), nil, nil, nil, nil,
			nil, nil, nil, nil, nil,
			"Great adobo", false, "Pending").
		WillReturnRows(sqlmock.NewRows([]string{"feedback_id"}).AddRow(55))

	require.NoError(t, NewRepository(db).InsertFeedback(context.Background(), f))
	assert.Equal(t, int64(55), f.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
