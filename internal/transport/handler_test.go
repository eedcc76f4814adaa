package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/auth"
	"tabeya-be/internal/cancellation"
	"tabeya-be/internal/metrics"
	"tabeya-be/internal/order"
	"tabeya-be/internal/payment"
	"tabeya-be/internal/product"
	"tabeya-be/internal/redisx"
	"tabeya-be/internal/reservation"
	"tabeya-be/internal/review"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, in order.PlaceInput) (*order.PlaceResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.PlaceResult), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderID, customerID int64) error {
	return m.Called(ctx, orderID, customerID).Error(0)
}

func (m *MockOrderService) ListCustomerOrders(ctx context.Context, customerID int64) ([]order.Summary, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Summary), args.Error(1)
}

func (m *MockOrderService) CountActiveOrders(ctx context.Context, customerID int64) (int, error) {
	args := m.Called(ctx, customerID)
	return args.Int(0), args.Error(1)
}

type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) PlaceReservation(ctx context.Context, in reservation.PlaceInput) (*reservation.PlaceResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.PlaceResult), args.Error(1)
}

func (m *MockReservationService) CancelReservation(ctx context.Context, reservationID, customerID int64) error {
	return m.Called(ctx, reservationID, customerID).Error(0)
}

func (m *MockReservationService) ListCustomerReservations(ctx context.Context, customerID int64) ([]reservation.Summary, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.Summary), args.Error(1)
}

func (m *MockReservationService) CountActiveReservations(ctx context.Context, customerID int64) (int, error) {
	args := m.Called(ctx, customerID)
	return args.Int(0), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListAvailable(ctx context.Context) ([]product.AvailableProduct, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.AvailableProduct), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ListReviewableItems(ctx context.Context, customerID int64) (*review.Reviewable, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Reviewable), args.Error(1)
}

func (m *MockReviewService) SubmitFeedback(ctx context.Context, in review.FeedbackInput) (*review.SubmitResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.SubmitResult), args.Error(1)
}

// memIdempotency claims keys under a mutex; 0 marks a pending claim.
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]int64
}

func (m *memIdempotency) Claim(ctx context.Context, scope redisx.Scope, customerID int64, key string) (int64, redisx.ClaimState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := string(scope) + ":" + key
	id, ok := m.keys[k]
	switch {
	case !ok:
		m.keys[k] = 0
		return 0, redisx.ClaimAcquired
	case id == 0:
		return 0, redisx.ClaimInFlight
	default:
		return id, redisx.ClaimReplay
	}
}

func (m *memIdempotency) Remember(ctx context.Context, scope redisx.Scope, customerID int64, key string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[string(scope)+":"+key] = id
}

func (m *memIdempotency) Release(ctx context.Context, scope redisx.Scope, customerID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, string(scope)+":"+key)
}

// --- Helpers ---

type fixture struct {
	orders       *MockOrderService
	reservations *MockReservationService
	products     *MockProductService
	reviews      *MockReviewService
	idem         *memIdempotency
	router       http.Handler
}

var testSecret = []byte("test-secret")

func newFixture() *fixture {
	f := &fixture{
		orders:       new(MockOrderService),
		reservations: new(MockReservationService),
		products:     new(MockProductService),
		reviews:      new(MockReviewService),
		idem:         &memIdempotency{keys: map[string]int64{}},
	}
	h := NewHandler(Services{
		Orders:       f.orders,
		Reservations: f.reservations,
		Products:     f.products,
		Reviews:      f.reviews,
	}, f.idem, time.Second)
	f.router = NewRouter(h, RouterOptions{JWTSecret: testSecret})
	return f
}

func (f *fixture) do(req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func multipartRequest(t *testing.T, path string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(receiptField, "receipt.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withToken(t *testing.T, req *http.Request, customerID int64) *http.Request {
	t.Helper()
	tok, err := auth.IssueCustomerToken(customerID, testSecret, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func orderFields() map[string]string {
	return map[string]string{
		"customer_id":    "7",
		"total_amount":   "360.00",
		"order_type":     "DELIVERY",
		"payment_method": "COD",
		"cart_data":      `[{"name":"Adobo","quantity":2,"price":150},{"name":"Rice","quantity":3,"price":20}]`,
		"address":        "Blk 4 Lot 2",
		"name":           "Juan",
	}
}

// --- Tests ---

func TestPlaceOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		f.orders.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(in order.PlaceInput) bool {
			return in.CustomerID == 7 &&
				in.TotalAmount.Equal(decimal.RequireFromString("360")) &&
				in.OrderType == "DELIVERY" &&
				len(in.Cart) == 2 &&
				in.DeliveryAddress == "Blk 4 Lot 2" &&
				in.Receipt == nil
		})).Return(&order.PlaceResult{
			OrderID:        101,
			TotalAmount:    decimal.RequireFromString("360"),
			PaymentMethod:  payment.MethodCOD,
			OrderStatus:    order.StatusPending,
			DeliveryOption: order.DeliveryDelivery,
		}, nil)

		w, body := f.do(multipartRequest(t, "/api/orders/place", orderFields(), nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(101), data["orderId"])
		f.orders.AssertExpectations(t)
	})

	t.Run("ForwardsReceipt", func(t *testing.T) {
		f := newFixture()
		fields := orderFields()
		fields["payment_method"] = "GCASH"
		png := []byte("\x89PNG\r\n\x1a\nrest-of-image")

		f.orders.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(in order.PlaceInput) bool {
			if in.Receipt == nil {
				return false
			}
			got, err := io.ReadAll(in.Receipt)
			return err == nil && bytes.Equal(got, png)
		})).Return(&order.PlaceResult{OrderID: 102}, nil)

		w, _ := f.do(multipartRequest(t, "/api/orders/place", fields, png))

		assert.Equal(t, http.StatusCreated, w.Code)
		f.orders.AssertExpectations(t)
	})

	t.Run("MalformedCart", func(t *testing.T) {
		f := newFixture()
		fields := orderFields()
		fields["cart_data"] = "{not json"

		w, body := f.do(multipartRequest(t, "/api/orders/place", fields, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperr.ReasonBadRequest, body["reason"])
		f.orders.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	})

	t.Run("MalformedTotal", func(t *testing.T) {
		f := newFixture()
		fields := orderFields()
		fields["total_amount"] = "three hundred"

		w, body := f.do(multipartRequest(t, "/api/orders/place", fields, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperr.ReasonBadRequest, body["reason"])
	})

	t.Run("CustomerMismatch", func(t *testing.T) {
		f := newFixture()
		req := withToken(t, multipartRequest(t, "/api/orders/place", orderFields(), nil), 8)

		w, body := f.do(req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, ReasonCustomerMismatch, body["reason"])
		f.orders.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	})

	t.Run("ValidationErrorPassesThrough", func(t *testing.T) {
		f := newFixture()
		f.orders.On("PlaceOrder", mock.Anything, mock.Anything).
			Return(nil, apperr.Validation("missing_address", errors.New("delivery address is required")))

		w, body := f.do(multipartRequest(t, "/api/orders/place", orderFields(), nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "missing_address", body["reason"])
		assert.Equal(t, "delivery address is required", body["message"])
	})

	t.Run("PersistenceErrorHidesCause", func(t *testing.T) {
		f := newFixture()
		f.orders.On("PlaceOrder", mock.Anything, mock.Anything).
			Return(nil, apperr.Persistence(errors.New(`pq: relation "orders" does not exist`)))

		w, body := f.do(multipartRequest(t, "/api/orders/place", orderFields(), nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, apperr.ReasonPersistence, body["reason"])
		assert.NotContains(t, w.Body.String(), "pq:")
	})

	t.Run("IdempotentReplay", func(t *testing.T) {
		f := newFixture()
		f.orders.On("PlaceOrder", mock.Anything, mock.Anything).
			Return(&order.PlaceResult{OrderID: 103}, nil).Once()
		before := metrics.IdempotentReplays.Load()

		first := multipartRequest(t, "/api/orders/place", orderFields(), nil)
		first.Header.Set(IdempotencyHeader, "checkout-1")
		w, _ := f.do(first)
		require.Equal(t, http.StatusCreated, w.Code)

		second := multipartRequest(t, "/api/orders/place", orderFields(), nil)
		second.Header.Set(IdempotencyHeader, "checkout-1")
		w, body := f.do(second)

		assert.Equal(t, http.StatusOK, w.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(103), data["orderId"])
		assert.Equal(t, true, data["replayed"])
		assert.Equal(t, before+1, metrics.IdempotentReplays.Load())
		f.orders.AssertNumberOfCalls(t, "PlaceOrder", 1)
	})

	t.Run("ConcurrentDuplicateIsRejected", func(t *testing.T) {
		f := newFixture()
		started := make(chan struct{})
		proceed := make(chan struct{})
		f.orders.On("PlaceOrder", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				close(started)
				<-proceed
			}).
			Return(&order.PlaceResult{OrderID: 104}, nil).Once()
		conflicts := metrics.IdempotentConflicts.Load()

		firstDone := make(chan *httptest.ResponseRecorder)
		go func() {
			req := multipartRequest(t, "/api/orders/place", orderFields(), nil)
			req.Header.Set(IdempotencyHeader, "checkout-1")
			w, _ := f.do(req)
			firstDone <- w
		}()
		<-started

		second := multipartRequest(t, "/api/orders/place", orderFields(), nil)
		second.Header.Set(IdempotencyHeader, "checkout-1")
		w, body := f.do(second)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, ReasonRequestInFlight, body["reason"])
		assert.Equal(t, conflicts+1, metrics.IdempotentConflicts.Load())

		close(proceed)
		first := <-firstDone
		assert.Equal(t, http.StatusCreated, first.Code)

		third := multipartRequest(t, "/api/orders/place", orderFields(), nil)
		third.Header.Set(IdempotencyHeader, "checkout-1")
		w, body = f.do(third)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(104), body["data"].(map[string]any)["orderId"])

		f.orders.AssertNumberOfCalls(t, "PlaceOrder", 1)
	})

	t.Run("FailedPlacementReleasesKey", func(t *testing.T) {
		f := newFixture()
		f.orders.On("PlaceOrder", mock.Anything, mock.Anything).
			Return(nil, apperr.Persistence(errors.New("deadlock"))).Once()
		f.orders.On("PlaceOrder", mock.Anything, mock.Anything).
			Return(&order.PlaceResult{OrderID: 105}, nil).Once()

		first := multipartRequest(t, "/api/orders/place", orderFields(), nil)
		first.Header.Set(IdempotencyHeader, "checkout-2")
		w, _ := f.do(first)
		require.Equal(t, http.StatusInternalServerError, w.Code)

		retry := multipartRequest(t, "/api/orders/place", orderFields(), nil)
		retry.Header.Set(IdempotencyHeader, "checkout-2")
		w, _ = f.do(retry)

		assert.Equal(t, http.StatusCreated, w.Code)
		f.orders.AssertNumberOfCalls(t, "PlaceOrder", 2)
	})
}

func TestPlaceReservation(t *testing.T) {
	f := newFixture()
	f.reservations.On("PlaceReservation", mock.Anything, mock.MatchedBy(func(in reservation.PlaceInput) bool {
		return in.CustomerID == 7 &&
			in.EventDate == "2026-04-01" &&
			in.NumberOfGuests == 30 &&
			len(in.Items) == 1 &&
			in.TotalAmount.IsZero()
	})).Return(&reservation.PlaceResult{ReservationID: 33, EventDate: "2026-04-01"}, nil)

	req := withToken(t, multipartRequest(t, "/api/reservations/place", map[string]string{
		"event_date":       "2026-04-01",
		"event_time":       "18:30",
		"event_type":       "Birthday",
		"number_of_guests": "30",
		"payment_method":   "COD",
		"cart_data":        `[{"name":"Pancit Bilao","quantity":2,"price":850}]`,
	}, nil), 7)

	w, body := f.do(req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(33), body["data"].(map[string]any)["reservationId"])
	f.reservations.AssertExpectations(t)
}

func TestCancelOrder(t *testing.T) {
	t.Run("AcceptsStringIDs", func(t *testing.T) {
		f := newFixture()
		f.orders.On("CancelOrder", mock.Anything, int64(101), int64(7)).Return(nil)

		w, body := f.do(jsonRequest(http.MethodPost, "/api/orders/cancel", `{"order_id":"101","customer_id":7}`))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Order cancelled successfully", body["message"])
		f.orders.AssertExpectations(t)
	})

	t.Run("IllegalTransition", func(t *testing.T) {
		f := newFixture()
		illegal := &cancellation.IllegalTransitionError{Target: "order", Current: "Completed"}
		f.orders.On("CancelOrder", mock.Anything, int64(101), int64(7)).
			Return(apperr.Conflict(cancellation.ReasonIllegalTransition, illegal.Error(), illegal))

		w, body := f.do(jsonRequest(http.MethodPost, "/api/orders/cancel", `{"order_id":101,"customer_id":7}`))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, cancellation.ReasonIllegalTransition, body["reason"])
		assert.Contains(t, body["message"], "Completed")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		f := newFixture()

		w, body := f.do(jsonRequest(http.MethodPost, "/api/orders/cancel", `{"order_id":`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperr.ReasonBadRequest, body["reason"])
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		f := newFixture()

		w, body := f.do(httptest.NewRequest(http.MethodGet, "/api/orders/cancel", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, apperr.ReasonMethodNotAllowed, body["reason"])
	})
}

func TestCancelReservation(t *testing.T) {
	f := newFixture()
	f.reservations.On("CancelReservation", mock.Anything, int64(33), int64(7)).Return(nil)

	req := withToken(t, jsonRequest(http.MethodPost, "/api/reservations/cancel", `{"reservation_id":33}`), 7)
	w, _ := f.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	f.reservations.AssertExpectations(t)
}

func TestListEndpoints(t *testing.T) {
	t.Run("Orders", func(t *testing.T) {
		f := newFixture()
		f.orders.On("ListCustomerOrders", mock.Anything, int64(7)).
			Return([]order.Summary{{OrderID: 101, Items: []order.SummaryItem{}}}, nil)

		w, body := f.do(httptest.NewRequest(http.MethodGet, "/api/orders?customer_id=7", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, body["data"], 1)
	})

	t.Run("OrderCount", func(t *testing.T) {
		f := newFixture()
		f.orders.On("CountActiveOrders", mock.Anything, int64(7)).Return(3, nil)
		f.reservations.On("CountActiveReservations", mock.Anything, int64(7)).Return(2, nil)

		w, body := f.do(withToken(t, httptest.NewRequest(http.MethodGet, "/api/orders/count", nil), 7))

		assert.Equal(t, http.StatusOK, w.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(7), data["customerId"])
		assert.Equal(t, float64(5), data["totalOrders"])
		assert.Equal(t, float64(3), data["ordersCount"])
		assert.Equal(t, float64(2), data["reservationsCount"])
	})

	t.Run("OrderCountInvalidCustomer", func(t *testing.T) {
		f := newFixture()
		f.orders.On("CountActiveOrders", mock.Anything, int64(0)).
			Return(0, apperr.Validation(order.ReasonInvalidCustomer, order.ErrInvalidCustomer))

		w, body := f.do(httptest.NewRequest(http.MethodGet, "/api/orders/count", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, order.ReasonInvalidCustomer, body["reason"])
		f.reservations.AssertNotCalled(t, "CountActiveReservations", mock.Anything, mock.Anything)
	})

	t.Run("OrderCountReservationFailure", func(t *testing.T) {
		f := newFixture()
		f.orders.On("CountActiveOrders", mock.Anything, int64(7)).Return(3, nil)
		f.reservations.On("CountActiveReservations", mock.Anything, int64(7)).
			Return(0, apperr.Persistence(errors.New("db down")))

		w, body := f.do(httptest.NewRequest(http.MethodGet, "/api/orders/count?customer_id=7", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, apperr.ReasonPersistence, body["reason"])
	})

	t.Run("ReservationsBadCustomerID", func(t *testing.T) {
		f := newFixture()

		w, body := f.do(httptest.NewRequest(http.MethodGet, "/api/reservations?customer_id=abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperr.ReasonBadRequest, body["reason"])
	})

	t.Run("ProductsUnavailable", func(t *testing.T) {
		f := newFixture()
		f.products.On("ListAvailable", mock.Anything).
			Return(nil, apperr.Unavailable(product.ReasonCatalogUnavailable, errors.New("db down")))

		w, body := f.do(httptest.NewRequest(http.MethodGet, "/api/products", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, product.ReasonCatalogUnavailable, body["reason"])
	})

	t.Run("ReviewableDefaultsToToken", func(t *testing.T) {
		f := newFixture()
		f.reviews.On("ListReviewableItems", mock.Anything, int64(7)).
			Return(&review.Reviewable{Orders: []review.ReviewableOrder{}, Reservations: []review.ReviewableReservation{}}, nil)

		w, _ := f.do(withToken(t, httptest.NewRequest(http.MethodGet, "/api/reviews/eligible", nil), 7))

		assert.Equal(t, http.StatusOK, w.Code)
		f.reviews.AssertExpectations(t)
	})
}

func TestSubmitFeedback(t *testing.T) {
	f := newFixture()
	f.reviews.On("SubmitFeedback", mock.Anything, mock.MatchedBy(func(in review.FeedbackInput) bool {
		return in.CustomerID == 7 && in.OverallRating == 5 && in.FeedbackType == review.TypeOrder && in.OrderID == 12
	})).Return(&review.SubmitResult{FeedbackID: 55}, nil)

	w, body := f.do(jsonRequest(http.MethodPost, "/api/reviews",
		`{"customerId":7,"orderId":12,"feedbackType":"Order","overallRating":5,"reviewMessage":"Masarap"}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, review.SubmittedMessage, body["message"])
	f.reviews.AssertExpectations(t)
}

func TestOperationalRoutes(t *testing.T) {
	f := newFixture()

	w, body := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, body = f.do(httptest.NewRequest(http.MethodGet, "/debug/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	_, ok := body["orders_placed"]
	assert.True(t, ok)

	w, body = f.do(httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ReasonNotFound, body["reason"])

	w, _ = f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
