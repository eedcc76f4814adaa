package transport

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/cart"
	"tabeya-be/internal/metrics"
	"tabeya-be/internal/order"
	"tabeya-be/internal/product"
	"tabeya-be/internal/redisx"
	"tabeya-be/internal/reservation"
	"tabeya-be/internal/review"
	"tabeya-be/internal/storage"

	"github.com/shopspring/decimal"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	receiptField      = "gcash_receipt"

	maxJSONBody      = 1 << 20
	maxMultipartBody = storage.MaxReceiptSize + 1<<20
)

// IdempotencyStore is satisfied by *redisx.IdempotencyStore.
type IdempotencyStore interface {
	Claim(ctx context.Context, scope redisx.Scope, customerID int64, key string) (int64, redisx.ClaimState)
	Remember(ctx context.Context, scope redisx.Scope, customerID int64, key string, id int64)
	Release(ctx context.Context, scope redisx.Scope, customerID int64, key string)
}

type Services struct {
	Orders       order.Service
	Reservations reservation.Service
	Products     product.Service
	Reviews      review.Service
}

type Handler struct {
	orders       order.Service
	reservations reservation.Service
	products     product.Service
	reviews      review.Service
	idem         IdempotencyStore
	timeout      time.Duration
}

// NewHandler builds the HTTP handlers. idem may be nil, which disables
// Idempotency-Key replay.
func NewHandler(s Services, idem IdempotencyStore, timeout time.Duration) *Handler {
	return &Handler{
		orders:       s.Orders,
		reservations: s.Reservations,
		products:     s.Products,
		reviews:      s.Reviews,
		idem:         idem,
		timeout:      timeout,
	}
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	form, err := parseForm(w, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer form.close()

	customerID, err := form.customer(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	items, err := cart.Parse(form.value("cart_data"))
	if err != nil {
		respondError(ctx, w, apperr.Validation(apperr.ReasonBadRequest, err))
		return
	}
	total, err := form.decimal("total_amount")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	key := h.idempotencyKey(r, customerID)
	if !h.claim(ctx, w, redisx.ScopeOrderPlace, customerID, key, "orderId", "Order already placed") {
		return
	}

	res, err := h.orders.PlaceOrder(ctx, order.PlaceInput{
		CustomerID:      customerID,
		TotalAmount:     total,
		OrderType:       form.value("order_type"),
		PaymentMethod:   form.value("payment_method"),
		Cart:            items,
		SpecialRequests: form.value("special_requests"),
		DeliveryAddress: form.value("address"),
		CustomerName:    form.value("name"),
		Receipt:         form.receipt,
	})
	if err != nil {
		h.release(ctx, redisx.ScopeOrderPlace, customerID, key)
		respondError(ctx, w, err)
		return
	}

	h.remember(ctx, redisx.ScopeOrderPlace, customerID, key, res.OrderID)
	respond(w, http.StatusCreated, "Order placed successfully", res)
}

func (h *Handler) PlaceReservation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	form, err := parseForm(w, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer form.close()

	customerID, err := form.customer(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	items, err := cart.Parse(form.value("cart_data"))
	if err != nil {
		respondError(ctx, w, apperr.Validation(apperr.ReasonBadRequest, err))
		return
	}
	total, err := form.decimal("total_amount")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	guests, err := parseID(form.value("number_of_guests"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	key := h.idempotencyKey(r, customerID)
	if !h.claim(ctx, w, redisx.ScopeReservationPlace, customerID, key, "reservationId", "Reservation already placed") {
		return
	}

	res, err := h.reservations.PlaceReservation(ctx, reservation.PlaceInput{
		CustomerID:      customerID,
		EventDate:       form.value("event_date"),
		EventTime:       form.value("event_time"),
		EventType:       form.value("event_type"),
		NumberOfGuests:  int(guests),
		Items:           items,
		TotalAmount:     total,
		PaymentMethod:   form.value("payment_method"),
		SpecialRequests: form.value("special_requests"),
		DeliveryAddress: form.value("address"),
		CustomerName:    form.value("name"),
		Receipt:         form.receipt,
	})
	if err != nil {
		h.release(ctx, redisx.ScopeReservationPlace, customerID, key)
		respondError(ctx, w, err)
		return
	}

	h.remember(ctx, redisx.ScopeReservationPlace, customerID, key, res.ReservationID)
	respond(w, http.StatusCreated, "Reservation placed successfully", res)
}

type cancelOrderRequest struct {
	OrderID    flexID `json:"order_id"`
	CustomerID flexID `json:"customer_id"`
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	var req cancelOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	customerID, err := resolveCustomer(ctx, int64(req.CustomerID))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.orders.CancelOrder(ctx, int64(req.OrderID), customerID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(w, http.StatusOK, "Order cancelled successfully", map[string]any{"orderId": int64(req.OrderID)})
}

type cancelReservationRequest struct {
	ReservationID flexID `json:"reservation_id"`
	CustomerID    flexID `json:"customer_id"`
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	var req cancelReservationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	customerID, err := resolveCustomer(ctx, int64(req.CustomerID))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.reservations.CancelReservation(ctx, int64(req.ReservationID), customerID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(w, http.StatusOK, "Reservation cancelled successfully", map[string]any{"reservationId": int64(req.ReservationID)})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	customerID, err := queryCustomer(ctx, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out, err := h.orders.ListCustomerOrders(ctx, customerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(w, http.StatusOK, "Orders retrieved", out)
}

type activityCount struct {
	CustomerID        int64 `json:"customerId"`
	TotalOrders       int   `json:"totalOrders"`
	OrdersCount       int   `json:"ordersCount"`
	ReservationsCount int   `json:"reservationsCount"`
}

// CountOrders reports the customer's non-cancelled website orders and
// reservations, plus their sum.
func (h *Handler) CountOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	customerID, err := queryCustomer(ctx, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	orders, err := h.orders.CountActiveOrders(ctx, customerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	reservations, err := h.reservations.CountActiveReservations(ctx, customerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(w, http.StatusOK, "Order count retrieved", activityCount{
		CustomerID:        customerID,
		TotalOrders:       orders + reservations,
		OrdersCount:       orders,
		ReservationsCount: reservations,
	})
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	customerID, err := queryCustomer(ctx, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out, err := h.reservations.ListCustomerReservations(ctx, customerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(w, http.StatusOK, "Reservations retrieved", out)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	out, err := h.products.ListAvailable(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(w, http.StatusOK, "Products retrieved", out)
}

func (h *Handler) ListReviewable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	customerID, err := queryCustomer(ctx, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out, err := h.reviews.ListReviewableItems(ctx, customerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(w, http.StatusOK, "Reviewable items retrieved", out)
}

func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.timeout)
	defer cancel()

	var in review.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(ctx, w, err)
		return
	}
	customerID, err := resolveCustomer(ctx, in.CustomerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	in.CustomerID = customerID

	out, err := h.reviews.SubmitFeedback(ctx, in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(w, http.StatusCreated, review.SubmittedMessage, out)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "ok", nil)
}

// idempotencyKey is empty when replay protection does not apply.
func (h *Handler) idempotencyKey(r *http.Request, customerID int64) string {
	if h.idem == nil || customerID <= 0 {
		return ""
	}
	return strings.TrimSpace(r.Header.Get(IdempotencyHeader))
}

// claim reserves key for this request. It returns false when a response was
// already written: the first result replayed, or a conflict while the first
// request is still placing.
func (h *Handler) claim(ctx context.Context, w http.ResponseWriter, scope redisx.Scope, customerID int64, key, idField, replayMessage string) bool {
	if key == "" {
		return true
	}

	id, state := h.idem.Claim(ctx, scope, customerID, key)
	switch state {
	case redisx.ClaimReplay:
		metrics.IdempotentReplays.Inc()
		respond(w, http.StatusOK, replayMessage, map[string]any{idField: id, "replayed": true})
		return false
	case redisx.ClaimInFlight:
		metrics.IdempotentConflicts.Inc()
		respondError(ctx, w, apperr.Conflict(ReasonRequestInFlight, ErrRequestInFlight.Error(), ErrRequestInFlight))
		return false
	}
	return true
}

// Claims are settled outside the request deadline; a placement that committed
// just before the timeout must still be remembered.
func (h *Handler) remember(ctx context.Context, scope redisx.Scope, customerID int64, key string, id int64) {
	if key == "" {
		return
	}
	h.idem.Remember(context.WithoutCancel(ctx), scope, customerID, key, id)
}

func (h *Handler) release(ctx context.Context, scope redisx.Scope, customerID int64, key string) {
	if key == "" {
		return
	}
	h.idem.Release(context.WithoutCancel(ctx), scope, customerID, key)
}

func queryCustomer(ctx context.Context, r *http.Request) (int64, error) {
	id, err := parseID(r.URL.Query().Get("customer_id"))
	if err != nil {
		return 0, err
	}
	return resolveCustomer(ctx, id)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		return apperr.Validation(apperr.ReasonBadRequest, ErrMalformedBody)
	}
	return nil
}

// placeForm is a parsed checkout form. receipt is nil when no file was sent.
type placeForm struct {
	r       *http.Request
	receipt multipart.File
}

func parseForm(w http.ResponseWriter, r *http.Request) (*placeForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	err := r.ParseMultipartForm(storage.MaxReceiptSize)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.Upload(storage.ReasonReceiptTooLarge, storage.ErrReceiptTooLarge)
		}
		return nil, apperr.Validation(apperr.ReasonBadRequest, ErrMalformedBody)
	}

	f := &placeForm{r: r}
	file, _, err := r.FormFile(receiptField)
	switch {
	case err == nil:
		f.receipt = file
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return nil, apperr.Validation(apperr.ReasonBadRequest, ErrMalformedBody)
	}
	return f, nil
}

func (f *placeForm) value(name string) string {
	return f.r.FormValue(name)
}

func (f *placeForm) customer(ctx context.Context) (int64, error) {
	id, err := parseID(f.value("customer_id"))
	if err != nil {
		return 0, err
	}
	return resolveCustomer(ctx, id)
}

func (f *placeForm) decimal(name string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(f.value(name))
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Validation(apperr.ReasonBadRequest, ErrMalformedBody)
	}
	return d, nil
}

func (f *placeForm) close() {
	if f.receipt != nil {
		f.receipt.Close()
	}
	if f.r.MultipartForm != nil {
		f.r.MultipartForm.RemoveAll()
	}
}
