package reservation

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/audit"
	"tabeya-be/internal/cancellation"
	"tabeya-be/internal/cart"
	"tabeya-be/internal/customer"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/metrics"
	"tabeya-be/internal/payment"
	"tabeya-be/internal/storage"
	"tabeya-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ReceiptStore interface {
	Save(ctx context.Context, kind storage.Kind, customerID int64, r io.Reader) (*storage.Receipt, error)
	Remove(ctx context.Context, rec *storage.Receipt) error
}

type Service interface {
	PlaceReservation(ctx context.Context, in PlaceInput) (*PlaceResult, error)
	CancelReservation(ctx context.Context, reservationID, customerID int64) error
	ListCustomerReservations(ctx context.Context, customerID int64) ([]Summary, error)
	CountActiveReservations(ctx context.Context, customerID int64) (int, error)
}

type service struct {
	repo      Repository
	receipts  ReceiptStore
	canceller cancellation.Service
	recorder  audit.Recorder
	tolerance decimal.Decimal
	now       func() time.Time
}

func NewService(
	repo Repository,
	receipts ReceiptStore,
	canceller cancellation.Service,
	recorder audit.Recorder,
	tolerance decimal.Decimal,
) Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &service{
		repo:      repo,
		receipts:  receipts,
		canceller: canceller,
		recorder:  recorder,
		tolerance: tolerance,
		now:       time.Now,
	}
}

func (s *service) PlaceReservation(ctx context.Context, in PlaceInput) (*PlaceResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceReservation"),
		zap.Int64("customer_id", in.CustomerID),
	)
	timer := metrics.StartTimer()

	res, method, err := s.validate(in)
	if err != nil {
		log.Info("reservation rejected", zap.String("reason", apperr.From(err).Reason))
		return nil, err
	}

	var rec *storage.Receipt
	if method.RequiresReceipt() {
		rec, err = s.receipts.Save(ctx, storage.KindReservation, in.CustomerID, in.Receipt)
		if err != nil {
			return nil, err
		}
	}

	p := &payment.Payment{
		Method: method,
		Status: payment.StatusPending,
		Amount: res.TotalAmount,
		Source: payment.SourceWebsite,
		Notes:  method.Notes(),
	}
	if rec != nil {
		p.ProofOfPayment = &rec.Path
		p.ReceiptFileName = &rec.FileName
	}

	if err := s.repo.CreateReservationTx(ctx, res, p); err != nil {
		storage.Discard(ctx, s.receipts, rec)
		log.Error("failed to place reservation", zap.Error(err))
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return nil, apperr.NotFound(customer.ReasonCustomerNotFound, err)
		}
		return nil, apperr.Persistence(err)
	}

	metrics.ReservationsPlaced.Inc()

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		name = "Customer"
	}
	eventDate := res.EventDate.Format(dateLayout)
	s.recorder.Record(ctx, audit.ReservationCreated(res.CustomerID, name, res.ID, res.EventType, eventDate, res.NumberOfGuests))

	log.Info("reservation placed",
		zap.Int64("reservation_id", res.ID),
		zap.Duration("duration", timer.ObserveInto(&metrics.ReservationPlaceLatency)),
	)

	return &PlaceResult{
		ReservationID:     res.ID,
		TotalAmount:       res.TotalAmount,
		PaymentMethod:     method,
		ReservationStatus: res.Status,
		EventDate:         eventDate,
	}, nil
}

func (s *service) validate(in PlaceInput) (*Reservation, payment.Method, error) {
	if in.CustomerID <= 0 {
		return nil, "", apperr.Validation(ReasonInvalidCustomer, ErrInvalidCustomer)
	}
	if len(in.Items) == 0 {
		return nil, "", apperr.Validation(cart.ReasonEmptyCart, cart.ErrEmptyCart)
	}
	if err := in.Items.Validate(); err != nil {
		return nil, "", apperr.Validation(cart.ReasonInvalidItem, err)
	}

	now := s.now()
	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(in.EventDate), now.Location())
	if err != nil {
		return nil, "", apperr.Validation(ReasonInvalidEventDate, ErrInvalidEventDate)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return nil, "", apperr.Validation(ReasonInvalidEventDate, ErrInvalidEventDate)
	}

	eventTime, err := parseEventTime(in.EventTime)
	if err != nil {
		return nil, "", apperr.Validation(ReasonInvalidEventTime, err)
	}

	eventType := strings.TrimSpace(in.EventType)
	if eventType == "" {
		return nil, "", apperr.Validation(ReasonMissingEventType, ErrMissingEventType)
	}
	if in.NumberOfGuests <= 0 {
		return nil, "", apperr.Validation(ReasonInvalidGuests, ErrInvalidGuests)
	}

	method, err := payment.ParseMethod(in.PaymentMethod)
	if err != nil {
		return nil, "", apperr.Validation(payment.ReasonInvalidMethod, err)
	}

	total := in.Items.Total()
	if !in.TotalAmount.IsZero() {
		if total, err = in.Items.Reconcile(in.TotalAmount, s.tolerance); err != nil {
			return nil, "", apperr.Validation(cart.ReasonTotalMismatch, err)
		}
	}

	if method.RequiresReceipt() && in.Receipt == nil {
		return nil, "", apperr.Validation(ReasonMissingReceipt, ErrMissingReceipt)
	}

	res := &Reservation{
		CustomerID:      in.CustomerID,
		EventDate:       date,
		EventTime:       eventTime,
		EventType:       eventType,
		NumberOfGuests:  in.NumberOfGuests,
		Status:          StatusPending,
		SpecialRequests: utils.NullIfBlank(in.SpecialRequests),
		DeliveryAddress: utils.NullIfBlank(in.DeliveryAddress),
		TotalAmount:     total,
		Items:           make([]Item, 0, len(in.Items)),
	}
	for _, ci := range in.Items {
		res.Items = append(res.Items, Item{
			ProductName: strings.TrimSpace(ci.Name),
			Quantity:    ci.Quantity,
			UnitPrice:   ci.Price,
			TotalPrice:  ci.LineTotal(),
		})
	}
	return res, method, nil
}

// parseEventTime accepts HH:MM or HH:MM:SS and normalizes to HH:MM.
func parseEventTime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{timeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(timeLayout), nil
		}
	}
	return "", ErrInvalidEventTime
}

func (s *service) CancelReservation(ctx context.Context, reservationID, customerID int64) error {
	return s.canceller.Cancel(ctx, cancellation.Reservation, reservationID, customerID)
}

func (s *service) ListCustomerReservations(ctx context.Context, customerID int64) ([]Summary, error) {
	if customerID <= 0 {
		return nil, apperr.Validation(ReasonInvalidCustomer, ErrInvalidCustomer)
	}

	out, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list reservations",
			zap.String("layer", "service"),
			zap.String("method", "ListCustomerReservations"),
			zap.Error(err),
		)
		return nil, apperr.Persistence(err)
	}
	return out, nil
}

func (s *service) CountActiveReservations(ctx context.Context, customerID int64) (int, error) {
	if customerID <= 0 {
		return 0, apperr.Validation(ReasonInvalidCustomer, ErrInvalidCustomer)
	}

	n, err := s.repo.CountActive(ctx, customerID)
	if err != nil {
		return 0, apperr.Persistence(err)
	}
	return n, nil
}
