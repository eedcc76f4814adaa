package order

import (
	"context"
	"errors"
	"io"
	"strings"

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

// ReceiptStore is satisfied by *storage.ReceiptStore.
type ReceiptStore interface {
	Save(ctx context.Context, kind storage.Kind, customerID int64, r io.Reader) (*storage.Receipt, error)
	Remove(ctx context.Context, rec *storage.Receipt) error
}

type Service interface {
	PlaceOrder(ctx context.Context, in PlaceInput) (*PlaceResult, error)
	CancelOrder(ctx context.Context, orderID, customerID int64) error
	ListCustomerOrders(ctx context.Context, customerID int64) ([]Summary, error)
	CountActiveOrders(ctx context.Context, customerID int64) (int, error)
}

type service struct {
	repo      Repository
	receipts  ReceiptStore
	canceller cancellation.Service
	recorder  audit.Recorder
	tolerance decimal.Decimal
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
	}
}

func (s *service) PlaceOrder(ctx context.Context, in PlaceInput) (*PlaceResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.Int64("customer_id", in.CustomerID),
	)
	timer := metrics.StartTimer()

	// 1. Structural validation; nothing is written before this passes.
	o, method, err := s.validate(in)
	if err != nil {
		log.Info("order rejected", zap.String("reason", apperr.From(err).Reason))
		return nil, err
	}

	// 2. Receipt goes to disk first; the transaction cannot cover it.
	var rec *storage.Receipt
	if method.RequiresReceipt() {
		rec, err = s.receipts.Save(ctx, storage.KindOrder, in.CustomerID, in.Receipt)
		if err != nil {
			return nil, err
		}
	}

	p := &payment.Payment{
		Method: method,
		Status: payment.StatusPending,
		Amount: o.TotalAmount,
		Source: payment.SourceWebsite,
		Notes:  method.Notes(),
	}
	if rec != nil {
		p.ProofOfPayment = &rec.Path
		p.ReceiptFileName = &rec.FileName
	}

	// 3-4. Header, items, payment and counter in one transaction.
	if err := s.repo.CreateOrderTx(ctx, o, p); err != nil {
		storage.Discard(ctx, s.receipts, rec)
		log.Error("failed to place order", zap.Error(err))
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return nil, apperr.NotFound(customer.ReasonCustomerNotFound, err)
		}
		return nil, apperr.Persistence(err)
	}

	metrics.OrdersPlaced.Inc()

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		name = "Customer"
	}
	s.recorder.Record(ctx, audit.OrderPlaced(o.CustomerID, name, o.ID, o.TotalAmount, string(o.DeliveryOption)))

	log.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.String("payment_method", string(method)),
		zap.Duration("duration", timer.ObserveInto(&metrics.OrderPlaceLatency)),
	)

	return &PlaceResult{
		OrderID:        o.ID,
		TotalAmount:    o.TotalAmount,
		PaymentMethod:  method,
		OrderStatus:    o.Status,
		DeliveryOption: o.DeliveryOption,
	}, nil
}

func (s *service) validate(in PlaceInput) (*Order, payment.Method, error) {
	if len(in.Cart) == 0 {
		return nil, "", apperr.Validation(cart.ReasonEmptyCart, cart.ErrEmptyCart)
	}
	if in.CustomerID <= 0 {
		return nil, "", apperr.Validation(ReasonInvalidCustomer, ErrInvalidCustomer)
	}
	if err := in.Cart.Validate(); err != nil {
		return nil, "", apperr.Validation(cart.ReasonInvalidItem, err)
	}

	option := ParseDeliveryOption(in.OrderType)
	var address *string
	if option == DeliveryDelivery {
		a := strings.TrimSpace(in.DeliveryAddress)
		if a == "" {
			return nil, "", apperr.Validation(ReasonMissingAddress, ErrMissingAddress)
		}
		address = &a
	}

	method, err := payment.ParseMethod(in.PaymentMethod)
	if err != nil {
		return nil, "", apperr.Validation(payment.ReasonInvalidMethod, err)
	}

	total, err := in.Cart.Reconcile(in.TotalAmount, s.tolerance)
	if err != nil {
		return nil, "", apperr.Validation(cart.ReasonTotalMismatch, err)
	}

	if method.RequiresReceipt() && in.Receipt == nil {
		return nil, "", apperr.Validation(ReasonMissingReceipt, ErrMissingReceipt)
	}

	requests := utils.NullIfBlank(in.SpecialRequests)

	o := &Order{
		CustomerID:      in.CustomerID,
		OrderType:       TypeOnline,
		Source:          SourceWebsite,
		DeliveryOption:  option,
		DeliveryAddress: address,
		Status:          StatusPending,
		TotalAmount:     total,
		Remarks:         option.Remarks(),
		SpecialRequests: requests,
		Items:           make([]Item, 0, len(in.Cart)),
	}
	for _, ci := range in.Cart {
		o.Items = append(o.Items, Item{
			ProductName:         strings.TrimSpace(ci.Name),
			Quantity:            ci.Quantity,
			UnitPrice:           ci.Price,
			SpecialInstructions: requests,
		})
	}
	return o, method, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID, customerID int64) error {
	return s.canceller.Cancel(ctx, cancellation.Order, orderID, customerID)
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID int64) ([]Summary, error) {
	if customerID <= 0 {
		return nil, apperr.Validation(ReasonInvalidCustomer, ErrInvalidCustomer)
	}

	orders, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orders",
			zap.String("layer", "service"),
			zap.String("method", "ListCustomerOrders"),
			zap.Error(err),
		)
		return nil, apperr.Persistence(err)
	}
	return orders, nil
}

func (s *service) CountActiveOrders(ctx context.Context, customerID int64) (int, error) {
	if customerID <= 0 {
		return 0, apperr.Validation(ReasonInvalidCustomer, ErrInvalidCustomer)
	}

	n, err := s.repo.CountActive(ctx, customerID)
	if err != nil {
		return 0, apperr.Persistence(err)
	}
	return n, nil
}
