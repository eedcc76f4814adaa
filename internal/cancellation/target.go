package cancellation

import (
	"errors"
	"fmt"
	"strings"

	"tabeya-be/internal/audit"
	"tabeya-be/internal/metrics"
	"tabeya-be/internal/payment"
)

const (
	StatusPending   = "Pending"
	StatusCancelled = "Cancelled"
)

// Target describes one cancellable aggregate: where its row lives and how its
// failures are reported.
type Target struct {
	Name         string
	Table        string
	IDColumn     string
	StatusColumn string
	// Scope is an extra WHERE clause fragment with no placeholders.
	Scope        string
	PaymentOwner payment.Owner

	ErrNotFound    error
	ReasonNotFound string

	event   func(customerID, id int64, previous string) audit.Event
	counter *metrics.Counter
}

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidID           = errors.New("id and customer id are required")
)

const (
	ReasonOrderNotFound       = "order_not_found"
	ReasonReservationNotFound = "reservation_not_found"
	ReasonIllegalTransition   = "illegal_transition"
	ReasonInvalidRequest      = "invalid_request"
)

var Order = Target{
	Name:           "Order",
	Table:          "orders",
	IDColumn:       "order_id",
	StatusColumn:   "order_status",
	Scope:          "AND order_source = 'Website'",
	PaymentOwner:   payment.OwnerOrder,
	ErrNotFound:    ErrOrderNotFound,
	ReasonNotFound: ReasonOrderNotFound,
	event:          audit.OrderCancelled,
	counter:        &metrics.OrdersCancelled,
}

var Reservation = Target{
	Name:           "Reservation",
	Table:          "reservations",
	IDColumn:       "reservation_id",
	StatusColumn:   "reservation_status",
	PaymentOwner:   payment.OwnerReservation,
	ErrNotFound:    ErrReservationNotFound,
	ReasonNotFound: ReasonReservationNotFound,
	event:          audit.ReservationCancelled,
	counter:        &metrics.ReservationsCancelled,
}

// IllegalTransitionError is returned when the row is not Pending.
type IllegalTransitionError struct {
	Target  string
	Current string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("Only pending %ss can be cancelled. Current status: %s", strings.ToLower(e.Target), e.Current)
}
