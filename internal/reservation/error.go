package reservation

import "errors"

var (
	ErrInvalidCustomer  = errors.New("customer id is required")
	ErrInvalidEventDate = errors.New("event date must be YYYY-MM-DD and not in the past")
	ErrInvalidEventTime = errors.New("event time must be HH:MM")
	ErrMissingEventType = errors.New("event type is required")
	ErrInvalidGuests    = errors.New("number of guests must be greater than zero")
	ErrMissingReceipt   = errors.New("GCash payments require a receipt upload")
)

const (
	ReasonInvalidCustomer  = "invalid_customer"
	ReasonInvalidEventDate = "invalid_event_date"
	ReasonInvalidEventTime = "invalid_event_time"
	ReasonMissingEventType = "missing_event_type"
	ReasonInvalidGuests    = "invalid_guest_count"
	ReasonMissingReceipt   = "missing_receipt"
)
