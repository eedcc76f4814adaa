package review

import "errors"

var (
	ErrInvalidCustomer     = errors.New("customer id is required")
	ErrInactiveCustomer    = errors.New("invalid customer account")
	ErrInvalidOverall      = errors.New("overall rating (1-5) is required")
	ErrInvalidCategory     = errors.New("category ratings must be between 1 and 5")
	ErrInvalidFeedbackType = errors.New("feedback type must be General, Order or Reservation")
	ErrMissingOrderID      = errors.New("order id is required for order feedback")
	ErrMissingReservation  = errors.New("reservation id is required for reservation feedback")
)

const (
	ReasonInvalidCustomer  = "invalid_customer"
	ReasonInvalidRating    = "invalid_rating"
	ReasonInvalidType      = "invalid_feedback_type"
	ReasonMissingReference = "missing_reference"
)
