package transport

import "errors"

var (
	ErrCustomerMismatch = errors.New("customer does not match the signed-in account")
	ErrMalformedBody    = errors.New("malformed request body")
	ErrRouteNotFound    = errors.New("route not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrRequestInFlight  = errors.New("a request with this idempotency key is still being processed")
)

const (
	ReasonCustomerMismatch = "customer_mismatch"
	ReasonNotFound         = "not_found"
	ReasonRequestInFlight  = "idempotency_in_flight"
)
