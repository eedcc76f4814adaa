package order

import "errors"

var (
	ErrInvalidCustomer = errors.New("customer id is required")
	ErrMissingAddress  = errors.New("delivery address required for delivery orders")
	ErrMissingReceipt  = errors.New("GCash payments require a receipt upload")
)

const (
	ReasonInvalidCustomer = "invalid_customer"
	ReasonMissingAddress  = "missing_address"
	ReasonMissingReceipt  = "missing_receipt"
)
