package storage

import "errors"

var (
	ErrReceiptTooLarge    = errors.New("receipt exceeds 5 MB")
	ErrInvalidReceiptType = errors.New("receipt must be a JPEG, PNG, GIF or WEBP image")
)

const (
	ReasonReceiptTooLarge    = "receipt_too_large"
	ReasonInvalidReceiptType = "invalid_receipt_type"
)
