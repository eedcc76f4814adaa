package cart

import "errors"

var (
	// -- Validation & Input --
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidItem   = errors.New("every cart item needs a name, a positive quantity and a non-negative price")
	ErrTotalMismatch = errors.New("submitted total does not match the cart")
	ErrMalformedCart = errors.New("cart data is not valid JSON")
)

const (
	ReasonEmptyCart     = "empty_cart"
	ReasonInvalidItem   = "invalid_cart_item"
	ReasonTotalMismatch = "total_mismatch"
)
