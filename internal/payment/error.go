package payment

import "errors"

var ErrInvalidMethod = errors.New("payment method must be COD or GCash")

const ReasonInvalidMethod = "invalid_payment_method"
