package customer

import "errors"

var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrCustomerNotActive = errors.New("invalid customer account")
)

const ReasonCustomerNotFound = "customer_not_found"
