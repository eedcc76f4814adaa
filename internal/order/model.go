package order

import (
	"io"
	"strings"
	"time"

	"tabeya-be/internal/cart"
	"tabeya-be/internal/payment"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

type DeliveryOption string

const (
	DeliveryPickup   DeliveryOption = "Pickup"
	DeliveryDelivery DeliveryOption = "Delivery"
)

const (
	TypeOnline    = "Online"
	SourceWebsite = "Website"
)

// ParseDeliveryOption maps the raw order_type field. Only DELIVERY (any case)
// means delivery; everything else is pickup.
func ParseDeliveryOption(raw string) DeliveryOption {
	if strings.EqualFold(strings.TrimSpace(raw), "DELIVERY") {
		return DeliveryDelivery
	}
	return DeliveryPickup
}

func (d DeliveryOption) Remarks() string {
	if d == DeliveryDelivery {
		return "Delivery Order"
	}
	return "Pickup Order"
}

type Order struct {
	ID              int64
	CustomerID      int64
	OrderType       string
	Source          string
	DeliveryOption  DeliveryOption
	DeliveryAddress *string
	Status          Status
	TotalAmount     decimal.Decimal
	Remarks         string
	SpecialRequests *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []Item
}

type Item struct {
	ID                  int64
	OrderID             int64
	ProductName         string
	Quantity            int
	UnitPrice           decimal.Decimal
	SpecialInstructions *string
}

// PlaceInput is a checkout submission. Receipt is nil when no file was sent.
type PlaceInput struct {
	CustomerID      int64
	TotalAmount     decimal.Decimal
	OrderType       string
	PaymentMethod   string
	Cart            cart.Cart
	SpecialRequests string
	DeliveryAddress string
	CustomerName    string
	Receipt         io.Reader
}

type PlaceResult struct {
	OrderID        int64           `json:"orderId"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaymentMethod  payment.Method  `json:"paymentMethod"`
	OrderStatus    Status          `json:"orderStatus"`
	DeliveryOption DeliveryOption  `json:"deliveryOption"`
}

// Summary is one entry of a customer's order history.
type Summary struct {
	OrderID         int64           `json:"orderId"`
	OrderDate       time.Time       `json:"orderDate"`
	OrderStatus     string          `json:"orderStatus"`
	DeliveryOption  string          `json:"deliveryOption"`
	DeliveryAddress *string         `json:"deliveryAddress,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ItemsCount      int             `json:"itemsCount"`
	SpecialRequests *string         `json:"specialRequests,omitempty"`
	PaymentMethod   *string         `json:"paymentMethod,omitempty"`
	PaymentStatus   *string         `json:"paymentStatus,omitempty"`
	Items           []SummaryItem   `json:"items"`
}

type SummaryItem struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}
