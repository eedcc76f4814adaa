package reservation

import (
	"io"
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

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Reservation struct {
	ID              int64
	CustomerID      int64
	EventDate       time.Time
	EventTime       string
	EventType       string
	NumberOfGuests  int
	Status          Status
	SpecialRequests *string
	DeliveryAddress *string
	TotalAmount     decimal.Decimal
	CreatedAt       time.Time
	Items           []Item
}

type Item struct {
	ID            int64
	ReservationID int64
	ProductName   string
	Quantity      int
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
}

// PlaceInput is a reservation request. A zero TotalAmount means the client
// did not send one and the computed total is used as is.
type PlaceInput struct {
	CustomerID      int64
	EventDate       string
	EventTime       string
	EventType       string
	NumberOfGuests  int
	Items           cart.Cart
	TotalAmount     decimal.Decimal
	PaymentMethod   string
	SpecialRequests string
	DeliveryAddress string
	CustomerName    string
	Receipt         io.Reader
}

type PlaceResult struct {
	ReservationID     int64           `json:"reservationId"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	PaymentMethod     payment.Method  `json:"paymentMethod"`
	ReservationStatus Status          `json:"reservationStatus"`
	EventDate         string          `json:"eventDate"`
}

type Summary struct {
	ReservationID     int64           `json:"reservationId"`
	EventDate         string          `json:"eventDate"`
	EventTime         string          `json:"eventTime"`
	EventType         string          `json:"eventType"`
	NumberOfGuests    int             `json:"numberOfGuests"`
	ReservationStatus string          `json:"reservationStatus"`
	DeliveryAddress   *string         `json:"deliveryAddress,omitempty"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	Items             []SummaryItem   `json:"items"`
}

type SummaryItem struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}
