package review

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReviewWindow = 90 * 24 * time.Hour
	ListLimit    = 10
)

type FeedbackType string

const (
	TypeGeneral     FeedbackType = "General"
	TypeOrder       FeedbackType = "Order"
	TypeReservation FeedbackType = "Reservation"
)

const StatusPending = "Pending"

type ReviewableOrder struct {
	ID        int64           `json:"id"`
	Date      time.Time       `json:"date"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	Items     string          `json:"items"`
	HasReview bool            `json:"hasReview"`
}

type ReviewableReservation struct {
	ID        int64           `json:"id"`
	Date      string          `json:"date"`
	EventType string          `json:"eventType"`
	Guests    int             `json:"guests"`
	Items     string          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	HasReview bool            `json:"hasReview"`
}

type Reviewable struct {
	Orders       []ReviewableOrder       `json:"orders"`
	Reservations []ReviewableReservation `json:"reservations"`
}

// FeedbackInput is the review form. Category ratings of 0 mean "not rated".
type FeedbackInput struct {
	CustomerID         int64        `json:"customerId"`
	OrderID            int64        `json:"orderId"`
	ReservationID      int64        `json:"reservationId"`
	FeedbackType       FeedbackType `json:"feedbackType"`
	OverallRating      int          `json:"overallRating"`
	FoodRating         int          `json:"foodRating"`
	PortionRating      int          `json:"portionRating"`
	ServiceRating      int          `json:"serviceRating"`
	AmbienceRating     int          `json:"ambienceRating"`
	CleanlinessRating  int          `json:"cleanlinessRating"`
	FoodComment        string       `json:"foodComment"`
	PortionComment     string       `json:"portionComment"`
	ServiceComment     string       `json:"serviceComment"`
	AmbienceComment    string       `json:"ambienceComment"`
	CleanlinessComment string       `json:"cleanlinessComment"`
	ReviewMessage      string       `json:"reviewMessage"`
	IsAnonymous        bool         `json:"isAnonymous"`
}

// Feedback is a customer_feedback row ready for insertion.
type Feedback struct {
	ID                 int64
	CustomerID         int64
	OrderID            *int64
	ReservationID      *int64
	FeedbackType       FeedbackType
	OverallRating      int
	FoodRating         *int
	PortionRating      *int
	ServiceRating      *int
	AmbienceRating     *int
	CleanlinessRating  *int
	FoodComment        *string
	PortionComment     *string
	ServiceComment     *string
	AmbienceComment    *string
	CleanlinessComment *string
	ReviewMessage      *string
	IsAnonymous        bool
	Status             string
}

type SubmitResult struct {
	FeedbackID  int64 `json:"feedbackId"`
	IsAnonymous bool  `json:"isAnonymous"`
}
