package audit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
	StatusWarning Status = "Warning"
)

const (
	ActorCustomer = "Customer"
	SourceWebsite = "Website"
	AnonymousName = "Anonymous"
)

// Event is one row of the activity trail.
type Event struct {
	ID             string    `json:"id"`
	ActorType      string    `json:"actor_type"`
	ActorID        int64     `json:"actor_id"`
	ActorName      string    `json:"actor_name"`
	Action         string    `json:"action"`
	Category       string    `json:"category"`
	Description    string    `json:"description"`
	SourceSystem   string    `json:"source_system"`
	ReferenceID    *string   `json:"reference_id,omitempty"`
	ReferenceTable *string   `json:"reference_table,omitempty"`
	OldValue       *string   `json:"old_value,omitempty"`
	NewValue       *string   `json:"new_value,omitempty"`
	Status         Status    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func newCustomerEvent(customerID int64, name, action, category, description string, refID int64, refTable string, newValue map[string]any) Event {
	ref := strconv.FormatInt(refID, 10)
	e := Event{
		ID:             uuid.NewString(),
		ActorType:      ActorCustomer,
		ActorID:        customerID,
		ActorName:      name,
		Action:         action,
		Category:       category,
		Description:    description,
		SourceSystem:   SourceWebsite,
		ReferenceID:    &ref,
		ReferenceTable: &refTable,
		Status:         StatusSuccess,
		OccurredAt:     time.Now(),
	}
	if newValue != nil {
		if b, err := json.Marshal(newValue); err == nil {
			s := string(b)
			e.NewValue = &s
		}
	}
	return e
}

func OrderPlaced(customerID int64, name string, orderID int64, total decimal.Decimal, deliveryOption string) Event {
	return newCustomerEvent(customerID, name, "Order Placed", "Order",
		fmt.Sprintf("Customer placed a %s order with total amount: ₱%s", deliveryOption, total.StringFixed(2)),
		orderID, "orders",
		map[string]any{"order_id": orderID, "total_amount": total, "order_type": deliveryOption},
	)
}

func OrderCancelled(customerID, orderID int64, previousStatus string) Event {
	e := newCustomerEvent(customerID, "", "Order Cancelled", "Order",
		fmt.Sprintf("Customer cancelled order #%d", orderID),
		orderID, "orders", nil,
	)
	cancelled := "Cancelled"
	e.OldValue, e.NewValue = &previousStatus, &cancelled
	return e
}

func ReservationCreated(customerID int64, name string, reservationID int64, eventType, eventDate string, guests int) Event {
	return newCustomerEvent(customerID, name, "Reservation Created", "Reservation",
		fmt.Sprintf("Customer created a %s reservation for %d guests on %s", eventType, guests, eventDate),
		reservationID, "reservations",
		map[string]any{"reservation_id": reservationID, "event_type": eventType, "event_date": eventDate, "guests": guests},
	)
}

func ReservationCancelled(customerID, reservationID int64, previousStatus string) Event {
	e := newCustomerEvent(customerID, "", "Reservation Cancelled", "Reservation",
		fmt.Sprintf("Customer cancelled reservation #%d", reservationID),
		reservationID, "reservations", nil,
	)
	cancelled := "Cancelled"
	e.OldValue, e.NewValue = &previousStatus, &cancelled
	return e
}

// ReviewSubmitted records the customer's real id; only the display name is
// masked for anonymous reviews.
func ReviewSubmitted(customerID int64, name string, feedbackID int64, feedbackType string, rating int, anonymous bool) Event {
	desc := fmt.Sprintf("Customer submitted a %s review with rating: %d/5", feedbackType, rating)
	if anonymous {
		name = AnonymousName
		desc += " (Anonymous)"
	}
	return newCustomerEvent(customerID, name, "Review Submitted", "System", desc,
		feedbackID, "customer_feedback",
		map[string]any{"feedback_id": feedbackID, "feedback_type": feedbackType, "rating": rating, "anonymous": anonymous},
	)
}
