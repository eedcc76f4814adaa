package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCOD   Method = "COD"
	MethodGCash Method = "GCash"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusRefunded  Status = "Refunded"
)

const SourceWebsite = "Website"

const (
	NoteGCashAwaiting = "GCash receipt uploaded - awaiting verification"
	NoteCashOnDeliver = "Cash on Delivery"
)

// Payment is a recorded payment claim. Exactly one of OrderID and
// ReservationID is set.
type Payment struct {
	ID              int64
	OrderID         *int64
	ReservationID   *int64
	Method          Method
	Status          Status
	Amount          decimal.Decimal
	Source          string
	ProofOfPayment  *string
	ReceiptFileName *string
	Notes           string
}

// ParseMethod accepts COD or GCASH in any case. Blank defaults to COD.
func ParseMethod(raw string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "COD":
		return MethodCOD, nil
	case "GCASH":
		return MethodGCash, nil
	default:
		return "", ErrInvalidMethod
	}
}

func (m Method) RequiresReceipt() bool { return m == MethodGCash }

// Notes is the initial payment note for a freshly placed claim.
func (m Method) Notes() string {
	if m == MethodGCash {
		return NoteGCashAwaiting
	}
	return NoteCashOnDeliver
}
