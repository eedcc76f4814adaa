// Package metrics keeps process-local counters for the transaction engine and
// exposes them as a JSON snapshot.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

// Latency accumulates observed durations. Both fields only grow, so a reader
// can derive the mean without locking.
type Latency struct {
	count Counter
	nanos Counter
}

func (l *Latency) Observe(d time.Duration) {
	if d < 0 {
		d = 0
	}
	l.count.Inc()
	l.nanos.Add(uint64(d))
}

// MeanMillis is 0 until something was observed.
func (l *Latency) MeanMillis() float64 {
	n := l.count.Load()
	if n == 0 {
		return 0
	}
	return float64(l.nanos.Load()) / float64(n) / float64(time.Millisecond)
}

func (l *Latency) Count() uint64 { return l.count.Load() }

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveInto records the elapsed time on l and returns it.
func (t *Timer) ObserveInto(l *Latency) time.Duration {
	d := t.Duration()
	l.Observe(d)
	return d
}

var (
	OrdersPlaced          Counter
	OrdersCancelled       Counter
	ReservationsPlaced    Counter
	ReservationsCancelled Counter
	FeedbackSubmitted     Counter
	OrphanedReceipts      Counter
	AuditFailures         Counter
	IdempotentReplays     Counter
	IdempotentConflicts   Counter

	CatalogLatency          Latency
	OrderPlaceLatency       Latency
	ReservationPlaceLatency Latency
)

type Snapshot struct {
	OrdersPlaced          uint64 `json:"orders_placed"`
	OrdersCancelled       uint64 `json:"orders_cancelled"`
	ReservationsPlaced    uint64 `json:"reservations_placed"`
	ReservationsCancelled uint64 `json:"reservations_cancelled"`
	FeedbackSubmitted     uint64 `json:"feedback_submitted"`
	OrphanedReceipts      uint64 `json:"orphaned_receipts"`
	AuditFailures         uint64 `json:"audit_failures"`
	IdempotentReplays     uint64 `json:"idempotent_replays"`
	IdempotentConflicts   uint64 `json:"idempotent_conflicts"`

	CatalogMeanMs          float64 `json:"catalog_mean_ms"`
	OrderPlaceMeanMs       float64 `json:"order_place_mean_ms"`
	ReservationPlaceMeanMs float64 `json:"reservation_place_mean_ms"`
}

func Take() Snapshot {
	return Snapshot{
		OrdersPlaced:          OrdersPlaced.Load(),
		OrdersCancelled:       OrdersCancelled.Load(),
		ReservationsPlaced:    ReservationsPlaced.Load(),
		ReservationsCancelled: ReservationsCancelled.Load(),
		FeedbackSubmitted:     FeedbackSubmitted.Load(),
		OrphanedReceipts:      OrphanedReceipts.Load(),
		AuditFailures:         AuditFailures.Load(),
		IdempotentReplays:     IdempotentReplays.Load(),
		IdempotentConflicts:   IdempotentConflicts.Load(),

		CatalogMeanMs:          CatalogLatency.MeanMillis(),
		OrderPlaceMeanMs:       OrderPlaceLatency.MeanMillis(),
		ReservationPlaceMeanMs: ReservationPlaceLatency.MeanMillis(),
	}
}

// Handler serves the current snapshot.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Take())
	}
}
