package redisx

import "time"

const (
	// idem:order:place:{customer_id}:{idempotency_key} -> order_id, or "pending" while placing
	KeyIdemOrderPlace = "idem:order:place:%d:%s"

	// idem:reservation:place:{customer_id}:{idempotency_key} -> reservation_id, or "pending"
	KeyIdemReservationPlace = "idem:reservation:place:%d:%s"

	// Projected storefront catalog as JSON.
	KeyCatalogAvailable = "catalog:available"
)

var (
	TTLIdempotency  = 24 * time.Hour
	TTLCatalogCache = 30 * time.Second

	// Outlives any request timeout so a slow placement keeps its claim.
	TTLIdempotencyPending = 2 * time.Minute
)
