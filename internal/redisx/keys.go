package redisx

import "time"

const (
	// Idempotency create order (checkout): idem:order:create:{external_id} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Fast-path marker for generated orders: idem:order:subgen:{subscription_id}:{delivery_date}
	// Best-effort only; the DB unique index is the real guard.
	KeyIdemSubOrder = "idem:order:subgen:%s:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLSubOrder    = 48 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
