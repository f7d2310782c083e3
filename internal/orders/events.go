package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "greenkart-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

// ---- Payload tipe per event ----

type ItemInput struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type ItemSnapshot struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PricePaise int    `json:"price_paise"`
	Name       string `json:"name"`
	Unit       string `json:"unit"`
}

type OrderCreatedPayload struct {
	OrderID        string         `json:"order_id"`
	CustomerID     string         `json:"customer_id"`
	CustomerName   string         `json:"customer_name"`
	Phone          string         `json:"phone"`
	OrderType      OrderType      `json:"order_type"`
	SubscriptionID string         `json:"subscription_id,omitempty"`
	Area           string         `json:"area"`
	DeliverySlot   string         `json:"delivery_slot"`
	DeliveryDate   string         `json:"delivery_date"`
	Items          []ItemSnapshot `json:"items"`
	TotalPaise     int            `json:"total_paise"`
}

type OrderStatusChangedPayload struct {
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	From         Status `json:"from"`
	To           Status `json:"to"`
}
