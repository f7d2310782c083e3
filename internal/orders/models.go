package orders

import (
	"fmt"
	"time"
)

type OrderType string

const (
	OrderTypeOneTime               OrderType = "ONE_TIME"
	OrderTypeSubscriptionGenerated OrderType = "SUBSCRIPTION_GENERATED"
)

type Product struct {
	ID           string
	Name         string
	NameTe       string // Telugu display name
	Category     string
	PricePaise   int
	Unit         string
	IsActive     bool
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type User struct {
	ID        string
	Name      string
	Phone     string
	Address   string
	CreatedAt time.Time
}

type Order struct {
	ID             string
	ExternalID     string // checkout idempotency key; empty for generated orders
	CustomerID     string
	Name           string
	Phone          string
	Address        string
	DeliveryPlace  string
	Area           string
	DeliverySlot   string
	DeliveryDate   string // local-midnight RFC3339, see dates.DeliveryDate
	OrderType      OrderType
	SubscriptionID string // set iff OrderType == SUBSCRIPTION_GENERATED
	PaymentMode    string
	Status         Status // lihat status.go
	Items          []OrderItem
	TotalPaise     int
	CreatedAt      time.Time
}

// OrderItem is a point-in-time snapshot: price and names are copied from the
// product at order creation and never re-read.
type OrderItem struct {
	ProductID      string
	Qty            int
	PricePaise     int
	Name           string
	NameTe         string
	Unit           string
	IsCut          bool
	CutChargePaise int
}

// FormatID renders a counter value as the public order code.
func FormatID(n int64) string { return fmt.Sprintf("ORD-%d", n) }
