package notify

import (
	"context"
	"testing"

	kafkax "greenkart/internal/kafka"
	"greenkart/internal/orders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkago "github.com/segmentio/kafka-go"
)

func TestHandleIgnoresOtherEventTypes(t *testing.T) {
	svc := &Service{Sink: LogSink{}, ServiceName: "test"}
	env := orders.Envelope{
		EventID:   "ev-1",
		EventType: orders.EventOrderStatusChanged,
		Payload:   kafkax.MustMarshal(orders.OrderStatusChangedPayload{OrderID: "ORD-1001"}),
	}

	err := svc.HandleOrderCreated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	require.NoError(t, err)
}

func TestRenderOrderCreated(t *testing.T) {
	msg := renderOrderCreated(orders.OrderCreatedPayload{
		OrderID:      "ORD-1001",
		CustomerName: "Ravi",
		OrderType:    orders.OrderTypeSubscriptionGenerated,
		DeliveryDate: "2024-01-06T00:00:00+05:30",
		DeliverySlot: "Morning",
		TotalPaise:   6050,
	})

	assert.Contains(t, msg, "Hello Ravi!")
	assert.Contains(t, msg, "subscription delivery #ORD-1001")
	assert.Contains(t, msg, "₹60.50")
	assert.Contains(t, msg, "2024-01-06 (Morning)")
}

func TestRenderStatusChanged(t *testing.T) {
	p := orders.OrderStatusChangedPayload{
		OrderID:      "ORD-1001",
		CustomerName: "Ravi",
		From:         orders.StatusConfirmed,
		To:           orders.StatusOutForDelivery,
	}
	msg := renderStatusChanged(p)
	assert.Contains(t, msg, "Out for Delivery")
	assert.Contains(t, msg, "Hello Ravi!")
	assert.Contains(t, msg, "#ORD-1001")
	assert.Contains(t, msg, "keep your phone available")

	p.To = orders.StatusDelivered
	assert.Contains(t, renderStatusChanged(p), "has been delivered")

	p.To = orders.StatusCancelled
	assert.Contains(t, renderStatusChanged(p), "has been cancelled")

	// transisi internal (mis. PENDING -> CONFIRMED) tidak dikirim ke customer
	p.To = orders.StatusConfirmed
	assert.Empty(t, renderStatusChanged(p))
}

func TestHandleStatusChangedIgnoresOtherEventTypes(t *testing.T) {
	svc := &Service{Sink: LogSink{}, ServiceName: "test"}
	env := orders.Envelope{
		EventID:   "ev-2",
		EventType: orders.EventOrderCreated,
		Payload:   kafkax.MustMarshal(orders.OrderCreatedPayload{OrderID: "ORD-1001"}),
	}

	err := svc.HandleOrderStatusChanged(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	require.NoError(t, err)
}

func TestRenderOrderCreatedMalformedDate(t *testing.T) {
	// payload dari luar: tanggal pendek/kosong tidak boleh bikin panic
	for _, d := range []string{"", "2024", "bukan tanggal"} {
		msg := renderOrderCreated(orders.OrderCreatedPayload{
			OrderID:      "ORD-1001",
			CustomerName: "Ravi",
			DeliveryDate: d,
		})
		assert.Contains(t, msg, "Hello Ravi!")
		assert.Contains(t, msg, d)
	}
}
