package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafkax "greenkart/internal/kafka"
	"greenkart/internal/orders"
	"greenkart/internal/redisx"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Sink delivers one rendered message. The real WhatsApp/SMS gateways live
// behind this; delivery failures are logged, never retried here.
type Sink interface {
	Send(ctx context.Context, channel, phone, message string) error
}

// LogSink is the default sink: it only logs. Useful locally and as a
// fallback when no gateway is configured.
type LogSink struct{}

func (LogSink) Send(_ context.Context, channel, phone, message string) error {
	log.Printf("notify [%s] to=%s: %s", channel, phone, message)
	return nil
}

type Service struct {
	Redis       *redis.Client
	Sink        Sink
	ServiceName string
}

// HandleOrderCreated: dipasang sebagai handler consumer.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	} // ignore

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "notify", env.EventID)
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		log.Printf("notify: dedup check failed, proceeding anyway: %v", err)
	} else if !first {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.Phone == "" {
		return nil // nothing to send to
	}

	msg := renderOrderCreated(p)
	// fire-and-forget: kegagalan kirim tidak boleh nge-block consumer
	if err := s.Sink.Send(ctx, "whatsapp", p.Phone, msg); err != nil {
		log.Printf("notify: send to %s failed: %v", p.Phone, err)
	}
	return nil
}

// HandleOrderStatusChanged: handler untuk topic order.status.changed.
// Cuma status yang ada template-nya yang dikirim.
func (s *Service) HandleOrderStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	} // ignore

	dkey := fmt.Sprintf(redisx.KeyDedup, "notify", env.EventID)
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		log.Printf("notify: dedup check failed, proceeding anyway: %v", err)
	} else if !first {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.Phone == "" {
		return nil
	}

	msg := renderStatusChanged(p)
	if msg == "" {
		return nil
	}
	if err := s.Sink.Send(ctx, "whatsapp", p.Phone, msg); err != nil {
		log.Printf("notify: send to %s failed: %v", p.Phone, err)
	}
	return nil
}

func renderStatusChanged(p orders.OrderStatusChangedPayload) string {
	switch p.To {
	case orders.StatusOutForDelivery:
		return fmt.Sprintf(
			"🚚 *Out for Delivery*\n\nHello %s!\n\nYour order #%s is on its way. Please keep your phone available.",
			p.CustomerName, p.OrderID,
		)
	case orders.StatusDelivered:
		return fmt.Sprintf(
			"✅ *Delivered*\n\nHello %s!\n\nYour order #%s has been delivered. Thank you for shopping with us!",
			p.CustomerName, p.OrderID,
		)
	case orders.StatusCancelled:
		return fmt.Sprintf(
			"❌ *Order Cancelled*\n\nHello %s,\n\nYour order #%s has been cancelled.",
			p.CustomerName, p.OrderID,
		)
	}
	return ""
}

func renderOrderCreated(p orders.OrderCreatedPayload) string {
	kind := "order"
	if p.OrderType == orders.OrderTypeSubscriptionGenerated {
		kind = "subscription delivery"
	}
	return fmt.Sprintf(
		"🛒 *Order Confirmed*\n\nHello %s!\n\nYour %s #%s has been placed.\n\n📦 Total: ₹%d.%02d\n📅 Delivery: %s (%s)\n\nThank you for shopping with us!",
		p.CustomerName, kind, p.OrderID, p.TotalPaise/100, p.TotalPaise%100, prettyDate(p.DeliveryDate), p.DeliverySlot,
	)
}

// prettyDate memotong key RFC3339 jadi YYYY-MM-DD. Payload dari luar bisa
// bawa string apapun, jadi jangan slicing langsung.
func prettyDate(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02")
	}
	return s
}
