package recurring

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"greenkart/internal/dates"
	kafkax "greenkart/internal/kafka"
	"greenkart/internal/orders"
	"greenkart/internal/redisx"
	"greenkart/internal/subscriptions"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type Phase string

const (
	PhaseIdle                  Phase = "IDLE"
	PhaseFetchingSubscriptions Phase = "FETCHING_SUBSCRIPTIONS"
	PhaseResolvingDependencies Phase = "RESOLVING_DEPENDENCIES"
	PhaseAllocatingAndWriting  Phase = "ALLOCATING_AND_WRITING"
	PhaseDone                  Phase = "DONE"
	PhaseFailed                Phase = "FAILED"
)

// MissingProductPolicy decides what happens to a line item whose product
// could not be resolved. Missing customers always skip the whole order.
type MissingProductPolicy string

const (
	DegradeLineItem MissingProductPolicy = "DEGRADE_LINE_ITEM" // harga 0 + nama placeholder
	SkipOrder       MissingProductPolicy = "SKIP_ORDER"
)

type Summary struct {
	OrdersCreated int `json:"ordersCreated"`
	Skipped       int `json:"skipped"`
	Errors        int `json:"errors"`
}

// Job generates one order per due subscription for a target date. Safe to
// re-run for the same date: the guard query plus the store's unique index
// keep (subscription, delivery date) single-shot.
type Job struct {
	Store          Store
	Producer       *kafkax.Producer // optional; order.created events
	Redis          *redis.Client    // optional; status cache + fast-path markers
	Zone           *time.Location
	ChunkSize      int
	MissingProduct MissingProductPolicy
	Service        string
}

func (j *Job) zone() *time.Location {
	if j.Zone != nil {
		return j.Zone
	}
	return dates.LoadZone("")
}

func (j *Job) Run(ctx context.Context, target time.Time) (Summary, error) {
	loc := j.zone()
	deliveryDate := dates.DeliveryDate(target, loc)
	var sum Summary

	j.setPhase(PhaseFetchingSubscriptions, deliveryDate)
	subs, err := j.Store.ActiveSubscriptions(ctx)
	if err != nil {
		j.setPhase(PhaseFailed, deliveryDate)
		return sum, fmt.Errorf("fetch subscriptions: %w", err)
	}
	if len(subs) == 0 {
		j.setPhase(PhaseDone, deliveryDate)
		return sum, nil
	}

	// guard read sebelum write apapun
	existing, err := j.Store.GeneratedSubscriptionIDs(ctx, deliveryDate)
	if err != nil {
		j.setPhase(PhaseFailed, deliveryDate)
		return sum, fmt.Errorf("fetch existing orders: %w", err)
	}

	var due []subscriptions.Subscription
	for _, s := range subs {
		if !s.DueOn(target, loc) {
			continue
		}
		if _, ok := existing[s.ID]; ok {
			continue // sudah ada order utk tanggal ini
		}
		if len(s.Items) == 0 {
			log.Printf("recurring orders: subscription %s has no items, skipping", s.ID)
			sum.Skipped++
			continue
		}
		due = append(due, s)
	}
	if len(due) == 0 {
		j.setPhase(PhaseDone, deliveryDate)
		log.Printf("recurring orders: nothing due for %s", deliveryDate)
		return sum, nil
	}

	j.setPhase(PhaseResolvingDependencies, deliveryDate)
	userIDs, productIDs := collectRefs(due)

	var users map[string]orders.User
	var products map[string]orders.Product
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		users = ResolveAll(ctx, userIDs, j.ChunkSize, "users", j.Store.UsersByIDs)
	}()
	go func() {
		defer wg.Done()
		products = ResolveAll(ctx, productIDs, j.ChunkSize, "products", j.Store.ProductsByIDs)
	}()
	wg.Wait()

	j.setPhase(PhaseAllocatingAndWriting, deliveryDate)
	for _, sub := range due {
		user, ok := users[sub.CustomerID]
		if !ok {
			// jangan buat order tanpa customer; run berikutnya retry
			log.Printf("recurring orders: customer %s unresolved for subscription %s, skipping", sub.CustomerID, sub.ID)
			sum.Skipped++
			continue
		}
		o, ok := j.buildOrder(sub, user, products, deliveryDate)
		if !ok {
			sum.Skipped++
			continue
		}
		orderID, existed, err := j.Store.CreateGeneratedOrder(ctx, o)
		if err != nil {
			log.Printf("recurring orders: create order for subscription %s: %v", sub.ID, err)
			sum.Errors++
			continue
		}
		if existed {
			sum.Skipped++
			continue
		}
		o.ID = orderID
		sum.OrdersCreated++
		j.afterCreate(ctx, o)
	}

	j.setPhase(PhaseDone, deliveryDate)
	log.Printf("recurring orders: date=%s created=%d skipped=%d errors=%d", deliveryDate, sum.OrdersCreated, sum.Skipped, sum.Errors)
	return sum, nil
}

func collectRefs(due []subscriptions.Subscription) (userIDs, productIDs []string) {
	seenU := map[string]bool{}
	seenP := map[string]bool{}
	for _, s := range due {
		if !seenU[s.CustomerID] {
			seenU[s.CustomerID] = true
			userIDs = append(userIDs, s.CustomerID)
		}
		for _, it := range s.Items {
			if !seenP[it.ProductID] {
				seenP[it.ProductID] = true
				productIDs = append(productIDs, it.ProductID)
			}
		}
	}
	return userIDs, productIDs
}

func (j *Job) buildOrder(sub subscriptions.Subscription, user orders.User, products map[string]orders.Product, deliveryDate string) (orders.Order, bool) {
	items := make([]orders.OrderItem, 0, len(sub.Items))
	total := 0
	for _, it := range sub.Items {
		p, ok := products[it.ProductID]
		if !ok {
			if j.MissingProduct == SkipOrder {
				log.Printf("recurring orders: product %s unresolved for subscription %s, skipping order", it.ProductID, sub.ID)
				return orders.Order{}, false
			}
			// degraded line: harga 0, nama placeholder; log supaya ada audit trail
			log.Printf("recurring orders: product %s unresolved for subscription %s, line degraded to zero price", it.ProductID, sub.ID)
			items = append(items, orders.OrderItem{ProductID: it.ProductID, Qty: it.Qty, Name: "Unknown"})
			continue
		}
		items = append(items, orders.OrderItem{
			ProductID:  it.ProductID,
			Qty:        it.Qty,
			PricePaise: p.PricePaise,
			Name:       p.Name,
			NameTe:     p.NameTe,
			Unit:       p.Unit,
		})
		total += p.PricePaise * it.Qty
	}

	name := user.Name
	if name == "" {
		name = "Unknown"
	}
	address := sub.Area
	if address == "" {
		address = user.Address
	}
	return orders.Order{
		CustomerID:     sub.CustomerID,
		Name:           name,
		Phone:          user.Phone,
		Address:        address,
		DeliveryPlace:  "Home",
		Area:           sub.Area,
		DeliverySlot:   sub.DeliverySlot,
		DeliveryDate:   deliveryDate,
		OrderType:      orders.OrderTypeSubscriptionGenerated,
		SubscriptionID: sub.ID,
		PaymentMode:    "COD",
		Status:         orders.StatusPending,
		Items:          items,
		TotalPaise:     total,
		CreatedAt:      time.Now(),
	}, true
}

// afterCreate runs outside the order tx: cache fills and the order.created
// event are best-effort and must never roll back the write.
func (j *Job) afterCreate(ctx context.Context, o orders.Order) {
	if j.Redis != nil {
		_ = j.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, o.ID), `{"status":"PENDING"}`, redisx.TTLStatusCache).Err()
		_ = j.Redis.Set(ctx, fmt.Sprintf(redisx.KeyIdemSubOrder, o.SubscriptionID, o.DeliveryDate), o.ID, redisx.TTLSubOrder).Err()
	}
	if j.Producer == nil {
		return
	}
	snaps := make([]orders.ItemSnapshot, 0, len(o.Items))
	for _, it := range o.Items {
		snaps = append(snaps, orders.ItemSnapshot{
			ProductID:  it.ProductID,
			Qty:        it.Qty,
			PricePaise: it.PricePaise,
			Name:       it.Name,
			Unit:       it.Unit,
		})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      j.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:        o.ID,
			CustomerID:     o.CustomerID,
			CustomerName:   o.Name,
			Phone:          o.Phone,
			OrderType:      o.OrderType,
			SubscriptionID: o.SubscriptionID,
			Area:           o.Area,
			DeliverySlot:   o.DeliverySlot,
			DeliveryDate:   o.DeliveryDate,
			Items:          snaps,
			TotalPaise:     o.TotalPaise,
		}),
	}
	j.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (j *Job) setPhase(p Phase, deliveryDate string) {
	log.Printf("recurring orders: phase=%s date=%s", p, deliveryDate)
}
