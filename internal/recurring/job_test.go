package recurring

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"greenkart/internal/dates"
	"greenkart/internal/orders"
	"greenkart/internal/subscriptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = dates.LoadZone("Asia/Kolkata")

type fakeStore struct {
	mu        sync.Mutex
	subs      []subscriptions.Subscription
	users     map[string]orders.User
	products  map[string]orders.Product
	lastID    int64
	created   []orders.Order
	failUsers bool
}

func (f *fakeStore) ActiveSubscriptions(ctx context.Context) ([]subscriptions.Subscription, error) {
	return f.subs, nil
}

func (f *fakeStore) GeneratedSubscriptionIDs(ctx context.Context, deliveryDate string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]struct{}{}
	for _, o := range f.created {
		if o.DeliveryDate == deliveryDate && o.OrderType == orders.OrderTypeSubscriptionGenerated {
			out[o.SubscriptionID] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) UsersByIDs(ctx context.Context, ids []string) (map[string]orders.User, error) {
	if f.failUsers {
		return nil, errors.New("simulated network error")
	}
	out := map[string]orders.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeStore) ProductsByIDs(ctx context.Context, ids []string) (map[string]orders.Product, error) {
	out := map[string]orders.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeStore) CreateGeneratedOrder(ctx context.Context, o orders.Order) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// same invariant the partial unique index enforces
	for _, ex := range f.created {
		if ex.OrderType == orders.OrderTypeSubscriptionGenerated &&
			ex.SubscriptionID == o.SubscriptionID && ex.DeliveryDate == o.DeliveryDate {
			return "", true, nil
		}
	}
	f.lastID++
	o.ID = orders.FormatID(f.lastID)
	f.created = append(f.created, o)
	return o.ID, false, nil
}

func (f *fakeStore) generatedFor(deliveryDate string) map[string]orders.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]orders.Order{}
	for _, o := range f.created {
		if o.DeliveryDate == deliveryDate && o.OrderType == orders.OrderTypeSubscriptionGenerated {
			out[o.SubscriptionID] = o
		}
	}
	return out
}

func fixtureStore() *fakeStore {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, ist)
	return &fakeStore{
		lastID: 1000,
		users: map[string]orders.User{
			"user_1": {ID: "user_1", Name: "Ravi", Phone: "9000000001", Address: "MG Road"},
			"user_2": {ID: "user_2", Name: "Sita", Phone: "9000000002", Address: "Park Lane"},
			"user_3": {ID: "user_3", Name: "Kiran", Phone: "9000000003", Address: "Hill View"},
		},
		products: map[string]orders.Product{
			"prod_milk": {ID: "prod_milk", Name: "Fresh Milk", NameTe: "పాలు", Unit: "L", PricePaise: 3000},
		},
		subs: []subscriptions.Subscription{
			{ID: "sub_daily", CustomerID: "user_1", Frequency: subscriptions.FrequencyDaily, StartDate: start,
				Area: "Area 1", DeliverySlot: "Morning", IsActive: true,
				Items: []subscriptions.Item{{ProductID: "prod_milk", Qty: 1}}},
			{ID: "sub_weekend", CustomerID: "user_2", Frequency: subscriptions.FrequencyWeekend, StartDate: start,
				Area: "Area 1", DeliverySlot: "Morning", IsActive: true,
				Items: []subscriptions.Item{{ProductID: "prod_milk", Qty: 2}}},
			{ID: "sub_custom", CustomerID: "user_3", Frequency: subscriptions.FrequencyCustom, StartDate: start,
				CustomDays: []int{3}, Area: "Area 2", DeliverySlot: "Evening", IsActive: true,
				Items: []subscriptions.Item{{ProductID: "prod_milk", Qty: 1}}},
		},
	}
}

func newJob(fs *fakeStore) *Job {
	return &Job{Store: fs, Zone: ist, ChunkSize: 10, MissingProduct: DegradeLineItem, Service: "test"}
}

func TestRunScenario(t *testing.T) {
	fs := fixtureStore()
	job := newJob(fs)
	ctx := context.Background()

	// Senin 2024-01-01: hanya sub_daily
	mon := time.Date(2024, time.January, 1, 6, 0, 0, 0, ist)
	sum, err := job.Run(ctx, mon)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OrdersCreated)

	monDate := dates.DeliveryDate(mon, ist)
	gen := fs.generatedFor(monDate)
	require.Contains(t, gen, "sub_daily")
	assert.NotContains(t, gen, "sub_weekend")
	assert.NotContains(t, gen, "sub_custom")

	o := gen["sub_daily"]
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Fresh Milk", o.Items[0].Name)
	assert.Equal(t, 3000, o.Items[0].PricePaise)
	assert.Equal(t, 3000, o.TotalPaise)
	assert.Equal(t, "user_1", o.CustomerID)
	assert.Equal(t, orders.StatusPending, o.Status)

	// re-run hari yang sama: tidak ada order baru
	sum2, err := job.Run(ctx, mon)
	require.NoError(t, err)
	assert.Equal(t, 0, sum2.OrdersCreated)

	// Rabu 2024-01-03: sub_daily + sub_custom
	wed := time.Date(2024, time.January, 3, 6, 0, 0, 0, ist)
	sum3, err := job.Run(ctx, wed)
	require.NoError(t, err)
	assert.Equal(t, 2, sum3.OrdersCreated)
	genWed := fs.generatedFor(dates.DeliveryDate(wed, ist))
	assert.Contains(t, genWed, "sub_daily")
	assert.Contains(t, genWed, "sub_custom")
	assert.NotContains(t, genWed, "sub_weekend")

	// Sabtu 2024-01-06: sub_daily + sub_weekend
	sat := time.Date(2024, time.January, 6, 6, 0, 0, 0, ist)
	sum4, err := job.Run(ctx, sat)
	require.NoError(t, err)
	assert.Equal(t, 2, sum4.OrdersCreated)
	genSat := fs.generatedFor(dates.DeliveryDate(sat, ist))
	assert.Contains(t, genSat, "sub_daily")
	assert.Contains(t, genSat, "sub_weekend")
	assert.NotContains(t, genSat, "sub_custom")
}

func TestRunIdempotent(t *testing.T) {
	fs := fixtureStore()
	job := newJob(fs)
	ctx := context.Background()
	sat := time.Date(2024, time.January, 6, 6, 0, 0, 0, ist)

	sum, err := job.Run(ctx, sat)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.OrdersCreated)

	for i := 0; i < 3; i++ {
		again, err := job.Run(ctx, sat)
		require.NoError(t, err)
		assert.Equal(t, 0, again.OrdersCreated)
	}

	// tidak pernah ada pasangan (subscription, delivery date) ganda
	seen := map[string]bool{}
	for _, o := range fs.created {
		key := o.SubscriptionID + "|" + o.DeliveryDate
		assert.False(t, seen[key], "duplicate order for %s", key)
		seen[key] = true
	}
}

func TestRunManualOrderDoesNotBlockGeneration(t *testing.T) {
	fs := fixtureStore()
	mon := time.Date(2024, time.January, 1, 6, 0, 0, 0, ist)
	monDate := dates.DeliveryDate(mon, ist)

	// customer memesan manual di tanggal yang sama; bukan duplikat
	fs.created = append(fs.created, orders.Order{
		ID: "ORD-900", CustomerID: "user_1", SubscriptionID: "sub_daily",
		DeliveryDate: monDate, OrderType: orders.OrderTypeOneTime,
	})

	sum, err := newJob(fs).Run(context.Background(), mon)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OrdersCreated)
}

func TestRunSkipsUnresolvedCustomer(t *testing.T) {
	fs := fixtureStore()
	fs.failUsers = true
	job := newJob(fs)
	ctx := context.Background()
	mon := time.Date(2024, time.January, 1, 6, 0, 0, 0, ist)

	sum, err := job.Run(ctx, mon)
	require.NoError(t, err, "resolver failures must not fail the run")
	assert.Equal(t, 0, sum.OrdersCreated)
	assert.Equal(t, 1, sum.Skipped)

	// transient failure: run berikutnya self-heal
	fs.failUsers = false
	sum2, err := job.Run(ctx, mon)
	require.NoError(t, err)
	assert.Equal(t, 1, sum2.OrdersCreated)
}

func TestRunDegradesMissingProduct(t *testing.T) {
	fs := fixtureStore()
	fs.subs[0].Items = append(fs.subs[0].Items, subscriptions.Item{ProductID: "prod_ghost", Qty: 2})
	job := newJob(fs)
	mon := time.Date(2024, time.January, 1, 6, 0, 0, 0, ist)

	sum, err := job.Run(context.Background(), mon)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OrdersCreated)

	o := fs.generatedFor(dates.DeliveryDate(mon, ist))["sub_daily"]
	require.Len(t, o.Items, 2)
	assert.Equal(t, 0, o.Items[1].PricePaise)
	assert.Equal(t, "Unknown", o.Items[1].Name)
	assert.Equal(t, 3000, o.TotalPaise, "degraded line contributes nothing to the total")
}

func TestRunSkipOrderPolicy(t *testing.T) {
	fs := fixtureStore()
	fs.subs[0].Items = append(fs.subs[0].Items, subscriptions.Item{ProductID: "prod_ghost", Qty: 2})
	job := newJob(fs)
	job.MissingProduct = SkipOrder
	mon := time.Date(2024, time.January, 1, 6, 0, 0, 0, ist)

	sum, err := job.Run(context.Background(), mon)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.OrdersCreated)
	assert.Equal(t, 1, sum.Skipped)
}

func TestRunSkipsEmptyItems(t *testing.T) {
	fs := fixtureStore()
	fs.subs = []subscriptions.Subscription{{
		ID: "sub_empty", CustomerID: "user_1", Frequency: subscriptions.FrequencyDaily,
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, ist), IsActive: true,
	}}

	sum, err := newJob(fs).Run(context.Background(), time.Date(2024, time.January, 1, 6, 0, 0, 0, ist))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.OrdersCreated)
	assert.Equal(t, 1, sum.Skipped)
}

func TestRunNoActiveSubscriptions(t *testing.T) {
	fs := &fakeStore{}
	sum, err := newJob(fs).Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

func TestCounterMonotonic(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, ist)
	fs := &fakeStore{
		lastID:   1000,
		users:    map[string]orders.User{},
		products: map[string]orders.Product{"prod_milk": {ID: "prod_milk", Name: "Fresh Milk", PricePaise: 3000}},
	}
	for i := 0; i < 30; i++ {
		subID := "sub_" + strconv.Itoa(i)
		userID := "user_" + strconv.Itoa(i)
		// setiap user ketiga sengaja tidak ada -> subscription itu di-skip
		if i%3 != 0 {
			fs.users[userID] = orders.User{ID: userID, Name: "U" + strconv.Itoa(i)}
		}
		fs.subs = append(fs.subs, subscriptions.Subscription{
			ID: subID, CustomerID: userID, Frequency: subscriptions.FrequencyDaily,
			StartDate: start, IsActive: true,
			Items: []subscriptions.Item{{ProductID: "prod_milk", Qty: 1}},
		})
	}

	sum, err := newJob(fs).Run(context.Background(), time.Date(2024, time.January, 1, 6, 0, 0, 0, ist))
	require.NoError(t, err)
	assert.Equal(t, 20, sum.OrdersCreated)
	assert.Equal(t, 10, sum.Skipped)

	prev := int64(1000)
	for _, o := range fs.created {
		n, err := strconv.ParseInt(strings.TrimPrefix(o.ID, "ORD-"), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, prev, "ids strictly increasing, never reused")
		prev = n
	}
}
