package recurring

import (
	"context"

	"greenkart/internal/orders"
	"greenkart/internal/subscriptions"
)

// Store is everything the job needs from the database. UsersByIDs and
// ProductsByIDs take at most one chunk of ids (see ResolveAll).
type Store interface {
	ActiveSubscriptions(ctx context.Context) ([]subscriptions.Subscription, error)
	GeneratedSubscriptionIDs(ctx context.Context, deliveryDate string) (map[string]struct{}, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]orders.User, error)
	ProductsByIDs(ctx context.Context, ids []string) (map[string]orders.Product, error)
	// CreateGeneratedOrder allocates the order code and writes the order
	// atomically; existed=true means another run got there first.
	CreateGeneratedOrder(ctx context.Context, o orders.Order) (orderID string, existed bool, err error)
}

// PGStore adapts the pgx repos to Store.
type PGStore struct {
	Orders *orders.Repo
	Subs   *subscriptions.Repo
}

func (s PGStore) ActiveSubscriptions(ctx context.Context) ([]subscriptions.Subscription, error) {
	return s.Subs.Active(ctx)
}

func (s PGStore) GeneratedSubscriptionIDs(ctx context.Context, deliveryDate string) (map[string]struct{}, error) {
	return s.Orders.GeneratedSubscriptionIDs(ctx, deliveryDate)
}

func (s PGStore) UsersByIDs(ctx context.Context, ids []string) (map[string]orders.User, error) {
	return s.Orders.UsersByIDs(ctx, ids)
}

func (s PGStore) ProductsByIDs(ctx context.Context, ids []string) (map[string]orders.Product, error) {
	return s.Orders.ProductsByIDs(ctx, ids)
}

func (s PGStore) CreateGeneratedOrder(ctx context.Context, o orders.Order) (string, bool, error) {
	return s.Orders.CreateGeneratedOrder(ctx, o)
}
