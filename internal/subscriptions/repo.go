package subscriptions

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// Active returns every subscription with is_active=true, items included.
func (r *Repo) Active(ctx context.Context) ([]Subscription, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, customer_id, plan_name, frequency, area, delivery_slot,
		       start_date, end_date, custom_days, is_active, notes, created_at
		FROM subscriptions WHERE is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscription
	ids := make([]string, 0, 16)
	byID := map[string]int{}
	for rows.Next() {
		var s Subscription
		var days []int32
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.PlanName, (*string)(&s.Frequency), &s.Area, &s.DeliverySlot,
			&s.StartDate, &s.EndDate, &days, &s.IsActive, &s.Notes, &s.CreatedAt); err != nil {
			return nil, err
		}
		for _, d := range days {
			s.CustomDays = append(s.CustomDays, int(d))
		}
		byID[s.ID] = len(out)
		ids = append(ids, s.ID)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	itemRows, err := r.DB.Query(ctx, `
		SELECT subscription_id, product_id, qty FROM subscription_items
		WHERE subscription_id = ANY($1) ORDER BY position`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var subID string
		var it Item
		if err := itemRows.Scan(&subID, &it.ProductID, &it.Qty); err != nil {
			return nil, err
		}
		if i, ok := byID[subID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	return out, itemRows.Err()
}

func (r *Repo) Deactivate(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `UPDATE subscriptions SET is_active = false WHERE id=$1`, id)
	return err
}
