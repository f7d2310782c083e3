package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var (
	ErrAlreadyExists = errors.New("order already exists")
	ErrBadTransition = errors.New("invalid status transition")
)

type CheckoutInput struct {
	CustomerID    string      `json:"customer_id"`
	Name          string      `json:"name"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	DeliveryPlace string      `json:"delivery_place"`
	Area          string      `json:"area"`
	DeliverySlot  string      `json:"delivery_slot"`
	DeliveryDate  string      `json:"delivery_date"`
	PaymentMode   string      `json:"payment_mode"`
	Items         []ItemInput `json:"items"`
}

// CreateCheckoutOrder: idempotent via external_id.
// - jika external_id sudah ada -> return existing order_id + total (existed=true).
// The order code is drawn from the shared order counter inside the same tx.
func (r *Repo) CreateCheckoutOrder(ctx context.Context, externalID string, in CheckoutInput) (orderID string, totalPaise int, existed bool, err error) {
	// cek existing by external_id
	row := r.DB.QueryRow(ctx, `SELECT id, total_paise FROM orders WHERE external_id=$1`, externalID)
	if err = row.Scan(&orderID, &totalPaise); err == nil {
		return orderID, totalPaise, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", 0, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// snapshot price/name dari table products (hindari trust dari client)
	productIDs := make([]any, 0, len(in.Items))
	params := ""
	for i, it := range in.Items {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		productIDs = append(productIDs, it.ProductID)
	}
	rows, err := tx.Query(ctx, `SELECT id, name, name_te, unit, price_paise FROM products WHERE id IN (`+params+`)`, productIDs...)
	if err != nil {
		return "", 0, false, err
	}
	snaps := map[string]Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.NameTe, &p.Unit, &p.PricePaise); err != nil {
			return "", 0, false, err
		}
		snaps[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return "", 0, false, err
	}

	for _, it := range in.Items {
		p, ok := snaps[it.ProductID]
		if !ok {
			return "", 0, false, fmt.Errorf("product not found: %s", it.ProductID)
		}
		if it.Qty <= 0 {
			return "", 0, false, fmt.Errorf("invalid qty for product %s", it.ProductID)
		}
		totalPaise += p.PricePaise * it.Qty
	}

	// alokasi order code dari counter bersama (atomik dalam tx yang sama)
	var n int64
	if err := tx.QueryRow(ctx, `UPDATE order_counters SET last_id = last_id + 1 WHERE name = 'orders' RETURNING last_id`).Scan(&n); err != nil {
		return "", 0, false, err
	}
	orderID = FormatID(n)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, external_id, customer_id, name, phone, address, delivery_place,
		                   area, delivery_slot, delivery_date, order_type, payment_mode, status, total_paise)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'PENDING', $13)
	`, orderID, externalID, in.CustomerID, in.Name, in.Phone, in.Address, in.DeliveryPlace,
		in.Area, in.DeliverySlot, in.DeliveryDate, string(OrderTypeOneTime), in.PaymentMode, totalPaise)
	if err != nil {
		return "", 0, false, err
	}

	for _, it := range in.Items {
		p := snaps[it.ProductID]
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price_paise, name, name_te, unit, is_cut, cut_charge_paise)
			VALUES ($1, $2, $3, $4, $5, $6, $7, false, 0)`,
			orderID, it.ProductID, it.Qty, p.PricePaise, p.Name, p.NameTe, p.Unit,
		)
		if err != nil {
			return "", 0, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", 0, false, err
	}
	return orderID, totalPaise, false, nil
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// StatusChange is what UpdateStatus hands back for the event payload.
type StatusChange struct {
	OrderID      string
	CustomerName string
	Phone        string
	From         Status
	To           Status
}

// UpdateStatus moves an order along its lifecycle (lihat status.go).
// Row di-lock dulu supaya transisi paralel ke order yang sama serial;
// transisi di luar validNext -> ErrBadTransition.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, to Status) (StatusChange, error) {
	ch := StatusChange{OrderID: orderID, To: to}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ch, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var from string
	row := tx.QueryRow(ctx, `SELECT status, name, phone FROM orders WHERE id=$1 FOR UPDATE`, orderID)
	if err := row.Scan(&from, &ch.CustomerName, &ch.Phone); err != nil {
		return ch, err
	}
	ch.From = Status(from)

	if !CanTransition(ch.From, to) {
		return ch, fmt.Errorf("%w: %s -> %s", ErrBadTransition, ch.From, to)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$1 WHERE id=$2`, string(to), orderID); err != nil {
		return ch, err
	}
	return ch, tx.Commit(ctx)
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, name_te, category, price_paise, unit, is_active, display_order, created_at, updated_at
                                FROM products WHERE is_active ORDER BY display_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.NameTe, &p.Category, &p.PricePaise, &p.Unit, &p.IsActive, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ProductsByIDs fetches one lookup chunk; the caller enforces the chunk size.
func (r *Repo) ProductsByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, name_te, unit, price_paise FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.NameTe, &p.Unit, &p.PricePaise); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repo) UsersByIDs(ctx context.Context, ids []string) (map[string]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, phone, address FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]User, len(ids))
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Phone, &u.Address); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// GeneratedSubscriptionIDs returns the subscription ids that already have a
// generated order for the given delivery date. Manual ONE_TIME orders on the
// same date do not count.
func (r *Repo) GeneratedSubscriptionIDs(ctx context.Context, deliveryDate string) (map[string]struct{}, error) {
	rows, err := r.DB.Query(ctx, `SELECT subscription_id FROM orders WHERE delivery_date=$1 AND order_type=$2`,
		deliveryDate, string(OrderTypeSubscriptionGenerated))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// CreateGeneratedOrder allocates the next order code and writes the order in
// one tx. The partial unique index on (subscription_id, delivery_date) makes
// racing runs collide here; a collision rolls the counter bump back and
// returns existed=true.
func (r *Repo) CreateGeneratedOrder(ctx context.Context, o Order) (string, bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var n int64
	if err := tx.QueryRow(ctx, `UPDATE order_counters SET last_id = last_id + 1 WHERE name = 'orders' RETURNING last_id`).Scan(&n); err != nil {
		return "", false, err
	}
	o.ID = FormatID(n)

	ct, err := tx.Exec(ctx, `
		INSERT INTO orders(id, customer_id, name, phone, address, delivery_place,
		                   area, delivery_slot, delivery_date, order_type, subscription_id, payment_mode, status, total_paise)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (subscription_id, delivery_date) WHERE order_type = 'SUBSCRIPTION_GENERATED' DO NOTHING
	`, o.ID, o.CustomerID, o.Name, o.Phone, o.Address, o.DeliveryPlace,
		o.Area, o.DeliverySlot, o.DeliveryDate, string(o.OrderType), o.SubscriptionID, o.PaymentMode, string(o.Status), o.TotalPaise)
	if err != nil {
		return "", false, err
	}
	if ct.RowsAffected() == 0 {
		return "", true, nil // duplikat -> rollback counter juga
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price_paise, name, name_te, unit, is_cut, cut_charge_paise)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			o.ID, it.ProductID, it.Qty, it.PricePaise, it.Name, it.NameTe, it.Unit, it.IsCut, it.CutChargePaise,
		)
		if err != nil {
			return "", false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, err
	}
	return o.ID, false, nil
}
