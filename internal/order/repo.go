package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mvergara-dev/shop-services/internal/postgres"
)

// ListFilter narrows and pages ListByOwner results.
type ListFilter struct {
	Status Status // empty = all
	Page   int    // 1-based
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListByOwner(ctx context.Context, ownerID string, f ListFilter) ([]Order, int, error)
}

type PGRepo struct{ db postgres.DB }

func NewPGRepo(db postgres.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL,
			total_amount NUMERIC(12,2) NOT NULL,
			ship_street TEXT NOT NULL DEFAULT '',
			ship_city TEXT NOT NULL DEFAULT '',
			ship_state TEXT NOT NULL DEFAULT '',
			ship_zip TEXT NOT NULL DEFAULT '',
			ship_country TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			product_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			unit_price NUMERIC(12,2) NOT NULL,
			quantity INT NOT NULL,
			subtotal NUMERIC(12,2) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create persists the order and its items in one transaction and stamps
// created_at/updated_at.
func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	addr := o.ShippingAddress
	if addr == nil {
		addr = &Address{}
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (id, user_id, status, total_amount,
      ship_street, ship_city, ship_state, ship_zip, ship_country,
      created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, o.ID, o.UserID, o.Status, o.TotalAmount.String(),
		addr.Street, addr.City, addr.State, addr.ZipCode, addr.Country,
		o.CreatedAt, o.UpdatedAt); err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_id, product_id, product_name, unit_price, quantity, subtotal)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, uuid.NewString(), o.ID, it.ProductID, it.ProductName, it.UnitPrice.String(), it.Quantity, it.Subtotal.String()); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// FindByIDAndOwner loads one order scoped to its owner. A wrong owner gets
// ErrNotFound, same as a missing id.
func (r *PGRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*Order, error) {
	o, err := r.scanOrder(r.db.QueryRow(ctx, `
    SELECT id, user_id, status, total_amount::text,
      ship_street, ship_city, ship_state, ship_zip, ship_country,
      created_at, updated_at
    FROM orders WHERE id=$1 AND user_id=$2
  `, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// Update persists status and updated_at. Items are immutable after creation
// and are deliberately not written here.
func (r *PGRepo) Update(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
    UPDATE orders
    SET status = $3, updated_at = $4
    WHERE id = $1 AND user_id = $2
  `, o.ID, o.UserID, o.Status, o.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, f ListFilter) ([]Order, int, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int
	if err := r.db.QueryRow(ctx, `
    SELECT COUNT(*) FROM orders
    WHERE user_id=$1 AND ($2 = '' OR status = $2)
  `, ownerID, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
    SELECT id, user_id, status, total_amount::text,
      ship_street, ship_city, ship_state, ship_zip, ship_country,
      created_at, updated_at
    FROM orders
    WHERE user_id=$1 AND ($2 = '' OR status = $2)
    ORDER BY created_at DESC LIMIT $3 OFFSET $4
  `, ownerID, string(f.Status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	var ids []string
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		items, err := r.loadItems(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range out {
			out[i].Items = items[out[i].ID]
		}
	}
	return out, total, nil
}

func (r *PGRepo) scanOrder(row pgx.Row) (*Order, error) {
	var (
		o     Order
		total string
		addr  Address
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &total,
		&addr.Street, &addr.City, &addr.State, &addr.ZipCode, &addr.Country,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, err
	}
	o.TotalAmount = amount
	if addr != (Address{}) {
		o.ShippingAddress = &addr
	}
	return &o, nil
}

func (r *PGRepo) loadItems(ctx context.Context, orderIDs []string) (map[string][]LineItem, error) {
	rows, err := r.db.Query(ctx, `
    SELECT order_id, product_id, product_name, unit_price::text, quantity, subtotal::text
    FROM order_items WHERE order_id = ANY($1)
  `, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]LineItem)
	for rows.Next() {
		var (
			orderID             string
			it                  LineItem
			unitPrice, subtotal string
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.ProductName, &unitPrice, &it.Quantity, &subtotal); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, err
		}
		if it.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}
