// Package product provides the repository interface and PostgreSQL implementation for managing products.
package product

import (
	"context"
	"errors"
	"time"

	"github.com/mvergara-dev/shop-services/internal/postgres"
)

var (
	ErrNotFound = errors.New("product not found")
)

type Query struct {
	Status   string
	Category string
	Page     int
	Limit    int
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, int, error)
	Update(ctx context.Context, p *Product, updatePrice, updateStock bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db postgres.DB }

func NewPGRepo(db postgres.DB) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			price NUMERIC(12,2) NOT NULL,
			stock INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, description, category, price, stock, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, category, price::text, stock, status, created_at, updated_at
		FROM products WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR category = $2)
	`, q.Status, q.Category).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, category, price::text, stock, status, created_at, updated_at
		FROM products
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, q.Status, q.Category, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, p *Product, updatePrice, updateStock bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = COALESCE(NULLIF($2,''), name),
		    description = COALESCE(NULLIF($3,''), description),
		    category = COALESCE(NULLIF($4,''), category),
		    price = CASE WHEN $5 THEN $6::numeric ELSE price END,
		    stock = CASE WHEN $7 THEN $8 ELSE stock END,
		    status = COALESCE(NULLIF($9,''), status),
		    updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Category, updatePrice, nullIfEmpty(p.Price), updateStock, p.Stock, string(p.Status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// nullIfEmpty keeps the CASE cast happy when price is not being updated.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
