package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medtrack/notify/internal/domain"
)

type pgProductRepository struct {
	pool *pgxpool.Pool
}

// NewPgProductRepository returns a ProductRepository backed by PostgreSQL.
func NewPgProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepository{pool: pool}
}

const productColumns = `
	p.id, p.name, p.total_quantity, p.available_quantity, p.threshold_quantity,
	p.dose_quantity, p.unit, p.expiry_date, p.created_at,
	u.id, u.email, u.full_name`

func (r *pgProductRepository) Create(ctx context.Context, p *domain.Product) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products
			(name, total_quantity, available_quantity, threshold_quantity,
			 dose_quantity, unit, expiry_date, user_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`,
		p.Name, p.TotalQuantity, p.AvailableQuantity, p.ThresholdQuantity,
		p.DoseQuantity, p.Unit, p.ExpiryDate, p.OwnerID(), p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *pgProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1`, id)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	return p, err
}

func (r *pgProductRepository) Update(ctx context.Context, p *domain.Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET
			name = $2, total_quantity = $3, available_quantity = $4,
			threshold_quantity = $5, dose_quantity = $6, unit = $7, expiry_date = $8
		WHERE id = $1`,
		p.ID, p.Name, p.TotalQuantity, p.AvailableQuantity,
		p.ThresholdQuantity, p.DoseQuantity, p.Unit, p.ExpiryDate,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *pgProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *pgProductRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		ORDER BY p.expiry_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *pgProductRepository) FindLowStock(ctx context.Context, userID int64, today time.Time) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		  AND p.available_quantity <= p.threshold_quantity
		  AND p.expiry_date >= $2
		ORDER BY p.available_quantity`, userID, today)
	if err != nil {
		return nil, fmt.Errorf("find low stock products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *pgProductRepository) UpdateAvailableQuantity(ctx context.Context, id int64, quantity float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET available_quantity = $2 WHERE id = $1`, id, quantity)
	if err != nil {
		return fmt.Errorf("update available quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var o domain.Owner
	err := row.Scan(
		&p.ID, &p.Name, &p.TotalQuantity, &p.AvailableQuantity, &p.ThresholdQuantity,
		&p.DoseQuantity, &p.Unit, &p.ExpiryDate, &p.CreatedAt,
		&o.ID, &o.Email, &o.FullName,
	)
	if err != nil {
		return nil, err
	}
	p.Owner = &o
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*domain.Product, error) {
	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
