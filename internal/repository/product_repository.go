package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jende/inventory-service/internal/domain"
)

// ProductRepository encapsulates product persistence.
type ProductRepository interface {
	// Create persists the product and assigns its SKU atomically from the
	// store-side sequence.
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	// ListBySKU returns products ordered by SKU then name, the order the
	// inventory report requires.
	ListBySKU(ctx context.Context) ([]domain.Product, error)
	// Delete removes the product; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository instantiates repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (name, price, description, photo, stock, sku)
        VALUES ($1,$2,$3,$4,$5, nextval('product_sku_seq'))
        RETURNING id, sku, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		product.Name,
		product.Price,
		product.Description,
		product.Photo,
		product.Stock,
	).Scan(&product.ID, &product.SKU, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	const query = `
        UPDATE products SET name=$1, price=$2, description=$3, photo=$4, stock=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		product.Name,
		product.Price,
		product.Description,
		product.Photo,
		product.Stock,
		product.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const query = `
        SELECT id, name, price, description, photo, stock, sku, created_at, updated_at
        FROM products WHERE id=$1`

	var product domain.Product
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Description,
		&product.Photo,
		&product.Stock,
		&product.SKU,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	const query = `
        SELECT id, name, price, description, photo, stock, sku, created_at, updated_at
        FROM products`
	return r.fetchMany(ctx, query)
}

func (r *productRepository) ListBySKU(ctx context.Context) ([]domain.Product, error) {
	const query = `
        SELECT id, name, price, description, photo, stock, sku, created_at, updated_at
        FROM products ORDER BY sku, name`
	return r.fetchMany(ctx, query)
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM products WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *productRepository) fetchMany(ctx context.Context, query string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var result []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Price,
			&product.Description,
			&product.Photo,
			&product.Stock,
			&product.SKU,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, product)
	}
	return result, rows.Err()
}
