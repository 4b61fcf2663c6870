package mirror

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jende/inventory-service/internal/domain"
	"github.com/jende/inventory-service/internal/repository"
)

// RepoSource snapshots the primary store through its repositories.
type RepoSource struct {
	users    repository.UserRepository
	products repository.ProductRepository
}

// NewRepoSource builds a Source over the primary repositories.
func NewRepoSource(users repository.UserRepository, products repository.ProductRepository) *RepoSource {
	return &RepoSource{users: users, products: products}
}

func (s *RepoSource) SnapshotUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.ListAll(ctx)
}

func (s *RepoSource) SnapshotProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

// PostgresTarget writes snapshots into the secondary database. The delete and
// bulk insert for both tables run inside one transaction, so a failure leaves
// the previous mirror contents untouched.
type PostgresTarget struct {
	pool *pgxpool.Pool
}

// NewPostgresTarget constructs the target.
func NewPostgresTarget(pool *pgxpool.Pool) *PostgresTarget {
	return &PostgresTarget{pool: pool}
}

// Replace swaps the mirror contents for the snapshot.
func (t *PostgresTarget) Replace(ctx context.Context, snap Snapshot) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin mirror tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear mirror products: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("clear mirror users: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"users"},
		[]string{"id", "name", "email", "password_hash", "created_at", "updated_at"},
		pgx.CopyFromSlice(len(snap.Users), func(i int) ([]any, error) {
			u := snap.Users[i]
			return []any{u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt}, nil
		}),
	); err != nil {
		return fmt.Errorf("copy mirror users: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"id", "name", "price", "description", "photo", "stock", "sku", "created_at", "updated_at"},
		pgx.CopyFromSlice(len(snap.Products), func(i int) ([]any, error) {
			p := snap.Products[i]
			return []any{p.ID, p.Name, p.Price, p.Description, p.Photo, p.Stock, p.SKU, p.CreatedAt, p.UpdatedAt}, nil
		}),
	); err != nil {
		return fmt.Errorf("copy mirror products: %w", err)
	}

	return tx.Commit(ctx)
}
