package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookverse/order-intake/internal/domain"
)

// InventoryStore is the Postgres-backed available-quantity counter. The
// conflict detector already serializes access per resource; the SQL here
// additionally keeps each adjustment atomic on its own.
type InventoryStore struct {
	pool *pgxpool.Pool
}

func NewInventoryStore(pool *pgxpool.Pool) *InventoryStore {
	return &InventoryStore{pool: pool}
}

func (s *InventoryStore) GetAvailableQuantity(ctx context.Context, resourceID string) (int, error) {
	var qty int
	err := s.pool.QueryRow(ctx,
		`SELECT quantity FROM intake.inventory WHERE resource_id = $1`,
		resourceID,
	).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownResource, resourceID)
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

func (s *InventoryStore) AdjustAvailableQuantity(ctx context.Context, resourceID string, delta int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE intake.inventory
		 SET quantity = quantity + $2
		 WHERE resource_id = $1 AND quantity + $2 >= 0`,
		resourceID, delta,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var qty int
		err := s.pool.QueryRow(ctx,
			`SELECT quantity FROM intake.inventory WHERE resource_id = $1`,
			resourceID,
		).Scan(&qty)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownResource, resourceID)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("inventory for %s would go negative", resourceID)
	}
	return nil
}
