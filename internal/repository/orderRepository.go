package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookverse/order-intake/internal/domain"
	"github.com/bookverse/order-intake/internal/logger"
)

// OrderRepository persists each submitted order together with both of its
// verdicts, so fraud and conflict rejections stay auditable even though
// callers only see the combined status.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) AddOrder(ctx context.Context, o *domain.Order, res domain.Result) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order payload: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO intake.orders
			(id, seq, resource_id, customer_name, customer_contact,
			 shipping_method, submitted_at, payload)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		`,
		o.OrderID,
		o.Seq,
		o.ResourceID,
		o.Customer.Name,
		o.Customer.Contact,
		o.ShippingMethod,
		o.SubmittedAt,
		payload,
	)
	if err != nil {
		logger.Warn("insert order row failed", "order_id", o.OrderID, "err", err)
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO intake.order_results
			(order_id, fraud, fraud_reason, conflict, final_status)
		 VALUES
			($1, $2, $3, $4, $5)
		`,
		o.OrderID,
		string(res.Fraud),
		res.FraudReason,
		string(res.Conflict),
		string(res.FinalStatus),
	)
	if err != nil {
		logger.Warn("insert order result failed", "order_id", o.OrderID, "err", err)
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil
	return nil
}

func (r *OrderRepository) GetResultById(ctx context.Context, id uuid.UUID) (*domain.Result, error) {
	var res domain.Result
	err := r.pool.QueryRow(ctx,
		`SELECT o.id, o.resource_id, r.fraud, r.fraud_reason, r.conflict, r.final_status
		 FROM intake.orders o
		 JOIN intake.order_results r ON r.order_id = o.id
		 WHERE o.id = $1
		`, id,
	).Scan(&res.OrderID, &res.ResourceID, &res.Fraud, &res.FraudReason, &res.Conflict, &res.FinalStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
