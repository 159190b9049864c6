// Package conflict decides which of the orders racing for the same
// resource get a unit of its available quantity.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/bookverse/order-intake/internal/domain"
	"github.com/bookverse/order-intake/internal/inventory"
)

// Detector serializes register calls per resource id. Disjoint resources
// never contend with each other.
type Detector struct {
	store inventory.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDetector(store inventory.Store) *Detector {
	return &Detector{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (d *Detector) lockFor(resourceID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[resourceID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[resourceID] = l
	}
	return l
}

// Register claims one unit of the order's resource if any remains. The
// read-check-decrement is a critical section per resource id, so among m
// concurrent racers for quantity n exactly min(n, m) are accepted, in
// registration order. A granted unit is never released by this detector;
// release is an external reconciliation concern.
//
// Store failures surface as ErrInventoryUnavailable after a short bounded
// backoff, never as an accepted or rejected outcome.
func (d *Detector) Register(ctx context.Context, o domain.Order) (domain.ConflictOutcome, error) {
	lock := d.lockFor(o.ResourceID)
	lock.Lock()
	defer lock.Unlock()

	var qty int
	err := d.withRetry(ctx, func(ctx context.Context) error {
		var err error
		qty, err = d.store.GetAvailableQuantity(ctx, o.ResourceID)
		return err
	})
	if err != nil {
		return "", err
	}

	if qty <= 0 {
		return domain.OutcomeRejected, nil
	}

	err = d.withRetry(ctx, func(ctx context.Context) error {
		return d.store.AdjustAvailableQuantity(ctx, o.ResourceID, -1)
	})
	if err != nil {
		return "", err
	}

	return domain.OutcomeAccepted, nil
}

// withRetry retries transient store errors. Domain errors (unknown
// resource) are definite and returned as-is.
func (d *Detector) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxDuration(500*time.Millisecond, retry.NewFibonacci(10*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if errors.Is(err, domain.ErrUnknownResource) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil || errors.Is(err, domain.ErrUnknownResource) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrInventoryUnavailable, err)
}
