package conflict

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookverse/order-intake/internal/domain"
	"github.com/bookverse/order-intake/internal/inventory"
)

func orderFor(resourceID string, seq uint64) domain.Order {
	return domain.Order{
		OrderID:    uuid.New(),
		Seq:        seq,
		ResourceID: resourceID,
	}
}

func TestRegister_SequentialArrivalOrder(t *testing.T) {
	t.Parallel()

	store := inventory.NewMemoryStore()
	store.SetQuantity("book-1", 2)
	d := NewDetector(store)

	outcomes := make([]domain.ConflictOutcome, 0, 4)
	for seq := uint64(1); seq <= 4; seq++ {
		out, err := d.Register(context.Background(), orderFor("book-1", seq))
		require.NoError(t, err)
		outcomes = append(outcomes, out)
	}

	assert.Equal(t, []domain.ConflictOutcome{
		domain.OutcomeAccepted,
		domain.OutcomeAccepted,
		domain.OutcomeRejected,
		domain.OutcomeRejected,
	}, outcomes)

	qty, err := store.GetAvailableQuantity(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestRegister_ConcurrentRacers(t *testing.T) {
	t.Parallel()

	const available = 3
	const racers = 20

	store := inventory.NewMemoryStore()
	store.SetQuantity("book-1", available)
	d := NewDetector(store)

	var (
		start    sync.WaitGroup
		done     sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	start.Add(1)

	for i := 0; i < racers; i++ {
		done.Add(1)
		go func(seq uint64) {
			defer done.Done()
			start.Wait()

			out, err := d.Register(context.Background(), orderFor("book-1", seq))
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			switch out {
			case domain.OutcomeAccepted:
				accepted++
			case domain.OutcomeRejected:
				rejected++
			}
		}(uint64(i + 1))
	}

	start.Done()
	done.Wait()

	assert.Equal(t, available, accepted)
	assert.Equal(t, racers-available, rejected)

	qty, err := store.GetAvailableQuantity(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestRegister_DisjointResourcesDoNotContend(t *testing.T) {
	t.Parallel()

	store := inventory.NewMemoryStore()
	store.SetQuantity("book-1", 1)
	store.SetQuantity("book-2", 1)
	d := NewDetector(store)

	var done sync.WaitGroup
	for _, id := range []string{"book-1", "book-2"} {
		done.Add(1)
		go func(id string) {
			defer done.Done()
			out, err := d.Register(context.Background(), orderFor(id, 1))
			assert.NoError(t, err)
			assert.Equal(t, domain.OutcomeAccepted, out)
		}(id)
	}
	done.Wait()
}

func TestRegister_UnknownResource(t *testing.T) {
	t.Parallel()

	d := NewDetector(inventory.NewMemoryStore())

	_, err := d.Register(context.Background(), orderFor("missing", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}

// failingStore simulates an unreachable inventory collaborator.
type failingStore struct{}

func (failingStore) GetAvailableQuantity(context.Context, string) (int, error) {
	return 0, fmt.Errorf("connection refused")
}

func (failingStore) AdjustAvailableQuantity(context.Context, string, int) error {
	return fmt.Errorf("connection refused")
}

func TestRegister_StoreFailureIsTransientNotOutcome(t *testing.T) {
	t.Parallel()

	d := NewDetector(failingStore{})

	out, err := d.Register(context.Background(), orderFor("book-1", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInventoryUnavailable)
	assert.Empty(t, out)
}

// flakyStore fails a fixed number of reads before recovering.
type flakyStore struct {
	inner    *inventory.MemoryStore
	mu       sync.Mutex
	failures int
}

func (s *flakyStore) GetAvailableQuantity(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return 0, errors.New("timeout")
	}
	s.mu.Unlock()
	return s.inner.GetAvailableQuantity(ctx, id)
}

func (s *flakyStore) AdjustAvailableQuantity(ctx context.Context, id string, delta int) error {
	return s.inner.AdjustAvailableQuantity(ctx, id, delta)
}

func TestRegister_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	inner := inventory.NewMemoryStore()
	inner.SetQuantity("book-1", 1)
	d := NewDetector(&flakyStore{inner: inner, failures: 2})

	out, err := d.Register(context.Background(), orderFor("book-1", 1))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccepted, out)
}
