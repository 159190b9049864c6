package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookverse/order-intake/internal/application"
	"github.com/bookverse/order-intake/internal/clock"
	"github.com/bookverse/order-intake/internal/conflict"
	"github.com/bookverse/order-intake/internal/domain"
	"github.com/bookverse/order-intake/internal/fraud"
	"github.com/bookverse/order-intake/internal/inventory"
)

func queuedInput(resourceID string) domain.OrderInput {
	return domain.OrderInput{
		ResourceID: resourceID,
		Customer:   domain.Customer{Name: "My name", Contact: "123123123"},
		Payment: domain.PaymentCard{
			Number:     "3412341234123412",
			Expiration: "12/25",
			CVV:        "123",
		},
	}
}

func intakeService(store inventory.Store) *application.IntakeService {
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return application.NewIntakeService(
		fraud.New(clk),
		conflict.NewDetector(store),
		nil, nil, clk,
	)
}

// gateStore fails every call while closed and delegates once opened.
type gateStore struct {
	inner *inventory.MemoryStore

	mu   sync.Mutex
	open bool

	failedOnce sync.Once
	failed     chan struct{}
}

func newGateStore(inner *inventory.MemoryStore) *gateStore {
	return &gateStore{inner: inner, failed: make(chan struct{})}
}

func (s *gateStore) Open() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

func (s *gateStore) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *gateStore) GetAvailableQuantity(ctx context.Context, id string) (int, error) {
	if !s.isOpen() {
		s.failedOnce.Do(func() { close(s.failed) })
		return 0, errors.New("connection refused")
	}
	return s.inner.GetAvailableQuantity(ctx, id)
}

func (s *gateStore) AdjustAvailableQuantity(ctx context.Context, id string, delta int) error {
	if !s.isOpen() {
		return errors.New("connection refused")
	}
	return s.inner.AdjustAvailableQuantity(ctx, id, delta)
}

type brokenStore struct{}

func (brokenStore) GetAvailableQuantity(context.Context, string) (int, error) {
	return 0, errors.New("connection refused")
}

func (brokenStore) AdjustAvailableQuantity(context.Context, string, int) error {
	return errors.New("connection refused")
}

// A submission that keeps failing transiently must not be abandoned: once
// the inventory store recovers, the same input is decided.
func TestSubmitWithRetry_RecoversAfterTransientFailures(t *testing.T) {
	t.Parallel()

	inner := inventory.NewMemoryStore()
	inner.SetQuantity("6", 1)
	store := newGateStore(inner)
	svc := intakeService(store)

	type outcome struct {
		res domain.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := submitWithRetry(context.Background(), svc, queuedInput("6"), 0)
		done <- outcome{res, err}
	}()

	// Wait until at least one attempt has failed, then recover the store.
	select {
	case <-store.failed:
	case <-time.After(5 * time.Second):
		t.Fatal("store never saw a failing attempt")
	}
	store.Open()

	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.Equal(t, domain.StatusSuccess, out.res.FinalStatus)
	case <-time.After(10 * time.Second):
		t.Fatal("submission was never decided")
	}
}

func TestSubmitWithRetry_BudgetExhausted(t *testing.T) {
	t.Parallel()

	svc := intakeService(brokenStore{})

	_, err := submitWithRetry(context.Background(), svc, queuedInput("6"), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInventoryUnavailable)
}

func TestSubmitWithRetry_DefiniteErrorsReturnImmediately(t *testing.T) {
	t.Parallel()

	store := inventory.NewMemoryStore()
	store.SetQuantity("6", 1)
	svc := intakeService(store)

	in := queuedInput("6")
	in.ResourceID = ""
	_, err := submitWithRetry(context.Background(), svc, in, 0)
	assert.ErrorIs(t, err, domain.ErrResourceRequired)

	_, err = submitWithRetry(context.Background(), svc, queuedInput("missing"), 0)
	assert.ErrorIs(t, err, domain.ErrUnknownResource)

	// Rejections are results, not errors, and never retried.
	in = queuedInput("6")
	in.Payment.Number = "--------"
	res, err := submitWithRetry(context.Background(), svc, in, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, res.FinalStatus)
}

func TestSubmitWithRetry_StopsOnContextDone(t *testing.T) {
	t.Parallel()

	svc := intakeService(brokenStore{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := submitWithRetry(ctx, svc, queuedInput("6"), 0)
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not stop after context cancellation")
	}
}
