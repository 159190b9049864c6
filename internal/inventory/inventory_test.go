package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookverse/order-intake/internal/domain"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	s.SetQuantity("book-1", 2)

	qty, err := s.GetAvailableQuantity(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	require.NoError(t, s.AdjustAvailableQuantity(ctx, "book-1", -1))
	qty, err = s.GetAvailableQuantity(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	_, err = s.GetAvailableQuantity(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUnknownResource)

	err = s.AdjustAvailableQuantity(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownResource)

	err = s.AdjustAvailableQuantity(ctx, "book-1", -5)
	assert.Error(t, err)
	qty, err = s.GetAvailableQuantity(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 1, qty, "failed adjustment must not change the counter")
}

func TestMemoryStore_ConcurrentAdjust(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	s.SetQuantity("book-1", 100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AdjustAvailableQuantity(ctx, "book-1", -1)
		}()
	}
	wg.Wait()

	qty, err := s.GetAvailableQuantity(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}
