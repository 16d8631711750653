//go:build unit

package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"smartqueue/internal/engine"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotGuard_Acquire(t *testing.T) {
	t.Run("acquire and release", func(t *testing.T) {
		guard := engine.NewSlotGuard(time.Second)
		slotID := uuid.New()

		release, err := guard.Acquire(context.Background(), slotID)
		require.NoError(t, err)
		release()

		release, err = guard.Acquire(context.Background(), slotID)
		require.NoError(t, err)
		release()
	})

	t.Run("held section times out with ErrBusy", func(t *testing.T) {
		guard := engine.NewSlotGuard(50 * time.Millisecond)
		slotID := uuid.New()

		release, err := guard.Acquire(context.Background(), slotID)
		require.NoError(t, err)
		defer release()

		start := time.Now()
		_, err = guard.Acquire(context.Background(), slotID)
		assert.ErrorIs(t, err, engine.ErrBusy)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("different slots never contend", func(t *testing.T) {
		guard := engine.NewSlotGuard(time.Second)

		releaseA, err := guard.Acquire(context.Background(), uuid.New())
		require.NoError(t, err)
		defer releaseA()

		releaseB, err := guard.Acquire(context.Background(), uuid.New())
		require.NoError(t, err)
		defer releaseB()
	})

	t.Run("cancelled context surfaces ErrBusy", func(t *testing.T) {
		guard := engine.NewSlotGuard(time.Second)
		slotID := uuid.New()

		release, err := guard.Acquire(context.Background(), slotID)
		require.NoError(t, err)
		defer release()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = guard.Acquire(ctx, slotID)
		assert.ErrorIs(t, err, engine.ErrBusy)
	})

	t.Run("waiters serialize on the same slot", func(t *testing.T) {
		guard := engine.NewSlotGuard(2 * time.Second)
		slotID := uuid.New()

		var (
			mu      sync.Mutex
			inside  int
			maxSeen int
			wg      sync.WaitGroup
		)

		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := guard.Acquire(context.Background(), slotID)
				require.NoError(t, err)
				defer release()

				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, maxSeen)
	})
}
