package memsem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}

func TestPermitsForAppliesFiveXMultiplierWithFloor(t *testing.T) {
	mgr := NewMemoryReservationManager(1024 * bytesPerMiB)
	assert.Equal(t, int64(1), mgr.PermitsFor(1024)) // tiny file still costs 1 permit
	assert.Equal(t, int64(5), mgr.PermitsFor(1*bytesPerMiB))
	assert.Equal(t, int64(50), mgr.PermitsFor(10*bytesPerMiB))
}

func TestTotalPermitsIsSeventyPercentOfHeapInMiB(t *testing.T) {
	mgr := NewMemoryReservationManager(100 * bytesPerMiB)
	assert.Equal(t, int64(70), mgr.TotalPermits())
}

func TestReserveAndReleaseRoundTrip(t *testing.T) {
	mgr := NewMemoryReservationManager(100 * bytesPerMiB)
	res, err := mgr.Reserve(context.Background(), "A.java", 1*bytesPerMiB)
	require.NoError(t, err)
	res.Release()

	// After release, the pool should again grant the full total.
	ok := mgr.sem.TryAcquire(mgr.TotalPermits())
	assert.True(t, ok)
	mgr.sem.Release(mgr.TotalPermits())
}

func TestReserveFailsImmediatelyWhenOverBudget(t *testing.T) {
	mgr := NewMemoryReservationManager(10 * bytesPerMiB) // 7 permits total
	_, err := mgr.Reserve(context.Background(), "Huge.java", 100*bytesPerMiB)
	assert.Error(t, err)
}

func TestReserveBlocksUntilPermitsAvailable(t *testing.T) {
	mgr := NewMemoryReservationManager(10 * bytesPerMiB) // 7 permits total
	first, err := mgr.Reserve(context.Background(), "A.java", 1*bytesPerMiB)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	var secondErr error
	go func() {
		defer close(done)
		// 1 MiB needs 5 permits; only 2 are free until first is released.
		second, err := mgr.Reserve(ctx, "B.java", 1*bytesPerMiB)
		secondErr = err
		if err == nil {
			second.Release()
		}
	}()

	time.Sleep(10 * time.Millisecond)
	first.Release()
	<-done
	assert.NoError(t, secondErr)
}

func TestTryReserveDoesNotBlock(t *testing.T) {
	mgr := NewMemoryReservationManager(10 * bytesPerMiB)
	res, ok := mgr.TryReserve(1 * bytesPerMiB)
	require.True(t, ok)
	defer res.Release()

	_, ok = mgr.TryReserve(100 * bytesPerMiB)
	assert.False(t, ok)
}
