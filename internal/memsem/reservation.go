// Package memsem implements the memory-reservation semaphore gating how
// many files may be in flight at once, sized proportionally to the
// process's heap budget rather than a fixed worker count.
//
// Grounded on the teacher's memory-aware scan throttle in
// internal/indexing/pipeline.go (runtime.ReadMemStats delta braking,
// an emergency-stop check against a fixed MB budget), reimplemented as
// a proper counting semaphore: golang.org/x/sync/semaphore.Weighted is
// the idiomatic replacement for the hand-rolled channel/mutex discipline
// the teacher's own ConcurrentOperationsManager
// (internal/indexing/concurrent_operations.go) uses for a similar
// purpose.
package memsem

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/javafmt/internal/errs"
)

const (
	bytesPerMiB = 1024 * 1024

	// heapFractionNumerator/heapFractionDenominator express the 0.7
	// heap-budget fraction as an exact integer ratio rather than a
	// float, so permit totals are deterministic across platforms.
	heapFractionNumerator   = 7
	heapFractionDenominator = 10

	// requestMultiplier is the teacher's empirical x5 budget for
	// tokens + arena + rule temporaries + output buffer (spec.md §4.10).
	requestMultiplier = 5
)

// MemoryReservationManager is a counting semaphore sized to
// (max_heap × 0.7) / 1 MiB permits. Each file must reserve permits
// proportional to its size before processing and release them on
// completion.
type MemoryReservationManager struct {
	sem          *semaphore.Weighted
	totalPermits int64
}

// NewMemoryReservationManager sizes the permit pool from maxHeapBytes.
func NewMemoryReservationManager(maxHeapBytes int64) *MemoryReservationManager {
	total := (maxHeapBytes * heapFractionNumerator) / heapFractionDenominator / bytesPerMiB
	if total < 1 {
		total = 1
	}
	return &MemoryReservationManager{
		sem:          semaphore.NewWeighted(total),
		totalPermits: total,
	}
}

// TotalPermits reports the pool's fixed size.
func (m *MemoryReservationManager) TotalPermits() int64 {
	return m.totalPermits
}

// PermitsFor computes how many permits a file of fileSizeBytes requires:
// max(1, file_size_bytes * 5 / 1 MiB).
func (m *MemoryReservationManager) PermitsFor(fileSizeBytes int64) int64 {
	permits := (fileSizeBytes * requestMultiplier) / bytesPerMiB
	if permits < 1 {
		permits = 1
	}
	return permits
}

// Reservation is a held claim on the permit pool; release it exactly
// once, typically via defer immediately after Reserve succeeds.
type Reservation struct {
	mgr     *MemoryReservationManager
	permits int64
}

// Release returns the reservation's permits to the pool.
func (r *Reservation) Release() {
	if r == nil || r.permits == 0 {
		return
	}
	r.mgr.sem.Release(r.permits)
	r.permits = 0
}

// Reserve blocks until fileSizeBytes's worth of permits are available,
// or ctx is cancelled. A request whose permit requirement exceeds the
// pool's total size fails immediately with FileTooLargeForHeap — it
// would deadlock the pool if allowed to wait (spec.md §4.10).
func (m *MemoryReservationManager) Reserve(ctx context.Context, path string, fileSizeBytes int64) (*Reservation, error) {
	permits := m.PermitsFor(fileSizeBytes)
	if permits > m.totalPermits {
		return nil, errs.NewBatchError(errs.KindFileTooLargeForHeap, path)
	}
	if err := m.sem.Acquire(ctx, permits); err != nil {
		return nil, fmt.Errorf("acquiring %d memory permits for %s: %w", permits, path, err)
	}
	return &Reservation{mgr: m, permits: permits}, nil
}

// TryReserve attempts a non-blocking reservation, returning ok=false
// immediately if the pool cannot grant the permits right now (distinct
// from FileTooLargeForHeap, which means it never could).
func (m *MemoryReservationManager) TryReserve(fileSizeBytes int64) (res *Reservation, ok bool) {
	permits := m.PermitsFor(fileSizeBytes)
	if permits > m.totalPermits {
		return nil, false
	}
	if !m.sem.TryAcquire(permits) {
		return nil, false
	}
	return &Reservation{mgr: m, permits: permits}, true
}
