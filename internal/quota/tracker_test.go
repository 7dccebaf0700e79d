package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/liliang-cn/doc0/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	records map[string]domain.QuotaRecord
	saves   int
	loadErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]domain.QuotaRecord{}}
}

func (s *memStore) Load(_ context.Context, key string) (*domain.QuotaRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memStore) Save(_ context.Context, key string, record domain.QuotaRecord) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[key] = record
	return nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTracker(store Store, clock *fakeClock, limit int) *Tracker {
	return NewTracker(store, Options{
		DailyLimit: limit,
		Window:     24 * time.Hour,
		Key:        "requestLimit",
		Now:        clock.Now,
	})
}

func TestTrackerFirstUseCreatesFreshWindow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	tracker := newTestTracker(store, clock, 10)

	assert.Equal(t, 10, tracker.Remaining(ctx))

	window := tracker.Window(ctx)
	assert.Equal(t, 10, window.Limit)
	assert.Equal(t, 0, window.Used)
	assert.Equal(t, clock.now.Add(24*time.Hour), window.NextAllowedTime)
	assert.Contains(t, store.records, "requestLimit")
}

func TestTrackerRemainingNeverNegative(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	tracker := newTestTracker(newMemStore(), clock, 3)

	for i := 0; i < 7; i++ {
		tracker.Decrement(ctx)
		assert.GreaterOrEqual(t, tracker.Remaining(ctx), 0)
	}

	assert.Equal(t, 0, tracker.Remaining(ctx))
	assert.Equal(t, 7, tracker.Window(ctx).Used)
}

func TestTrackerRestoresAllowanceAfterWindow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	tracker := newTestTracker(newMemStore(), clock, 2)

	tracker.Decrement(ctx)
	tracker.Decrement(ctx)
	tracker.Decrement(ctx)
	require.Equal(t, 0, tracker.Remaining(ctx))
	firstReset := tracker.Window(ctx).NextAllowedTime

	clock.Advance(24 * time.Hour)

	assert.Equal(t, 2, tracker.Remaining(ctx))
	assert.Equal(t, firstReset.Add(24*time.Hour), tracker.Window(ctx).NextAllowedTime)
}

func TestTrackerRolloverAfterSeveralDaysStaysAligned(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	tracker := newTestTracker(newMemStore(), clock, 2)
	tracker.Decrement(ctx)

	clock.Advance(75 * time.Hour)

	window := tracker.Window(ctx)
	assert.Equal(t, 2, window.Remaining)
	assert.Equal(t, start.Add(96*time.Hour), window.NextAllowedTime)
}

func TestTrackerRolloverFromCenturiesOldRecord(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.records["requestLimit"] = domain.QuotaRecord{
		Count:           9,
		NextAllowedTime: time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	tracker := newTestTracker(store, clock, 2)

	for i := 0; i < 5; i++ {
		tracker.Decrement(ctx)
	}

	window := tracker.Window(ctx)
	assert.Equal(t, 0, window.Remaining)
	assert.Equal(t, 5, window.Used)
	assert.Equal(t, clock.now.Add(24*time.Hour), window.NextAllowedTime)
}

func TestTrackerPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}

	first := newTestTracker(store, clock, 10)
	first.Decrement(ctx)
	first.Decrement(ctx)

	second := newTestTracker(store, clock, 10)
	assert.Equal(t, 8, second.Remaining(ctx))
}

func TestTrackerFailsOpenOnStorageErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.loadErr = errors.New("disk unavailable")
	store.saveErr = errors.New("disk unavailable")
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	tracker := newTestTracker(store, clock, 5)

	assert.Equal(t, 5, tracker.Remaining(ctx))

	tracker.Decrement(ctx)
	assert.Equal(t, 4, tracker.Remaining(ctx))
}
