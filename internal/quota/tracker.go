// Package quota tracks the daily request allowance of anonymous users.
//
// The tracker is a UX guard, not a security boundary: its state lives in
// local storage and nothing on the search backend enforces it.
package quota

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/liliang-cn/doc0/internal/domain"
	"go.uber.org/zap"
)

const maxDuration = time.Duration(math.MaxInt64)

// Store persists the quota record under a fixed key.
// Load returns nil, nil when no record exists.
type Store interface {
	Load(ctx context.Context, key string) (*domain.QuotaRecord, error)
	Save(ctx context.Context, key string, record domain.QuotaRecord) error
}

// Options configures a Tracker.
type Options struct {
	DailyLimit int
	Window     time.Duration
	Key        string
	Now        func() time.Time
	Logger     *zap.Logger
}

// Tracker counts anonymous requests within the current window.
type Tracker struct {
	store  Store
	limit  int
	window time.Duration
	key    string
	now    func() time.Time
	logger *zap.Logger

	mu     sync.Mutex
	record *domain.QuotaRecord
}

// NewTracker creates a tracker backed by store. The record is loaded lazily.
func NewTracker(store Store, opts Options) *Tracker {
	if opts.Window <= 0 {
		opts.Window = 24 * time.Hour
	}
	if opts.Key == "" {
		opts.Key = "requestLimit"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Tracker{
		store:  store,
		limit:  opts.DailyLimit,
		window: opts.Window,
		key:    opts.Key,
		now:    opts.Now,
		logger: opts.Logger,
	}
}

// Limit returns the configured allowance per window.
func (t *Tracker) Limit() int {
	return t.limit
}

// Remaining returns max(0, limit - used) for the current window.
func (t *Tracker) Remaining(ctx context.Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.remaining(t.current(ctx))
}

// Decrement records one request against the current window. It counts even
// when nothing remains; callers check Remaining first.
func (t *Tracker) Decrement(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.current(ctx)
	rec.Count++
	t.save(ctx, *rec)
}

// Window describes the current window.
func (t *Tracker) Window(ctx context.Context) domain.QuotaWindow {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.current(ctx)
	return domain.QuotaWindow{
		Limit:           t.limit,
		Used:            rec.Count,
		Remaining:       t.remaining(rec),
		NextAllowedTime: rec.NextAllowedTime,
	}
}

func (t *Tracker) remaining(rec *domain.QuotaRecord) int {
	return max(0, t.limit-rec.Count)
}

// current returns the record for the active window, loading it on first use
// and rolling it over once nextAllowedTime has passed. Must hold t.mu.
func (t *Tracker) current(ctx context.Context) *domain.QuotaRecord {
	now := t.now()

	if t.record == nil {
		rec, err := t.store.Load(ctx, t.key)
		if err != nil {
			t.logger.Warn("Failed to load quota record, starting a fresh window",
				zap.String("key", t.key), zap.Error(err))
		}
		if rec == nil || err != nil || rec.NextAllowedTime.IsZero() {
			rec = &domain.QuotaRecord{NextAllowedTime: now.Add(t.window)}
			t.save(ctx, *rec)
		}
		t.record = rec
	}

	if !now.Before(t.record.NextAllowedTime) {
		// Advance in whole windows so resets stay aligned to the first window.
		next := t.record.NextAllowedTime
		if elapsed := now.Sub(next); elapsed < maxDuration-t.window {
			next = next.Add((elapsed/t.window + 1) * t.window)
		}
		// Records too old to step from (now.Sub saturates) restart at now.
		if !next.After(now) {
			next = now.Add(t.window)
		}
		t.record = &domain.QuotaRecord{Count: 0, NextAllowedTime: next}
		t.logger.Debug("Quota window rolled over", zap.Time("next_allowed_time", next))
		t.save(ctx, *t.record)
	}

	return t.record
}

func (t *Tracker) save(ctx context.Context, rec domain.QuotaRecord) {
	if err := t.store.Save(ctx, t.key, rec); err != nil {
		t.logger.Warn("Failed to persist quota record", zap.String("key", t.key), zap.Error(err))
	}
}
