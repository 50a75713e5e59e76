package activation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CodeStats counts codes by lifecycle state at a point in time.
type CodeStats struct {
	Unused  int `json:"active_codes"`
	Used    int `json:"used_codes"`
	Expired int `json:"expired_codes"`
}

// Total is the number of codes ever issued.
func (s CodeStats) Total() int {
	return s.Unused + s.Used + s.Expired
}

// Registry owns the Issued -> Consumed | Expired lifecycle of activation codes.
type Registry struct {
	store CodeStore
	now   func() time.Time

	consumeMu sync.Mutex
}

// NewRegistry wraps store. A nil now uses time.Now.
func NewRegistry(store CodeStore, now func() time.Time) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("code store required")
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{store: store, now: now}, nil
}

// Issue records a new unused entry. An existing code yields ErrCodeExists.
func (r *Registry) Issue(ctx context.Context, entry CodeEntry) error {
	if !IsValidCode(entry.Code) {
		return fmt.Errorf("malformed activation code %q", entry.Code)
	}
	if entry.ExpiresAt.IsZero() {
		return fmt.Errorf("activation code %s has no expiry", entry.Code)
	}
	entry.Used = false
	entry.UsedAt = nil
	entry.UserEmail = ""
	return r.store.Put(ctx, entry)
}

// Verify reports whether code can still be redeemed. It never mutates state.
func (r *Registry) Verify(ctx context.Context, code string) (CodeEntry, error) {
	entry, err := r.store.Get(ctx, code)
	if err != nil {
		return CodeEntry{}, err
	}
	if err := checkRedeemable(entry, r.now()); err != nil {
		return entry, err
	}
	return entry, nil
}

// Consume redeems code once. Later calls fail with ErrCodeUsed.
func (r *Registry) Consume(ctx context.Context, code, userEmail string) (CodeEntry, error) {
	r.consumeMu.Lock()
	defer r.consumeMu.Unlock()

	now := r.now()
	entry, err := r.store.Get(ctx, code)
	if err != nil {
		return CodeEntry{}, err
	}
	if err := checkRedeemable(entry, now); err != nil {
		return entry, err
	}
	return r.store.MarkUsed(ctx, code, now.UTC(), userEmail)
}

// Stats classifies every issued code. Used takes precedence over expired.
func (r *Registry) Stats(ctx context.Context) (CodeStats, error) {
	entries, err := r.store.List(ctx)
	if err != nil {
		return CodeStats{}, err
	}
	now := r.now()
	var stats CodeStats
	for _, entry := range entries {
		switch {
		case entry.Used:
			stats.Used++
		case entry.Expired(now):
			stats.Expired++
		default:
			stats.Unused++
		}
	}
	return stats, nil
}

func checkRedeemable(entry CodeEntry, now time.Time) error {
	if entry.Used {
		return ErrCodeUsed
	}
	if entry.Expired(now) {
		return ErrCodeExpired
	}
	return nil
}
