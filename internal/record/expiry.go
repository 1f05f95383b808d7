package record

import (
	"fmt"
	"time"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
)

// DefaultTTL is the validity window applied when callers pass none.
const DefaultTTL = 60 * time.Minute

// Stamp sets generated_at to now and expires_at to now+ttl, both in UTC.
// A negative ttl is rejected. A zero ttl yields a record that is already
// expired when checked.
func Stamp(r *Record, now time.Time, ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("%w: ttl must not be negative", common.ErrInvalidRecord)
	}
	now = now.UTC()
	r.GeneratedAt = now
	r.ExpiresAt = now.Add(ttl)
	return nil
}

// CheckExpiry compares expires_at with now, the time of verification.
// The record is expired once now reaches expires_at, and always when its
// validity window is empty.
func CheckExpiry(r Record, now time.Time) error {
	if !r.ExpiresAt.After(r.GeneratedAt) {
		return fmt.Errorf("%w: empty validity window", common.ErrExpired)
	}
	if !now.Before(r.ExpiresAt) {
		return fmt.Errorf("%w: expired at %s", common.ErrExpired, r.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}
