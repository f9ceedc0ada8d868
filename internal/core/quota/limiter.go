// Package quota gates the costed AI features (chat, essay analysis,
// university recommendations) behind per-plan daily limits, with a separate
// one-use-per-week allowance for unauthenticated guests.
//
// Enforcement is deliberately fail-open: if the counter storage is
// unreachable the action is allowed rather than denied, on the grounds that
// refusing a paying user over a transient infra error is worse than handing
// out one extra free use.
package quota

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/markdave123-py/Admitly/internal/models"
)

// GuestWindow is the elapsed-duration window for guest quotas, anchored at
// first use rather than a calendar boundary.
const GuestWindow = 7 * 24 * time.Hour

// Store is the persistence surface the limiter needs; core.DbClient
// satisfies it.
type Store interface {
	GetFeatureUsage(ctx context.Context, userID string, feature models.Feature) (*models.FeatureUsage, error)
	ConsumeFeatureUsage(ctx context.Context, userID string, feature models.Feature, limit int, windowStart time.Time) (count int, allowed bool, err error)
	GetGuestQuota(ctx context.Context, guestID string, feature models.Feature) (*models.GuestQuota, error)
	ConsumeGuestQuota(ctx context.Context, guestID string, feature models.Feature, limit int, now time.Time, window time.Duration) (count int, allowed bool, err error)
}

// Status is the quota verdict reported to the UI.
type Status struct {
	CanUse    bool       `json:"canUse"`
	Remaining int        `json:"remaining"`
	ResetTime *time.Time `json:"resetTime"`
	IsAdmin   bool       `json:"isAdmin,omitempty"`
}

// Identity carries what the limiter needs to know about the caller.
type Identity struct {
	UserID string
	Email  string
	Plan   models.Plan
}

type Limiter struct {
	store      Store
	adminEmail string
	now        func() time.Time
}

func NewLimiter(store Store, adminEmail string) *Limiter {
	return &Limiter{store: store, adminEmail: adminEmail, now: time.Now}
}

// dayStartUTC truncates an instant to the start of its UTC calendar day.
func dayStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// nextResetUTC is always the upcoming UTC midnight, regardless of how long
// the counter has actually been stale.
func nextResetUTC(t time.Time) time.Time {
	return dayStartUTC(t).AddDate(0, 0, 1)
}

func (l *Limiter) isAdmin(email string) bool {
	return l.adminEmail != "" && strings.EqualFold(email, l.adminEmail)
}

// Check reports the current quota state without consuming a use. Safe to
// call before the user commits to an action.
func (l *Limiter) Check(ctx context.Context, id Identity, feature models.Feature) Status {
	now := l.now()
	reset := nextResetUTC(now)

	if l.isAdmin(id.Email) {
		return Status{CanUse: true, Remaining: UnlimitedRemaining, ResetTime: &reset, IsAdmin: true}
	}

	limit := LimitFor(id.Plan, feature)
	if limit == Unlimited {
		return Status{CanUse: true, Remaining: UnlimitedRemaining, ResetTime: &reset}
	}

	usage, err := l.store.GetFeatureUsage(ctx, id.UserID, feature)
	if err != nil {
		log.Printf("quota: read failed for user=%s feature=%s, allowing: %v", id.UserID, feature, err)
		return Status{CanUse: true, Remaining: limit, ResetTime: &reset}
	}

	remaining := limit
	if usage != nil && !usage.LastReset.Before(dayStartUTC(now)) {
		remaining = limit - usage.Count
		if remaining < 0 {
			remaining = 0
		}
	}
	return Status{CanUse: remaining > 0, Remaining: remaining, ResetTime: &reset}
}

// Consume evaluates the quota and, if a use is available, records it.
// A counter whose window has rolled over restarts at 1, counting this call.
func (l *Limiter) Consume(ctx context.Context, id Identity, feature models.Feature) Status {
	now := l.now()
	reset := nextResetUTC(now)

	if l.isAdmin(id.Email) {
		return Status{CanUse: true, Remaining: UnlimitedRemaining, ResetTime: &reset, IsAdmin: true}
	}

	limit := LimitFor(id.Plan, feature)
	if limit == Unlimited {
		return Status{CanUse: true, Remaining: UnlimitedRemaining, ResetTime: &reset}
	}

	count, allowed, err := l.store.ConsumeFeatureUsage(ctx, id.UserID, feature, limit, dayStartUTC(now))
	if err != nil {
		log.Printf("quota: consume failed for user=%s feature=%s, allowing: %v", id.UserID, feature, err)
		return Status{CanUse: true, Remaining: limit, ResetTime: &reset}
	}
	if !allowed {
		return Status{CanUse: false, Remaining: 0, ResetTime: &reset}
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Status{CanUse: true, Remaining: remaining, ResetTime: &reset}
}

// CheckGuest reports the guest quota state without consuming a use.
// ResetTime is nil until the guest has used the feature at least once.
func (l *Limiter) CheckGuest(ctx context.Context, guestID string, feature models.Feature) Status {
	now := l.now()

	q, err := l.store.GetGuestQuota(ctx, guestID, feature)
	if err != nil {
		log.Printf("quota: guest read failed for guest=%s feature=%s, allowing: %v", guestID, feature, err)
		return Status{CanUse: true, Remaining: GuestWeeklyLimit}
	}
	if q == nil || now.Sub(q.FirstUsed) >= GuestWindow {
		return Status{CanUse: true, Remaining: GuestWeeklyLimit}
	}

	reset := q.FirstUsed.Add(GuestWindow)
	remaining := GuestWeeklyLimit - q.Count
	if remaining < 0 {
		remaining = 0
	}
	return Status{CanUse: remaining > 0, Remaining: remaining, ResetTime: &reset}
}

// ConsumeGuest records one guest use of a feature. The window restarts 7
// elapsed days after first use.
func (l *Limiter) ConsumeGuest(ctx context.Context, guestID string, feature models.Feature) Status {
	now := l.now()

	count, allowed, err := l.store.ConsumeGuestQuota(ctx, guestID, feature, GuestWeeklyLimit, now, GuestWindow)
	if err != nil {
		log.Printf("quota: guest consume failed for guest=%s feature=%s, allowing: %v", guestID, feature, err)
		return Status{CanUse: true, Remaining: GuestWeeklyLimit}
	}

	reset := now.Add(GuestWindow)
	if !allowed {
		// Denied means the row exists; report when its window actually ends.
		if q, err := l.store.GetGuestQuota(ctx, guestID, feature); err == nil && q != nil {
			reset = q.FirstUsed.Add(GuestWindow)
		}
		return Status{CanUse: false, Remaining: 0, ResetTime: &reset}
	}
	remaining := GuestWeeklyLimit - count
	if remaining < 0 {
		remaining = 0
	}
	return Status{CanUse: true, Remaining: remaining, ResetTime: &reset}
}
