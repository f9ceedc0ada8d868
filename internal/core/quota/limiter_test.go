package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Admitly/internal/models"
)

// --- fake store ---

type fakeStore struct {
	usage map[string]*models.FeatureUsage
	guest map[string]*models.GuestQuota

	getErr     error
	consumeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		usage: map[string]*models.FeatureUsage{},
		guest: map[string]*models.GuestQuota{},
	}
}

func key(id string, f models.Feature) string { return id + "|" + string(f) }

func (s *fakeStore) GetFeatureUsage(_ context.Context, userID string, feature models.Feature) (*models.FeatureUsage, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.usage[key(userID, feature)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) ConsumeFeatureUsage(_ context.Context, userID string, feature models.Feature, limit int, windowStart time.Time) (int, bool, error) {
	if s.consumeErr != nil {
		return 0, false, s.consumeErr
	}
	u, ok := s.usage[key(userID, feature)]
	if !ok {
		u = &models.FeatureUsage{UserID: userID, Feature: feature, LastReset: windowStart}
		s.usage[key(userID, feature)] = u
	}
	if u.LastReset.Before(windowStart) {
		u.Count = 0
		u.LastReset = windowStart
	}
	if limit >= 0 && u.Count >= limit {
		return u.Count, false, nil
	}
	u.Count++
	return u.Count, true, nil
}

func (s *fakeStore) GetGuestQuota(_ context.Context, guestID string, feature models.Feature) (*models.GuestQuota, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	g, ok := s.guest[key(guestID, feature)]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (s *fakeStore) ConsumeGuestQuota(_ context.Context, guestID string, feature models.Feature, limit int, now time.Time, window time.Duration) (int, bool, error) {
	if s.consumeErr != nil {
		return 0, false, s.consumeErr
	}
	g, ok := s.guest[key(guestID, feature)]
	if !ok {
		g = &models.GuestQuota{GuestID: guestID, Feature: feature, FirstUsed: now}
		s.guest[key(guestID, feature)] = g
	}
	if now.Sub(g.FirstUsed) >= window {
		g.Count = 0
		g.FirstUsed = now
	}
	if limit >= 0 && g.Count >= limit {
		return g.Count, false, nil
	}
	g.Count++
	return g.Count, true, nil
}

// --- helpers ---

func newTestLimiter(t *testing.T, store Store, at time.Time) *Limiter {
	t.Helper()
	l := NewLimiter(store, "admin@admitly.app")
	l.now = func() time.Time { return at }
	return l
}

var freeUser = Identity{UserID: "u1", Email: "student@example.com", Plan: models.PlanFree}

func TestConsumeIncrementsUnderLimit(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	l := newTestLimiter(t, store, now)

	st := l.Consume(context.Background(), freeUser, models.FeatureRecommender)
	require.True(t, st.CanUse)
	assert.Equal(t, 4, st.Remaining) // free recommender limit is 5
	assert.Equal(t, 1, store.usage[key("u1", models.FeatureRecommender)].Count)
	require.NotNil(t, st.ResetTime)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *st.ResetTime)
}

func TestConsumeDeniedAtLimit(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.usage[key("u1", models.FeatureRecommender)] = &models.FeatureUsage{
		UserID: "u1", Feature: models.FeatureRecommender, Count: 5, LastReset: dayStartUTC(now),
	}
	l := newTestLimiter(t, store, now)

	st := l.Consume(context.Background(), freeUser, models.FeatureRecommender)
	assert.False(t, st.CanUse)
	assert.Equal(t, 0, st.Remaining)
	assert.Equal(t, 5, store.usage[key("u1", models.FeatureRecommender)].Count, "denial must not mutate the counter")
}

func TestStaleWindowResetsToOne(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	// Over the limit, but the counter is from two days ago.
	store.usage[key("u1", models.FeatureEssay)] = &models.FeatureUsage{
		UserID: "u1", Feature: models.FeatureEssay, Count: 99, LastReset: dayStartUTC(now).AddDate(0, 0, -2),
	}
	l := newTestLimiter(t, store, now)

	st := l.Consume(context.Background(), freeUser, models.FeatureEssay)
	require.True(t, st.CanUse)
	assert.Equal(t, 9, st.Remaining) // free essay limit 10, this call counted
	u := store.usage[key("u1", models.FeatureEssay)]
	assert.Equal(t, 1, u.Count)
	assert.Equal(t, dayStartUTC(now), u.LastReset)
}

func TestExampleScenarioAcrossDays(t *testing.T) {
	day1 := time.Date(2026, 3, 14, 23, 50, 0, 0, time.UTC)
	store := newFakeStore()
	store.usage[key("u1", models.FeatureRecommender)] = &models.FeatureUsage{
		UserID: "u1", Feature: models.FeatureRecommender, Count: 4, LastReset: dayStartUTC(day1),
	}
	l := newTestLimiter(t, store, day1)

	st := l.Consume(context.Background(), freeUser, models.FeatureRecommender)
	require.True(t, st.CanUse)
	assert.Equal(t, 0, st.Remaining)
	assert.Equal(t, 5, store.usage[key("u1", models.FeatureRecommender)].Count)

	st = l.Consume(context.Background(), freeUser, models.FeatureRecommender)
	assert.False(t, st.CanUse)
	assert.Equal(t, 0, st.Remaining)

	l.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	st = l.Consume(context.Background(), freeUser, models.FeatureRecommender)
	require.True(t, st.CanUse)
	assert.Equal(t, 4, st.Remaining)
	assert.Equal(t, 1, store.usage[key("u1", models.FeatureRecommender)].Count)
}

func TestCheckDoesNotMutate(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.usage[key("u1", models.FeatureChat)] = &models.FeatureUsage{
		UserID: "u1", Feature: models.FeatureChat, Count: 3, LastReset: dayStartUTC(now),
	}
	l := newTestLimiter(t, store, now)

	st := l.Check(context.Background(), freeUser, models.FeatureChat)
	require.True(t, st.CanUse)
	assert.Equal(t, 12, st.Remaining) // free chat limit 15
	assert.Equal(t, 3, store.usage[key("u1", models.FeatureChat)].Count)
}

func TestCheckTreatsStaleWindowAsFull(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.usage[key("u1", models.FeatureChat)] = &models.FeatureUsage{
		UserID: "u1", Feature: models.FeatureChat, Count: 15, LastReset: dayStartUTC(now).AddDate(0, 0, -1),
	}
	l := newTestLimiter(t, store, now)

	st := l.Check(context.Background(), freeUser, models.FeatureChat)
	assert.True(t, st.CanUse)
	assert.Equal(t, 15, st.Remaining)
}

func TestAdminBypass(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	admin := Identity{UserID: "a1", Email: "Admin@Admitly.app", Plan: models.PlanFree}
	l := newTestLimiter(t, store, now)

	for i := 0; i < 20; i++ {
		st := l.Consume(context.Background(), admin, models.FeatureEssay)
		require.True(t, st.CanUse)
		assert.Equal(t, UnlimitedRemaining, st.Remaining)
		assert.True(t, st.IsAdmin)
	}
	assert.Empty(t, store.usage, "admin bypass must not write counters")
}

func TestUnlimitedPlanFeature(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	pro := Identity{UserID: "p1", Email: "pro@example.com", Plan: models.PlanPro}
	l := newTestLimiter(t, store, now)

	st := l.Consume(context.Background(), pro, models.FeatureChat)
	require.True(t, st.CanUse)
	assert.Equal(t, UnlimitedRemaining, st.Remaining)
	assert.Empty(t, store.usage)
}

func TestFailOpenOnStorageError(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.consumeErr = errors.New("connection refused")
	store.getErr = errors.New("connection refused")
	l := newTestLimiter(t, store, now)

	st := l.Consume(context.Background(), freeUser, models.FeatureEssay)
	assert.True(t, st.CanUse)
	assert.Equal(t, 10, st.Remaining)

	st = l.Check(context.Background(), freeUser, models.FeatureEssay)
	assert.True(t, st.CanUse)

	st = l.ConsumeGuest(context.Background(), "g1", models.FeatureChat)
	assert.True(t, st.CanUse)
}

func TestGuestWeeklyQuota(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	l := newTestLimiter(t, store, now)

	st := l.ConsumeGuest(context.Background(), "g1", models.FeatureEssay)
	require.True(t, st.CanUse)
	assert.Equal(t, 0, st.Remaining)

	st = l.ConsumeGuest(context.Background(), "g1", models.FeatureEssay)
	assert.False(t, st.CanUse)
	require.NotNil(t, st.ResetTime)
	assert.Equal(t, now.Add(GuestWindow), *st.ResetTime)

	// A different browser gets its own allowance.
	st = l.ConsumeGuest(context.Background(), "g2", models.FeatureEssay)
	assert.True(t, st.CanUse)

	// Same guest, 7 elapsed days later: window restarts.
	later := now.Add(GuestWindow)
	l.now = func() time.Time { return later }
	st = l.ConsumeGuest(context.Background(), "g1", models.FeatureEssay)
	require.True(t, st.CanUse)
	assert.Equal(t, 1, store.guest[key("g1", models.FeatureEssay)].Count)
	assert.Equal(t, later, store.guest[key("g1", models.FeatureEssay)].FirstUsed)
}

func TestCheckGuestFreshAndMidWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newFakeStore()
	l := newTestLimiter(t, store, now)

	st := l.CheckGuest(context.Background(), "g1", models.FeatureChat)
	assert.True(t, st.CanUse)
	assert.Equal(t, GuestWeeklyLimit, st.Remaining)
	assert.Nil(t, st.ResetTime)

	store.guest[key("g1", models.FeatureChat)] = &models.GuestQuota{
		GuestID: "g1", Feature: models.FeatureChat, Count: 1, FirstUsed: now.Add(-time.Hour),
	}
	st = l.CheckGuest(context.Background(), "g1", models.FeatureChat)
	assert.False(t, st.CanUse)
	require.NotNil(t, st.ResetTime)
	assert.Equal(t, now.Add(-time.Hour).Add(GuestWindow), *st.ResetTime)
	assert.Equal(t, 1, store.guest[key("g1", models.FeatureChat)].Count)
}
