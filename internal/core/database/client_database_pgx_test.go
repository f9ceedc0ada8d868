package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Admitly/internal/models"
)

func newMockClient(t *testing.T) (*DatabaseClient, sqlmock.Sqlmock) {
	t.Helper()
	dbh, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })
	return NewDatabaseClientFromDB(dbh), mock
}

func TestConsumeFeatureUsageIncrements(t *testing.T) {
	client, mock := newMockClient(t)
	windowStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count, last_reset FROM feature_usage").
		WithArgs("u1", string(models.FeatureChat)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "last_reset"}).
			AddRow(3, windowStart.Add(2*time.Hour)))
	mock.ExpectExec("UPDATE feature_usage").
		WithArgs("u1", string(models.FeatureChat), 4, windowStart.Add(2*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, allowed, err := client.ConsumeFeatureUsage(context.Background(), "u1", models.FeatureChat, 15, windowStart)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeFeatureUsageDeniesAtLimit(t *testing.T) {
	client, mock := newMockClient(t)
	windowStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count, last_reset FROM feature_usage").
		WithArgs("u1", string(models.FeatureEssay)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "last_reset"}).
			AddRow(10, windowStart.Add(time.Hour)))
	mock.ExpectRollback()

	count, allowed, err := client.ConsumeFeatureUsage(context.Background(), "u1", models.FeatureEssay, 10, windowStart)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 10, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeFeatureUsageResetsStaleWindow(t *testing.T) {
	client, mock := newMockClient(t)
	windowStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	yesterday := windowStart.Add(-24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count, last_reset FROM feature_usage").
		WithArgs("u1", string(models.FeatureChat)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "last_reset"}).
			AddRow(15, yesterday))
	mock.ExpectExec("UPDATE feature_usage").
		WithArgs("u1", string(models.FeatureChat), 1, windowStart).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, allowed, err := client.ConsumeFeatureUsage(context.Background(), "u1", models.FeatureChat, 15, windowStart)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeFeatureUsageCreatesRowLazily(t *testing.T) {
	client, mock := newMockClient(t)
	windowStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count, last_reset FROM feature_usage").
		WithArgs("u2", string(models.FeatureRecommender)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "last_reset"}))
	mock.ExpectExec("INSERT INTO feature_usage").
		WithArgs("u2", string(models.FeatureRecommender), windowStart).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT count, last_reset FROM feature_usage").
		WithArgs("u2", string(models.FeatureRecommender)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "last_reset"}).
			AddRow(0, windowStart))
	mock.ExpectExec("UPDATE feature_usage").
		WithArgs("u2", string(models.FeatureRecommender), 1, windowStart).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, allowed, err := client.ConsumeFeatureUsage(context.Background(), "u2", models.FeatureRecommender, 5, windowStart)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeGuestQuotaFirstUse(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count, first_used FROM guest_quotas").
		WithArgs("g1", string(models.FeatureChat)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "first_used"}))
	mock.ExpectExec("INSERT INTO guest_quotas").
		WithArgs("g1", string(models.FeatureChat), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT count, first_used FROM guest_quotas").
		WithArgs("g1", string(models.FeatureChat)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "first_used"}).
			AddRow(0, now))
	mock.ExpectExec("UPDATE guest_quotas").
		WithArgs("g1", string(models.FeatureChat), 1, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	count, allowed, err := client.ConsumeGuestQuota(context.Background(), "g1", models.FeatureChat, 1, now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeGuestQuotaSeesConcurrentInsert(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Another request inserted and consumed between our miss and our insert;
	// the re-select must observe that row, not assume a fresh one.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count, first_used FROM guest_quotas").
		WithArgs("g1", string(models.FeatureChat)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "first_used"}))
	mock.ExpectExec("INSERT INTO guest_quotas").
		WithArgs("g1", string(models.FeatureChat), now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count, first_used FROM guest_quotas").
		WithArgs("g1", string(models.FeatureChat)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "first_used"}).
			AddRow(1, now.Add(-time.Minute)))
	mock.ExpectRollback()

	count, allowed, err := client.ConsumeGuestQuota(context.Background(), "g1", models.FeatureChat, 1, now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeGuestQuotaDeniesMidWindow(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count, first_used FROM guest_quotas").
		WithArgs("g1", string(models.FeatureChat)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "first_used"}).
			AddRow(1, now.Add(-48*time.Hour)))
	mock.ExpectRollback()

	count, allowed, err := client.ConsumeGuestQuota(context.Background(), "g1", models.FeatureChat, 1, now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmailNotFound(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery("SELECT id, first_name, email").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "email", "password_hash", "stripe_customer_id", "created_at", "updated_at"}))

	user, err := client.GetUserByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMessagesZeroLimitMeansAll(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, conversation_id, role, content, created_at").
		WithArgs("c1", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "created_at"}).
			AddRow("m1", "c1", "user", "hello", now).
			AddRow("m2", "c1", "assistant", "hi", now.Add(time.Second)))

	msgs, err := client.ListMessagesByConversation(context.Background(), "c1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
