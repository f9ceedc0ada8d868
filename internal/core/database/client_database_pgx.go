package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Admitly/internal/config"
	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// NewDatabaseClientFromDB wraps an existing handle; used by tests.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.FirstName, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, COALESCE(stripe_customer_id, ''), created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.StripeCustomerID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, COALESCE(stripe_customer_id, ''), created_at, updated_at
		FROM users WHERE id = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.StripeCustomerID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	const q = `
		UPDATE users SET stripe_customer_id = $2, updated_at = now() WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, userID, customerID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// Profiles

func (c *DatabaseClient) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	const q = `
		SELECT user_id, full_name, phone, country, grad_year, preferences, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`
	var (
		p     models.Profile
		prefs []byte
	)
	err := c.db.QueryRowContext(ctx, q, userID).Scan(
		&p.UserID, &p.FullName, &p.Phone, &p.Country, &p.GradYear, &prefs, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
	}
	return &p, nil
}

func (c *DatabaseClient) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	if profile == nil {
		return errors.New("nil profile")
	}
	prefs, err := json.Marshal(profile.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	const q = `
		INSERT INTO profiles (user_id, full_name, phone, country, grad_year, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			country = EXCLUDED.country,
			grad_year = EXCLUDED.grad_year,
			preferences = EXCLUDED.preferences,
			updated_at = now()
	`
	_, err = c.db.ExecContext(ctx, q,
		profile.UserID, profile.FullName, profile.Phone, profile.Country, profile.GradYear, prefs)
	return err
}

// Usage counters

func (c *DatabaseClient) GetFeatureUsage(ctx context.Context, userID string, feature models.Feature) (*models.FeatureUsage, error) {
	const q = `
		SELECT user_id, feature, count, last_reset, updated_at
		FROM feature_usage WHERE user_id = $1 AND feature = $2
	`
	var u models.FeatureUsage
	err := c.db.QueryRowContext(ctx, q, userID, feature).Scan(
		&u.UserID, &u.Feature, &u.Count, &u.LastReset, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ConsumeFeatureUsage runs the whole evaluate-reset-increment sequence in one
// serializable transaction with a row lock, so two concurrent requests from
// the same user cannot both pass at count = limit-1.
func (c *DatabaseClient) ConsumeFeatureUsage(ctx context.Context, userID string, feature models.Feature, limit int, windowStart time.Time) (int, bool, error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	count, lastReset, err := getUsageForUpdate(ctx, tx, userID, feature)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if err := insertZeroUsage(ctx, tx, userID, feature, windowStart); err != nil {
				return 0, false, err
			}
			count, lastReset, err = getUsageForUpdate(ctx, tx, userID, feature)
		}
		if err != nil {
			return 0, false, err
		}
	}

	if lastReset.Before(windowStart) {
		count = 0
		lastReset = windowStart
	}

	if limit >= 0 && count >= limit {
		// Over quota within the current window: leave the row untouched.
		return count, false, nil
	}

	count++
	const q = `
		UPDATE feature_usage
		SET count = $3, last_reset = $4, updated_at = now()
		WHERE user_id = $1 AND feature = $2
	`
	if _, err := tx.ExecContext(ctx, q, userID, feature, count, lastReset); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func getUsageForUpdate(ctx context.Context, tx *sql.Tx, userID string, feature models.Feature) (int, time.Time, error) {
	var (
		count     int
		lastReset time.Time
	)
	err := tx.QueryRowContext(ctx, `
		SELECT count, last_reset FROM feature_usage
		WHERE user_id = $1 AND feature = $2
		FOR UPDATE
	`, userID, feature).Scan(&count, &lastReset)
	return count, lastReset, err
}

func insertZeroUsage(ctx context.Context, tx *sql.Tx, userID string, feature models.Feature, windowStart time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO feature_usage (user_id, feature, count, last_reset, updated_at)
		VALUES ($1, $2, 0, $3, now())
		ON CONFLICT (user_id, feature) DO NOTHING
	`, userID, feature, windowStart)
	return err
}

// Guest quotas

func (c *DatabaseClient) GetGuestQuota(ctx context.Context, guestID string, feature models.Feature) (*models.GuestQuota, error) {
	const q = `
		SELECT guest_id, feature, count, first_used
		FROM guest_quotas WHERE guest_id = $1 AND feature = $2
	`
	var g models.GuestQuota
	err := c.db.QueryRowContext(ctx, q, guestID, feature).Scan(
		&g.GuestID, &g.Feature, &g.Count, &g.FirstUsed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ConsumeGuestQuota mirrors ConsumeFeatureUsage for anonymous visitors, with
// an elapsed-duration window anchored at first use instead of a calendar day.
func (c *DatabaseClient) ConsumeGuestQuota(ctx context.Context, guestID string, feature models.Feature, limit int, now time.Time, window time.Duration) (int, bool, error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	count, firstUsed, err := getGuestQuotaForUpdate(ctx, tx, guestID, feature)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if err := insertZeroGuestQuota(ctx, tx, guestID, feature, now); err != nil {
				return 0, false, err
			}
			count, firstUsed, err = getGuestQuotaForUpdate(ctx, tx, guestID, feature)
		}
		if err != nil {
			return 0, false, err
		}
	}

	if now.Sub(firstUsed) >= window {
		count = 0
		firstUsed = now
	}

	if limit >= 0 && count >= limit {
		return count, false, nil
	}

	count++
	const q = `
		UPDATE guest_quotas
		SET count = $3, first_used = $4
		WHERE guest_id = $1 AND feature = $2
	`
	if _, err := tx.ExecContext(ctx, q, guestID, feature, count, firstUsed); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func getGuestQuotaForUpdate(ctx context.Context, tx *sql.Tx, guestID string, feature models.Feature) (int, time.Time, error) {
	var (
		count     int
		firstUsed time.Time
	)
	err := tx.QueryRowContext(ctx, `
		SELECT count, first_used FROM guest_quotas
		WHERE guest_id = $1 AND feature = $2
		FOR UPDATE
	`, guestID, feature).Scan(&count, &firstUsed)
	return count, firstUsed, err
}

func insertZeroGuestQuota(ctx context.Context, tx *sql.Tx, guestID string, feature models.Feature, firstUsed time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO guest_quotas (guest_id, feature, count, first_used)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (guest_id, feature) DO NOTHING
	`, guestID, feature, firstUsed)
	return err
}

// Subscriptions

func (c *DatabaseClient) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const q = `
		SELECT user_id, plan, status, COALESCE(stripe_subscription_id, ''), current_period_end, updated_at
		FROM subscriptions WHERE user_id = $1
	`
	var s models.Subscription
	err := c.db.QueryRowContext(ctx, q, userID).Scan(
		&s.UserID, &s.Plan, &s.Status, &s.StripeSubscriptionID, &s.CurrentPeriodEnd, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *DatabaseClient) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub == nil {
		return errors.New("nil subscription")
	}
	const q = `
		INSERT INTO subscriptions (user_id, plan, status, stripe_subscription_id, current_period_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = now()
	`
	_, err := c.db.ExecContext(ctx, q,
		sub.UserID, sub.Plan, sub.Status, sub.StripeSubscriptionID, sub.CurrentPeriodEnd)
	return err
}

// Conversations

func (c *DatabaseClient) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	if conv == nil {
		return errors.New("nil conversation")
	}
	const q = `
		INSERT INTO chat_conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, COALESCE($4, now()), COALESCE($5, now()))
	`
	_, err := c.db.ExecContext(ctx, q, conv.ID, conv.UserID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	const q = `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_conversations WHERE id = $1
	`
	var conv models.Conversation
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *DatabaseClient) ListConversationsByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	const q = `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteConversation(ctx context.Context, id string) error {
	const q = `
		DELETE FROM chat_conversations WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("conversation not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) AddChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg == nil {
		return errors.New("nil message")
	}
	const q = `
		INSERT INTO chat_messages (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`
	if _, err := c.db.ExecContext(ctx, q, msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, `UPDATE chat_conversations SET updated_at = now() WHERE id = $1`, msg.ConversationID)
	return err
}

func (c *DatabaseClient) ListMessagesByConversation(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error) {
	const q = `
		SELECT id, conversation_id, role, content, created_at
		FROM (
			SELECT id, conversation_id, role, content, created_at
			FROM chat_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT NULLIF($2, 0)
		) recent
		ORDER BY created_at ASC
	`
	rows, err := c.db.QueryContext(ctx, q, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Essay analyses

func (c *DatabaseClient) CreateEssayAnalysis(ctx context.Context, analysis *models.EssayAnalysis) error {
	if analysis == nil {
		return errors.New("nil analysis")
	}
	highlights, err := json.Marshal(analysis.Highlights)
	if err != nil {
		return fmt.Errorf("encode highlights: %w", err)
	}
	ratings, err := json.Marshal(analysis.Ratings)
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	const q = `
		INSERT INTO essay_analyses (id, user_id, essay_text, feedback, highlights, ratings, report_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
	`
	_, err = c.db.ExecContext(ctx, q,
		analysis.ID, analysis.UserID, analysis.EssayText, analysis.Feedback, highlights, ratings, analysis.ReportURL, analysis.CreatedAt)
	return err
}

func (c *DatabaseClient) GetEssayAnalysis(ctx context.Context, id string) (*models.EssayAnalysis, error) {
	const q = `
		SELECT id, user_id, essay_text, feedback, highlights, ratings, COALESCE(report_url, ''), created_at
		FROM essay_analyses WHERE id = $1
	`
	var (
		a          models.EssayAnalysis
		highlights []byte
		ratings    []byte
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.UserID, &a.EssayText, &a.Feedback, &highlights, &ratings, &a.ReportURL, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := decodeAnalysisJSON(&a, highlights, ratings); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *DatabaseClient) ListEssayAnalysesByUser(ctx context.Context, userID string) ([]models.EssayAnalysis, error) {
	const q = `
		SELECT id, user_id, essay_text, feedback, highlights, ratings, COALESCE(report_url, ''), created_at
		FROM essay_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EssayAnalysis
	for rows.Next() {
		var (
			a          models.EssayAnalysis
			highlights []byte
			ratings    []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.EssayText, &a.Feedback, &highlights, &ratings, &a.ReportURL, &a.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeAnalysisJSON(&a, highlights, ratings); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func decodeAnalysisJSON(a *models.EssayAnalysis, highlights, ratings []byte) error {
	if len(highlights) > 0 {
		if err := json.Unmarshal(highlights, &a.Highlights); err != nil {
			return fmt.Errorf("decode highlights: %w", err)
		}
	}
	if len(ratings) > 0 {
		if err := json.Unmarshal(ratings, &a.Ratings); err != nil {
			return fmt.Errorf("decode ratings: %w", err)
		}
	}
	return nil
}

func (c *DatabaseClient) SetEssayReportURL(ctx context.Context, id, url string) error {
	const q = `
		UPDATE essay_analyses SET report_url = $2 WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, url)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("analysis not found: %s", id)
	}
	return nil
}

// Universities

func (c *DatabaseClient) CountUniversities(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM universities`).Scan(&n)
	return n, err
}

// InsertUniversities inserts catalogue rows in a single transaction.
func (c *DatabaseClient) InsertUniversities(ctx context.Context, universities []models.University) error {
	if len(universities) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO universities (id, name, country, tuition_usd, description, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range universities {
		u := &universities[i]
		if _, err := stmt.ExecContext(ctx,
			u.ID, u.Name, u.Country, u.TuitionUSD, u.Description, pgvector.NewVector(u.Embedding),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SearchUniversities finds the top-k catalogue rows nearest to a profile
// embedding, optionally capped by tuition budget.
func (c *DatabaseClient) SearchUniversities(ctx context.Context, queryVec []float32, maxTuition, limit int) ([]models.University, error) {
	const q = `
		SELECT id, name, country, tuition_usd, description, embedding
		FROM universities
		WHERE ($2 <= 0 OR tuition_usd <= $2)
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, vec, maxTuition, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.University
	for rows.Next() {
		var (
			u   models.University
			emb pgvector.Vector
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Country, &u.TuitionUSD, &u.Description, &emb); err != nil {
			return nil, err
		}
		u.Embedding = emb.Slice()
		out = append(out, u)
	}
	return out, rows.Err()
}

// Saved universities

func (c *DatabaseClient) SaveUniversity(ctx context.Context, saved *models.SavedUniversity) error {
	if saved == nil {
		return errors.New("nil saved university")
	}
	const q = `
		INSERT INTO saved_universities (id, user_id, university_id, name, note, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		ON CONFLICT (user_id, university_id) DO UPDATE SET note = EXCLUDED.note
	`
	_, err := c.db.ExecContext(ctx, q,
		saved.ID, saved.UserID, saved.UniversityID, saved.Name, saved.Note, saved.CreatedAt)
	return err
}

func (c *DatabaseClient) ListSavedUniversities(ctx context.Context, userID string) ([]models.SavedUniversity, error) {
	const q = `
		SELECT id, user_id, university_id, name, note, created_at
		FROM saved_universities
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SavedUniversity
	for rows.Next() {
		var s models.SavedUniversity
		if err := rows.Scan(&s.ID, &s.UserID, &s.UniversityID, &s.Name, &s.Note, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteSavedUniversity(ctx context.Context, userID, id string) error {
	const q = `
		DELETE FROM saved_universities WHERE id = $1 AND user_id = $2
	`
	res, err := c.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("saved university not found: %s", id)
	}
	return nil
}
