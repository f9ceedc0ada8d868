package core

import (
	"context"
	"io"
	"time"

	"github.com/markdave123-py/Admitly/internal/models"
)

// DbClient defines all persistence operations the handlers and services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error

	// GetFeatureUsage returns nil (no error) when no counter row exists yet.
	GetFeatureUsage(ctx context.Context, userID string, feature models.Feature) (*models.FeatureUsage, error)
	// ConsumeFeatureUsage atomically evaluates and increments a counter.
	// A counter whose last_reset predates windowStart is reset before the
	// limit check; the row is created lazily. limit < 0 means unlimited.
	// Returns the post-increment count and whether the call was admitted.
	ConsumeFeatureUsage(ctx context.Context, userID string, feature models.Feature, limit int, windowStart time.Time) (count int, allowed bool, err error)

	GetGuestQuota(ctx context.Context, guestID string, feature models.Feature) (*models.GuestQuota, error)
	ConsumeGuestQuota(ctx context.Context, guestID string, feature models.Feature, limit int, now time.Time, window time.Duration) (count int, allowed bool, err error)

	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error

	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversationsByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	AddChatMessage(ctx context.Context, msg *models.ChatMessage) error
	// ListMessagesByConversation returns messages oldest first, keeping only
	// the most recent limit entries; limit <= 0 returns everything.
	ListMessagesByConversation(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error)

	CreateEssayAnalysis(ctx context.Context, analysis *models.EssayAnalysis) error
	GetEssayAnalysis(ctx context.Context, id string) (*models.EssayAnalysis, error)
	ListEssayAnalysesByUser(ctx context.Context, userID string) ([]models.EssayAnalysis, error)
	SetEssayReportURL(ctx context.Context, id, url string) error

	CountUniversities(ctx context.Context) (int, error)
	InsertUniversities(ctx context.Context, universities []models.University) error
	SearchUniversities(ctx context.Context, queryVec []float32, maxTuition, limit int) ([]models.University, error)

	SaveUniversity(ctx context.Context, saved *models.SavedUniversity) error
	ListSavedUniversities(ctx context.Context, userID string) ([]models.SavedUniversity, error)
	DeleteSavedUniversity(ctx context.Context, userID, id string) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
