// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/Admitly/internal/config"
	"github.com/markdave123-py/Admitly/internal/core/billing"
	db "github.com/markdave123-py/Admitly/internal/core/database"
	"github.com/markdave123-py/Admitly/internal/core/llm"
	objectclient "github.com/markdave123-py/Admitly/internal/core/object-client"
	"github.com/markdave123-py/Admitly/internal/core/quota"
	"github.com/markdave123-py/Admitly/internal/core/recommend"
)

type App struct {
	DBClient     *db.DatabaseClient
	ObjectClient *objectclient.S3Client
	Limiter      *quota.Limiter
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the model, %w", err)
	}

	if err := recommend.SeedCatalogue(appCtx, dbClient, geminiEmbedder); err != nil {
		return nil, fmt.Errorf("couldn't seed the university catalogue, %w", err)
	}

	limiter := quota.NewLimiter(dbClient, cfg.AdminEmail)
	recommender := recommend.NewRecommender(dbClient, geminiEmbedder, llmProvider)
	billingSvc := billing.NewService(dbClient, cfg)

	server := NewServer(context.Background(), cfg, dbClient, objClient, llmProvider, limiter, recommender, billingSvc)

	return &App{
		DBClient:     dbClient.(*db.DatabaseClient),
		ObjectClient: objClient.(*objectclient.S3Client),
		Limiter:      limiter,
		Server:       server,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
