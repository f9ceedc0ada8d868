package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/Admitly/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Admitly/internal/api/middlewares"
	"github.com/markdave123-py/Admitly/internal/config"
	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/core/billing"
	"github.com/markdave123-py/Admitly/internal/core/quota"
	"github.com/markdave123-py/Admitly/internal/core/recommend"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(ctx context.Context, cfg *config.Config, db core.DbClient, obj core.ObjectClient, llm core.LLMProvider, limiter *quota.Limiter, recommender *recommend.Recommender, billingSvc *billing.Service) *Server {
	authHandler := handlers.NewAuthHandler(db)
	profileHandler := handlers.NewProfileHandler(db)
	usageHandler := handlers.NewUsageHandler(db, limiter)
	essayHandler := handlers.NewEssayHandler(db, obj, llm, limiter, cfg)
	chatHandler := handlers.NewChatHandler(db, llm, limiter)
	recommendHandler := handlers.NewRecommendHandler(db, recommender, limiter)
	billingHandler := handlers.NewBillingHandler(db, billingSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Guest-ID"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// API routes
	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)
		api.Post("/billing/webhook", billingHandler.Webhook)

		// anonymous trial endpoints, keyed by X-Guest-ID
		api.Group(func(guest chi.Router) {
			guest.Use(appMiddleware.GuestMiddleware)
			guest.Get("/guest/usage", usageHandler.GetUsageGuest)
			guest.Post("/guest/chat", chatHandler.SendMessageGuest)
			guest.Post("/guest/essay", essayHandler.AnalyzeEssayGuest)
			guest.Post("/guest/recommender", recommendHandler.RecommendGuest)
		})

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)

			protected.Get("/profile", profileHandler.GetProfile)
			protected.Put("/profile", profileHandler.UpsertProfile)

			protected.Get("/usage", usageHandler.GetUsage)

			protected.Post("/essay/analyze", essayHandler.AnalyzeEssay)
			protected.Get("/essay/analyses", essayHandler.ListAnalyses)
			protected.Get("/essay/analyses/{id}", essayHandler.GetAnalysis)
			protected.Post("/essay/analyses/{id}/export", essayHandler.ExportReport)

			protected.Post("/chat/message", chatHandler.SendMessage)
			protected.Get("/chat/conversations", chatHandler.ListConversations)
			protected.Get("/chat/conversations/{id}", chatHandler.GetMessages)
			protected.Delete("/chat/conversations/{id}", chatHandler.DeleteConversation)

			protected.Post("/recommender/run", recommendHandler.Recommend)
			protected.Post("/universities/saved", recommendHandler.SaveUniversity)
			protected.Get("/universities/saved", recommendHandler.ListSaved)
			protected.Delete("/universities/saved/{id}", recommendHandler.DeleteSaved)

			protected.Post("/billing/checkout", billingHandler.CreateCheckout)
			protected.Post("/billing/portal", billingHandler.CreatePortal)
			protected.Get("/billing/subscription", billingHandler.GetSubscription)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
