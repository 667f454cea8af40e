package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/codetrail-lms/apiserver/config"
	"github.com/codetrail-lms/apiserver/internal/cache"
	"github.com/codetrail-lms/apiserver/internal/db"
	"github.com/codetrail-lms/apiserver/internal/handlers"
	"github.com/codetrail-lms/apiserver/internal/mq"
	"github.com/codetrail-lms/apiserver/internal/runner"
	"github.com/codetrail-lms/apiserver/internal/services"
	"github.com/codetrail-lms/apiserver/internal/storage"
	"github.com/codetrail-lms/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router together with the optional
// infrastructure clients it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *mq.Bus
	cache      *cache.ProgressCache
}

// New constructs a Server with basic middleware and defaults. The message
// broker, object storage and Redis cache are wired only when configured;
// the judge works without any of them.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus, err := newBus(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	archive, err := newArchiveStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	progressCache, err := newProgressCache(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	problemRepo := store.NewProblemRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)
	submissionRepo := store.NewSubmissionRepository(dbConn)
	progressRepo := store.NewProgressRepository(dbConn)
	kitRepo := store.NewKitRepository(dbConn)

	pistonRunner := runner.NewPistonRunner(cfg.Runner)

	problemService := services.NewProblemService(problemRepo, archive)
	userService := services.NewUserService(userRepo)
	submissionService := services.NewSubmissionService(
		submissionRepo, problemRepo, progressRepo, pistonRunner, bus, progressCache,
	)
	progressService := services.NewProgressService(
		progressRepo, problemRepo, kitRepo, progressCache,
	)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/problems", func(r chi.Router) {
		handlers.ProblemRouter(r, problemService, userService, authMiddleware)
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/judge", func(r chi.Router) {
		handlers.JudgeRouter(r, submissionService, progressService, authMiddleware)
	})
	router.Route("/kits", func(r chi.Router) {
		handlers.KitRouter(r, kitRepo, progressService, userService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		cache:      progressCache,
	}, nil
}

func newBus(ctx context.Context, cfg config.Config) (*mq.Bus, error) {
	switch cfg.MQ.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return mq.NewBus(client, cfg.MQ.JudgedTopic), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return mq.NewBus(client, cfg.MQ.JudgedTopic), nil
	default:
		return nil, fmt.Errorf("unknown MQ backend %q", cfg.MQ.Backend)
	}
}

func newArchiveStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.Storage.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("connect gcs: %w", err)
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	archive := storage.NewStorage(backend)
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", archive.Bucket(), err)
	}
	return archive, nil
}

func newProgressCache(ctx context.Context, cfg config.Config) (*cache.ProgressCache, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	progressCache, err := cache.NewProgressCache(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return progressCache, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			log.Printf("close message bus: %v", err)
		}
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
