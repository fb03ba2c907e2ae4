package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/expensely/ledger/config"
	"github.com/expensely/ledger/internal/db"
	"github.com/expensely/ledger/internal/handlers"
	"github.com/expensely/ledger/internal/logging"
	"github.com/expensely/ledger/internal/mq"
	"github.com/expensely/ledger/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.EventBus
	logger     *slog.Logger
}

// Services groups the use-cases mounted on the router.
type Services struct {
	Ledger     *services.LedgerService
	Users      *services.UserService
	Reports    *services.ReportService
	Categories *services.CategoryService
}

// New opens the database, optionally migrates it, connects the event
// backend and mounts every route.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	if cfg.AutoMigrate {
		if err := db.MigrateUp(cfg); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	dialect, err := db.DialectFor(cfg.Database.Driver)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	backend, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("mq: %w", err)
	}
	var events *mq.EventBus
	var publisher services.EventPublisher
	if backend != nil {
		if events, err = mq.NewEventBus(backend, cfg.MQ.Channel, logger); err != nil {
			_ = backend.Close()
			_ = dbConn.Close()
			return nil, err
		}
		publisher = events
	}

	svcs := Services{
		Ledger:     services.NewLedgerService(dbConn, dialect, publisher, logger),
		Users:      services.NewUserService(dbConn, dialect, services.BcryptHasher{Cost: cfg.BcryptCost}, logger),
		Reports:    services.NewReportService(dbConn, dialect),
		Categories: services.NewCategoryService(dbConn, dialect),
	}
	router := NewRouter(svcs, logger)

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
		events:     events,
		logger:     logger,
	}, nil
}

// NewRouter mounts the API on a fresh chi router.
func NewRouter(svcs Services, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.Middleware(logger),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/", handlers.Root)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, svcs.Users)
	})
	router.Route("/expenses", func(r chi.Router) {
		handlers.ExpenseRouter(r, svcs.Ledger)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, svcs.Ledger)
	})
	router.Route("/reports", func(r chi.Router) {
		handlers.ReportRouter(r, svcs.Reports)
	})
	router.Route("/categories", func(r chi.Router) {
		handlers.CategoryRouter(r, svcs.Categories)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the event backend and
// the database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.events != nil {
		err = errors.Join(err, s.events.Close())
	}
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
