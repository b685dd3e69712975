package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dukerupert/chores/internal/clock"
	"github.com/dukerupert/chores/internal/config"
	"github.com/dukerupert/chores/internal/handler"
	"github.com/dukerupert/chores/internal/household"
	"github.com/dukerupert/chores/internal/middleware"
	"github.com/dukerupert/chores/internal/store"
	"github.com/dukerupert/chores/internal/task"
	ws "github.com/dukerupert/chores/internal/websocket"
)

const (
	joinLimit  = 10
	joinWindow = time.Minute
)

type Server struct {
	db           *sql.DB
	cfg          *config.Config
	hub          *ws.Hub
	authH        *handler.AuthHandler
	householdH   *handler.HouseholdHandler
	taskH        *handler.TaskHandler
	sessionStore *store.SessionStore
	households   *household.Service
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, clk clock.Clock, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	householdStore := store.NewHouseholdStore(db)
	inviteStore := store.NewInviteStore(db)
	taskStore := store.NewTaskStore(db)

	households := household.NewService(householdStore, inviteStore, clk, cfg.InviteTTL, logger.With("component", "household"))
	tasks := task.NewService(taskStore, clk, logger.With("component", "task"))

	handlerLogger := logger.With("component", "handler")
	secure := !cfg.Debug()

	return &Server{
		db:           db,
		cfg:          cfg,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, sessionStore, cfg.SessionTTL, secure, handlerLogger),
		householdH:   handler.NewHouseholdHandler(households, hub, handlerLogger),
		taskH:        handler.NewTaskHandler(tasks, hub, handlerLogger),
		sessionStore: sessionStore,
		households:   households,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.AllowedOrigin()},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.Debug() {
			r.Post("/dev/login", s.authH.DevLogin)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionStore, s.logger))

			r.Get("/me", s.authH.Me)
			r.Post("/logout", s.authH.Logout)

			r.Route("/household", func(r chi.Router) {
				r.Get("/", s.householdH.List)
				r.Post("/", s.householdH.Create)
				r.With(middleware.RateLimit(s.rateLimiter, middleware.UserOrIP, joinLimit, joinWindow)).
					Post("/join", s.householdH.Join)

				r.Route("/{householdID}", func(r chi.Router) {
					r.Use(middleware.RequireMember(s.households, s.logger))

					r.Put("/", s.householdH.Rename)
					r.Post("/leave", s.householdH.Leave)
					r.Get("/invite", s.householdH.Invite)
					r.Get("/ws", ws.HandleWebSocket(s.hub, []string{s.cfg.OriginHost()}, s.logger.With("component", "websocket")))

					r.Route("/task", func(r chi.Router) {
						r.Get("/", s.taskH.List)
						r.Post("/", s.taskH.Create)
						r.Get("/{taskID}", s.taskH.Details)
						r.Put("/{taskID}", s.taskH.Edit)
						r.Post("/{taskID}/complete", s.taskH.Complete)
					})
				})
			})
		})
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"down"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// Cleanup deletes expired sessions and invites and drops stale rate limit
// windows.
func (s *Server) Cleanup(ctx context.Context) {
	if n, err := s.sessionStore.DeleteExpired(ctx); err != nil {
		s.logger.Error("delete expired sessions", "error", err)
	} else if n > 0 {
		s.logger.Info("deleted expired sessions", "count", n)
	}
	if n, err := s.households.DeleteExpiredInvites(ctx); err != nil {
		s.logger.Error("delete expired invites", "error", err)
	} else if n > 0 {
		s.logger.Info("deleted expired invites", "count", n)
	}
	s.rateLimiter.Cleanup()
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (s *Server) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Cleanup(ctx)
		case <-ctx.Done():
			return
		}
	}
}
