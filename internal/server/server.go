package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tomlord1122/todo-app/internal/config"
	"github.com/Tomlord1122/todo-app/internal/metrics"
	"github.com/Tomlord1122/todo-app/internal/service"
)

// HealthChecker reports the status of a backing service. A "status" of
// "down" fails the /health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// Deps are the collaborators the HTTP layer needs. Database, Sessions,
// Recorder, Gatherer and LoginLimiter may be nil.
type Deps struct {
	Todos        service.TodoService
	Auth         service.AuthService
	Database     HealthChecker
	Sessions     HealthChecker
	Recorder     metrics.Recorder
	Gatherer     prometheus.Gatherer
	LoginLimiter *LoginRateLimiter
}

type Server struct {
	todos    service.TodoService
	auth     service.AuthService
	db       HealthChecker
	sessions HealthChecker
	metrics  metrics.Recorder
	gatherer prometheus.Gatherer
	limiter  *LoginRateLimiter

	corsOrigins  []string
	cookieSecure bool
	sessionTTL   time.Duration
}

func New(cfg *config.Config, deps Deps) *Server {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Server{
		todos:        deps.Todos,
		auth:         deps.Auth,
		db:           deps.Database,
		sessions:     deps.Sessions,
		metrics:      recorder,
		gatherer:     deps.Gatherer,
		limiter:      deps.LoginLimiter,
		corsOrigins:  cfg.CORSAllowedOrigins,
		cookieSecure: cfg.CookieSecure,
		sessionTTL:   cfg.SessionTTL,
	}
}

func NewServer(cfg *config.Config, deps Deps) *http.Server {
	appServer := New(cfg, deps)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
