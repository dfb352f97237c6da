package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tomlord1122/todo-app/internal/metrics"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.homeHandler)
	r.Get("/health", s.healthHandler)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	r.Post("/register", s.registerHandler)
	if s.limiter != nil {
		r.With(s.limiter.Middleware).Post("/login", s.loginHandler)
	} else {
		r.Post("/login", s.loginHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/logout", s.logoutHandler)
		r.Get("/me", s.meHandler)

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", s.listTodosHandler)
			r.Post("/", s.createTodoHandler)
			r.Post("/toggle-all", s.toggleAllHandler)
			r.Delete("/clear-completed", s.clearCompletedHandler)
			r.Get("/{id}", s.getTodoHandler)
			r.Patch("/{id}", s.updateTodoHandler)
			r.Delete("/{id}", s.deleteTodoHandler)
		})
	})

	return r
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	redirectToTodos(w, r)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{"status": "up"}

	checks := []struct {
		name    string
		checker HealthChecker
	}{
		{"database", s.db},
		{"redis", s.sessions},
	}
	for _, c := range checks {
		if c.checker == nil {
			continue
		}
		stats := c.checker.Health(r.Context())
		if stats["status"] == "down" {
			status = http.StatusServiceUnavailable
			body["status"] = "down"
		}
		body[c.name] = stats
	}

	respondWithJSON(w, status, body)
}
