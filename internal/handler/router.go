package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/todoapp/todoapp-go/internal/middleware"
	"github.com/todoapp/todoapp-go/internal/service"
)

// RouterConfig holds the HTTP-level settings of the API.
type RouterConfig struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires every route of the API.
func NewRouter(logger zerolog.Logger, authSvc *service.AuthService, todoSvc *service.TodoService, cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(authSvc)
	todoHandler := NewTodoHandler(todoSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.AuthHeader},
		ExposedHeaders: []string{middleware.AuthHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Post("/users", authHandler.HandleRegister)
		r.Post("/users/login", authHandler.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(authSvc))
		r.Get("/users/me", authHandler.HandleMe)
		r.Delete("/users/me/token", authHandler.HandleLogout)

		r.Post("/todos", todoHandler.HandleCreate)
		r.Get("/todos", todoHandler.HandleList)
		r.Get("/todos/{id}", todoHandler.HandleGet)
		r.Patch("/todos/{id}", todoHandler.HandleUpdate)
		r.Delete("/todos/{id}", todoHandler.HandleDelete)
	})

	return r
}
