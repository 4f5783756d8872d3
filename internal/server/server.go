package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/middleware"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	RegisterRoutes(r chi.Router)
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Server struct {
	router  chi.Router
	handler http.Handler
	health  HealthChecker
}

// NewServer builds the router, mounts every module and wraps it in CORS and security headers.
func NewServer(health HealthChecker, allowedOrigins []string, modules ...Registrar) *Server {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecurityHeaders)

	s := &Server{router: router, health: health}
	router.Get("/api/v1/health", s.healthCheck)
	for _, m := range modules {
		m.RegisterRoutes(router)
	}

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", cart.SessionHeader},
		ExposedHeaders:   []string{cart.SessionHeader},
		AllowCredentials: true,
	}).Handler(router)
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

// Start serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[server] shutdown signal received, draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("[server] stopped cleanly")
	return nil
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.health.HealthCheck(r.Context()); err != nil {
		respond(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error",
			"error":  "database connection failed",
		})
		return
	}
	respond(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "schoolpack",
	})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
