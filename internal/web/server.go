// Package web serves the recipe catalog to browsers and exposes the scaling
// sessions of open recipe pages through a JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/scaling"
	"github.com/Veraticus/saucier/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	janitorInterval   = time.Minute

	// DefaultMaxSessions caps live scaling sessions when Options leaves it unset.
	DefaultMaxSessions = 1000
)

// Catalog is what the server needs from the recipe storage.
type Catalog interface {
	service.RecipeFinder
	SearchRecipes(ctx context.Context, filter service.RecipeFilter) ([]model.Recipe, error)
}

// Options configures a Server.
type Options struct {
	Logger      *slog.Logger
	Addr        string
	FactorLabel string
	CORSOrigins []string
	RateLimit   int
	MaxSessions int
	SessionTTL  time.Duration
	ShowFactor  bool
}

// Server is the saucier HTTP server.
type Server struct {
	catalog  Catalog
	sessions *SessionStore
	pages    *template.Template
	log      *slog.Logger
	opts     Options
}

// New creates a server backed by catalog.
func New(catalog Catalog, opts Options) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("web: catalog is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 120
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	pages, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	scalingOpts := []scaling.Option{scaling.WithLogger(opts.Logger)}
	if opts.ShowFactor {
		scalingOpts = append(scalingOpts, scaling.WithFactorIngredient(opts.FactorLabel))
	}

	return &Server{
		catalog:  catalog,
		sessions: NewSessionStore(opts.SessionTTL, opts.MaxSessions, scalingOpts...),
		pages:    pages,
		log:      opts.Logger,
		opts:     opts,
	}, nil
}

// Sessions returns the scaling session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Handler returns the router serving pages and the API. Recipe pages and the
// API share one per-IP request budget since both open scaling sessions.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logRequests)
	r.Use(chimiddleware.Recoverer)

	limit := httprate.Limit(
		s.opts.RateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)

	r.Get("/", s.handleCatalogPage)
	r.NotFound(s.handleNotFound)

	r.Route("/recipe", func(r chi.Router) {
		r.Use(limit)
		r.Get("/", s.handleRecipePage)
		r.Post("/quantity", s.handleQuantityForm)
		r.Post("/unit", s.handleUnitForm)
		r.Post("/reset", s.handleResetForm)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		r.Use(limit)

		r.Get("/recipes", s.handleListRecipes)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/reset", s.handleResetSession)
			r.Put("/ingredients/{index}/quantity", s.handleSetQuantity)
			r.Put("/ingredients/{index}/unit", s.handleSetUnit)
		})
	})

	return r
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.sessions.RunJanitor(janitorCtx, janitorInterval)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Serving recipes", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
