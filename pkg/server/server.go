package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "github.com/de-tools/fleet-compliance/pkg/handlers/compliance"
	compliancemiddleware "github.com/de-tools/fleet-compliance/pkg/server/middleware"
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
	"github.com/de-tools/fleet-compliance/pkg/services/secrets"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Compliance compliance.Service
	Secrets    secrets.Store
	Logger     zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) http.Handler {
	h := handlers.NewHandler(config.Dependencies.Compliance, config.Dependencies.Secrets)
	logger := config.Dependencies.Logger

	router := chi.NewRouter()

	router.Use(middleware.RealIP)
	router.Use(compliancemiddleware.Logger(&logger))
	router.Use(compliancemiddleware.Recoverer)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, http.StatusNotFound, "Endpoint not found", "The requested endpoint does not exist")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" is not supported here")
	})

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/apps", h.ListApps)
		r.Get("/compliance", h.GetCompliance)
		r.Get("/compliance/summary", h.GetSummary)
	})
	router.Handle("/metrics", promhttp.Handler())

	return router
}

func NewWebAPI(config Config) *WebAPI {
	logger := config.Dependencies.Logger
	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		logger:          &logger,
		shutdownTimeout: timeout,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           ConfigureRouter(config),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until ctx is cancelled or the process receives SIGINT/SIGTERM, then drains
// in-flight requests.
func (w *WebAPI) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			return w.server.Close()
		}
	}

	return nil
}
