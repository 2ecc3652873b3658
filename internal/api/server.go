// Package api exposes the shell and the temperature history over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fishtank-aas/internal/aas"
	"fishtank-aas/internal/metrics"
	"fishtank-aas/internal/services"
)

// ShellService is the part of services.ShellService the handlers use.
type ShellService interface {
	Get(ctx context.Context) (*aas.Shell, error)
	Save(ctx context.Context, shell *aas.Shell) (bool, error)
	VariableProperties(ctx context.Context) ([]services.PropertyView, error)
	ConstantProperties(ctx context.Context) ([]services.PropertyView, error)
	Submodel(ctx context.Context, idShort string) (*aas.Submodel, error)
	UpdateProperty(ctx context.Context, idShort, value string) (services.PropertyView, error)
}

// TemperatureService lists the stored temperature history.
type TemperatureService interface {
	Recent(ctx context.Context) ([]services.TemperatureView, error)
}

// Transport reports whether the broker connection is up.
type Transport interface {
	IsConnected() bool
}

// Config holds HTTP server configuration
type Config struct {
	Addr        string
	CORSOrigins []string
}

// Server serves the HTTP surface.
type Server struct {
	shells       ShellService
	temperatures TemperatureService
	transport    Transport
	gatherer     prometheus.Gatherer

	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	srv *http.Server
}

// NewServer creates the HTTP server. transport and gatherer may be nil.
func NewServer(
	config Config,
	shells ShellService,
	temperatures TemperatureService,
	transport Transport,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Server {
	s := &Server{
		shells:       shells,
		temperatures: temperatures,
		transport:    transport,
		gatherer:     gatherer,
		config:       config,
		logger:       logger,
		metrics:      m,
	}
	s.srv = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /aas", s.handleGetShell)
	mux.HandleFunc("POST /aas", s.handleSaveShell)
	mux.HandleFunc("GET /aas/properties/variable", s.handleVariableProperties)
	mux.HandleFunc("GET /aas/properties/constant", s.handleConstantProperties)
	mux.HandleFunc("PUT /aas/properties/{id_short}", s.handleUpdateProperty)
	mux.HandleFunc("GET /aas/submodels/{id_short}", s.handleGetSubmodel)
	mux.HandleFunc("GET /temperatures", s.handleTemperatures)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return s.withRequestID(s.withLogging(s.withCORS(mux)))
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", slog.String("addr", s.config.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
