package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

// Server is the runcoach JSON API
type Server struct {
	addr     string
	handler  *Handler
	metrics  *Metrics
	registry *prometheus.Registry

	httpServer *http.Server
}

// NewServer wires the API routes, middleware and a dedicated metrics registry
func NewServer(addr string, services Services) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetrics("runcoach", "api", reg)

	return &Server{
		addr:     addr,
		handler:  NewHandler(services, metrics),
		metrics:  metrics,
		registry: reg,
	}
}

// Router builds the HTTP router
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	s.handler.SetupRoutes(r)
	r.HandleFunc("/healthz", handleHealth).Methods("GET").Name("healthz")
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET").Name("metrics")

	r.Use(PanicRecovery(s.metrics))
	r.Use(AssignRequestID())
	r.Use(LogRequest())
	r.Use(RequestMetrics(s.metrics))

	return r
}

// Serve listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context) error {
	s.httpServer = &http.Server{
		Handler:      s.Router(),
		Addr:         s.addr,
		WriteTimeout: 2 * time.Minute, // plan generation waits on the model
		ReadTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof(" > server listening on: [%s]", s.addr)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.metrics.GaugeLifeSignal.Set(1)
	defer s.metrics.GaugeLifeSignal.Set(0)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Debug("graceful shutdown initiated ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server shut down")
	return nil
}
