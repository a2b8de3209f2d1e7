package observability

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server exposes /metrics and /healthz. It registers the package metrics and
// the tracer provider on first start and tears the provider down on stop.
type Server struct {
	addr string

	srv     *http.Server
	mu      sync.Mutex
	started bool
}

func NewServer(addr string) *Server {
	if addr == "" {
		addr = ":2112"
	}
	return &Server{addr: addr}
}

func (s *Server) Start(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	setup()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.srv = &http.Server{Addr: s.addr, Handler: mux}
	s.started = true

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	srv := s.srv
	s.mu.Unlock()

	var stopErr error
	if srv != nil {
		stopErr = srv.Shutdown(ctx)
	}
	if tracerProvider != nil {
		stopErr = errors.Join(stopErr, tracerProvider.Shutdown(ctx))
	}
	return stopErr
}
