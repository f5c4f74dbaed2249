// Package http serves the planning engines as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finplan/internal/log"
	"finplan/internal/middleware/ratelimit"
	"finplan/internal/middleware/security"
	"finplan/internal/middleware/trace"
	"finplan/internal/services"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
	readyTimeout      = 3 * time.Second
)

// ReadyFunc reports whether the server's dependencies are reachable.
type ReadyFunc func(ctx context.Context) error

type Server struct {
	http.Server
	svc     *services.PlanningService
	ready   ReadyFunc
	logger  *log.Logger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

type Option func(*serverOptions)

type serverOptions struct {
	rateLimit ratelimit.Config
	proxies   []string
}

// WithRateLimit sets how many POST requests a client may make per minute.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(o *serverOptions) { o.rateLimit = cfg }
}

// WithTrustedProxies adds networks allowed to set forwarding headers.
func WithTrustedProxies(cidrs ...string) Option {
	return func(o *serverOptions) { o.proxies = append(o.proxies, cidrs...) }
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. A nil ready always reports ready.
func NewServer(addr string, svc *services.PlanningService, ready ReadyFunc, logger *log.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	o := serverOptions{rateLimit: ratelimit.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	detector := security.NewDetector(logger)
	for _, cidr := range o.proxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		svc:     svc,
		ready:   ready,
		logger:  logger.WithComponent(log.ComponentHTTP),
		limiter: ratelimit.NewLimiter(o.rateLimit),
		tracer:  trace.NewMiddleware(detector.ExtractClientIP, logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/amortization", s.handleAmortization)
	mux.HandleFunc("POST /api/projection", s.handleProjection)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	isPost := func(r *http.Request) bool { return r.Method == http.MethodPost }
	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, isPost, writeRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(s.logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s, nil
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request counts for the server's lifetime.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
