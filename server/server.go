package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/authgate/config"
	"github.com/kbukum/authgate/logger"
	"github.com/kbukum/authgate/observability"
	"github.com/kbukum/authgate/server/endpoint"
	"github.com/kbukum/authgate/server/middleware"
)

// Server is the API server: a Gin engine mounted on a ServeMux, wrapped by
// server-wide middleware and served over h2c, or TLS when configured.
type Server struct {
	httpServer  *http.Server
	engine      *gin.Engine
	mux         *http.ServeMux
	middlewares []middleware.Middleware
	tlsConfig   *tls.Config
	config      Config
	log         *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server. cfg is expected to have passed Validate; a TLS
// certificate that cannot be loaded is an error.
func New(cfg Config, log *logger.Logger) (*Server, error) {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	tlsConfig, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
			TLSConfig:         tlsConfig,
		},
		engine:    engine,
		mux:       mux,
		tlsConfig: tlsConfig,
		config:    cfg,
		log:       log.WithComponent("server"),
	}, nil
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handle mounts an http.Handler next to Gin on the root ServeMux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Use adds server-wide middleware. It runs before Gin, for every request,
// in the order added. Call before Start.
func (s *Server) Use(mws ...middleware.Middleware) {
	s.middlewares = append(s.middlewares, mws...)
}

// Handler returns the complete request pipeline without the transport.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(s.middlewares...)(s.mux)
}

// ApplyMiddleware installs the standard stack: recovery, request id and
// request logging on Gin; the CORS policy for environment, HSTS outside
// development, and the body size limit server-wide. The CORS policy is
// selected here, once; an unknown environment is an error.
func (s *Server) ApplyMiddleware(environment string, metrics *observability.Metrics) error {
	policy, err := middleware.SelectCORSPolicy(environment, s.config.CORS)
	if err != nil {
		return err
	}

	s.engine.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.RequestLogger(s.log, metrics),
	)

	s.Use(middleware.CORS(policy))
	if environment != config.EnvDevelopment {
		s.Use(middleware.HSTS(s.config.HSTS.MaxAge, s.config.HSTS.IncludeSubdomains))
	}
	s.Use(middleware.BodySizeLimit(s.config.MaxBodyBytes()))

	s.log.Info("middleware applied", map[string]interface{}{
		"environment":   environment,
		"cors_origins":  len(s.config.CORS.AllowedOrigins),
		"tls":           s.tlsConfig != nil,
		"max_body_size": s.config.MaxBodySize,
	})
	return nil
}

// RegisterHealthEndpoints registers /health, /health/live, /health/ready,
// the /api/hc alias and /info.
func (s *Server) RegisterHealthEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/health/live", endpoint.Liveness(serviceName))
	s.engine.GET("/health/ready", endpoint.Readiness(serviceName, checker))
	s.engine.GET("/api/hc", endpoint.HealthReport(checker))
	s.engine.GET("/info", endpoint.Info(serviceName))
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	h2s := &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: 120 * time.Second}
	if s.tlsConfig != nil {
		s.httpServer.Handler = s.Handler()
		if err := http2.ConfigureServer(s.httpServer, h2s); err != nil {
			_ = listener.Close()
			return fmt.Errorf("configuring http2: %w", err)
		}
		listener = tls.NewListener(listener, s.httpServer.TLSConfig)
	} else {
		s.httpServer.Handler = h2c.NewHandler(s.Handler(), h2s)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", map[string]interface{}{logger.FieldError: err.Error()})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": listener.Addr().String(),
		"tls":  s.tlsConfig != nil,
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Running reports whether Start has bound the listener.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}
