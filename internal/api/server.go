// Package api exposes the Thorny stores over a JSON REST API.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/everthorn/thorny/internal/relay"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server holds the API's dependencies. No ambient globals: the DB handle,
// logger and relay are injected at construction.
type Server struct {
	db     *gorm.DB
	logger *zap.Logger
	relay  *relay.Router
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB     *gorm.DB
	Port   int
	Logger *zap.Logger
	Relay  *relay.Router // optional
}

// New creates a Server.
func New(opts StartOpts) (*Server, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("api: db is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{db: opts.DB, logger: logger, relay: opts.Relay}, nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	s, err := New(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.registerRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	s.logger.Info("api listening", zap.Int("port", opts.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
