// Package api exposes dataset generation over HTTP.
package api

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/TFMV/mimic/config"
	"github.com/TFMV/mimic/logger"
	"github.com/TFMV/mimic/metrics"
	"github.com/TFMV/mimic/version"
)

// ServerOptions configures the HTTP service.
type ServerOptions struct {
	// Port to listen on; empty means "8080".
	Port string

	// Prefork serves through multiple OS processes.
	Prefork bool

	// Config supplies the defaults a generate request starts from.
	// Nil means the built-in configuration.
	Config *config.Config
}

// Server holds the Fiber app instance
type Server struct {
	app  *fiber.App
	opts ServerOptions
	cfg  *config.Config
}

// NewServer initializes a new Fiber instance with best practices
func NewServer(opts ServerOptions) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	app := fiber.New(fiber.Config{
		IdleTimeout: 10 * time.Second, // Prevents idle connections
		ReadTimeout: 10 * time.Second,
		// Generation runs inside the request, so the response may start late
		WriteTimeout: 2 * time.Minute,
		Prefork:      opts.Prefork,
	})

	// Middleware
	app.Use(recover.New())     // Auto-recovers from panics
	app.Use(fiberlogger.New()) // Logs all requests

	s := &Server{app: app, opts: opts, cfg: cfg}

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Mimic API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Default.Handler()))
	app.Get("/estimate", s.handleEstimate)
	app.Post("/generate", s.handleGenerate)

	return s
}

// GetApp exposes the underlying Fiber app, primarily for tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start runs the Fiber server and blocks until a listen error or an OS
// interrupt, shutting down gracefully on the latter.
func (s *Server) Start() error {
	port := s.opts.Port
	if port == "" {
		port = "8080"
	}

	// Channel to listen for OS termination signals (graceful shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	errCh := make(chan error, 1)
	go func() {
		logger.GetLogger().Info("Mimic API is running", zap.String("port", port))
		errCh <- s.app.Listen(":" + port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.GetLogger().Info("Received shutdown signal, stopping server")

	// Create a timeout context for the shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
