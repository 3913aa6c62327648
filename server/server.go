package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/aleph-zero/lifo/api"
	"github.com/aleph-zero/lifo/service/harness"
	"github.com/aleph-zero/lifo/service/reverse"
	"github.com/aleph-zero/lifo/stack"
	"github.com/aleph-zero/lifo/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/riandyrn/otelchi"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	serviceName    = "lifo"
	serviceVersion = "0.0.1"
)

var collectorURL = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

/* *** Server Config *** */

type Config struct {
	Address       string
	Port          uint16
	MemoryLimit   int
	ReverseConfig *reverse.Config
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithAddress(address string) Option {
	return func(c *Config) {
		c.Address = address
	}
}

func WithPort(port uint16) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithMemoryLimit caps the bytes all request stacks may hold at once. Zero means no limit.
func WithMemoryLimit(limit int) Option {
	return func(c *Config) {
		c.MemoryLimit = limit
	}
}

func WithReverseConfig(reverseConfig *reverse.Config) Option {
	return func(c *Config) {
		c.ReverseConfig = reverseConfig
	}
}

func (c *Config) allocator() stack.Allocator {
	if c.MemoryLimit > 0 {
		return stack.NewLimitAllocator(c.MemoryLimit)
	}
	return stack.DefaultAllocator
}

// NewRouter wires the services behind a chi router.
func NewRouter(config *Config, logger *httplog.Logger) chi.Router {
	allocator := config.allocator()
	reverseConfig := reverse.NewConfig()
	if config.ReverseConfig != nil {
		copied := *config.ReverseConfig
		reverseConfig = &copied
	}
	reverseConfig.Allocator = allocator

	router := chi.NewRouter()
	router.Use(middleware.Heartbeat("/heartbeat"))
	router.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(render.SetContentType(render.ContentTypeJSON))
	if logger != nil {
		router.Use(httplog.RequestLogger(logger))
	}

	{
		handler := api.NewReverseHandler(reverse.NewService(reverseConfig))
		router.Get("/reverse", handler.Reverse)
	}
	{
		handler := api.NewHarnessHandler(harness.NewService(allocator))
		router.Route("/harness", func(r chi.Router) {
			r.Post("/", handler.Run)
			r.Get("/builtin", handler.RunBuiltins)
		})
	}
	return router
}

const shutdownTimeout = 10 * time.Second

func Bootstrap(config *Config) {
	ctx := context.Background()

	logger := httplog.NewLogger(serviceName, httplog.Options{
		LogLevel:         slog.LevelInfo,
		MessageFieldName: "msg",
		JSON:             true,
		Concise:          true,
		RequestHeaders:   false,
		ResponseHeaders:  false,
	})

	logger.InfoContext(ctx, "Bootstrapping server...", "config", config)

	/* *** Initialize Opentelemetry *** */
	shutdownTelemetry, err := telemetry.New(serviceName, serviceVersion, collectorURL)
	if err != nil {
		logger.ErrorContext(ctx, "Error initializing telemetry", "err", err)
	} else {
		defer shutdownTelemetry()
	}

	srv := &http.Server{Handler: NewRouter(config, logger)}
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", config.Address, config.Port))
	if err != nil {
		logger.ErrorContext(ctx, "Error starting server", "err", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	if err := serve(ctx, srv, listener, sig, logger.Logger); err != nil {
		logger.ErrorContext(ctx, "Error shutting down server", "err", err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Server shutdown complete")
}

// serve accepts connections on listener until stop fires, then drains
// in-flight requests for up to shutdownTimeout.
func serve(ctx context.Context, srv *http.Server, listener net.Listener, stop <-chan os.Signal, logger *slog.Logger) error {
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "Error serving requests", "err", err)
		}
		logger.InfoContext(ctx, "Server stopped accepting connections")
	}()

	<-stop

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
