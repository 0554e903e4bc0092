package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TFMV/attemptgen/metrics"
	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/params"
	"github.com/TFMV/attemptgen/pkg/randr"
	"github.com/TFMV/attemptgen/pkg/schema"
	"github.com/TFMV/attemptgen/version"
)

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Port    string
	Prefork bool

	// Factory generates the records served by /attempts/random.
	Factory attempt.Factory

	// Collector backs /metrics. A fresh one is created when nil.
	Collector *metrics.Collector

	Logger *zap.Logger
}

// Server holds the Fiber app instance
type Server struct {
	app       *fiber.App
	opts      ServerOptions
	collector *metrics.Collector
	log       *zap.Logger
}

// paramView is the JSON form of one bound parameter; null slots carry a
// JSON null.
type paramView struct {
	Index  int    `json:"index"`
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// NewServer initializes a new Fiber instance.
func NewServer(opts ServerOptions) *Server {
	if opts.Port == "" {
		opts.Port = "5555"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	collector := opts.Collector
	if collector == nil {
		// An empty job with no gateway cannot fail.
		collector, _ = metrics.NewCollector("attemptgen", "")
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:           10 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		Prefork:               opts.Prefork,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{app: app, opts: opts, collector: collector, log: opts.Logger}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "attemptgen",
			"version": version.GetVersion(),
			"build":   version.GetBuildDate(),
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/schema", s.handleSchema)
	app.Get("/attempts/random", s.handleRandom)
	app.Get("/attempts/random/params", s.handleRandomParams)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{})))

	return s
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// GetApp exposes the Fiber app, mainly for app.Test in tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// handleSchema serves the column list as JSON, or as a YAML column file
// with ?format=yaml.
func (s *Server) handleSchema(c *fiber.Ctx) error {
	switch c.Query("format", "json") {
	case "json":
		return c.JSON(schema.ColumnFile{Columns: schema.ToSpecs(attempt.Schema())})
	case "yaml":
		out, err := schema.MarshalColumns(attempt.Schema(), "yaml")
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(out)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "format must be json or yaml")
	}
}

// generate builds one record, seeded by ?seed= when present.
func (s *Server) generate(c *fiber.Ctx) (attempt.PaymentAttempt, error) {
	var r *randr.Rand
	if raw := c.Query("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return attempt.PaymentAttempt{}, fiber.NewError(fiber.StatusBadRequest, "seed must be an unsigned integer")
		}
		r = randr.NewSeeded(seed)
	} else {
		r = randr.NewSecure()
	}

	start := time.Now()
	a, err := s.opts.Factory.New(r)
	s.collector.RecordStep("generate", err, time.Since(start))
	if err != nil {
		s.log.Error("Generation failed", zap.Error(err))
		return a, err
	}
	s.collector.RecordGenerated(1)
	return a, nil
}

func (s *Server) handleRandom(c *fiber.Ctx) error {
	a, err := s.generate(c)
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (s *Server) handleRandomParams(c *fiber.Ctx) error {
	a, err := s.generate(c)
	if err != nil {
		return err
	}
	start := time.Now()
	list, err := params.Encode(&a, nil)
	s.collector.RecordStep("encode", err, time.Since(start))
	if err != nil {
		return err
	}
	out := make([]paramView, len(list))
	values := list.Values()
	for i, p := range list {
		out[i] = paramView{Index: p.Index, Column: p.Column, Value: values[i]}
	}
	return c.JSON(out)
}

// Start listens on the configured port until ctx is done, then shuts the
// server down with a five second grace period.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("attemptgen API listening", zap.String("port", s.opts.Port))
		errc <- s.app.Listen(":" + s.opts.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Received shutdown signal, stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Server shutdown successfully")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
