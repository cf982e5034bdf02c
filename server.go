package auth

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// App owns the process-wide handles: connection pool, redis client,
// HTTP server, and the reaper. Created at startup, closed at shutdown,
// and passed to components explicitly.
type App struct {
	cfg    *AppConfig
	db     *bun.DB
	redis  *redis.Client
	http   *fiber.App
	reaper *Reaper
	logger Logger
}

// NewApp wires the service together from configuration.
func NewApp(cfg *AppConfig) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := defLogger{}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DatabaseDSN)))
	db := bun.NewDB(sqldb, pgdialect.New())

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	users := NewUsersRepository(db)
	sessions := NewSessionsRepository(db)
	tokens := NewTokenService([]byte(cfg.SigningKey), cfg.TokenTTL, cfg.Issuer, logger)
	auther := NewAuthenticator(users).WithLogger(logger)
	guard := NewTokenGuard(tokens, sessions).WithLogger(logger)
	limiter := NewFixedWindowLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindow)

	controller := NewAuthController(
		WithLogger(logger),
		WithAuthenticator(auther),
		WithTokenService(tokens),
		WithSessions(sessions),
		WithUsers(users),
		WithRateLimiter(limiter),
	)
	controller.Guard = guard

	httpApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(logger),
	})

	httpApp.Use(requestLogger(logger))

	RegisterAuthRoutes(httpApp, controller)

	httpApp.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})

	return &App{
		cfg:    cfg,
		db:     db,
		redis:  rdb,
		http:   httpApp,
		reaper: NewReaper(sessions, cfg.SweepInterval).WithLogger(logger),
		logger: logger,
	}, nil
}

// HTTP exposes the underlying fiber app, mainly for tests.
func (a *App) HTTP() *fiber.App {
	return a.http
}

// Run ensures the schema, starts the reaper and the HTTP listener, and
// blocks until the context is cancelled or a termination signal
// arrives. Shutdown drains in-flight requests, stops the reaper, and
// closes the pool and redis client.
func (a *App) Run(ctx context.Context) error {
	if err := EnsureSchema(ctx, a.db); err != nil {
		return err
	}

	a.reaper.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.http.Listen(a.cfg.HTTPAddr)
	}()

	a.logger.Info("server listening", "addr", a.cfg.HTTPAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case <-ctx.Done():
	case sig := <-sigCh:
		a.logger.Info("received signal", "signal", sig.String())
	case runErr = <-errCh:
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown releases every process-wide handle.
func (a *App) Shutdown() error {
	var errs []error

	if err := a.http.ShutdownWithTimeout(10 * time.Second); err != nil {
		errs = append(errs, err)
	}

	a.reaper.Stop()

	if err := a.db.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// newErrorHandler catches everything handlers did not map themselves:
// details are logged server-side and the response body stays generic.
func newErrorHandler(logger Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
			return c.Status(code).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func requestLogger(logger Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String(),
		)
		return err
	}
}
