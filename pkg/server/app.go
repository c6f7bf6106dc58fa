package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"FlowSentry/internal/middleware"
	pkgch "FlowSentry/pkg/clickhouse"
	"FlowSentry/pkg/config"
	xhttp "FlowSentry/pkg/http"
	pkgkafka "FlowSentry/pkg/kafka"
	applogger "FlowSentry/pkg/logger"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle: the Kafka candle-event
// consumer feeding the scheduler, and the HTTP/WebSocket surface.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	scheduler  *middleware.Scheduler
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	httpServer *xhttp.Server
	handlers   []xhttp.Handler
	closers    []func() error
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	scheduler *middleware.Scheduler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	handlers ...xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		scheduler: scheduler,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		handlers:  handlers,
	}
}

// AddCloser registers a resource to close on shutdown, in registration order.
func (a *App) AddCloser(fn func() error) { a.closers = append(a.closers, fn) }

// RegisterRoutes registers all handlers plus health endpoints.
func (a *App) RegisterRoutes(e *echo.Echo) {
	for _, h := range a.handlers {
		h.RegisterRoutes(e)
	}
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/readyz", func(c echo.Context) error {
		if a.chClient != nil {
			if err := a.chClient.Health(c.Request().Context()); err != nil {
				return c.String(http.StatusServiceUnavailable, err.Error())
			}
		}
		return c.String(http.StatusOK, "ready")
	})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started",
			applogger.String("topic", a.kh.Topic()),
			applogger.Strings("symbols", a.cfg.Symbols),
		)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services: consumer first so no new ticks
// arrive, then in-flight evaluations, then the HTTP surface and clients.
func (a *App) shutdown(ctx context.Context) error {
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	for _, close := range a.closers {
		if err := close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
