package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Shofyan/ecommerce-app/internal/handlers"
	"github.com/Shofyan/ecommerce-app/internal/metrics"
	"github.com/Shofyan/ecommerce-app/internal/middleware"
	"github.com/Shofyan/ecommerce-app/internal/models"
	"github.com/Shofyan/ecommerce-app/internal/repositories"
	"github.com/Shofyan/ecommerce-app/internal/services"
	"github.com/Shofyan/ecommerce-app/internal/views"
	"github.com/Shofyan/ecommerce-app/pkg/config"
	"github.com/Shofyan/ecommerce-app/pkg/logger"
	"github.com/Shofyan/ecommerce-app/pkg/rabbitmq"
)

// App is the wired catalog: the Fiber app plus the resources it owns.
type App struct {
	*fiber.App
	closers []func() error
}

// Close releases every resource opened by NewApp, last opened first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewApp builds the storage, event, service and HTTP layers from cfg.
// ctx bounds startup work and the lifetime of the audit consumer.
func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{}
	m := metrics.New()

	// --- Storage ---
	var (
		repo   repositories.ProductRepository
		pinger handlers.Pinger
	)
	if cfg.DB.Driver == config.DriverMemory {
		repo = repositories.NewMemoryProductRepository()
	} else {
		gormRepo, err := repositories.OpenGORMProductRepository(ctx, cfg.DB, log.Zerolog())
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, gormRepo.Close)
		repo, pinger = gormRepo, gormRepo
	}

	if cfg.DB.Seed {
		n, err := repositories.SeedIfEmpty(ctx, repo, repositories.DemoCatalog())
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		if n > 0 {
			log.Info().Int("products", n).Msg("seeded demo catalog")
		}
	}

	// --- Events ---
	serviceOpts := []services.Option{
		services.WithObserver(m),
		services.WithLogger(log.Named("products")),
	}
	if cfg.RabbitMQ.Enabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
		}, log.Named("rabbitmq"))
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.closers = append(app.closers, mqClient.Close)
		serviceOpts = append(serviceOpts, services.WithPublisher(mqClient))

		if cfg.RabbitMQ.Consume {
			audit := log.Named("audit")
			if err := mqClient.ConsumeProductEvents(ctx, rabbitmq.AuditQueue, func(e models.ProductEvent) error {
				audit.Info().
					Str("event_id", e.ID).
					Str("event", string(e.Type)).
					Int64("product_id", e.ProductID).
					Strs("changes", e.Changes).
					Time("occurred_at", e.OccurredAt).
					Msg("product event")
				return nil
			}); err != nil {
				_ = app.Close()
				return nil, err
			}
		}
	}

	productService := services.NewProductService(repo, serviceOpts...)

	// --- HTTP ---
	app.App = fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		Views:        views.New(cfg.App.TemplateDir),
		ErrorHandler: handlers.ErrorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	app.Use(middleware.RequestLogger(log.Named("http"), m))
	app.Use(recover.New())

	handlers.NewHealthHandler(pinger, cfg.RabbitMQ.Enabled()).RegisterRoutes(app.App)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	handlers.NewProductHandler(productService).RegisterRoutes(app.Group("/api"))
	handlers.NewPageHandler(productService).RegisterRoutes(app.App)

	return app, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to start catalog")
		os.Exit(1)
	}

	go func() {
		log.Info().Str("addr", cfg.App.Port).Str("driver", cfg.DB.Driver).Msg("starting server")
		if err := app.Listen(cfg.App.Port); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	if err := app.Close(); err != nil {
		log.Error().Err(err).Msg("error releasing resources")
	}
	log.Info().Msg("server gracefully stopped")
}
