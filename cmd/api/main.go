package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/jende/inventory-service/internal/api/http"
	"github.com/jende/inventory-service/internal/api/http/handlers"
	"github.com/jende/inventory-service/internal/auth"
	"github.com/jende/inventory-service/internal/config"
	"github.com/jende/inventory-service/internal/mail"
	"github.com/jende/inventory-service/internal/mirror"
	"github.com/jende/inventory-service/internal/observability"
	"github.com/jende/inventory-service/internal/persistence"
	"github.com/jende/inventory-service/internal/report"
	"github.com/jende/inventory-service/internal/repository"
	"github.com/jende/inventory-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)

	mailer := mail.NewSMTPMailer(cfg.Mail)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Mailer:   mailer,
		Logger:   logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	reports := report.NewGenerator(
		cfg.Upload.Dir, "/productos/",
		cfg.Report.ImageFetchTimeout(), cfg.Report.Timeout(),
		logger,
	)
	productService := service.NewProductService(service.ProductDependencies{
		ProductRepo: productRepo,
		Reports:     reports,
		Logger:      logger,
		UploadDir:   cfg.Upload.Dir,
	})

	// The mirror job copies the primary store into the local database on a
	// fixed interval. It never runs in production.
	var mirrorJob *mirror.Job
	if cfg.App.IsProduction() {
		logger.Info("mirror sync disabled in production")
	} else {
		mirrorPg, err := persistence.NewMirrorPostgres(ctx, cfg.Mirror.DSN, logger)
		if err != nil {
			logger.Warn("mirror database unavailable; sync disabled", zap.Error(err))
		} else if mirrorPg.PoolHandle() != nil {
			defer mirrorPg.Close()
			if err := persistence.RunMigrations(ctx, mirrorPg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to migrate mirror database", zap.Error(err))
			}
			mirrorJob = mirror.NewJob(
				mirror.NewRepoSource(userRepo, productRepo),
				mirror.NewPostgresTarget(mirrorPg.PoolHandle()),
				cfg.Mirror.Interval(),
				logger,
			)
			mirrorJob.Start(ctx)
			defer mirrorJob.Stop()
		}
	}

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 25 << 20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	app.Static("/productos", cfg.Upload.Dir)

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, mirrorJob)
	authHandler := handlers.NewAuthHandler(authService)
	productsHandler := handlers.NewProductsHandler(productService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Products:       productsHandler,
		AuthMiddleware: authMiddleware,
		AuthLimiter:    httptransport.AuthRateLimiter(redis.Client, cfg.Redis.AuthLimit, cfg.Redis.AuthWindow(), logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
