package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/safar/delivery-admin/internal/auth"
	"github.com/safar/delivery-admin/internal/board"
	"github.com/safar/delivery-admin/internal/catalog"
	"github.com/safar/delivery-admin/internal/config"
	"github.com/safar/delivery-admin/internal/dashboard"
	"github.com/safar/delivery-admin/internal/database"
	"github.com/safar/delivery-admin/internal/delivery"
	"github.com/safar/delivery-admin/internal/events"
	"github.com/safar/delivery-admin/internal/handlers"
	"github.com/safar/delivery-admin/internal/models"
	"github.com/safar/delivery-admin/internal/seed"
	"github.com/safar/delivery-admin/internal/store"
	"github.com/safar/delivery-admin/internal/uploads"
)

const (
	eventBuffer     = 256
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Error("Connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to database successfully")

	if cfg.Database.AutoMigrate {
		n, err := database.Migrate(ctx, db, cfg.Database.MigrationsDir, database.Up)
		if err != nil {
			logger.Error("Run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("Migrations applied", "count", n)
	}

	images, err := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.PublicPrefix, cfg.Uploads.MaxBytes)
	if err != nil {
		logger.Error("Prepare upload directory", "error", err)
		os.Exit(1)
	}
	authSvc := auth.NewService(store.Users{DB: db}, images, auth.NewBcryptHasher(0), logger)

	pub := newPublisher(ctx, cfg.Redis, logger)
	defer pub.Close()
	sink := events.NewSink(pub, eventBuffer, logger)

	var (
		orders   []models.Order
		products []models.Product
		services []models.DeliveryService
	)
	if cfg.SeedData {
		orders, products, services = seed.Orders(time.Now()), seed.Products(), seed.Services()
		logger.Info("Loaded seed data", "orders", len(orders), "products", len(products), "services", len(services))
	}

	b, err := board.New(orders, sink.Offer)
	if err != nil {
		logger.Error("Build order board", "error", err)
		os.Exit(1)
	}
	assignments, err := delivery.New(products, services)
	if err != nil {
		logger.Error("Build product collection", "error", err)
		os.Exit(1)
	}
	dispatcher := dashboard.New(b, assignments, catalog.New(), logger)

	runCtx, cancelRun := context.WithCancel(context.Background())
	go dispatcher.Run(runCtx)
	go sink.Run(runCtx)

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:               handlers.NewAuthHandler(authSvc, logger),
		Dashboard:          handlers.NewDashboardHandler(dispatcher, sink, logger),
		Logger:             logger,
		UploadDir:          images.Root(),
		UploadPrefix:       cfg.Uploads.PublicPrefix,
		MaxMultipartMemory: cfg.Uploads.MaxBytes,
	})

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: cors.New(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", handlers.HeaderXRequestID},
			ExposedHeaders: []string{handlers.HeaderXRequestID},
		}).Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}

	cancelRun()
	<-dispatcher.Done()
	<-sink.Done()
	if n := sink.Dropped(); n > 0 {
		logger.Warn("Move events dropped during run", "count", n)
	}
	logger.Info("Server exited")
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newPublisher prefers Redis and falls back to logging moves when Redis is
// not configured or unreachable.
func newPublisher(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) events.Publisher {
	if cfg.URL == "" {
		logger.Info("Redis not configured, move events go to the log")
		return events.NewLogPublisher(logger, int(cfg.AuditEntries))
	}

	pub, err := events.DialRedis(ctx, cfg.URL, cfg.Channel, cfg.AuditKey, cfg.AuditEntries)
	if err != nil {
		logger.Warn("Redis unavailable, move events go to the log", "error", err)
		return events.NewLogPublisher(logger, int(cfg.AuditEntries))
	}
	logger.Info("Publishing move events to Redis", "channel", cfg.Channel)
	return pub
}
