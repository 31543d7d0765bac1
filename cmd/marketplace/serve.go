package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/auth"
	"github.com/Goodnews119/Marketplacesite/internal/cache"
	"github.com/Goodnews119/Marketplacesite/internal/config"
	h "github.com/Goodnews119/Marketplacesite/internal/http"
	"github.com/Goodnews119/Marketplacesite/internal/payment"
	"github.com/Goodnews119/Marketplacesite/internal/publisher"
	"github.com/Goodnews119/Marketplacesite/internal/service"
	"github.com/Goodnews119/Marketplacesite/internal/storage"
	"github.com/go-extras/cobraflags"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const portFlag = "port"

var serveFlags = map[string]cobraflags.Flag{
	portFlag: &cobraflags.StringFlag{
		Name:  portFlag,
		Value: "",
		Usage: "HTTP port to listen on (overrides HTTP_PORT)",
	},
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Pending migrations are applied first. When KAFKA_BROKERS
is set, paid orders are published to KAFKA_TOPIC by a background outbox poller.`,
		RunE: runServe,
	}
	cobraflags.RegisterMap(cmd, serveFlags)
	return cmd
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port := serveFlags[portFlag].GetString(); port != "" {
		cfg.HTTPPort = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// honour traceparent headers from upstream proxies
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	productCache, closeCache, err := newProductCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	presigner, err := storage.NewS3Presigner(ctx, storage.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		PublicBaseURL:   cfg.PublicAssetBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to configure object store: %w", err)
	}
	if cfg.S3Bucket == "" {
		slog.Warn("S3_BUCKET is not set, upload presigning will fail")
	}

	authService := service.NewAuthService(repo, auth.NewTokenIssuer(cfg.JWTSecret))
	catalogService := service.NewCatalogService(repo, productCache)
	uploadService := service.NewUploadService(presigner)
	checkoutService := service.NewCheckoutService(repo, repo, newPaymentProcessor(cfg), cfg.Currency)

	router := h.NewRouter(h.RouterConfig{
		Auth:               h.NewAuthHandler(authService, cfg.RequestTimeout),
		Products:           h.NewProductHandler(catalogService, uploadService.PublicURL, cfg.RequestTimeout),
		Uploads:            h.NewUploadHandler(uploadService, cfg.RequestTimeout),
		Checkout:           h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout),
		Orders:             h.NewOrdersHandler(checkoutService, cfg.RequestTimeout),
		Verifier:           authService,
		DB:                 repo,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(repo, cfg.KafkaTopic, cfg.KafkaBrokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("outbox poller started", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
			poller.Run(ctx)
		}()
	} else {
		slog.Info("KAFKA_BROKERS is not set, order events stay in the outbox")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("marketplace API starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	select {
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	wg.Wait()

	slog.Info("server exited")
	return nil
}

// newProductCache returns a Redis-backed cache when REDIS_ADDR is set and a
// no-op cache otherwise.
func newProductCache(ctx context.Context, cfg *config.Config) (cache.ProductCache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NopCache{}, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	slog.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	return cache.NewRedisCache(redisClient), func() { redisClient.Close() }, nil
}

func newPaymentProcessor(cfg *config.Config) payment.Processor {
	if cfg.StripeSecretKey == "" {
		slog.Warn("STRIPE_SECRET_KEY is not set, using the local payment processor")
		return payment.NewLocalProcessor(cfg.StripeWebhookSecret)
	}
	return payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil)
}
