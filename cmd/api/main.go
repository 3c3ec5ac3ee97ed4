package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/kirana-pos/api/internal/di"
	"github.com/kirana-pos/api/internal/handlers"
	"github.com/kirana-pos/api/internal/platform/auth"
	"github.com/kirana-pos/api/internal/platform/cache"
	"github.com/kirana-pos/api/internal/platform/config"
	pfirestore "github.com/kirana-pos/api/internal/platform/firestore"
	"github.com/kirana-pos/api/internal/platform/idempotency"
	"github.com/kirana-pos/api/internal/platform/jobs"
	"github.com/kirana-pos/api/internal/platform/observability"
	firestoreRepo "github.com/kirana-pos/api/internal/repositories/firestore"
	"github.com/kirana-pos/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(cfg, startedAt)

	provider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := provider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	registry, err := firestoreRepo.NewRegistry(provider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient)
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Idempotency.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Idempotency.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("idempotency")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := idempotencyStore.CleanupExpired(runCtx, time.Now().UTC(), cfg.Idempotency.CleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier,
		auth.WithUserGetter(firebaseVerifier),
		auth.WithRoleCache(cache.NewTTLCache[[]string](cfg.Auth.RoleCacheTTL)),
	)

	var eventPublisher services.CodeEventPublisher
	var pubsubClient *pubsub.Client
	var pubsubTopic *pubsub.Topic
	if cfg.Jobs.Enabled {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.Jobs.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		pubsubTopic = pubsubClient.Topic(cfg.Jobs.TopicID)
		publisher, err := jobs.NewPubSubCodeEventPublisher(pubsubTopic)
		if err != nil {
			logger.Fatal("failed to initialise code event publisher", zap.Error(err))
		}
		eventPublisher = publisher
	}

	codesLogger := logger.Named("codes")
	container, err := di.NewContainer(ctx, cfg, registry, di.ContainerOptions{
		Events: eventPublisher,
		Build:  buildInfo,
		Logger: func(_ context.Context, event string, fields map[string]any) {
			zFields := make([]zap.Field, 0, len(fields)+1)
			zFields = append(zFields, zap.String("event", event))
			for k, v := range fields {
				zFields = append(zFields, zap.Any(k, v))
			}
			codesLogger.Debug("code log", zFields...)
		},
	})
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}

	catalogHandlers := handlers.NewCatalogHandlers(authenticator, container.Services.Catalog, container.Services.Codes)
	adminHandlers := handlers.NewAdminCodeHandlers(authenticator, container.Services.Codes, cfg.Codes.DryRunDefault)
	billingHandlers := handlers.NewBillingHandlers(authenticator, container.Services.Billing)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(container.Services.System),
	)

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("recovery")),
		observability.RequestLoggerMiddleware(projectID),
		observability.RequestMetricsMiddleware(observability.WithMetricsLogger(logger.Named("metrics"))),
	}
	if cfg.RateLimits.DefaultPerMinute > 0 {
		middlewares = append(middlewares, handlers.RateLimitMiddleware(cfg.RateLimits.DefaultPerMinute, time.Minute))
	}

	billMiddlewares := []func(http.Handler) http.Handler{idempotencyMiddleware}
	if cfg.RateLimits.AuthenticatedPerMinute > 0 {
		billMiddlewares = append(billMiddlewares, handlers.RateLimitMiddleware(cfg.RateLimits.AuthenticatedPerMinute, time.Minute))
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithProductRoutes(catalogHandlers.ProductRoutes),
		handlers.WithStoreRoutes(catalogHandlers.StoreRoutes),
		handlers.WithBillRoutes(billingHandlers.Routes),
		handlers.WithBillMiddlewares(billMiddlewares...),
		handlers.WithAdminRoutes(adminHandlers.Routes),
		handlers.WithAdminMiddlewares(idempotencyMiddleware),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("kirana-pos api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	if pubsubTopic != nil {
		pubsubTopic.Stop()
	}
	if pubsubClient != nil {
		if err := pubsubClient.Close(); err != nil {
			logger.Warn("pubsub close error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(os.Getenv("POS_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		Environment: environment,
		StartedAt:   started,
	}
}

// traceProjectID picks the project used to format Cloud Trace identifiers in
// request logs.
func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firestore.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firebase.ProjectID)
}
