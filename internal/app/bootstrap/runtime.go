package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	cacheadapter "github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/ports"
)

type Runtime struct {
	cfg         Config
	logger      *slog.Logger
	httpServer  *http.Server
	grpcServer  *grpc.Server
	grpcLis     net.Listener
	outbox      *eventadapter.OutboxWorker
	clickWorker *eventadapter.ClickWorker
	cleanupFn   func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping m88 tracking attribution service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	cleanups := make([]func(), 0, 3)

	var (
		relationships ports.RelationshipRepository
		clicks        ports.ClickEventRepository
		conversions   ports.ConversionEventRepository
		credentials   ports.CompanyCredentialRepository
		outboxRepo    ports.OutboxRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		sqlDB, err := pool.DB()
		if err != nil {
			return nil, fmt.Errorf("gorm sql db: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		repos := postgres.NewRepositories(pool)
		relationships = repos.Relationships
		clicks = repos.Clicks
		conversions = repos.Conversions
		credentials = repos.Credentials
		outboxRepo = repos.Outbox
		cleanups = append(cleanups, func() { _ = sqlDB.Close() })
	} else {
		logger.Warn("no postgres configured, using in-memory stores")
		repos := memory.NewRepositories()
		relationships = repos.Relationships
		clicks = repos.Clicks
		conversions = repos.Conversions
		credentials = repos.Credentials
		outboxRepo = repos.Outbox
	}

	var velocity ports.ClickVelocityStore
	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis client: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		velocity = cacheadapter.NewRedisVelocityStore(redisClient)
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
	} else {
		logger.Warn("no redis configured, using in-process velocity counters")
		velocity = cacheadapter.NewMemoryVelocityStore()
	}

	var (
		domainEvents ports.DomainPublisher
		analytics    ports.AnalyticsPublisher
		dlq          ports.DLQPublisher
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, nil, cfg.DLQTopic)
		if err != nil {
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		domainEvents = kafkaPub
		analytics = kafkaPub
		dlq = kafkaPub
		cleanups = append(cleanups, func() { _ = kafkaPub.Close() })
	} else {
		logger.Warn("no kafka brokers configured, events stay in process")
		memPub := eventadapter.NewMemoryPublisher()
		domainEvents = memPub
		analytics = memPub
		dlq = eventadapter.NewLoggingDLQPublisher(logger)
	}

	clickWorker := eventadapter.NewClickWorker(logger, clicks, cfg.ClickBufferSize)

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:             cfg.ServiceID,
			PublicBaseURL:           cfg.PublicBaseURL,
			DefaultPlatformFeePct:   cfg.DefaultPlatformFeePct,
			DefaultProcessingFeePct: cfg.DefaultProcessingFeePct,
			FeeCacheTTL:             cfg.FeeCacheTTL,
			ReplayWindow:            cfg.ReplayWindow,
			VelocityWindow:          cfg.VelocityWindow,
			DownstreamTimeout:       cfg.DownstreamTimeout,
			Fraud:                   cfg.Fraud,
			OutboxFlushBatchSize:    cfg.OutboxBatchSize,
			CodeIssueAttempts:       cfg.CodeIssueAttempts,
		},
		Relationships:   relationships,
		Clicks:          clicks,
		Conversions:     conversions,
		Credentials:     credentials,
		Outbox:          outboxRepo,
		Velocity:        velocity,
		ClickSink:       clickWorker,
		Offers:          grpcadapter.NewOfferClient(cfg.OfferServiceEndpoint),
		Settings:        grpcadapter.NewSettingsClient(cfg.SettingsServiceEndpoint),
		Companies:       grpcadapter.NewCompanyClient(cfg.CompanyServiceEndpoint),
		Payments:        grpcadapter.NewPaymentClient(cfg.PaymentServiceEndpoint),
		CreatorProfiles: grpcadapter.NewCreatorProfileClient(cfg.ProfileServiceEndpoint),
		DomainEvents:    domainEvents,
		Analytics:       analytics,
		DLQ:             dlq,
	})

	router := httpadapter.NewRouter(svc, func() bool { return true })
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewTrackingInternalServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	outbox := eventadapter.NewOutboxWorker(logger, svc, cfg.OutboxPollInterval)

	return &Runtime{
		cfg:         cfg,
		logger:      logger,
		httpServer:  httpServer,
		grpcServer:  grpcServer,
		grpcLis:     lis,
		outbox:      outbox,
		clickWorker: clickWorker,
		cleanupFn: func(context.Context) {
			for i := len(cleanups) - 1; i >= 0; i-- {
				cleanups[i]()
			}
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		_ = r.clickWorker.Run(ctx)
	}()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
