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
	"strings"
	"syscall"
	"time"

	cacheadapter "github.com/twistlabs/influencer-staking/internal/adapters/cache"
	eventadapter "github.com/twistlabs/influencer-staking/internal/adapters/events"
	grpcadapter "github.com/twistlabs/influencer-staking/internal/adapters/grpc"
	httpadapter "github.com/twistlabs/influencer-staking/internal/adapters/http"
	"github.com/twistlabs/influencer-staking/internal/adapters/memory"
	"github.com/twistlabs/influencer-staking/internal/adapters/postgres"
	"github.com/twistlabs/influencer-staking/internal/application"
	"github.com/twistlabs/influencer-staking/internal/domain"
	"github.com/twistlabs/influencer-staking/internal/ports"
	"google.golang.org/grpc"
)

type Runtime struct {
	cfg            Config
	logger         *slog.Logger
	httpServer     *http.Server
	grpcServer     *grpc.Server
	grpcLis        net.Listener
	outboxWorker   *eventadapter.OutboxWorker
	consumerWorker *eventadapter.ConsumerWorker
	closers        []interface{ Close() error }
}

type repositorySet struct {
	Pools        ports.PoolRepository
	Stakes       ports.StakeRepository
	Conversions  ports.ConversionRepository
	Touchpoints  ports.TouchpointRepository
	Attributions ports.AttributionRepository
	Outbox       ports.OutboxRepository
	EventDedup   ports.EventDedupRepository
	Idempotency  ports.IdempotencyRepository
}

// staticModelConfig resolves per-product attribution model overrides loaded
// from configuration.
type staticModelConfig struct {
	models map[string]domain.AttributionModel
}

func (c staticModelConfig) GetModel(_ context.Context, productID string) (domain.AttributionModel, error) {
	model, ok := c.models[productID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return model, nil
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	var closers []interface{ Close() error }

	var repos repositorySet
	if cfg.DatabaseURL != "" {
		db, dbErr := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if dbErr != nil {
			return nil, dbErr
		}
		if migErr := postgres.RunMigrations(ctx, db); migErr != nil {
			return nil, migErr
		}
		pg := postgres.NewRepositories(db)
		repos = repositorySet{
			Pools: pg.Pools, Stakes: pg.Stakes, Conversions: pg.Conversions,
			Touchpoints: pg.Touchpoints, Attributions: pg.Attributions,
			Outbox: pg.Outbox, EventDedup: pg.EventDedup, Idempotency: pg.Idempotency,
		}
	} else {
		logger.WarnContext(ctx, "no database configured, using in-memory repositories")
		mem := memory.NewRepositories()
		repos = repositorySet{
			Pools: mem.Pools, Stakes: mem.Stakes, Conversions: mem.Conversions,
			Touchpoints: mem.Touchpoints, Attributions: mem.Attributions,
			Outbox: mem.Outbox, EventDedup: mem.EventDedup, Idempotency: mem.Idempotency,
		}
	}

	var poolCache ports.PoolCache = cacheadapter.NewNoopPoolCache()
	if cfg.RedisURL != "" {
		redisClient, cacheErr := cacheadapter.Connect(ctx, cfg.RedisURL)
		if cacheErr != nil {
			logger.WarnContext(ctx, "redis disabled, serving reads uncached", "error", cacheErr)
		} else {
			poolCache = cacheadapter.NewRedisPoolCache(redisClient)
			closers = append(closers, redisClient)
		}
	}

	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	var consumer eventadapter.Consumer = eventadapter.NewNoopConsumer()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, nil)
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}

		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaConsumerGroup,
			[]string{
				domain.EventConversionRecorded,
				domain.EventTouchpointRecorded,
				domain.EventStakeChanged,
				domain.EventRevenueEarned,
			},
		)
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumer = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}

	defaultModel, modelErr := domain.ParseAttributionModel(cfg.DefaultModel)
	if modelErr != nil {
		return nil, fmt.Errorf("default attribution model: %w", modelErr)
	}
	overrides := make(map[string]domain.AttributionModel, len(cfg.ModelOverrides))
	for productID, raw := range cfg.ModelOverrides {
		model, parseErr := domain.ParseAttributionModel(raw)
		if parseErr != nil {
			return nil, fmt.Errorf("model override for %s: %w", productID, parseErr)
		}
		overrides[strings.TrimSpace(productID)] = model
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:            cfg.ServiceID,
			DefaultModel:           defaultModel,
			AttributionWindow:      time.Duration(cfg.AttributionWindowDays) * 24 * time.Hour,
			ApyWindowDays:          cfg.ApyWindowDays,
			PoolCacheTTL:           cfg.PoolCacheTTL,
			IdempotencyTTL:         cfg.IdempotencyTTL,
			EventDedupTTL:          cfg.EventDedupTTL,
			EnableAutoDistribution: cfg.EnableAutoDistribution,
		},
		Pools: repos.Pools, Stakes: repos.Stakes, Conversions: repos.Conversions,
		Touchpoints: repos.Touchpoints, Attributions: repos.Attributions,
		Outbox: repos.Outbox, EventDedup: repos.EventDedup, Idempotency: repos.Idempotency,
		ModelConfig: staticModelConfig{models: overrides},
		Cache:       poolCache,
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewStakingInternalServer(svc))
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return nil, err
	}

	return &Runtime{
		cfg:            cfg,
		logger:         logger,
		httpServer:     httpServer,
		grpcServer:     grpcServer,
		grpcLis:        lis,
		outboxWorker:   eventadapter.NewOutboxWorker(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize),
		consumerWorker: eventadapter.NewConsumerWorker(logger, consumer, svc, cfg.ConsumerPollInterval),
		closers:        closers,
	}, nil
}

func Build(ctx context.Context, configPath string) (*Runtime, error) {
	return NewRuntime(ctx, configPath)
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)
	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.close()
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)
	go func() {
		if err := r.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumerWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	defer r.close()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (r *Runtime) close() {
	for _, c := range r.closers {
		_ = c.Close()
	}
}
