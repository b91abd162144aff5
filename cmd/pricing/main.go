package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	mdapp "github.com/wyfcoding/optionpricing/internal/marketdata/application"
	mddomain "github.com/wyfcoding/optionpricing/internal/marketdata/domain"
	mdcache "github.com/wyfcoding/optionpricing/internal/marketdata/infrastructure/cache"
	"github.com/wyfcoding/optionpricing/internal/marketdata/infrastructure/yahoo"
	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/messaging"
	"github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/persistence"
	"github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/persistence/mysql"
	redisrepo "github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/persistence/redis"
	httphandler "github.com/wyfcoding/optionpricing/internal/pricing/interfaces/http"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/db"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/middleware"
	"github.com/wyfcoding/optionpricing/pkg/mq"
	"github.com/wyfcoding/optionpricing/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const BootstrapName = "pricing"

// AppContext 服务依赖集合
type AppContext struct {
	Config     *config.Config
	Metrics    *metrics.Metrics
	AppService *application.PricingService
	Limiter    ratelimit.RateLimiter
}

func main() {
	configPath := pflag.StringP("config", "c", "configs/pricing.toml", "path to the TOML config file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
		Service:    cfg.ServiceName,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(cfg.ServiceName)
	appCtx, cleanup, err := initService(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer cleanup()

	engine := gin.New()
	registerGin(engine, appCtx)
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	var grpcServer *grpc.Server
	if cfg.GRPC.Enabled {
		grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(
			middleware.GRPCRecoveryInterceptor(),
			middleware.GRPCLoggingInterceptor(),
			middleware.GRPCMetricsInterceptor(m),
		))
		registerGRPC(grpcServer)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if grpcServer != nil {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr())
			if err != nil {
				return fmt.Errorf("grpc listen: %w", err)
			}
			logger.Info(gctx, "gRPC server listening", "addr", cfg.GRPC.Addr())
			return grpcServer.Serve(lis)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down", "service", BootstrapName)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "Service stopped with error", "error", err)
		return err
	}
	logger.Info(context.Background(), "Service stopped", "service", BootstrapName)
	return nil
}

func registerGRPC(s *grpc.Server) {
	healthServer := health.NewServer()
	healthServer.SetServingStatus(BootstrapName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)
	reflection.Register(s)
}

func registerGin(e *gin.Engine, ctx *AppContext) {
	e.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinMetricsMiddleware(ctx.Metrics),
	)
	if ctx.Config.Metrics.Enabled {
		e.GET(ctx.Config.Metrics.Path, gin.WrapH(ctx.Metrics.Handler()))
	}
	e.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   BootstrapName,
			"timestamp": time.Now().Unix(),
		})
	})

	api := e.Group("")
	if ctx.Limiter != nil {
		api.Use(middleware.RateLimitMiddleware(ctx.Limiter, ratelimit.PerSecond(ctx.Config.RateLimit.QPS, ctx.Config.RateLimit.Burst)))
	}
	httphandler.NewPricingHandler(ctx.AppService).RegisterRoutes(api)
	logger.Info(context.Background(), "HTTP routes registered", "service", BootstrapName)
}

func initService(ctx context.Context, c *config.Config, m *metrics.Metrics) (*AppContext, func(), error) {
	logger.Info(ctx, "Initializing service dependencies", "service", c.ServiceName)
	var closers []func() error
	cleanup := func() {
		logger.Info(context.Background(), "Cleaning up resources")
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn(context.Background(), "Cleanup failed", "error", err)
			}
		}
	}
	fail := func(err error) (*AppContext, func(), error) {
		cleanup()
		return nil, nil, err
	}

	var redisCache *cache.RedisCache
	if c.Redis.Enabled() {
		rc, err := cache.New(cache.Config{
			Host:         c.Redis.Host,
			Port:         c.Redis.Port,
			Password:     c.Redis.Password,
			DB:           c.Redis.DB,
			MaxPoolSize:  c.Redis.MaxPoolSize,
			ConnTimeout:  c.Redis.ConnTimeout,
			ReadTimeout:  c.Redis.ReadTimeout,
			WriteTimeout: c.Redis.WriteTimeout,
		})
		if err != nil {
			return fail(err)
		}
		redisCache = rc
		closers = append(closers, rc.Close)
	}

	repo, err := initRepository(ctx, c, redisCache, &closers)
	if err != nil {
		return fail(err)
	}

	var publisher domain.EventPublisher
	if c.Kafka.Enabled() {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      c.Kafka.Brokers,
			MaxRetries:   c.Kafka.MaxRetries,
			RetryBackoff: c.Kafka.RetryBackoff,
			WriteTimeout: 5 * time.Second,
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, producer.Close)
		publisher = messaging.NewKafkaEventPublisher(producer, c.Kafka.TopicPrefix)
	}

	var provider mddomain.Provider = yahoo.NewClient(yahoo.Config{
		BaseURL:        c.MarketData.BaseURL,
		Timeout:        c.MarketData.Timeout,
		MaxRetries:     c.MarketData.MaxRetries,
		QPS:            c.MarketData.QPS,
		Burst:          c.MarketData.Burst,
		BreakerTimeout: c.MarketData.BreakerTimeout,
		UserAgent:      c.MarketData.UserAgent,
	}, m)
	if redisCache != nil && c.MarketData.CacheTTL > 0 {
		provider = mdcache.NewCachedProvider(provider, redisCache, c.MarketData.CacheTTL)
	}
	policy, err := mdapp.ParsePolicy(c.Volatility.Policy)
	if err != nil {
		return fail(err)
	}
	volatility := mdapp.NewVolatilityService(provider, mdapp.VolatilityConfig{
		Lookback:     c.Volatility.Lookback,
		TradingDays:  c.Volatility.TradingDays,
		Policy:       policy,
		DefaultValue: c.Volatility.DefaultValue,
	}, m)
	marketData := mdapp.NewMarketDataService(provider, volatility)

	engine := domain.NewEngine()
	defaults := application.PayoffDefaults{
		Points:     c.Pricing.PayoffPoints,
		LowFactor:  c.Pricing.PayoffLowFactor,
		HighFactor: c.Pricing.PayoffHighFactor,
	}
	appService := application.NewPricingService(
		application.NewPricingCommandService(engine, repo, publisher, m,
			application.WithBatchConcurrency(c.Pricing.BatchConcurrency)),
		application.NewPricingQueryService(engine, repo, defaults),
		application.NewQuoteService(engine, marketData, defaults, m),
	)

	var limiter ratelimit.RateLimiter
	if c.RateLimit.Enabled {
		if redisCache != nil {
			limiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		} else {
			limiter = ratelimit.NewLocalRateLimiter()
		}
	}

	return &AppContext{
		Config:     c,
		Metrics:    m,
		AppService: appService,
		Limiter:    limiter,
	}, cleanup, nil
}

// initRepository 数据库与 Redis 都未配置时不持久化
func initRepository(ctx context.Context, c *config.Config, rc *cache.RedisCache, closers *[]func() error) (domain.PricingRepository, error) {
	var cached domain.PricingRepository
	if rc != nil {
		cached = redisrepo.NewPricingRepository(rc, c.Pricing.ResultCacheTTL)
	}
	if !c.Database.Enabled() {
		return cached, nil
	}

	database, err := db.Init(db.Config{
		Driver:             c.Database.Driver,
		DSN:                c.Database.DSN,
		MaxOpenConns:       c.Database.MaxOpenConns,
		MaxIdleConns:       c.Database.MaxIdleConns,
		ConnMaxLifetime:    c.Database.ConnMaxLifetime,
		LogEnabled:         c.Database.LogEnabled,
		SlowQueryThreshold: c.Database.SlowQueryThreshold,
	})
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, database.Close)

	primary := mysql.NewPricingRepository(database.DB)
	if c.Database.AutoMigrate {
		if err := primary.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	if cached == nil {
		return primary, nil
	}
	return persistence.NewCompositeRepository(primary, cached), nil
}
