package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/db/memory"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/db/postgres"
	myRedis "github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/db/redis"
	myGrpc "github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/transport/grpc"
	myHttp "github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/transport/http"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/app/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/app/auth/password"
	appsvc "github.com/Miraines/MoonyAndStarry/user-service/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/app/directory"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/cache"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/user-service/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/infra/migrate"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/infra/server"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health"
)

const janitorInterval = time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			zapLog, err := lg.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = zapLog.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := serve(ctx, cfg, zapLog); err != nil {
				zapLog.Error("server terminated", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) error {
	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db handle: %w", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrate.Up(sqlDB); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	var userCache cache.Cache
	switch cfg.CacheDriver {
	case "memory":
		mc := memory.NewMemoryCache()
		g.Go(func() error {
			mc.RunJanitor(gctx, janitorInterval)
			return nil
		})
		userCache = mc
	default:
		rc := myRedis.NewRedisCache(myRedis.NewClient(myRedis.Options{
			Addr:     cfg.RedisAddress,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TLS:      cfg.RedisTLS,
		}, zapLog), zapLog)
		defer rc.Close()
		userCache = rc
	}
	zapLog.Info("user cache ready", zap.String("driver", cfg.CacheDriver))

	userRepo := postgres.NewPostgresUserRepo(db)
	dir := directory.New(userCache, userRepo, zapLog,
		directory.WithTTL(cfg.UserCacheTTL),
		directory.WithWriteTimeout(cfg.CacheWriteTimeout),
		directory.WithRegisterer(prometheus.DefaultRegisterer),
	)

	hasher, err := password.New(password.Config{
		Algorithm:   cfg.PasswordHasher,
		BcryptCost:  cfg.BcryptCost,
		Pepper:      cfg.PasswordPepper,
		Concurrency: cfg.HashConcurrency,
	})
	if err != nil {
		return fmt.Errorf("init password hasher: %w", err)
	}
	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		return fmt.Errorf("init JWT util: %w", err)
	}
	svc := appsvc.New(dir, hasher, jwtUtil, zapLog)

	hs := health.NewServer()
	probe := myGrpc.NewHealthProbe(hs, zapLog, cfg.HealthProbeInterval, map[string]myGrpc.Pinger{
		"cache": userCache,
		"store": userRepo,
	})

	if zapLog.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := myHttp.NewRouter(myHttp.RouterConfig{
		Handler:          myHttp.NewHandler(svc, dto.NewValidator(), zapLog),
		Verifier:         jwtUtil,
		Health:           probe.Check,
		Gatherer:         prometheus.DefaultGatherer,
		Logger:           zapLog,
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
	})

	g.Go(func() error {
		probe.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return server.StartGRPCServer(gctx, server.GRPCConfig{
			Address:        cfg.GRPCAddress,
			CertFile:       cfg.HTTPSCertFile,
			KeyFile:        cfg.HTTPSKeyFile,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		}, hs, zapLog)
	})
	g.Go(func() error {
		return server.StartHTTPServer(gctx, server.HTTPConfig{
			Address:  cfg.HTTPAddress,
			CertFile: cfg.HTTPSCertFile,
			KeyFile:  cfg.HTTPSKeyFile,
		}, router, zapLog)
	})

	err = g.Wait()
	zapLog.Info("shutdown complete")
	return err
}
