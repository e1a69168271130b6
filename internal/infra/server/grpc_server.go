package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/transport/grpc/middleware"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 5 * time.Second

type GRPCConfig struct {
	Address        string
	CertFile       string
	KeyFile        string
	RateLimitRPS   float64
	RateLimitBurst int
}

// StartGRPCServer serves the health service on cfg.Address until ctx is
// cancelled, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg GRPCConfig, hs *health.Server, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	return ServeGRPC(ctx, lis, cfg, hs, logger)
}

func ServeGRPC(ctx context.Context, lis net.Listener, cfg GRPCConfig, hs *health.Server, logger *zap.Logger) error {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(middleware.ChainUnaryServer(logger, cfg.RateLimitRPS, cfg.RateLimitBurst)),
	}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			_ = lis.Close()
			return err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(grpcServer, hs)
	grpc_prometheus.Register(grpcServer)
	grpc_prometheus.EnableHandlingTimeHistogram()
	reflection.Register(grpcServer)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping gRPC server")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-stopCtx.Done():
		grpcServer.Stop()
	case <-done:
	}
	logger.Info("gRPC server stopped")
	return nil
}
