package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type HTTPConfig struct {
	Address  string
	CertFile string
	KeyFile  string
}

// StartHTTPServer serves handler until ctx is cancelled. TLS is used when
// both certificate files are set.
func StartHTTPServer(ctx context.Context, cfg HTTPConfig, handler http.Handler, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	return ServeHTTP(ctx, lis, cfg, handler, logger)
}

func ServeHTTP(ctx context.Context, lis net.Listener, cfg HTTPConfig, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", lis.Addr().String()),
			zap.Bool("tls", cfg.CertFile != "" && cfg.KeyFile != ""))
		var err error
		if cfg.CertFile != "" && cfg.KeyFile != "" {
			err = srv.ServeTLS(lis, cfg.CertFile, cfg.KeyFile)
		} else {
			err = srv.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
