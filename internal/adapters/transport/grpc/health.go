package grpc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the user service reports under in grpc.health.v1.
const ServiceName = "users.v1.Users"

const defaultProbeTimeout = 2 * time.Second

// Pinger is a dependency whose reachability decides serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthProbe pings the dependencies periodically and publishes the result
// to a grpc health server.
type HealthProbe struct {
	srv      *health.Server
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	names    []string
	checks   map[string]Pinger
}

func NewHealthProbe(srv *health.Server, log *zap.Logger, interval time.Duration, checks map[string]Pinger) *HealthProbe {
	names := make([]string, 0, len(checks))
	for n := range checks {
		names = append(names, n)
	}
	sort.Strings(names)

	timeout := defaultProbeTimeout
	if interval > 0 && interval < timeout {
		timeout = interval
	}
	return &HealthProbe{
		srv:      srv,
		log:      log,
		interval: interval,
		timeout:  timeout,
		names:    names,
		checks:   checks,
	}
}

// Check pings every dependency once, updates the health server and returns
// the failures joined.
func (p *HealthProbe) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var errs []error
	for _, name := range p.names {
		if err := p.checks[name].Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	err := errors.Join(errs...)

	st := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		p.log.Warn("health probe failed", zap.Error(err))
	}
	p.srv.SetServingStatus("", st)
	p.srv.SetServingStatus(ServiceName, st)
	return err
}

// Run probes until ctx is done, then marks everything NOT_SERVING.
func (p *HealthProbe) Run(ctx context.Context) {
	_ = p.Check(ctx)
	if p.interval <= 0 {
		<-ctx.Done()
		p.srv.Shutdown()
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.srv.Shutdown()
			return
		case <-ticker.C:
			_ = p.Check(ctx)
		}
	}
}
