package middleware

import (
	"context"
	"net"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/infra/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var errRateLimited = status.Error(codes.ResourceExhausted, "rate limit exceeded")

// NewRateLimitPerIP limits unary calls per peer IP. Calls without a peer are
// rejected.
func NewRateLimitPerIP(rps float64, burst, cacheSize int, ttl time.Duration) grpc.UnaryServerInterceptor {
	limiter := ratelimit.New(rps, burst, cacheSize, ttl)

	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		p, ok := peer.FromContext(ctx)
		if !ok || p.Addr == nil {
			return nil, errRateLimited
		}
		host, _, err := net.SplitHostPort(p.Addr.String())
		if err != nil {
			host = p.Addr.String()
		}

		if !limiter.Allow(host) {
			return nil, errRateLimited
		}
		return handler(ctx, req)
	}
}
