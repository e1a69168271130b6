package redis

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
	TLS      bool
}

// NewClient builds a pooled client whose connection lifecycle is reported
// through log. Events are logged only; nothing else reacts to them.
func NewClient(o Options, log *zap.Logger) *redis.Client {
	opts := &redis.Options{
		Addr:     o.Addr,
		Username: o.Username,
		Password: o.Password,
		DB:       o.DB,
		OnConnect: func(context.Context, *redis.Conn) error {
			log.Info("Redis connected!", zap.String("type", "REDIS_CONNECTED"))
			return nil
		},
	}
	if o.TLS {
		host, _, err := net.SplitHostPort(o.Addr)
		if err != nil {
			host = o.Addr
		}
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	client := redis.NewClient(opts)
	client.AddHook(&lifecycleHook{log: log})
	return client
}

type lifecycleHook struct {
	log       *zap.Logger
	connected atomic.Bool
}

func (h *lifecycleHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if h.connected.Load() {
			h.log.Info("Redis reconnecting!", zap.String("type", "REDIS_RECONNECTING"), zap.String("addr", addr))
		} else {
			h.log.Info("Redis connecting...", zap.String("type", "REDIS_CONNECTING"), zap.String("addr", addr))
		}

		conn, err := next(ctx, network, addr)
		if err != nil {
			h.log.Error("Redis error occurred", zap.String("type", "REDIS_ERROR"), zap.Error(err))
			return nil, err
		}
		h.connected.Store(true)
		return &trackedConn{Conn: conn, log: h.log}, nil
	}
}

func (h *lifecycleHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		h.observe(err)
		return err
	}
}

func (h *lifecycleHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		h.observe(err)
		return err
	}
}

func (h *lifecycleHook) observe(err error) {
	if err == nil || err == redis.Nil {
		return
	}
	h.log.Error("Redis error occurred", zap.String("type", "REDIS_ERROR"), zap.Error(err))
}

type trackedConn struct {
	net.Conn
	log  *zap.Logger
	once sync.Once
}

func (c *trackedConn) Close() error {
	c.once.Do(func() {
		c.log.Warn("Redis disconnected!", zap.String("type", "REDIS_DISCONNECTED"))
	})
	return c.Conn.Close()
}
