// Package directory resolves usernames to user records, reading through the
// cache and falling back to the durable store.
//
// Cache entries live for a fixed TTL and are rewritten on every miss, so a
// hit can be stale by at most that TTL. Negative results are never cached.
// Concurrent misses for the same username may both read the store and both
// write the cache; the writes carry the same value.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/cache"
	customErrors "github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/repo"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	keyPrefix = "user:username:"

	DefaultTTL          = 300 * time.Second
	DefaultWriteTimeout = 2 * time.Second
)

// Key is the cache key holding the record for username.
func Key(username string) string {
	return keyPrefix + username
}

type Option func(*Directory)

func WithTTL(ttl time.Duration) Option {
	return func(d *Directory) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithWriteTimeout bounds the cache write that follows a miss. The write runs
// detached from the caller's cancellation.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(d *Directory) {
		if timeout > 0 {
			d.writeTimeout = timeout
		}
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(d *Directory) { d.reg = reg }
}

type Directory struct {
	cache        cache.Cache
	users        repo.UserRepo
	log          *zap.Logger
	ttl          time.Duration
	writeTimeout time.Duration
	reg          prometheus.Registerer
	metrics      *metrics
}

func New(c cache.Cache, users repo.UserRepo, log *zap.Logger, opts ...Option) *Directory {
	d := &Directory{
		cache:        c,
		users:        users,
		log:          log,
		ttl:          DefaultTTL,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.metrics = newMetrics(d.reg)
	return d
}

// FindByUsername reports found=false when no record exists. The returned
// error is non-nil only when the store itself failed; cache failures are
// logged and treated as misses.
func (d *Directory) FindByUsername(ctx context.Context, username string) (model.User, bool, error) {
	key := Key(username)
	if u, ok := d.fromCache(ctx, key, username); ok {
		return u, true, nil
	}

	d.metrics.storeReads.Inc()
	u, err := d.users.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, false, nil
	case err != nil:
		return model.User{}, false, customErrors.WrapInternal(err, "FindByUsername")
	}

	d.populate(ctx, key, u)
	return u, true, nil
}

// GetRequired is FindByUsername with absence reported as errors.ErrNotFound.
func (d *Directory) GetRequired(ctx context.Context, username string) (model.User, error) {
	u, found, err := d.FindByUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}
	if !found {
		return model.User{}, customErrors.ErrNotFound
	}
	return u, nil
}

// Create stores a new record. The record is not cached here; the next read
// populates the cache.
func (d *Directory) Create(ctx context.Context, nu model.NewUser) (model.User, error) {
	u, err := d.users.CreateUser(ctx, nu)
	switch {
	case errors.Is(err, customErrors.ErrConflict):
		return model.User{}, customErrors.ErrConflict
	case err != nil:
		d.log.Error("create user failed", zap.Error(err))
		return model.User{}, customErrors.ErrCreateFailed
	}
	return u, nil
}

func (d *Directory) fromCache(ctx context.Context, key, username string) (model.User, bool) {
	v, err := d.cache.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrMiss):
		d.metrics.cacheMisses.Inc()
		return model.User{}, false
	case err != nil:
		d.metrics.cacheErrors.Inc()
		d.log.Warn("user cache read failed, falling back to store",
			zap.String("key", key), zap.Error(err))
		return model.User{}, false
	}

	var u model.User
	if err := v.Decode(&u); err != nil || u.Username != username {
		d.metrics.cacheErrors.Inc()
		d.log.Warn("discarding unusable user cache entry",
			zap.String("key", key), zap.Stringer("kind", v.Kind()), zap.Error(err))
		return model.User{}, false
	}

	d.metrics.cacheHits.Inc()
	return u, true
}

func (d *Directory) populate(ctx context.Context, key string, u model.User) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.writeTimeout)
	defer cancel()

	err := d.cache.Set(ctx, key, u, d.ttl)
	switch {
	case err == nil:
	case customErrors.IsCacheUnavailable(err):
		d.log.Warn("user cache write failed", zap.String("key", key), zap.Error(err))
	default:
		d.log.Error("user cache entry not written", zap.String("key", key), zap.Error(err))
	}
}
