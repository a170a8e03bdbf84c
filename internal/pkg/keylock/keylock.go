// Package keylock provides a distributed mutual-exclusion lock per key on
// top of Redis.
//
// A lock is a key set with SET NX PX holding a random owner token. Release
// deletes the key only while the token still matches, so an owner whose lock
// already expired cannot release someone else's.
package keylock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// ErrNotAcquired is returned when the lock stayed busy for the whole wait.
var ErrNotAcquired = errors.New("keylock: lock is held by another owner")

const (
	defaultTTL  = 5 * time.Second
	defaultWait = 3 * time.Second
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker runs a function while holding the lock for a key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type tokenGenerator interface {
	Generate() string
}

// Options tunes lock timing. Zero values take the defaults.
type Options struct {
	// Prefix is prepended to every key.
	Prefix string
	// TTL bounds how long a crashed owner can block others.
	TTL time.Duration
	// Wait bounds how long Acquire retries a busy lock.
	Wait time.Duration
}

// Redis is a Locker backed by a single Redis deployment.
type Redis struct {
	client redis.UniversalClient
	token  tokenGenerator
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// NewRedis returns a Redis locker. token generates unique owner tokens.
func NewRedis(client redis.UniversalClient, token tokenGenerator, opts Options) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Wait <= 0 {
		opts.Wait = defaultWait
	}

	return &Redis{
		client: client,
		token:  token,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		wait:   opts.Wait,
	}
}

// Acquire takes the lock for key, retrying with exponential backoff until the
// configured wait elapses. The returned release func is safe to call once the
// lock has expired.
func (r *Redis) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	fk := r.prefix + key
	owner := r.token.Generate()

	b := retry.NewExponential(20 * time.Millisecond)
	b = retry.WithJitterPercent(10, b)
	b = retry.WithCappedDuration(250*time.Millisecond, b)
	b = retry.WithMaxDuration(r.wait, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, fk, owner, r.ttl).Result()
		if err != nil {
			return fmt.Errorf("keylock: set: %w", err)
		}
		if !ok {
			return retry.RetryableError(ErrNotAcquired)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{fk}, owner).Err(); err != nil {
			return fmt.Errorf("keylock: release: %w", err)
		}
		return nil
	}, nil
}

// WithLock runs fn while holding the lock for key. The lock is released even
// when ctx is cancelled while fn runs.
func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	release, err := r.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "failed to release key lock", "key", r.prefix+key, "error", err)
		}
	}()

	return fn(ctx)
}
