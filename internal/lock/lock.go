package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Locker acquires short-lived, key-scoped locks used to serialize canonical
// concept creation across workers. Implementations must be safe to share
// across goroutines.
type Locker interface {
	// Acquire blocks up to the locker's wait budget trying to obtain the
	// lock for key, polling at a fixed interval; ttl is how long the lock
	// is held before it expires. It returns a release func on success,
	// pkgerrors.ErrLockUnavailable if the wait budget is exhausted, or
	// ctx.Err() if ctx is done first.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context), err error)
}

type redisLocker struct {
	log          *logger.Logger
	rdb          *goredis.Client
	pollInterval time.Duration
	maxWait      time.Duration
}

// NewRedisLocker builds a Locker backed by Redis SET NX PX. addr is a
// host:port pair (REDIS_ADDR). Returns (nil, nil) when addr is empty,
// signaling callers to run without distributed locking (degrade to
// read-after-write, per the spec's lock-loss handling).
func NewRedisLocker(log *logger.Logger, addr string) (Locker, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	pollInterval := 50 * time.Millisecond
	if v := strings.TrimSpace(os.Getenv("LOCK_POLL_INTERVAL_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pollInterval = time.Duration(n) * time.Millisecond
		}
	}
	maxWait := 2 * time.Second
	if v := strings.TrimSpace(os.Getenv("LOCK_MAX_WAIT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxWait = time.Duration(n) * time.Millisecond
		}
	}

	return &redisLocker{
		log:          log.With("component", "RedisLocker"),
		rdb:          rdb,
		pollInterval: pollInterval,
		maxWait:      maxWait,
	}, nil
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context), error) {
	if key == "" {
		return nil, errors.New("lock: empty key")
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	token, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("lock: generate token: %w", err)
	}

	redisKey := "lock:" + key
	deadline := time.Now().Add(l.maxWait)

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: redis setnx: %w", err)
		}
		if ok {
			return l.releaseFunc(redisKey, token), nil
		}
		if time.Now().After(deadline) {
			l.log.Warn("lock acquisition timed out", "key", key, "wait", l.maxWait)
			return nil, pkgerrors.ErrLockUnavailable
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// releaseUnlessChangedScript only deletes the key if it still holds our
// token, so a lock we let expire and someone else acquired is never
// released out from under them.
const releaseUnlessChangedScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`

func (l *redisLocker) releaseFunc(redisKey, token string) func(context.Context) {
	return func(ctx context.Context) {
		if err := l.rdb.Eval(ctx, releaseUnlessChangedScript, []string{redisKey}, token).Err(); err != nil {
			l.log.Warn("lock release failed (will expire via TTL)", "key", redisKey, "error", err)
		}
	}
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
