package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker is the single-flight guard: at most one export per key at a time.
// TryLock never waits; a held key yields ErrBusy.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker guards keys within one process.
type LocalLocker struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{busy: make(map[string]struct{})}
}

func (l *LocalLocker) TryLock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.busy[key]; ok {
		return nil, ErrBusy
	}
	l.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.busy, key)
			l.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently locked.
func (l *LocalLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.busy[key]
	return ok
}

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only if this holder still owns it.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// DefaultLockTTL is used when a RedisLocker is given no positive TTL.
const DefaultLockTTL = 2 * time.Minute

// RedisLocker shares the guard between replicas. The TTL bounds how long a
// crashed holder can block a key; a live holder keeps extending it until
// unlock, so an export may run longer than the TTL.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{rdb: rdb, prefix: "clinicdiag:export:", ttl: ttl, logger: logger}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	k := l.prefix + key

	ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring export lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}

	bg := context.WithoutCancel(ctx)
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go l.keepAlive(bg, key, token, stop, stopped)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-stopped

			rctx, cancel := context.WithTimeout(bg, 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.rdb, []string{k}, token).Err(); err != nil {
				l.logger.Warn("releasing export lock", "key", key, "error", err)
			}
		})
	}, nil
}

// keepAlive extends the lock every third of its TTL until stop is closed or
// the lock turns out to belong to someone else.
func (l *RedisLocker) keepAlive(ctx context.Context, key, token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	every := max(l.ttl/3, time.Millisecond)
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}

		rctx, cancel := context.WithTimeout(ctx, every)
		n, err := refreshScript.Run(rctx, l.rdb, []string{l.prefix + key}, token, l.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			l.logger.Warn("refreshing export lock", "key", key, "error", err)
		case n == 0:
			l.logger.Warn("export lock lost", "key", key)
			return
		}
	}
}
