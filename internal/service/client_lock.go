package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/onboarding-portal-api/internal/observability"
)

const clientLockRetry = 25 * time.Millisecond

// ClientLocker serialises mutations of a single client: uploads, reviews, reassignment and profile edits.
type ClientLocker interface {
	Lock(ctx context.Context, clientID uint) (release func(), err error)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewClientLocker returns a Redis-backed locker shared across API instances, or an in-process
// locker when no Redis client is configured. wait bounds how long Lock blocks before ErrClientBusy.
func NewClientLocker(client *redis.Client, ttl, wait time.Duration, logger zerolog.Logger) ClientLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	log := logger.With().Str("component", "client_lock").Logger()
	if client == nil {
		return &localClientLocker{wait: wait, slots: map[uint]chan struct{}{}}
	}
	return &redisClientLocker{client: client, ttl: ttl, wait: wait, logger: log}
}

type redisClientLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger zerolog.Logger
}

func (l *redisClientLocker) Lock(ctx context.Context, clientID uint) (func(), error) {
	key := fmt.Sprintf("lock:client:%d", clientID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire client lock: %w", err)
		}
		if acquired {
			return func() {
				// the request context may already be cancelled
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
					l.logger.Warn().Err(err).Uint("client_id", clientID).Msg("failed to release client lock")
				}
			}, nil
		}

		if time.Now().After(deadline) {
			observability.ClientLockContention().Inc()
			return nil, ErrClientBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(clientLockRetry):
		}
	}
}

type localClientLocker struct {
	mu    sync.Mutex
	wait  time.Duration
	slots map[uint]chan struct{}
}

func (l *localClientLocker) slot(clientID uint) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[clientID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[clientID] = ch
	}
	return ch
}

func (l *localClientLocker) Lock(ctx context.Context, clientID uint) (func(), error) {
	ch := l.slot(clientID)
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-timer.C:
		observability.ClientLockContention().Inc()
		return nil, ErrClientBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
