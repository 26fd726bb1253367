package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSyncInProgress is returned when another sync holds the tenant's lock
var ErrSyncInProgress = errors.New("sync already in progress for tenant")

// SyncLock serializes sync runs per tenant. Acquire returns a release func
// that is safe to call more than once.
type SyncLock interface {
	Acquire(ctx context.Context, tenantID string) (release func(), err error)
}

// releaseScript deletes the key only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSyncLock is a SET NX PX lock shared across server instances
type RedisSyncLock struct {
	client *redis.Client
	ttl    time.Duration
}

var _ SyncLock = (*RedisSyncLock)(nil)

func NewRedisSyncLock(client *redis.Client, ttl time.Duration) *RedisSyncLock {
	return &RedisSyncLock{client: client, ttl: ttl}
}

func (l *RedisSyncLock) Acquire(ctx context.Context, tenantID string) (func(), error) {
	key := string(constants.CachePrefixSyncLock) + tenantID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// release must work even when the run's context is already done
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				logging.Warn("Failed to release sync lock", "tenant_id", tenantID, "error", err.Error())
			}
		})
	}, nil
}

// LocalSyncLock is an in-process lock used when Redis is not configured
type LocalSyncLock struct {
	mu     sync.Mutex
	active map[string]struct{}
}

var _ SyncLock = (*LocalSyncLock)(nil)

func NewLocalSyncLock() *LocalSyncLock {
	return &LocalSyncLock{active: make(map[string]struct{})}
}

func (l *LocalSyncLock) Acquire(_ context.Context, tenantID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[tenantID]; busy {
		return nil, ErrSyncInProgress
	}
	l.active[tenantID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, tenantID)
			l.mu.Unlock()
		})
	}, nil
}
