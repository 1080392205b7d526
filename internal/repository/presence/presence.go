// Package presence reads professional activity state. The chat layer of the
// surrounding product maintains TTL'd presence keys in Redis; the engine only
// consumes them as a multiplicative ranking boost.
package presence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lawnald/counselrank/internal/db"
	"github.com/lawnald/counselrank/internal/domain"
)

// RedisTracker reports presence from TTL'd Redis keys.
type RedisTracker struct {
	store     db.KVStore
	keyPrefix string
	logger    *zap.Logger
}

var _ domain.PresenceTracker = (*RedisTracker)(nil)

// NewRedisTracker creates a Redis-backed tracker.
func NewRedisTracker(store db.KVStore, keyPrefix string, logger *zap.Logger) *RedisTracker {
	return &RedisTracker{store: store, keyPrefix: keyPrefix, logger: logger}
}

// IsActive reports whether the presence key exists. Backend errors degrade to
// inactive: a presence outage must never affect search availability.
func (t *RedisTracker) IsActive(ctx context.Context, ownerID string) bool {
	ok, err := t.store.Exists(ctx, t.keyPrefix+ownerID)
	if err != nil {
		t.logger.Warn("Presence lookup failed", zap.String("owner_id", ownerID), zap.Error(err))
		return false
	}
	return ok
}

// MemoryTracker is an in-process tracker used when Redis is not configured
// (single-node deployments and tests). Entries expire after their TTL.
type MemoryTracker struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	now     func() time.Time
}

var _ domain.PresenceTracker = (*MemoryTracker)(nil)

// NewMemoryTracker creates an in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{expires: make(map[string]time.Time), now: time.Now}
}

// MarkActive records activity for ownerID until now+ttl.
func (t *MemoryTracker) MarkActive(ownerID string, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expires[ownerID] = t.now().Add(ttl)
}

// IsActive reports whether ownerID has unexpired activity.
func (t *MemoryTracker) IsActive(_ context.Context, ownerID string) bool {
	t.mu.RLock()
	exp, ok := t.expires[ownerID]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	if t.now().After(exp) {
		t.mu.Lock()
		delete(t.expires, ownerID)
		t.mu.Unlock()
		return false
	}
	return true
}
