package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/platformbuilds/theo-core/pkg/logger"
)

// noopValkeyCache provides an in-memory, process-local fallback that satisfies
// ValkeyCluster when the external cache is unavailable. Data is not shared
// across replicas and is lost on restart.
type noopValkeyCache struct {
	m      map[string]noopEntry
	mu     sync.RWMutex
	now    func() time.Time
	logger logger.Logger
}

type noopEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewNoopValkeyCache(log logger.Logger) ValkeyCluster {
	log.Warn("Valkey cache unavailable; using in-memory fallback (noop)")
	return &noopValkeyCache{m: make(map[string]noopEntry), now: time.Now, logger: log}
}

func (n *noopValkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	n.mu.RLock()
	e, ok := n.m[key]
	n.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && n.now().After(e.expiresAt)) {
		return nil, ErrKeyNotFound
	}
	return e.value, nil
}

func (n *noopValkeyCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := encode(value)
	if err != nil {
		return err
	}
	e := noopEntry{value: b}
	if ttl > 0 {
		e.expiresAt = n.now().Add(ttl)
	}
	n.mu.Lock()
	n.m[key] = e
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) Delete(ctx context.Context, key string) error {
	n.mu.Lock()
	delete(n.m, key)
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) HealthCheck(ctx context.Context) error {
	return errors.New("noop cache in use")
}
