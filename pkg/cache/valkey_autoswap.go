package cache

import (
	"context"
	"sync"
	"time"

	"github.com/platformbuilds/theo-core/pkg/logger"
)

// autoSwapCache starts on a fallback implementation and swaps to a real
// Valkey client once one can be dialed.
type autoSwapCache struct {
	mu      sync.RWMutex
	current ValkeyCluster
	logger  logger.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func newAutoSwapCache(
	fallback ValkeyCluster,
	log logger.Logger,
	interval time.Duration,
	dialReal func() (ValkeyCluster, error),
) *autoSwapCache {
	a := &autoSwapCache{
		current: fallback,
		logger:  log,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(a.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.stopCh:
				return
			case <-ticker.C:
				real, err := dialReal()
				if err != nil {
					a.logger.Warn("Valkey connection attempt failed; will retry", "error", err)
					continue
				}
				a.mu.Lock()
				a.current = real
				a.mu.Unlock()
				a.logger.Info("Valkey connection established; switched from in-memory to real cache")
				return
			}
		}
	}()

	return a
}

// Stop stops the background connector and waits for it to exit.
func (a *autoSwapCache) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
	<-a.done
}

func (a *autoSwapCache) active() ValkeyCluster {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

func (a *autoSwapCache) Get(ctx context.Context, key string) ([]byte, error) {
	return a.active().Get(ctx, key)
}

func (a *autoSwapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return a.active().Set(ctx, key, value, ttl)
}

func (a *autoSwapCache) Delete(ctx context.Context, key string) error {
	return a.active().Delete(ctx, key)
}

func (a *autoSwapCache) HealthCheck(ctx context.Context) error {
	return a.active().HealthCheck(ctx)
}

// Stopper is implemented by caches that own background goroutines.
type Stopper interface {
	Stop()
}

// New dials a single node (one address) or a cluster (several). When the
// dial fails it returns an in-memory cache that keeps retrying in the background.
func New(nodes []string, db int, password string, ttl time.Duration, log logger.Logger) ValkeyCluster {
	dial := func() (ValkeyCluster, error) {
		if len(nodes) == 1 {
			return NewValkeySingle(nodes[0], db, password, ttl)
		}
		return NewValkeyCluster(nodes, password, ttl)
	}
	if len(nodes) == 0 {
		return NewNoopValkeyCache(log)
	}
	c, err := dial()
	if err == nil {
		log.Info("Valkey cache initialized", "nodes", len(nodes))
		return c
	}
	log.Warn("Valkey cache unavailable at startup", "error", err)
	return newAutoSwapCache(NewNoopValkeyCache(log), log, 5*time.Second, dial)
}
