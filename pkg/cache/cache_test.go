package cache

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/platformbuilds/theo-core/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNoopValkey_BasicOps(t *testing.T) {
	cch := NewNoopValkeyCache(logger.NewMockLogger(&bytes.Buffer{}))
	ctx := context.Background()

	require.NoError(t, cch.Set(ctx, "k1", "v1", time.Second))
	b, err := cch.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(b))

	require.NoError(t, cch.Set(ctx, "k2", []string{"a", "b"}, 0))
	b, err = cch.Get(ctx, "k2")
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(b))

	require.NoError(t, cch.Delete(ctx, "k1"))
	_, err = cch.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.Error(t, cch.HealthCheck(ctx))
}

func TestNoopValkey_Expiry(t *testing.T) {
	cch := NewNoopValkeyCache(logger.NewMockLogger(&bytes.Buffer{})).(*noopValkeyCache)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cch.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cch.Set(ctx, "k", "v", time.Minute))
	_, err := cch.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = cch.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestAutoSwap_SwitchesToRealCache(t *testing.T) {
	log := logger.NewMockLogger(&bytes.Buffer{})
	fallback := NewNoopValkeyCache(log)
	real := &healthyCache{ValkeyCluster: NewNoopValkeyCache(log)}

	var attempts int32
	a := newAutoSwapCache(fallback, log, 5*time.Millisecond, func() (ValkeyCluster, error) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return nil, errors.New("dial refused")
		}
		return real, nil
	})
	defer a.Stop()

	assert.Eventually(t, func() bool {
		return a.HealthCheck(context.Background()) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestAutoSwap_StopWithoutSwap(t *testing.T) {
	log := logger.NewMockLogger(&bytes.Buffer{})
	a := newAutoSwapCache(NewNoopValkeyCache(log), log, time.Hour, func() (ValkeyCluster, error) {
		return nil, errors.New("unreachable")
	})
	a.Stop()
	a.Stop()
}

type healthyCache struct {
	ValkeyCluster
}

func (healthyCache) HealthCheck(context.Context) error { return nil }
