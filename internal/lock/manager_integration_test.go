package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobi-akanji/account-service/internal/domain"
	"github.com/tobi-akanji/account-service/internal/lock"
	"github.com/tobi-akanji/account-service/internal/testutil"
)

func TestManagerMutualExclusion(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	m := lock.NewManager(client, 200*time.Millisecond, 10*time.Second)

	h, err := m.Acquire(ctx, "1000000000")
	require.NoError(t, err)

	// A second acquisition on the same key must time out while the first
	// handle is held.
	_, err = m.Acquire(ctx, "1000000000")
	require.ErrorIs(t, err, domain.ErrLockUnavailable)

	require.NoError(t, h.Release(ctx))

	h2, err := m.Acquire(ctx, "1000000000")
	require.NoError(t, err)
	require.NoError(t, h2.Release(ctx))
}

func TestManagerDistinctKeysDoNotBlock(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	m := lock.NewManager(client, 500*time.Millisecond, 10*time.Second)

	h1, err := m.Acquire(ctx, "1000000000")
	require.NoError(t, err)
	defer h1.Release(ctx)

	start := time.Now()
	h2, err := m.Acquire(ctx, "1000000001")
	require.NoError(t, err)
	defer h2.Release(ctx)

	// Holding one account's lock must not delay another account's.
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestManagerReleaseIsIdempotent(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	m := lock.NewManager(client, 200*time.Millisecond, 10*time.Second)

	h, err := m.Acquire(ctx, "1000000000")
	require.NoError(t, err)

	require.NoError(t, h.Release(ctx))
	require.NoError(t, h.Release(ctx))
}

func TestManagerReleaseAfterLeaseExpiryIsNoOp(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	m := lock.NewManager(client, 200*time.Millisecond, time.Second)

	h, err := m.Acquire(ctx, "1000000000")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, h.Release(ctx))
}

func TestGuardSerializesConcurrentOperations(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx := context.Background()

	m := lock.NewManager(client, 5*time.Second, 10*time.Second)
	g := lock.NewGuard(m)

	const workers = 8
	var inCritical, maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.WithAccountLock(ctx, "1000000000", func(ctx context.Context) error {
				mu.Lock()
				inCritical++
				if inCritical > maxInCritical {
					maxInCritical = inCritical
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				inCritical--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}
