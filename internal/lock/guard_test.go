package lock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobi-akanji/account-service/internal/domain"
)

// fakeLocker serializes per-key with in-process mutexes and records every
// acquire and release.
type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquires []string
	releases []string
	failNext bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (f *fakeLocker) Acquire(ctx context.Context, key string) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext || f.held[key] {
		return nil, domain.ErrLockUnavailable
	}
	f.held[key] = true
	f.acquires = append(f.acquires, key)
	return &fakeHandle{locker: f, key: key}, nil
}

type fakeHandle struct {
	locker *fakeLocker
	key    string
}

func (h *fakeHandle) Release(ctx context.Context) error {
	h.locker.mu.Lock()
	defer h.locker.mu.Unlock()
	// Releasing an already-released handle is a no-op.
	h.locker.held[h.key] = false
	h.locker.releases = append(h.locker.releases, h.key)
	return nil
}

func TestGuardReleasesOnSuccess(t *testing.T) {
	locker := newFakeLocker()
	g := NewGuard(locker)

	err := g.WithAccountLock(context.Background(), "1000000000", func(ctx context.Context) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"1000000000"}, locker.acquires)
	assert.Equal(t, []string{"1000000000"}, locker.releases)
}

func TestGuardReleasesOnError(t *testing.T) {
	locker := newFakeLocker()
	g := NewGuard(locker)
	opErr := errors.New("boom")

	err := g.WithAccountLock(context.Background(), "1000000000", func(ctx context.Context) error {
		return opErr
	})

	require.ErrorIs(t, err, opErr)
	assert.Equal(t, []string{"1000000000"}, locker.releases)
}

func TestGuardReleasesOnPanic(t *testing.T) {
	locker := newFakeLocker()
	g := NewGuard(locker)

	require.Panics(t, func() {
		_ = g.WithAccountLock(context.Background(), "1000000000", func(ctx context.Context) error {
			panic("mid-operation crash")
		})
	})
	assert.Equal(t, []string{"1000000000"}, locker.releases)
}

func TestGuardAbortsWithoutInvokingOnLockFailure(t *testing.T) {
	locker := newFakeLocker()
	locker.failNext = true
	g := NewGuard(locker)

	invoked := false
	err := g.WithAccountLock(context.Background(), "1000000000", func(ctx context.Context) error {
		invoked = true
		return nil
	})

	require.ErrorIs(t, err, domain.ErrLockUnavailable)
	assert.False(t, invoked)
	assert.Empty(t, locker.releases)
}

func TestDoubleReleaseIsNoOp(t *testing.T) {
	locker := newFakeLocker()
	h, err := locker.Acquire(context.Background(), "1000000000")
	require.NoError(t, err)

	require.NoError(t, h.Release(context.Background()))
	require.NoError(t, h.Release(context.Background()))
}

func TestInLockReturnsResult(t *testing.T) {
	locker := newFakeLocker()
	g := NewGuard(locker)

	got, err := InLock(context.Background(), g, "1000000000", func(ctx context.Context) (int64, error) {
		return 7000, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7000), got)
	assert.Equal(t, []string{"1000000000"}, locker.releases)
}
