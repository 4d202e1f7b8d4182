package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/tobi-akanji/account-service/internal/domain"
	"github.com/tobi-akanji/account-service/internal/logging"
)

const (
	keyPrefix  = "ACLK:"
	retryDelay = 50 * time.Millisecond
)

// Handle is an acquired lock. Release is safe to call after the lease has
// expired; a late release is a no-op, not an error.
type Handle interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive per-key locks shared by every process instance.
type Locker interface {
	Acquire(ctx context.Context, key string) (Handle, error)
}

// Manager implements Locker on Redis using redsync mutexes. Acquisition
// blocks the caller up to the configured wait; the lease bounds how long a
// crashed holder can block everyone else.
type Manager struct {
	rs    *redsync.Redsync
	wait  time.Duration
	lease time.Duration
}

func NewManager(client redis.UniversalClient, wait, lease time.Duration) *Manager {
	return &Manager{
		rs:    redsync.New(goredis.NewPool(client)),
		wait:  wait,
		lease: lease,
	}
}

// Acquire obtains exclusive ownership of key, queueing up to the configured
// wait. Failure to acquire within that window surfaces
// domain.ErrLockUnavailable; it is never retried here.
func (m *Manager) Acquire(ctx context.Context, key string) (Handle, error) {
	tries := int(m.wait/retryDelay) + 1

	mutex := m.rs.NewMutex(keyPrefix+key,
		redsync.WithExpiry(m.lease),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(retryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("Acquire: %w", err)
		}
		logging.FromContext(ctx).Warn("account lock not acquired",
			"key", key,
			"wait_ms", m.wait.Milliseconds(),
			"error", err,
		)
		return nil, fmt.Errorf("Acquire: %w", domain.ErrLockUnavailable)
	}

	return &handle{mutex: mutex}, nil
}

type handle struct {
	mutex *redsync.Mutex
}

func (h *handle) Release(ctx context.Context) error {
	// ok == false means the lease already expired and another operation may
	// own the key; mutual exclusion is preserved by the lease itself, so a
	// late release is a no-op.
	if _, err := h.mutex.UnlockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrLockAlreadyExpired) {
			return nil
		}
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}
