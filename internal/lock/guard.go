package lock

import (
	"context"
	"fmt"

	"github.com/tobi-akanji/account-service/internal/logging"
)

// Guard runs balance-mutating operations under an account's lock. The lock
// is released on every exit path, including panics, before the operation's
// result reaches the caller.
type Guard struct {
	locks Locker
}

func NewGuard(locks Locker) *Guard {
	return &Guard{locks: locks}
}

// WithAccountLock acquires the account's lock, invokes fn, and always
// releases. If acquisition fails, fn is never invoked.
func (g *Guard) WithAccountLock(ctx context.Context, accountNumber string, fn func(ctx context.Context) error) error {
	h, err := g.locks.Acquire(ctx, accountNumber)
	if err != nil {
		return fmt.Errorf("WithAccountLock: %w", err)
	}
	defer func() {
		if rerr := h.Release(ctx); rerr != nil {
			logging.FromContext(ctx).Error("failed to release account lock",
				"account_number", accountNumber,
				"error", rerr,
			)
		}
	}()

	return fn(ctx)
}

// InLock is WithAccountLock for operations that return a value.
func InLock[T any](ctx context.Context, g *Guard, accountNumber string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := g.WithAccountLock(ctx, accountNumber, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}
