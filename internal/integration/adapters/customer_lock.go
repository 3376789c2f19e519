// Package adapters implements adapter interfaces from the application layer.
package adapters

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cashback-engine/backend/internal/application/adapter"
	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

const (
	// lockTTL bounds how long a crashed holder can block a customer.
	lockTTL = 10 * time.Second

	// acquireBudget is the total time spent trying to take the lock before
	// giving up with a lock timeout.
	acquireBudget = 5 * time.Second

	// retryInterval is the pause between acquisition attempts.
	retryInterval = 50 * time.Millisecond

	lockKeyPrefix = "cashback:lock:"
)

// releaseScript deletes the lock only when it is still owned by the caller:
// a holder that outlived its TTL must not release a lock re-acquired by
// someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// customerLocker implements adapter.CustomerLocker on a Redis SET NX lock
// keyed by CPF.
type customerLocker struct {
	client *redis.Client
}

// NewCustomerLocker creates a new Redis-backed customer locker.
func NewCustomerLocker(client *redis.Client) adapter.CustomerLocker {
	return &customerLocker{
		client: client,
	}
}

// WithLock runs fn while holding the customer's exclusive lock.
func (l *customerLocker) WithLock(ctx context.Context, cpf string, fn func(ctx context.Context) error) error {
	key := lockKeyPrefix + cpf
	owner := uuid.NewString()

	deadline := time.Now().Add(acquireBudget)
	for {
		acquired, err := l.client.SetNX(ctx, key, owner, lockTTL).Result()
		if err != nil {
			return domainerror.NewLedgerError(
				domainerror.ErrCodeCustomerLockTimeout,
				"failed to acquire customer lock",
				err,
			)
		}
		if acquired {
			break
		}

		if time.Now().After(deadline) {
			return domainerror.NewLedgerError(
				domainerror.ErrCodeCustomerLockTimeout,
				"customer lock held by another operation",
				domainerror.ErrCustomerLockTimeout,
			)
		}

		select {
		case <-ctx.Done():
			return domainerror.NewLedgerError(
				domainerror.ErrCodeCustomerLockTimeout,
				"context canceled while waiting for customer lock",
				ctx.Err(),
			)
		case <-time.After(retryInterval):
		}
	}

	defer releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, owner)

	return fn(ctx)
}
