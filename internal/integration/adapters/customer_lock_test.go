package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	domainerror "github.com/cashback-engine/backend/internal/domain/error"
)

func newLockFixture(t *testing.T) (*miniredis.Miniredis, *customerLocker) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return server, &customerLocker{client: client}
}

func TestCustomerLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the critical section and releases the lock", func(t *testing.T) {
		server, locker := newLockFixture(t)

		ran := false
		err := locker.WithLock(ctx, "11122233344", func(context.Context) error {
			ran = true
			if !server.Exists(lockKeyPrefix + "11122233344") {
				t.Error("expected the lock key held during the critical section")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ran {
			t.Fatal("expected the critical section to run")
		}
		if server.Exists(lockKeyPrefix + "11122233344") {
			t.Error("expected the lock released afterwards")
		}
	})

	t.Run("propagates the critical section error and still releases", func(t *testing.T) {
		server, locker := newLockFixture(t)

		wantErr := errors.New("boom")
		err := locker.WithLock(ctx, "11122233344", func(context.Context) error {
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected the section error back, got %v", err)
		}
		if server.Exists(lockKeyPrefix + "11122233344") {
			t.Error("expected the lock released after a failing section")
		}
	})

	t.Run("locks are per customer", func(t *testing.T) {
		server, locker := newLockFixture(t)
		server.Set(lockKeyPrefix+"55566677788", "other-owner")

		err := locker.WithLock(ctx, "11122233344", func(context.Context) error {
			return nil
		})
		if err != nil {
			t.Fatalf("expected an unrelated customer's lock not to block, got %v", err)
		}
	})

	t.Run("times out when the lock is held", func(t *testing.T) {
		server, locker := newLockFixture(t)
		server.Set(lockKeyPrefix+"11122233344", "other-owner")

		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()

		err := locker.WithLock(waitCtx, "11122233344", func(context.Context) error {
			t.Error("critical section must not run without the lock")
			return nil
		})
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domainerror.ErrCustomerLockTimeout) {
			t.Fatalf("expected a lock timeout, got %v", err)
		}

		got, _ := server.Get(lockKeyPrefix + "11122233344")
		if got != "other-owner" {
			t.Errorf("expected the foreign lock untouched, got %q", got)
		}
	})
}
