package adapter

import "context"

// CustomerLocker serializes balance-mutating operations per customer CPF.
// Two concurrent redemptions for the same customer must not both observe the
// same pre-mutation balance snapshot.
type CustomerLocker interface {
	// WithLock runs fn while holding the customer's exclusive lock. It returns
	// domainerror.ErrCustomerLockTimeout when the lock cannot be acquired
	// before the context deadline or the locker's own acquisition budget.
	WithLock(ctx context.Context, cpf string, fn func(ctx context.Context) error) error
}
