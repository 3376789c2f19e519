package adapter

import (
	"context"

	"github.com/cashback-engine/backend/internal/domain/entity"
)

// UserDirectory resolves customer identity from the external user directory.
// Failures are fatal for the current sale's processing.
type UserDirectory interface {
	// Lookup returns the customer's directory entry, or nil when the CPF is
	// unknown to the directory.
	Lookup(ctx context.Context, cpf string) (*entity.Customer, error)
}

// BanList answers whether a customer is barred from the cashback program.
type BanList interface {
	IsBanned(ctx context.Context, cpf string) (bool, error)
}
