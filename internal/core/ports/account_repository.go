package ports

import (
	"context"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

// AccountRepository persists profile service accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, role domain.Role, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// UpdateVerification moves an account from one verification state to another.
	// It fails with domain.ErrInvalidTransition when the stored state is not from,
	// so concurrent decisions cannot both apply.
	UpdateVerification(ctx context.Context, id string, from, to domain.VerificationState, mutate func(*domain.Account)) (*domain.Account, error)
}
