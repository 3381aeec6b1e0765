package ports

import (
	"context"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

// RegisterInput carries a new account's details.
type RegisterInput struct {
	Role        domain.Role
	Email       string
	Password    string
	DisplayName string
}

// AuthService implements registration, login and profile reads for every role.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, role domain.Role, email, password string) (string, *domain.Account, error)
	Profile(ctx context.Context, role domain.Role, accountID string) (*domain.Account, error)
}

// VerificationService drives the seller verification state machine server-side.
type VerificationService interface {
	Submit(ctx context.Context, sellerID string, documents []string) (*domain.Account, error)
	Approve(ctx context.Context, sellerID string) (*domain.Account, error)
	Reject(ctx context.Context, sellerID, reason string) (*domain.Account, error)
}
