package ports

import (
	"context"
	"encoding/json"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

// LoginResult is the profile service answer to a successful login.
type LoginResult struct {
	Token   string
	Profile json.RawMessage
}

// ProfileClient talks to the external profile/authentication service.
//
// FetchProfile returns an error wrapping domain.ErrAuthInvalid for an explicit
// 401 and domain.ErrTransient for everything else that is not a 200.
type ProfileClient interface {
	Login(ctx context.Context, role domain.Role, email, password string) (*LoginResult, error)
	FetchProfile(ctx context.Context, role domain.Role, token string) (json.RawMessage, error)
	SubmitVerification(ctx context.Context, token string, documents []string) error
}
