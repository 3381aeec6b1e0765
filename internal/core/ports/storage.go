package ports

import (
	"context"
	"time"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

// KeyValueStore is a flat string key-value sink. Durable implementations
// survive process restarts; the session-scoped one does not.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// CredentialStore holds at most one credential record per role. Reads never
// fail: unreadable or corrupt records are reported as absent.
type CredentialStore interface {
	Get(ctx context.Context, role domain.Role) *domain.CredentialRecord
	Set(ctx context.Context, record domain.CredentialRecord)
	Clear(ctx context.Context, role domain.Role)
	// HasToken reports whether a token is persisted for role, without decoding its profile.
	HasToken(ctx context.Context, role domain.Role) bool
}

// CredentialPurger wipes every role at once. Only the lifecycle monitor holds one.
type CredentialPurger interface {
	ClearAll(ctx context.Context)
}

// MarkerStore persists the session marker. SessionID and HiddenAt are
// session-scoped; LastActivityAt is durable.
type MarkerStore interface {
	Load(ctx context.Context) domain.SessionMarker
	SetSessionID(ctx context.Context, id string)
	SetLastActivity(ctx context.Context, at time.Time)
	SetHiddenAt(ctx context.Context, at *time.Time)
}
