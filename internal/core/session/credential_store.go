package session

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

var (
	_ ports.CredentialStore  = (*CredentialStore)(nil)
	_ ports.CredentialPurger = (*CredentialStore)(nil)
)

// CredentialStore lays credential records out as {role}Token / {role}Data
// keys on a durable KeyValueStore. Storage failures are logged and read as
// "no record"; they never reach the caller.
type CredentialStore struct {
	kv  ports.KeyValueStore
	log zerolog.Logger
}

func NewCredentialStore(kv ports.KeyValueStore, log zerolog.Logger) *CredentialStore {
	return &CredentialStore{kv: kv, log: log}
}

// Get returns the role's record, or nil when absent, unreadable or corrupt.
// Corrupt records are removed.
func (s *CredentialStore) Get(ctx context.Context, role domain.Role) *domain.CredentialRecord {
	token, found, err := s.kv.Get(ctx, role.TokenKey())
	if err != nil {
		s.log.Warn().Err(err).Str("role", role.String()).Msg("credential read failed, treating as absent")
		return nil
	}
	if !found || token == "" {
		return nil
	}

	data, found, err := s.kv.Get(ctx, role.DataKey())
	if err != nil {
		s.log.Warn().Err(err).Str("role", role.String()).Msg("profile read failed, treating as absent")
		return nil
	}
	if !found || !json.Valid([]byte(data)) {
		s.log.Warn().Err(domain.ErrMalformedRecord).Str("role", role.String()).Msg("clearing malformed credential record")
		s.Clear(ctx, role)
		return nil
	}

	return &domain.CredentialRecord{Role: role, Token: token, Profile: json.RawMessage(data)}
}

// Set drops the old token, then writes the profile and the new token. A
// failed write leaves no token behind, so a new profile is never read back
// with a previous token.
func (s *CredentialStore) Set(ctx context.Context, record domain.CredentialRecord) {
	profile := record.Profile
	if len(profile) == 0 {
		profile = json.RawMessage("null")
	}
	role := record.Role.String()
	if err := s.kv.Delete(ctx, record.Role.TokenKey()); err != nil {
		s.log.Error().Err(err).Str("role", role).Msg("failed to drop previous token")
		return
	}
	if err := s.kv.Set(ctx, record.Role.DataKey(), string(profile)); err != nil {
		s.log.Error().Err(err).Str("role", role).Msg("failed to persist profile")
		return
	}
	if err := s.kv.Set(ctx, record.Role.TokenKey(), record.Token); err != nil {
		s.log.Error().Err(err).Str("role", role).Msg("failed to persist token")
		if err := s.kv.Delete(ctx, record.Role.DataKey()); err != nil {
			s.log.Error().Err(err).Str("role", role).Msg("failed to roll back profile")
		}
	}
}

func (s *CredentialStore) Clear(ctx context.Context, role domain.Role) {
	if err := s.kv.Delete(ctx, role.TokenKey(), role.DataKey()); err != nil {
		s.log.Error().Err(err).Str("role", role.String()).Msg("failed to clear credential record")
	}
}

func (s *CredentialStore) HasToken(ctx context.Context, role domain.Role) bool {
	token, found, err := s.kv.Get(ctx, role.TokenKey())
	if err != nil {
		s.log.Warn().Err(err).Str("role", role.String()).Msg("token probe failed, treating as absent")
		return false
	}
	return found && token != ""
}

func (s *CredentialStore) ClearAll(ctx context.Context) {
	for _, role := range domain.Roles {
		s.Clear(ctx, role)
	}
}
