package session

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

const (
	keySessionID    = "session:id"
	keyHiddenAt     = "session:hiddenAt"
	keyLastActivity = "lastActivityAt"
)

var _ ports.MarkerStore = (*MarkerStore)(nil)

// MarkerStore splits the session marker across two stores: the session id
// and hidden timestamp go to the session-scoped store, the last activity
// timestamp to the durable one. Timestamps are unix milliseconds.
type MarkerStore struct {
	sessionKV ports.KeyValueStore
	durableKV ports.KeyValueStore
	log       zerolog.Logger
}

func NewMarkerStore(sessionKV, durableKV ports.KeyValueStore, log zerolog.Logger) *MarkerStore {
	return &MarkerStore{sessionKV: sessionKV, durableKV: durableKV, log: log}
}

func (s *MarkerStore) Load(ctx context.Context) domain.SessionMarker {
	var m domain.SessionMarker

	if id, found, err := s.sessionKV.Get(ctx, keySessionID); err != nil {
		s.log.Warn().Err(err).Msg("session id read failed")
	} else if found {
		m.SessionID = id
	}
	if at, ok := s.readTime(ctx, s.durableKV, keyLastActivity); ok {
		m.LastActivityAt = at
	}
	if at, ok := s.readTime(ctx, s.sessionKV, keyHiddenAt); ok {
		m.HiddenAt = &at
	}
	return m
}

func (s *MarkerStore) SetSessionID(ctx context.Context, id string) {
	if err := s.sessionKV.Set(ctx, keySessionID, id); err != nil {
		s.log.Error().Err(err).Msg("failed to persist session id")
	}
}

func (s *MarkerStore) SetLastActivity(ctx context.Context, at time.Time) {
	if err := s.durableKV.Set(ctx, keyLastActivity, formatMillis(at)); err != nil {
		s.log.Error().Err(err).Msg("failed to persist last activity")
	}
}

func (s *MarkerStore) SetHiddenAt(ctx context.Context, at *time.Time) {
	var err error
	if at == nil {
		err = s.sessionKV.Delete(ctx, keyHiddenAt)
	} else {
		err = s.sessionKV.Set(ctx, keyHiddenAt, formatMillis(*at))
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to persist hidden timestamp")
	}
}

func (s *MarkerStore) readTime(ctx context.Context, kv ports.KeyValueStore, key string) (time.Time, bool) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("marker read failed")
		return time.Time{}, false
	}
	if !found {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("ignoring unparsable marker timestamp")
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
