package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
	"github.com/wholesalehub/sessiongate/internal/metrics"
)

// Region is a navigational area of the application. Which roles are active
// in which region is composition-time configuration.
type Region string

const (
	RegionAdmin      Region = "admin"
	RegionStorefront Region = "storefront"
)

// State is the in-memory view of one role's authentication.
type State struct {
	Profile    json.RawMessage
	IsLoggedIn bool
	Loading    bool
}

// RoleSession is the per-role authentication context: one instance per role,
// parametrised by the role and the regions it is active in.
//
// Revalidation responses carry a sequence number; anything but the latest
// issued request is discarded, and login, logout and expiry invalidate every
// request in flight.
type RoleSession struct {
	role       domain.Role
	store      ports.CredentialStore
	client     ports.ProfileClient
	nav        ports.Navigator
	log        zerolog.Logger
	regions    map[Region]struct{}
	revalidate bool
	now        func() time.Time

	mu        sync.Mutex
	state     State
	seq       uint64
	listeners map[int]func(State)
	nextID    int
	inflight  sync.WaitGroup
}

// RoleSessionOption customises a RoleSession.
type RoleSessionOption func(*RoleSession)

// WithRegions lists the regions where the session initialises. A session
// with no regions is active everywhere.
func WithRegions(regions ...Region) RoleSessionOption {
	return func(s *RoleSession) {
		for _, r := range regions {
			s.regions[r] = struct{}{}
		}
	}
}

// WithoutRevalidation makes the session trust its cached record without a
// background profile check (the lighter buyer variant).
func WithoutRevalidation() RoleSessionOption {
	return func(s *RoleSession) { s.revalidate = false }
}

// WithSessionClock sets the time source used for metrics timing (primarily for testing).
func WithSessionClock(now func() time.Time) RoleSessionOption {
	return func(s *RoleSession) { s.now = now }
}

func NewRoleSession(
	role domain.Role,
	store ports.CredentialStore,
	client ports.ProfileClient,
	nav ports.Navigator,
	log zerolog.Logger,
	opts ...RoleSessionOption,
) *RoleSession {
	s := &RoleSession{
		role:       role,
		store:      store,
		client:     client,
		nav:        nav,
		log:        log.With().Str("role", role.String()).Logger(),
		regions:    make(map[Region]struct{}),
		revalidate: true,
		now:        time.Now,
		state:      State{Loading: true},
		listeners:  make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RoleSession) Role() domain.Role { return s.role }

// State returns a snapshot of the current auth state.
func (s *RoleSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the persisted token for this role.
func (s *RoleSession) Token(ctx context.Context) (string, bool) {
	rec := s.store.Get(ctx, s.role)
	if !rec.Valid() {
		return "", false
	}
	return rec.Token, true
}

// ActiveIn reports whether the session initialises in region.
func (s *RoleSession) ActiveIn(region Region) bool {
	if len(s.regions) == 0 {
		return true
	}
	_, ok := s.regions[region]
	return ok
}

// Init loads the cached record and, when present, exposes it immediately as
// logged in before any network call is issued. Revalidation then runs in the
// background; ctx bounds that background call.
func (s *RoleSession) Init(ctx context.Context, region Region) {
	if !s.ActiveIn(region) {
		s.setState(func(st *State) { st.Loading = false })
		s.log.Debug().Str("region", string(region)).Msg("role not active in region, skipping init")
		return
	}

	rec := s.store.Get(ctx, s.role)
	if !rec.Valid() {
		s.setState(func(st *State) { *st = State{} })
		return
	}

	s.mu.Lock()
	s.state = State{Profile: rec.Profile, IsLoggedIn: true, Loading: s.revalidate}
	var seq uint64
	if s.revalidate {
		s.seq++
		seq = s.seq
		s.inflight.Add(1)
	}
	snapshot := s.state
	s.mu.Unlock()
	s.notify(snapshot)

	if s.revalidate {
		go s.revalidateRecord(ctx, seq, rec.Token)
	}
}

// Revalidate re-runs the background profile check against the current
// record. Overlapping calls are allowed; only the newest response applies.
func (s *RoleSession) Revalidate(ctx context.Context) {
	if !s.revalidate {
		return
	}
	rec := s.store.Get(ctx, s.role)
	if !rec.Valid() {
		return
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state.Loading = true
	s.inflight.Add(1)
	snapshot := s.state
	s.mu.Unlock()
	s.notify(snapshot)

	go s.revalidateRecord(ctx, seq, rec.Token)
}

func (s *RoleSession) revalidateRecord(ctx context.Context, seq uint64, token string) {
	defer s.inflight.Done()

	start := s.now()
	profile, err := s.client.FetchProfile(ctx, s.role, token)
	metrics.RevalidationDuration.WithLabelValues(s.role.String()).Observe(s.now().Sub(start).Seconds())

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		metrics.RevalidationsTotal.WithLabelValues(s.role.String(), "stale").Inc()
		s.log.Debug().Uint64("seq", seq).Msg("discarding stale revalidation response")
		return
	}

	outcome := "ok"
	switch {
	case err == nil:
		s.store.Set(ctx, domain.CredentialRecord{Role: s.role, Token: token, Profile: profile})
		s.state = State{Profile: profile, IsLoggedIn: true}
		s.log.Debug().Msg("profile revalidated")
	case errors.Is(err, domain.ErrAuthInvalid):
		outcome = "unauthorized"
		s.store.Clear(ctx, s.role)
		s.state = State{}
		s.log.Info().Err(err).Msg("session revoked by profile service")
	default:
		// Fail open: keep the optimistic state.
		outcome = "transient"
		s.state.Loading = false
		s.log.Warn().Err(err).Msg("profile revalidation failed, keeping cached session")
	}
	snapshot := s.state
	s.mu.Unlock()

	metrics.RevalidationsTotal.WithLabelValues(s.role.String(), outcome).Inc()
	s.notify(snapshot)
}

// Login stores the record and marks the role as logged in. The token is not inspected.
func (s *RoleSession) Login(ctx context.Context, profile json.RawMessage, token string) {
	s.mu.Lock()
	s.seq++
	s.store.Set(ctx, domain.CredentialRecord{Role: s.role, Token: token, Profile: profile})
	s.state = State{Profile: profile, IsLoggedIn: true}
	snapshot := s.state
	s.mu.Unlock()

	s.log.Info().Msg("logged in")
	s.notify(snapshot)
}

// LoginWithPassword authenticates against the profile service, then logs in.
func (s *RoleSession) LoginWithPassword(ctx context.Context, email, password string) error {
	res, err := s.client.Login(ctx, s.role, email, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(s.role.String(), "failed").Inc()
		return fmt.Errorf("login %s: %w", s.role, err)
	}
	metrics.LoginsTotal.WithLabelValues(s.role.String(), "ok").Inc()
	s.Login(ctx, res.Profile, res.Token)
	return nil
}

// Logout clears the record and navigates to the role's login screen.
func (s *RoleSession) Logout(ctx context.Context) {
	s.mu.Lock()
	s.seq++
	s.store.Clear(ctx, s.role)
	s.state = State{}
	snapshot := s.state
	s.mu.Unlock()

	s.log.Info().Msg("logged out")
	s.notify(snapshot)
	s.nav.Navigate(s.role.LoginRoute())
}

// Update replaces the cached and persisted profile, keeping the token.
func (s *RoleSession) Update(ctx context.Context, profile json.RawMessage) error {
	s.mu.Lock()
	rec := s.store.Get(ctx, s.role)
	if !rec.Valid() {
		s.mu.Unlock()
		return fmt.Errorf("update %s profile: %w", s.role, domain.ErrNotLoggedIn)
	}
	s.store.Set(ctx, domain.CredentialRecord{Role: s.role, Token: rec.Token, Profile: profile})
	s.state.Profile = profile
	s.state.IsLoggedIn = true
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// Refresh re-fetches the profile and applies it with Update. Failures of
// any kind are a silent no-op.
func (s *RoleSession) Refresh(ctx context.Context) {
	token, ok := s.Token(ctx)
	if !ok {
		return
	}
	profile, err := s.client.FetchProfile(ctx, s.role, token)
	if err != nil {
		s.log.Debug().Err(err).Msg("profile refresh failed, ignoring")
		return
	}
	if err := s.Update(ctx, profile); err != nil {
		s.log.Debug().Err(err).Msg("profile refresh raced a logout, ignoring")
	}
}

// Expire drops the in-memory state after the lifecycle monitor has purged
// the store. No navigation happens here; the monitor redirects.
func (s *RoleSession) Expire(context.Context) {
	s.mu.Lock()
	s.seq++
	s.state = State{}
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
}

// Subscribe registers fn for state changes and returns its removal function.
func (s *RoleSession) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Wait blocks until every background revalidation has returned.
func (s *RoleSession) Wait() {
	s.inflight.Wait()
}

func (s *RoleSession) setState(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := s.state
	s.mu.Unlock()
	s.notify(snapshot)
}

func (s *RoleSession) notify(st State) {
	s.mu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
