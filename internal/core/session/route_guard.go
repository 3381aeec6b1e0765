package session

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
	"github.com/wholesalehub/sessiongate/internal/metrics"
)

// Outcome is what the host should render for a role-scoped view.
type Outcome string

const (
	OutcomeWait     Outcome = "wait"
	OutcomeAdmit    Outcome = "admit"
	OutcomeRedirect Outcome = "redirect"
)

// GuardDecision is the result of one guard check. Cleared lists the foreign
// roles whose records were removed before redirecting.
type GuardDecision struct {
	Outcome    Outcome
	RedirectTo string
	Cleared    []domain.Role
}

// AuthStateSource is the part of a role session the guard reads.
type AuthStateSource interface {
	Role() domain.Role
	State() State
}

// Expirer drops a role session's in-memory state.
type Expirer interface {
	Expire(ctx context.Context)
}

// RouteGuard admits or redirects navigation into one role's screens.
type RouteGuard struct {
	session AuthStateSource
	store   ports.CredentialStore
	nav     ports.Navigator
	log     zerolog.Logger
	foreign map[domain.Role]Expirer
}

type GuardOption func(*RouteGuard)

// WithForeignSessions lets the guard reset the in-memory state of the other
// roles whose records it clears.
func WithForeignSessions(sessions map[domain.Role]Expirer) GuardOption {
	return func(g *RouteGuard) { g.foreign = sessions }
}

func NewRouteGuard(session AuthStateSource, store ports.CredentialStore, nav ports.Navigator, log zerolog.Logger, opts ...GuardOption) *RouteGuard {
	g := &RouteGuard{
		session: session,
		store:   store,
		nav:     nav,
		log:     log.With().Str("role", session.Role().String()).Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check never redirects while the session is loading. An unauthenticated
// role is sent to its login screen after any other role's record has been
// cleared, so foreign credentials never survive the redirect.
func (g *RouteGuard) Check(ctx context.Context) GuardDecision {
	role := g.session.Role()
	st := g.session.State()

	var d GuardDecision
	switch {
	case st.Loading:
		d = GuardDecision{Outcome: OutcomeWait}
	case st.IsLoggedIn:
		d = GuardDecision{Outcome: OutcomeAdmit}
	default:
		d = GuardDecision{Outcome: OutcomeRedirect, RedirectTo: role.LoginRoute()}
		for _, other := range domain.Roles {
			if other == role || !g.store.HasToken(ctx, other) {
				continue
			}
			g.store.Clear(ctx, other)
			if s, ok := g.foreign[other]; ok && s != nil {
				s.Expire(ctx)
			}
			d.Cleared = append(d.Cleared, other)
		}
		if len(d.Cleared) > 0 {
			g.log.Info().Interface("cleared", d.Cleared).Msg("cleared foreign role credentials before redirect")
		}
	}

	metrics.GuardDecisionsTotal.WithLabelValues(role.String(), string(d.Outcome)).Inc()
	if d.Outcome == OutcomeRedirect {
		g.log.Debug().Str("to", d.RedirectTo).Msg("guard redirect")
		g.nav.Navigate(d.RedirectTo)
	}
	return d
}
