package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
	"github.com/wholesalehub/sessiongate/internal/metrics"
)

var ErrNoDocuments = errors.New("no verification documents")

// SellerSession is the part of the seller role session the gate consumes.
type SellerSession interface {
	State() State
	Token(ctx context.Context) (string, bool)
	Refresh(ctx context.Context)
}

// AccessGate computes the seller dashboard access decision from the cached
// seller profile. Decisions are recomputed on every call.
type AccessGate struct {
	seller SellerSession
	client ports.ProfileClient
	policy domain.TrialPolicy
	now    func() time.Time
	log    zerolog.Logger
}

// GateOption customises an AccessGate.
type GateOption func(*AccessGate)

// WithGateClock sets the time source (primarily for testing).
func WithGateClock(now func() time.Time) GateOption {
	return func(g *AccessGate) { g.now = now }
}

// WithTrialPolicy overrides the 30 day trial with a 5 day warning.
func WithTrialPolicy(p domain.TrialPolicy) GateOption {
	return func(g *AccessGate) {
		if p.LengthDays > 0 {
			g.policy = p
		}
	}
}

func NewAccessGate(seller SellerSession, client ports.ProfileClient, log zerolog.Logger, opts ...GateOption) *AccessGate {
	g := &AccessGate{
		seller: seller,
		client: client,
		policy: domain.DefaultTrialPolicy,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate returns the dashboard decision for the logged-in seller.
func (g *AccessGate) Evaluate() (domain.AccessDecision, error) {
	profile, err := g.profile()
	if err != nil {
		return domain.AccessDecision{}, err
	}

	d := domain.ComputeAccessDecision(profile.Verification, profile.RegisteredAt, g.now(), g.policy)
	metrics.AccessDecisionsTotal.WithLabelValues(string(d.Reason)).Inc()
	if !d.CanAccess {
		g.log.Debug().Str("reason", string(d.Reason)).Msg("seller dashboard blocked")
	}
	return d, nil
}

// SubmitVerification sends documents for review. The move to pending is
// checked locally first; a trial that has elapsed counts as required even
// before the service has recorded the transition.
func (g *AccessGate) SubmitVerification(ctx context.Context, documents []string) error {
	if len(documents) == 0 {
		return ErrNoDocuments
	}
	profile, err := g.profile()
	if err != nil {
		return err
	}

	state := g.effectiveState(profile)
	if _, err := state.Transition(domain.VerificationPending); err != nil {
		return fmt.Errorf("submit verification: %w", err)
	}

	token, ok := g.seller.Token(ctx)
	if !ok {
		return fmt.Errorf("submit verification: %w", domain.ErrNotLoggedIn)
	}
	if err := g.client.SubmitVerification(ctx, token, documents); err != nil {
		return fmt.Errorf("submit verification: %w", err)
	}

	g.log.Info().Str("from", string(state)).Int("documents", len(documents)).Msg("verification documents submitted")
	g.seller.Refresh(ctx)
	return nil
}

func (g *AccessGate) effectiveState(p domain.SellerProfile) domain.VerificationState {
	if p.Verification == domain.VerificationNotRequired &&
		domain.TrialElapsed(p.RegisteredAt, g.now(), g.policy.LengthDays) {
		return domain.VerificationRequired
	}
	return p.Verification
}

func (g *AccessGate) profile() (domain.SellerProfile, error) {
	st := g.seller.State()
	if !st.IsLoggedIn {
		return domain.SellerProfile{}, domain.ErrNotLoggedIn
	}
	var p domain.SellerProfile
	if err := json.Unmarshal(st.Profile, &p); err != nil {
		return domain.SellerProfile{}, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	return p, nil
}
