package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
	"github.com/wholesalehub/sessiongate/internal/metrics"
)

var _ ports.VerificationService = (*VerificationService)(nil)

// VerificationService drives the seller verification state machine. Every
// move goes through the transition table and is compare-and-set in the
// repository.
type VerificationService struct {
	repo ports.AccountRepository
	log  zerolog.Logger
	opts options
}

func NewVerificationService(repo ports.AccountRepository, log zerolog.Logger, opts ...Option) *VerificationService {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &VerificationService{repo: repo, log: log, opts: o}
}

// Submit records documents and moves required or rejected to pending.
func (s *VerificationService) Submit(ctx context.Context, sellerID string, documents []string) (*domain.Account, error) {
	account, err := s.seller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	account, err = expireTrial(ctx, s.repo, account, s.opts, s.log)
	if err != nil {
		return nil, err
	}

	now := s.opts.now().UTC()
	docs := append([]string(nil), documents...)
	return transition(ctx, s.repo, account, domain.VerificationPending, s.log, func(a *domain.Account) {
		a.Documents = docs
		a.RejectReason = ""
		a.UpdatedAt = now
	})
}

// Approve is the administrative pending -> approved decision.
func (s *VerificationService) Approve(ctx context.Context, sellerID string) (*domain.Account, error) {
	account, err := s.seller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	now := s.opts.now().UTC()
	return transition(ctx, s.repo, account, domain.VerificationApproved, s.log, func(a *domain.Account) {
		a.RejectReason = ""
		a.UpdatedAt = now
	})
}

// Reject is the administrative pending -> rejected decision.
func (s *VerificationService) Reject(ctx context.Context, sellerID, reason string) (*domain.Account, error) {
	account, err := s.seller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	now := s.opts.now().UTC()
	return transition(ctx, s.repo, account, domain.VerificationRejected, s.log, func(a *domain.Account) {
		a.RejectReason = reason
		a.UpdatedAt = now
	})
}

func (s *VerificationService) seller(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role != domain.RoleSeller {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func transition(
	ctx context.Context,
	repo ports.AccountRepository,
	account *domain.Account,
	to domain.VerificationState,
	log zerolog.Logger,
	mutate func(*domain.Account),
) (*domain.Account, error) {
	from := account.Verification
	if _, err := from.Transition(to); err != nil {
		return nil, err
	}

	updated, err := repo.UpdateVerification(ctx, account.ID, from, to, mutate)
	if err != nil {
		return nil, err
	}

	metrics.VerificationTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	log.Info().
		Str("account_id", account.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("verification state changed")
	return updated, nil
}

// expireTrial applies the not_required -> required move once the trial has
// elapsed. Other accounts are returned untouched.
func expireTrial(
	ctx context.Context,
	repo ports.AccountRepository,
	account *domain.Account,
	opts options,
	log zerolog.Logger,
) (*domain.Account, error) {
	if account.Role != domain.RoleSeller || account.Verification != domain.VerificationNotRequired {
		return account, nil
	}
	now := opts.now().UTC()
	if !domain.TrialElapsed(account.RegisteredAt, now, opts.trialDays) {
		return account, nil
	}

	updated, err := transition(ctx, repo, account, domain.VerificationRequired, log, func(a *domain.Account) {
		a.UpdatedAt = now
	})
	if errors.Is(err, domain.ErrInvalidTransition) {
		// A concurrent request already moved it.
		return repo.FindByID(ctx, account.ID)
	}
	return updated, err
}
