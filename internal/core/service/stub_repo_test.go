package service

import (
	"context"
	"fmt"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

type stubAccountRepo struct {
	accounts map[string]*domain.Account
	updates  int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	for _, existing := range r.accounts {
		if existing.Role == a.Role && existing.Email == a.Email {
			return nil, domain.ErrAccountExists
		}
	}
	r.accounts[a.ID] = cloneAccount(a)
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, role domain.Role, email string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Role == role && a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) UpdateVerification(_ context.Context, id string, from, to domain.VerificationState, mutate func(*domain.Account)) (*domain.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if a.Verification != from {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, a.Verification, to)
	}
	next := cloneAccount(a)
	if mutate != nil {
		mutate(next)
	}
	next.Verification = to
	r.accounts[id] = next
	r.updates++
	return cloneAccount(next), nil
}
