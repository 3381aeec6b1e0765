// Package memory is a process-local AccountRepository for development runs
// without MongoDB and for integration tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

var _ ports.AccountRepository = (*AccountRepository)(nil)

type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
	}
}

func emailKey(role domain.Role, email string) string {
	return role.String() + "|" + email
}

func clone(a *domain.Account) *domain.Account {
	c := *a
	c.Documents = append([]string(nil), a.Documents...)
	return &c
}

func (r *AccountRepository) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(a.Role, a.Email)
	if _, exists := r.byEmail[key]; exists {
		return nil, domain.ErrAccountExists
	}
	if _, exists := r.byID[a.ID]; exists {
		return nil, domain.ErrAccountExists
	}
	r.byID[a.ID] = clone(a)
	r.byEmail[key] = a.ID
	return clone(a), nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, role domain.Role, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(role, email)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return clone(a), nil
}

func (r *AccountRepository) UpdateVerification(
	_ context.Context,
	id string,
	from, to domain.VerificationState,
	mutate func(*domain.Account),
) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if a.Verification != from {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, a.Verification, to)
	}

	next := clone(a)
	if mutate != nil {
		mutate(next)
	}
	next.Verification = to
	r.byID[id] = next
	return clone(next), nil
}
