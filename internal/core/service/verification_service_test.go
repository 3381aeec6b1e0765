package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
)

func seedSeller(repo *stubAccountRepo, id string, state domain.VerificationState, registered time.Time) {
	repo.accounts[id] = &domain.Account{ID: id, Role: domain.RoleSeller, Email: id + "@example.com", Verification: state, RegisteredAt: registered}
}

func newVerificationService(repo *stubAccountRepo, now time.Time) *VerificationService {
	return NewVerificationService(repo, zerolog.Nop(), WithServiceClock(func() time.Time { return now }))
}

func TestVerificationService_FullCycle(t *testing.T) {
	repo := newStubAccountRepo()
	seedSeller(repo, "s1", domain.VerificationRequired, registeredAt)
	svc := newVerificationService(repo, registeredAt.Add(40*24*time.Hour))
	ctx := context.Background()

	account, err := svc.Submit(ctx, "s1", []string{"id.pdf"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if account.Verification != domain.VerificationPending || len(account.Documents) != 1 {
		t.Fatalf("unexpected account after submit: %+v", account)
	}

	account, err = svc.Reject(ctx, "s1", "blurry scan")
	if err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if account.Verification != domain.VerificationRejected || account.RejectReason != "blurry scan" {
		t.Fatalf("unexpected account after reject: %+v", account)
	}

	account, err = svc.Submit(ctx, "s1", []string{"id-v2.pdf"})
	if err != nil {
		t.Fatalf("resubmission returned error: %v", err)
	}
	if account.RejectReason != "" || account.Documents[0] != "id-v2.pdf" {
		t.Fatalf("resubmission must clear the reason and replace documents: %+v", account)
	}

	account, err = svc.Approve(ctx, "s1")
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if account.Verification != domain.VerificationApproved {
		t.Fatalf("expected approved, got %q", account.Verification)
	}
}

func TestVerificationService_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	now := registeredAt.Add(2 * 24 * time.Hour)

	cases := []struct {
		name  string
		state domain.VerificationState
		op    func(*VerificationService) error
	}{
		{"submit during trial", domain.VerificationNotRequired, func(s *VerificationService) error {
			_, err := s.Submit(ctx, "s1", []string{"doc"})
			return err
		}},
		{"submit when approved", domain.VerificationApproved, func(s *VerificationService) error {
			_, err := s.Submit(ctx, "s1", []string{"doc"})
			return err
		}},
		{"approve when required", domain.VerificationRequired, func(s *VerificationService) error {
			_, err := s.Approve(ctx, "s1")
			return err
		}},
		{"reject when approved", domain.VerificationApproved, func(s *VerificationService) error {
			_, err := s.Reject(ctx, "s1", "late")
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubAccountRepo()
			seedSeller(repo, "s1", tc.state, registeredAt)
			err := tc.op(newVerificationService(repo, now))
			if !errors.Is(err, domain.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if repo.accounts["s1"].Verification != tc.state {
				t.Fatalf("state changed to %q", repo.accounts["s1"].Verification)
			}
		})
	}
}

func TestVerificationService_SubmitAfterTrialWalksThroughRequired(t *testing.T) {
	repo := newStubAccountRepo()
	seedSeller(repo, "s1", domain.VerificationNotRequired, registeredAt)
	svc := newVerificationService(repo, registeredAt.Add(31*24*time.Hour))

	account, err := svc.Submit(context.Background(), "s1", []string{"doc"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if account.Verification != domain.VerificationPending || repo.updates != 2 {
		t.Fatalf("expected not_required -> required -> pending, got %q after %d updates", account.Verification, repo.updates)
	}
}

func TestVerificationService_NonSeller(t *testing.T) {
	repo := newStubAccountRepo()
	repo.accounts["b1"] = &domain.Account{ID: "b1", Role: domain.RoleBuyer}
	svc := newVerificationService(repo, registeredAt)

	if _, err := svc.Approve(context.Background(), "b1"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
