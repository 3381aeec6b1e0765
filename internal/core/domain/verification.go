package domain

import (
	"fmt"
	"time"
)

// VerificationState is the seller identity-verification lifecycle.
type VerificationState string

const (
	VerificationNotRequired VerificationState = "not_required"
	VerificationRequired    VerificationState = "required"
	VerificationPending     VerificationState = "pending"
	VerificationApproved    VerificationState = "approved"
	VerificationRejected    VerificationState = "rejected"
)

// validVerificationTransitions is the complete transition table; anything
// not listed here is invalid.
var validVerificationTransitions = map[VerificationState][]VerificationState{
	VerificationNotRequired: {VerificationRequired},
	VerificationRequired:    {VerificationPending},
	VerificationPending:     {VerificationApproved, VerificationRejected},
	VerificationRejected:    {VerificationPending},
}

// Valid reports whether s is a known state.
func (s VerificationState) Valid() bool {
	switch s {
	case VerificationNotRequired, VerificationRequired, VerificationPending,
		VerificationApproved, VerificationRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s VerificationState) CanTransitionTo(next VerificationState) bool {
	for _, allowed := range validVerificationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next when the move is allowed, ErrInvalidTransition otherwise.
func (s VerificationState) Transition(next VerificationState) (VerificationState, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w (from %s to %s)", ErrInvalidTransition, s, next)
	}
	return next, nil
}

// CanSubmitDocuments reports whether a document submission is accepted in s.
func (s VerificationState) CanSubmitDocuments() bool {
	return s.CanTransitionTo(VerificationPending)
}

// ElapsedDays counts whole days between registeredAt and now. Registration
// timestamps in the future count as zero elapsed days.
func ElapsedDays(registeredAt, now time.Time) int {
	d := now.Sub(registeredAt)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// TrialElapsed reports whether a trial of trialDays started at registeredAt is over at now.
func TrialElapsed(registeredAt, now time.Time, trialDays int) bool {
	return trialDays-ElapsedDays(registeredAt, now) <= 0
}
