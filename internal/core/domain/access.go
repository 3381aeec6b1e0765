package domain

import "time"

// AccessReason explains why the seller dashboard is blocked.
type AccessReason string

const (
	ReasonNone                 AccessReason = "none"
	ReasonVerificationPending  AccessReason = "verification_pending"
	ReasonVerificationRejected AccessReason = "verification_rejected"
	ReasonVerificationRequired AccessReason = "verification_required"
	ReasonTrialExpired         AccessReason = "trial_expired"
)

// AccessDecision is derived on every dashboard load and never stored.
type AccessDecision struct {
	CanAccess        bool         `json:"can_access"`
	Reason           AccessReason `json:"reason"`
	DaysRemaining    int          `json:"days_remaining"`
	ShowTrialWarning bool         `json:"show_trial_warning"`
}

// TrialPolicy configures the seller trial window.
type TrialPolicy struct {
	LengthDays  int
	WarningDays int
}

// DefaultTrialPolicy is a 30 day trial with a warning during the last 5 days.
var DefaultTrialPolicy = TrialPolicy{LengthDays: 30, WarningDays: 5}

// ComputeAccessDecision is a pure function of verification state and time.
// DaysRemaining is only meaningful for not_required.
func ComputeAccessDecision(state VerificationState, registeredAt, now time.Time, policy TrialPolicy) AccessDecision {
	switch state {
	case VerificationApproved:
		return AccessDecision{CanAccess: true, Reason: ReasonNone}
	case VerificationPending:
		return AccessDecision{Reason: ReasonVerificationPending}
	case VerificationRejected:
		return AccessDecision{Reason: ReasonVerificationRejected}
	case VerificationNotRequired:
		remaining := policy.LengthDays - ElapsedDays(registeredAt, now)
		if remaining <= 0 {
			return AccessDecision{Reason: ReasonTrialExpired, DaysRemaining: remaining}
		}
		return AccessDecision{
			CanAccess:        true,
			Reason:           ReasonNone,
			DaysRemaining:    remaining,
			ShowTrialWarning: remaining <= policy.WarningDays,
		}
	default:
		// required, and any unknown state, blocks until documents are submitted.
		return AccessDecision{Reason: ReasonVerificationRequired}
	}
}
