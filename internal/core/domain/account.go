package domain

import "time"

// Account is an identity held by the profile service. Verification fields
// are only meaningful for sellers.
type Account struct {
	ID           string            `json:"id"`
	Role         Role              `json:"role"`
	Email        string            `json:"email"`
	DisplayName  string            `json:"display_name"`
	PasswordHash string            `json:"-"`
	Verification VerificationState `json:"verification_status,omitempty"`
	Documents    []string          `json:"documents,omitempty"`
	RejectReason string            `json:"reject_reason,omitempty"`
	RegisteredAt time.Time         `json:"registered_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// SellerProfile is the subset of the cached profile blob the access gate reads.
type SellerProfile struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	Verification VerificationState `json:"verification_status"`
	RegisteredAt time.Time         `json:"registered_at"`
	RejectReason string            `json:"reject_reason,omitempty"`
}
