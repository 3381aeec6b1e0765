package domain

import "encoding/json"

// CredentialRecord is the persisted proof that a role is logged in on this client.
// The token is opaque; it is never parsed or validated locally.
type CredentialRecord struct {
	Role    Role            `json:"role"`
	Token   string          `json:"token"`
	Profile json.RawMessage `json:"profile"`
}

// Valid reports whether the record can authenticate its role.
func (r *CredentialRecord) Valid() bool {
	return r != nil && r.Token != ""
}
