package domain

import "fmt"

// Role identifies one of the independent identities a single client can hold.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// Roles lists every role in a stable order.
var Roles = []Role{RoleAdmin, RoleSeller, RoleBuyer}

// ParseRole validates a role coming from a path parameter or a token claim.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleSeller, RoleBuyer:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }

// TokenKey is the persisted key holding the role's opaque token ({role}Token).
func (r Role) TokenKey() string { return string(r) + "Token" }

// DataKey is the persisted key holding the role's JSON profile ({role}Data).
func (r Role) DataKey() string { return string(r) + "Data" }

// LoginRoute is where the role's screens redirect unauthenticated users.
func (r Role) LoginRoute() string { return "/" + string(r) + "/login" }

// HomeRoute is the route forced on session expiry.
const HomeRoute = "/"
