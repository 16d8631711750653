package identity

import "errors"

var ErrInvalidRole = errors.New("invalid role")

// Role mirrors the identity provider's role claim. The engine trusts it as-is;
// priority weights are carried for a future product decision and do not affect
// queue ordering today.
type Role string

const (
	RoleUser   Role = "USER"
	RoleVIP    Role = "VIP"
	RoleSenior Role = "SENIOR"
	RoleAdmin  Role = "ADMIN"
)

func NewRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleVIP, RoleSenior, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// PriorityWeight: 1=USER, 2=SENIOR, 3=VIP (ADMIN books like a regular user).
func (r Role) PriorityWeight() int {
	switch r {
	case RoleVIP:
		return 3
	case RoleSenior:
		return 2
	default:
		return 1
	}
}
