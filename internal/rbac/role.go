package rbac

import "fmt"

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
	RoleUser   Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleViewer, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Satisfies reports whether r meets a required role. The only implication
// is admin -> viewer; every other requirement needs an exact match.
func (r Role) Satisfies(required Role) bool {
	if r == required {
		return true
	}
	return required == RoleViewer && r == RoleAdmin
}
