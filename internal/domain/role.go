package domain

import "strings"

// Role is the closed set of actor roles.
type Role string

// List of actor roles
const (
	RoleClient  Role = "client"
	RoleCourier Role = "courier"
	RoleSeller  Role = "seller"
	RoleAdmin   Role = "admin"
)

var roleAliases = map[string]Role{
	"client":     RoleClient,
	"cliente":    RoleClient,
	"courier":    RoleCourier,
	"repartidor": RoleCourier,
	"seller":     RoleSeller,
	"vendedor":   RoleSeller,
	"admin":      RoleAdmin,
}

// ParseRole resolves a role name, accepting the legacy Spanish names.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	return r, ok
}

// Valid checks if the Role is valid
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleCourier, RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   int64
	Role Role
}

// Is reports whether the actor holds role r.
func (a Actor) Is(r Role) bool { return a.Role == r }

// User is a registered account as seen by the order core.
type User struct {
	ID        int64
	Name      string
	Email     string
	Role      Role
	PushToken string
}
