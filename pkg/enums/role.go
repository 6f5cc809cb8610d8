package enums

// Role is the single account-level role carried in access tokens.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleScout  Role = "SCOUT"
	RoleAdmin  Role = "ADMIN"
)

var roles = newSet("role", RoleClient, RoleScout, RoleAdmin)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool { return roles.has(r) }

func ParseRole(value string) (Role, error) { return roles.parse(value) }

// SelfRegisterable reports whether the role can be chosen at sign-up.
// Admins only come from the bootstrap command or a promotion.
func (r Role) SelfRegisterable() bool {
	return r == RoleClient || r == RoleScout
}
