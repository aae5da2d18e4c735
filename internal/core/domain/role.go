package domain

// Role is the closed set of principal kinds. A profile's role is assigned at
// registration and never changes afterwards.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleAdmin     Role = "admin"
)

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleDonor, RoleRecipient, RoleAdmin:
		return r, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// CanRequestBlood reports whether the role may open blood requests.
func (r Role) CanRequestBlood() bool { return r == RoleRecipient }

// CanDonate reports whether the role may express donation interest.
func (r Role) CanDonate() bool { return r == RoleDonor }

// IsOperator reports whether the role may override other principals' records.
func (r Role) IsOperator() bool { return r == RoleAdmin }

// SelfRegistrable reports whether an account with this role can be created
// through public registration. Admin accounts are provisioned by the operator.
func (r Role) SelfRegistrable() bool { return r == RoleDonor || r == RoleRecipient }
