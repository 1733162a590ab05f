package enums

// UserRole distinguishes shoppers from catalog administrators.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCustomer, UserRoleAdmin:
		return true
	default:
		return false
	}
}

func ParseUserRole(value string) (UserRole, error) {
	return parse("user role", value, []UserRole{UserRoleCustomer, UserRoleAdmin})
}
