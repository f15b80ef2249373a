package permission

import "fmt"

// Role is an organizational position. The set of roles is closed.
type Role string

const (
	RoleStudent       Role = "student"
	RoleTeacher       Role = "teacher"
	RoleCollegeAdmin  Role = "college_admin"
	RoleCollegeLeader Role = "college_leader"
	RoleGradAdmin     Role = "grad_admin"
	RoleGradLeader    Role = "grad_leader"
	RoleSchoolLeader  Role = "school_leader"
	RoleSystemAdmin   Role = "system_admin"
	RoleAuditAdmin    Role = "audit_admin"
)

var allRoles = []Role{
	RoleStudent,
	RoleTeacher,
	RoleCollegeAdmin,
	RoleCollegeLeader,
	RoleGradAdmin,
	RoleGradLeader,
	RoleSchoolLeader,
	RoleSystemAdmin,
	RoleAuditAdmin,
}

// AllRoles returns every role in declaration order.
func AllRoles() []Role {
	return append([]Role(nil), allRoles...)
}

// Valid reports whether r is a member of the role enum.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts s to a Role, rejecting unknown names.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("permission: unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}
