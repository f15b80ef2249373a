package permission

// Well-known navigation paths.
const (
	PathLogin          = "/login"
	PathDashboard      = "/dashboard"
	PathChangePassword = "/change-password"
)

// Route describes one navigable page and who may open it. A route with no
// roles is open to every authenticated user; a Public route needs no
// session at all.
type Route struct {
	Path   string
	Title  string
	Public bool
	Roles  []Role
}

// Permits reports whether role may open the route.
func (rt Route) Permits(role Role) bool {
	if len(rt.Roles) == 0 {
		return true
	}
	return RoleIn(role, rt.Roles...)
}

// DefaultRoutes returns the built-in navigation table.
func DefaultRoutes() []Route {
	managers := []Role{RoleCollegeAdmin, RoleCollegeLeader, RoleGradAdmin, RoleGradLeader, RoleSchoolLeader}
	withProfile := append([]Role{RoleStudent, RoleTeacher}, managers...)

	return []Route{
		{Path: PathLogin, Title: "Sign in", Public: true},
		{Path: PathDashboard, Title: "Home", Roles: AllRoles()},
		{Path: "/profile", Title: "Profile", Roles: withProfile},
		{Path: "/students", Title: "Students", Roles: managers},
		{Path: "/teachers", Title: "Supervisors", Roles: []Role{RoleGradAdmin, RoleGradLeader, RoleSchoolLeader}},
		{Path: "/my-students", Title: "My students", Roles: []Role{RoleTeacher}},
		{Path: "/user-management", Title: "Users", Roles: []Role{RoleSystemAdmin}},
		{Path: "/audit-logs", Title: "Audit log", Roles: []Role{RoleAuditAdmin}},
		{Path: "/import-export", Title: "Import and export", Roles: []Role{RoleCollegeAdmin, RoleGradAdmin, RoleSystemAdmin}},
		{Path: PathChangePassword, Title: "Change password", Roles: AllRoles()},
	}
}
