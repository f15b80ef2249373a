package permission

// Permission is an opaque token naming one capability.
type Permission string

const (
	DashboardView    Permission = "dashboard:view"
	ProfileView      Permission = "profile:view"
	ProfileUpdate    Permission = "profile:update"
	PasswordChange   Permission = "password:change"
	StudentRead      Permission = "student:read"
	StudentCreate    Permission = "student:create"
	StudentUpdate    Permission = "student:update"
	StudentDelete    Permission = "student:delete"
	StudentExport    Permission = "student:export"
	StudentImport    Permission = "student:import"
	TeacherRead      Permission = "teacher:read"
	TeacherManage    Permission = "teacher:manage"
	SupervisionRead  Permission = "supervision:read"
	CollegeRead      Permission = "college:read"
	UserManage       Permission = "user:manage"
	AuditRead        Permission = "audit:read"
	DataImport       Permission = "data:import"
	DataExport       Permission = "data:export"
)

var allPermissions = []Permission{
	DashboardView,
	ProfileView,
	ProfileUpdate,
	PasswordChange,
	StudentRead,
	StudentCreate,
	StudentUpdate,
	StudentDelete,
	StudentExport,
	StudentImport,
	TeacherRead,
	TeacherManage,
	SupervisionRead,
	CollegeRead,
	UserManage,
	AuditRead,
	DataImport,
	DataExport,
}

// AllPermissions returns every known token in declaration order.
func AllPermissions() []Permission {
	return append([]Permission(nil), allPermissions...)
}
