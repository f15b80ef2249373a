package permission

var (
	selfService = []Permission{DashboardView, ProfileView, ProfileUpdate, PasswordChange}
	studentCRUD = []Permission{StudentRead, StudentCreate, StudentUpdate, StudentDelete, StudentExport, StudentImport}
)

// DefaultTable returns a fresh copy of the built-in role table. Every role
// in the enum has an entry.
func DefaultTable() map[Role][]Permission {
	return map[Role][]Permission{
		RoleStudent: join(selfService),
		RoleTeacher: join(selfService, []Permission{SupervisionRead}),
		RoleCollegeAdmin: join(selfService, studentCRUD,
			[]Permission{CollegeRead, DataImport, DataExport}),
		RoleCollegeLeader: join(selfService,
			[]Permission{StudentRead, StudentExport, CollegeRead}),
		RoleGradAdmin: join(selfService, studentCRUD,
			[]Permission{TeacherRead, TeacherManage, CollegeRead, DataImport, DataExport}),
		RoleGradLeader: join(selfService,
			[]Permission{StudentRead, StudentExport, TeacherRead, CollegeRead}),
		RoleSchoolLeader: join(selfService,
			[]Permission{StudentRead, StudentExport, TeacherRead, CollegeRead}),
		RoleSystemAdmin: {DashboardView, PasswordChange, UserManage, DataImport, DataExport},
		RoleAuditAdmin:  {DashboardView, PasswordChange, AuditRead},
	}
}

func join(groups ...[]Permission) []Permission {
	var out []Permission
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
