package user

import (
	"context"
	"time"

	"github.com/hansei/chulseok/core"
)

// Roles. A user holds exactly one role.
const (
	RoleStudent    = "student"
	RoleTeacher    = "teacher"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Permissions
const (
	PermFullAccess           = "full_access"
	PermViewStudentDashboard = "view_student_dashboard"
	PermSubmitAssignments    = "submit_assignments"
	PermViewGrades           = "view_grades"
	PermViewTeacherDashboard = "view_teacher_dashboard"
	PermManageAssignments    = "manage_assignments"
	PermGradeAssignments     = "grade_assignments"
	PermViewStudentList      = "view_student_list"
	PermViewAdminDashboard   = "view_admin_dashboard"
	PermManageUsers          = "manage_users"
	PermManageSystem         = "manage_system"
	PermViewAllData          = "view_all_data"
)

var (
	AllRoles = []string{RoleStudent, RoleTeacher, RoleAdmin, RoleSuperAdmin}

	rolePermissions = map[string][]string{
		RoleStudent:    {PermViewStudentDashboard, PermSubmitAssignments, PermViewGrades},
		RoleTeacher:    {PermViewTeacherDashboard, PermManageAssignments, PermGradeAssignments, PermViewStudentList},
		RoleAdmin:      {PermViewAdminDashboard, PermManageUsers, PermManageSystem, PermViewAllData},
		RoleSuperAdmin: {PermFullAccess},
	}

	roleNames = map[string]string{
		RoleStudent:    "학생",
		RoleTeacher:    "교사",
		RoleAdmin:      "관리자",
		RoleSuperAdmin: "최고관리자",
	}
)

func KnownRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

func RoleName(role string) string {
	if name, ok := roleNames[role]; ok {
		return name
	}
	return role
}

// RoleHasPermission reports whether role grants perm. full_access grants everything.
func RoleHasPermission(role, perm string) bool {
	for _, p := range rolePermissions[role] {
		if p == perm || p == PermFullAccess {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	GoogleID     string    `json:"google_id,omitempty"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profile_image,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) HasPermission(perm string) bool { return RoleHasPermission(u.Role, perm) }
func (u *User) IsStudent() bool                { return u.Role == RoleStudent }
func (u *User) IsTeacher() bool                { return u.Role == RoleTeacher }
func (u *User) IsAdmin() bool                  { return u.Role == RoleAdmin || u.Role == RoleSuperAdmin }
func (u *User) IsSuperAdmin() bool             { return u.Role == RoleSuperAdmin }

// StudentProfile is the 1:1 role extension of a student User.
type StudentProfile struct {
	UserID        string `json:"user_id"`
	StudentNumber string `json:"student_id"` // 학번
	Grade         int    `json:"grade"`
	ClassNumber   int    `json:"class_number"`
	AdmissionYear int    `json:"admission_year"`
	Department    string `json:"department,omitempty"`
	Phone         string `json:"phone,omitempty"`
	ParentPhone   string `json:"parent_phone,omitempty"`
}

// TeacherProfile is the 1:1 role extension of a teacher User.
type TeacherProfile struct {
	UserID         string `json:"user_id"`
	EmployeeID     string `json:"employee_id"`
	Subject        string `json:"subject,omitempty"`
	Responsibility string `json:"responsibility,omitempty"`
	Position       string `json:"position,omitempty"`
	Department     string `json:"department,omitempty"`
	Phone          string `json:"phone,omitempty"`
	OfficeLocation string `json:"office_location,omitempty"`
}

// NewUser contains information needed to create a new User.
// The Google ID is filled in on the user's first OAuth login.
type NewUser struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,knownrole"`
	IsActive *bool  `json:"is_active"`

	Student *NewStudentProfile `json:"student,omitempty"`
	Teacher *NewTeacherProfile `json:"teacher,omitempty"`
}

type NewStudentProfile struct {
	StudentNumber string `json:"student_id" validate:"required"`
	Grade         int    `json:"grade" validate:"required,min=1,max=3"`
	ClassNumber   int    `json:"class_number" validate:"required,min=1"`
	AdmissionYear int    `json:"admission_year"`
	Department    string `json:"department"`
	Phone         string `json:"phone"`
	ParentPhone   string `json:"parent_phone"`
}

type NewTeacherProfile struct {
	EmployeeID     string `json:"employee_id" validate:"required"`
	Subject        string `json:"subject"`
	Responsibility string `json:"responsibility"`
	Position       string `json:"position"`
	Department     string `json:"department"`
	Phone          string `json:"phone"`
	OfficeLocation string `json:"office_location"`
}

func (nu *NewUser) Validate(ctx context.Context, svc *Service) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkEmailUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name     string `json:"name"`
	Role     string `json:"role" validate:"omitempty,knownrole"`
	IsActive *bool  `json:"is_active"`
}

func (uu *UpdateUser) Validate() error {
	uu.Name = core.CleanString(uu.Name)
	return core.Validate.Struct(uu)
}

func (uu *UpdateUser) IsEmpty() bool {
	return uu.Name == "" && uu.Role == "" && uu.IsActive == nil
}
