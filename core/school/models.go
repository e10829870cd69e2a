package school

import (
	"time"

	"github.com/hansei/chulseok/core"
)

type (
	School struct {
		ID            string    `json:"id,omitempty"`
		Name          string    `json:"name"`
		GradeCount    int       `json:"grade_count"`
		Address       string    `json:"address,omitempty"`
		Phone         string    `json:"phone,omitempty"`
		Email         string    `json:"email,omitempty"`
		PrincipalName string    `json:"principal_name,omitempty"`
		Website       string    `json:"website,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
	}

	Class struct {
		ID           string    `json:"id,omitempty"`
		SchoolID     string    `json:"school_id"`
		SchoolName   string    `json:"school_name,omitempty"`
		Grade        int       `json:"grade"`
		ClassNumber  int       `json:"class_number"`
		ClassName    string    `json:"class_name"`
		TeacherEmail string    `json:"teacher_email,omitempty"`
		RoomNumber   string    `json:"room_number,omitempty"`
		MaxStudents  int       `json:"max_students,omitempty"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	// Enrollment links a student to a class. Removal flips IsActive off so
	// historical attendance keeps its roster context.
	Enrollment struct {
		ID           string    `json:"id,omitempty"`
		StudentEmail string    `json:"student_email"`
		ClassID      string    `json:"class_id"`
		IsActive     bool      `json:"is_active"`
		EnrolledAt   time.Time `json:"enrolled_at,omitempty"`
	}

	// Roster entry for a class listing: enrollment joined with the user row.
	ClassStudent struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
)

type NewSchool struct {
	Name          string `json:"name" validate:"required"`
	GradeCount    int    `json:"grade_count" validate:"min=0"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	PrincipalName string `json:"principal_name"`
	Website       string `json:"website"`
}

func (ns *NewSchool) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return core.Validate.Struct(ns)
}

type UpdateSchool struct {
	Name          *string `json:"name"`
	GradeCount    *int    `json:"grade_count"`
	Address       *string `json:"address"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	PrincipalName *string `json:"principal_name"`
	Website       *string `json:"website"`
}

func (us *UpdateSchool) Validate() error {
	if us.Name != nil {
		*us.Name = core.CleanString(*us.Name)
	}
	if us.Email != nil {
		*us.Email = core.CleanString(*us.Email, true)
	}
	return core.Validate.Struct(us)
}

func (us *UpdateSchool) IsEmpty() bool {
	return us.Name == nil && us.GradeCount == nil && us.Address == nil &&
		us.Phone == nil && us.Email == nil && us.PrincipalName == nil && us.Website == nil
}

type NewClass struct {
	SchoolID     string `json:"school_id" validate:"required"`
	Grade        int    `json:"grade" validate:"required,min=1"`
	ClassNumber  int    `json:"class_number" validate:"required,min=1"`
	ClassName    string `json:"class_name" validate:"required"`
	TeacherEmail string `json:"teacher_email" validate:"omitempty,email"`
	RoomNumber   string `json:"room_number"`
	MaxStudents  int    `json:"max_students" validate:"min=0"`
}

func (nc *NewClass) Validate() error {
	nc.ClassName = core.CleanString(nc.ClassName)
	nc.TeacherEmail = core.CleanString(nc.TeacherEmail, true)
	return core.Validate.Struct(nc)
}

type UpdateClass struct {
	Grade        *int    `json:"grade" validate:"omitempty,min=1"`
	ClassNumber  *int    `json:"class_number" validate:"omitempty,min=1"`
	ClassName    *string `json:"class_name"`
	TeacherEmail *string `json:"teacher_email" validate:"omitempty,email"`
	RoomNumber   *string `json:"room_number"`
	MaxStudents  *int    `json:"max_students" validate:"omitempty,min=0"`
}

func (uc *UpdateClass) Validate() error {
	if uc.ClassName != nil {
		*uc.ClassName = core.CleanString(*uc.ClassName)
	}
	if uc.TeacherEmail != nil {
		*uc.TeacherEmail = core.CleanString(*uc.TeacherEmail, true)
	}
	return core.Validate.Struct(uc)
}

func (uc *UpdateClass) IsEmpty() bool {
	return uc.Grade == nil && uc.ClassNumber == nil && uc.ClassName == nil &&
		uc.TeacherEmail == nil && uc.RoomNumber == nil && uc.MaxStudents == nil
}
