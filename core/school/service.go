package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hansei/chulseok/core"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this class")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		QueryAllSchools(ctx context.Context) ([]School, error)
		UpdateSchool(ctx context.Context, sch School) error
		DeleteSchool(ctx context.Context, id string) error

		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		QueryAllClasses(ctx context.Context) ([]Class, error)
		QueryClassesBySchool(ctx context.Context, schoolID string) ([]Class, error)
		QueryClassesByTeacher(ctx context.Context, teacherEmail string) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) error
		DeleteClass(ctx context.Context, id string) error

		CreateEnrollment(ctx context.Context, enr Enrollment) error
		GetEnrollment(ctx context.Context, studentEmail, classID string) (Enrollment, error)
		QueryClassStudents(ctx context.Context, classID string) ([]ClassStudent, error)
		QueryStudentClasses(ctx context.Context, studentEmail string) ([]Class, error)
		DeactivateEnrollment(ctx context.Context, studentEmail, classID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateSchool(ctx context.Context, ns NewSchool) (School, error) {
	now := time.Now().UTC()
	sch := School{
		Name:          ns.Name,
		GradeCount:    ns.GradeCount,
		Address:       ns.Address,
		Phone:         ns.Phone,
		Email:         ns.Email,
		PrincipalName: ns.PrincipalName,
		Website:       ns.Website,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateSchool(ctx, sch)
}

func (svc *Service) GetSchool(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) QuerySchools(ctx context.Context) ([]School, error) {
	return svc.repo.QueryAllSchools(ctx)
}

func (svc *Service) UpdateSchool(ctx context.Context, id string, us UpdateSchool) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	if us.Name != nil {
		sch.Name = *us.Name
	}
	if us.GradeCount != nil {
		sch.GradeCount = *us.GradeCount
	}
	if us.Address != nil {
		sch.Address = *us.Address
	}
	if us.Phone != nil {
		sch.Phone = *us.Phone
	}
	if us.Email != nil {
		sch.Email = *us.Email
	}
	if us.PrincipalName != nil {
		sch.PrincipalName = *us.PrincipalName
	}
	if us.Website != nil {
		sch.Website = *us.Website
	}
	sch.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateSchool(ctx, sch); err != nil {
		return School{}, err
	}
	return sch, nil
}

func (svc *Service) DeleteSchool(ctx context.Context, id string) error {
	return svc.repo.DeleteSchool(ctx, id)
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	if _, err := svc.repo.GetSchoolByID(ctx, nc.SchoolID); err != nil {
		if err == ErrNotFound {
			return Class{}, core.NewValidationError(err, core.FieldError{Field: "school_id", Error: "school does not exist"})
		}
		return Class{}, err
	}

	now := time.Now().UTC()
	cls := Class{
		SchoolID:     nc.SchoolID,
		Grade:        nc.Grade,
		ClassNumber:  nc.ClassNumber,
		ClassName:    nc.ClassName,
		TeacherEmail: nc.TeacherEmail,
		RoomNumber:   nc.RoomNumber,
		MaxStudents:  nc.MaxStudents,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) QueryClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryAllClasses(ctx)
}

func (svc *Service) ClassesBySchool(ctx context.Context, schoolID string) ([]Class, error) {
	return svc.repo.QueryClassesBySchool(ctx, schoolID)
}

func (svc *Service) ClassesByTeacher(ctx context.Context, teacherEmail string) ([]Class, error) {
	return svc.repo.QueryClassesByTeacher(ctx, teacherEmail)
}

func (svc *Service) UpdateClass(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if uc.Grade != nil {
		cls.Grade = *uc.Grade
	}
	if uc.ClassNumber != nil {
		cls.ClassNumber = *uc.ClassNumber
	}
	if uc.ClassName != nil {
		cls.ClassName = *uc.ClassName
	}
	if uc.TeacherEmail != nil {
		cls.TeacherEmail = *uc.TeacherEmail
	}
	if uc.RoomNumber != nil {
		cls.RoomNumber = *uc.RoomNumber
	}
	if uc.MaxStudents != nil {
		cls.MaxStudents = *uc.MaxStudents
	}
	cls.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateClass(ctx, cls); err != nil {
		return Class{}, err
	}
	return cls, nil
}

func (svc *Service) DeleteClass(ctx context.Context, id string) error {
	return svc.repo.DeleteClass(ctx, id)
}

// TeacherCoversStudents reports whether every student is actively enrolled
// in one of teacherEmail's classes. A teacher with no classes covers nobody.
func (svc *Service) TeacherCoversStudents(ctx context.Context, teacherEmail string, studentEmails []string) (bool, error) {
	owned, err := svc.repo.QueryClassesByTeacher(ctx, teacherEmail)
	if err != nil {
		return false, err
	}
	if len(owned) == 0 {
		return false, nil
	}
	ownedIDs := make(map[string]bool, len(owned))
	for _, cls := range owned {
		ownedIDs[cls.ID] = true
	}

	for _, email := range studentEmails {
		classes, err := svc.repo.QueryStudentClasses(ctx, core.CleanString(email, true /* lower */))
		if err != nil {
			return false, err
		}
		covered := false
		for _, cls := range classes {
			if ownedIDs[cls.ID] {
				covered = true
				break
			}
		}
		if !covered {
			return false, nil
		}
	}
	return true, nil
}

// OwnsClass reports whether teacherEmail is the homeroom teacher of classID.
func (svc *Service) OwnsClass(ctx context.Context, teacherEmail, classID string) (bool, error) {
	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return cls.TeacherEmail == teacherEmail, nil
}

func (svc *Service) Enroll(ctx context.Context, studentEmail, classID string) error {
	studentEmail = core.CleanString(studentEmail, true /* lower */)

	if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
		return err
	}
	if enr, err := svc.repo.GetEnrollment(ctx, studentEmail, classID); err == nil && enr.IsActive {
		return core.NewValidationError(ErrAlreadyEnrolled,
			core.FieldError{Field: "student_email", Error: ErrAlreadyEnrolled.Error()})
	} else if err != nil && err != ErrNotFound {
		return err
	}

	return svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentEmail: studentEmail,
		ClassID:      classID,
		IsActive:     true,
		EnrolledAt:   time.Now().UTC(),
	})
}

// RemoveStudent deactivates the enrollment instead of deleting it so past
// attendance records keep their roster context.
func (svc *Service) RemoveStudent(ctx context.Context, studentEmail, classID string) error {
	studentEmail = core.CleanString(studentEmail, true)
	if _, err := svc.repo.GetEnrollment(ctx, studentEmail, classID); err != nil {
		return err
	}
	return svc.repo.DeactivateEnrollment(ctx, studentEmail, classID)
}

func (svc *Service) ClassStudents(ctx context.Context, classID string) ([]ClassStudent, error) {
	if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.QueryClassStudents(ctx, classID)
}

func (svc *Service) StudentClasses(ctx context.Context, studentEmail string) ([]Class, error) {
	return svc.repo.QueryStudentClasses(ctx, core.CleanString(studentEmail, true))
}
