package supabase

import (
	"context"
	"time"

	"github.com/hansei/chulseok/core/school"
)

const (
	schoolsTable     = "schools"
	classesTable     = "classes"
	enrollmentsTable = "student_classes"
)

type schoolRepository struct {
	client *Client
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(client *Client) *schoolRepository {
	return &schoolRepository{client: client}
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	var inserted []school.School
	if err := repo.client.Post(ctx, schoolsTable, []school.School{sch}, true, &inserted); err != nil {
		return school.School{}, err
	}
	if len(inserted) == 0 {
		return school.School{}, school.ErrNotFound
	}
	return inserted[0], nil
}

func (repo schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	var rows []school.School
	q := NewQuery().Eq("id", id).Select("*")
	if err := repo.client.Get(ctx, schoolsTable, q, true, &rows); err != nil {
		return school.School{}, err
	}
	if len(rows) == 0 {
		return school.School{}, school.ErrNotFound
	}
	return rows[0], nil
}

func (repo schoolRepository) QueryAllSchools(ctx context.Context) ([]school.School, error) {
	var rows []school.School
	q := NewQuery().Select("*").Order("created_at.desc")
	if err := repo.client.Get(ctx, schoolsTable, q, true, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School) error {
	return repo.client.Patch(ctx, schoolsTable, NewQuery().Eq("id", sch.ID), sch, true)
}

func (repo schoolRepository) DeleteSchool(ctx context.Context, id string) error {
	return repo.client.Delete(ctx, schoolsTable, NewQuery().Eq("id", id), true)
}

// classRow carries the embedded school name the list views render.
type classRow struct {
	school.Class
	School *struct {
		Name string `json:"name"`
	} `json:"schools,omitempty"`
}

func (repo schoolRepository) unrowClasses(rows []classRow) []school.Class {
	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		cls := row.Class
		if row.School != nil {
			cls.SchoolName = row.School.Name
		}
		classes = append(classes, cls)
	}
	return classes
}

func (repo schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	var inserted []school.Class
	if err := repo.client.Post(ctx, classesTable, []school.Class{cls}, true, &inserted); err != nil {
		return school.Class{}, err
	}
	if len(inserted) == 0 {
		return school.Class{}, school.ErrNotFound
	}
	return inserted[0], nil
}

func (repo schoolRepository) GetClassByID(ctx context.Context, id string) (school.Class, error) {
	var rows []classRow
	q := NewQuery().Eq("id", id).Select("*,schools(name)")
	if err := repo.client.Get(ctx, classesTable, q, true, &rows); err != nil {
		return school.Class{}, err
	}
	if len(rows) == 0 {
		return school.Class{}, school.ErrNotFound
	}
	return repo.unrowClasses(rows)[0], nil
}

func (repo schoolRepository) QueryAllClasses(ctx context.Context) ([]school.Class, error) {
	var rows []classRow
	q := NewQuery().Select("*,schools(name)").Order("grade,class_number")
	if err := repo.client.Get(ctx, classesTable, q, true, &rows); err != nil {
		return nil, err
	}
	return repo.unrowClasses(rows), nil
}

func (repo schoolRepository) QueryClassesBySchool(ctx context.Context, schoolID string) ([]school.Class, error) {
	var rows []classRow
	q := NewQuery().Eq("school_id", schoolID).Select("*").Order("grade,class_number")
	if err := repo.client.Get(ctx, classesTable, q, true, &rows); err != nil {
		return nil, err
	}
	return repo.unrowClasses(rows), nil
}

func (repo schoolRepository) QueryClassesByTeacher(ctx context.Context, teacherEmail string) ([]school.Class, error) {
	var rows []classRow
	q := NewQuery().Eq("teacher_email", teacherEmail).Select("*,schools(name)").Order("grade,class_number")
	if err := repo.client.Get(ctx, classesTable, q, true, &rows); err != nil {
		return nil, err
	}
	return repo.unrowClasses(rows), nil
}

func (repo schoolRepository) UpdateClass(ctx context.Context, cls school.Class) error {
	cls.SchoolName = "" // embedded column, not writable
	return repo.client.Patch(ctx, classesTable, NewQuery().Eq("id", cls.ID), cls, true)
}

func (repo schoolRepository) DeleteClass(ctx context.Context, id string) error {
	return repo.client.Delete(ctx, classesTable, NewQuery().Eq("id", id), true)
}

func (repo schoolRepository) CreateEnrollment(ctx context.Context, enr school.Enrollment) error {
	row := map[string]interface{}{
		"student_email": enr.StudentEmail,
		"class_id":      enr.ClassID,
		"is_active":     enr.IsActive,
	}
	return repo.client.Post(ctx, enrollmentsTable, []map[string]interface{}{row}, true, nil)
}

func (repo schoolRepository) GetEnrollment(ctx context.Context, studentEmail, classID string) (school.Enrollment, error) {
	var rows []school.Enrollment
	q := NewQuery().Eq("student_email", studentEmail).Eq("class_id", classID).Select("*")
	if err := repo.client.Get(ctx, enrollmentsTable, q, true, &rows); err != nil {
		return school.Enrollment{}, err
	}
	if len(rows) == 0 {
		return school.Enrollment{}, school.ErrNotFound
	}
	return rows[0], nil
}

func (repo schoolRepository) QueryClassStudents(ctx context.Context, classID string) ([]school.ClassStudent, error) {
	type enrollmentRow struct {
		StudentEmail string `json:"student_email"`
		User         *struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"users"`
	}

	q := NewQuery().
		Eq("class_id", classID).
		Eq("is_active", true).
		Select("student_email,users(name,email)")
	var rows []enrollmentRow
	if err := repo.client.Get(ctx, enrollmentsTable, q, true, &rows); err != nil {
		return nil, err
	}

	students := make([]school.ClassStudent, 0, len(rows))
	for _, row := range rows {
		cs := school.ClassStudent{Email: row.StudentEmail}
		if row.User != nil {
			cs.Name = row.User.Name
		}
		students = append(students, cs)
	}
	return students, nil
}

func (repo schoolRepository) QueryStudentClasses(ctx context.Context, studentEmail string) ([]school.Class, error) {
	type enrollmentRow struct {
		Class *classRow `json:"classes"`
	}

	q := NewQuery().
		Eq("student_email", studentEmail).
		Eq("is_active", true).
		Select("*,classes(*,schools(name))")
	var rows []enrollmentRow
	if err := repo.client.Get(ctx, enrollmentsTable, q, true, &rows); err != nil {
		return nil, err
	}

	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		if row.Class == nil {
			continue
		}
		cls := row.Class.Class
		if row.Class.School != nil {
			cls.SchoolName = row.Class.School.Name
		}
		classes = append(classes, cls)
	}
	return classes, nil
}

func (repo schoolRepository) DeactivateEnrollment(ctx context.Context, studentEmail, classID string) error {
	patch := map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()}
	q := NewQuery().Eq("student_email", studentEmail).Eq("class_id", classID)
	return repo.client.Patch(ctx, enrollmentsTable, q, patch, true)
}
