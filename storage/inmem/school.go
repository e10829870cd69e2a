package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/hansei/chulseok/core/school"
)

type schoolRepository struct {
	db    *schoolTable
	users *userTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db.school, users: db.user}
}

func enrollmentKey(studentEmail, classID string) string {
	return studentEmail + "|" + classID
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sch.ID = uuid.New().String()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(_ context.Context, id string) (school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryAllSchools(_ context.Context) ([]school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		schools = append(schools, *sch)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].CreatedAt.After(schools[j].CreatedAt) })
	return schools, nil
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, sch school.School) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.schools[sch.ID]; !ok {
		return school.ErrNotFound
	}
	repo.db.schools[sch.ID] = &sch
	return nil
}

func (repo *schoolRepository) DeleteSchool(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.schools[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.schools, id)
	return nil
}

func (repo *schoolRepository) queryClasses(match func(*school.Class) bool) []school.Class {
	var classes []school.Class
	for _, cls := range repo.db.classes {
		if match(cls) {
			c := *cls
			if sch, ok := repo.db.schools[c.SchoolID]; ok {
				c.SchoolName = sch.Name
			}
			classes = append(classes, c)
		}
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Grade != classes[j].Grade {
			return classes[i].Grade < classes[j].Grade
		}
		return classes[i].ClassNumber < classes[j].ClassNumber
	})
	return classes
}

func (repo *schoolRepository) CreateClass(_ context.Context, cls school.Class) (school.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = uuid.New().String()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) GetClassByID(_ context.Context, id string) (school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		c := *cls
		if sch, ok := repo.db.schools[c.SchoolID]; ok {
			c.SchoolName = sch.Name
		}
		return c, nil
	}
	return school.Class{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryAllClasses(_ context.Context) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryClasses(func(*school.Class) bool { return true }), nil
}

func (repo *schoolRepository) QueryClassesBySchool(_ context.Context, schoolID string) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryClasses(func(cls *school.Class) bool { return cls.SchoolID == schoolID }), nil
}

func (repo *schoolRepository) QueryClassesByTeacher(_ context.Context, teacherEmail string) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryClasses(func(cls *school.Class) bool { return cls.TeacherEmail == teacherEmail }), nil
}

func (repo *schoolRepository) UpdateClass(_ context.Context, cls school.Class) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[cls.ID]; !ok {
		return school.ErrNotFound
	}
	cls.SchoolName = ""
	repo.db.classes[cls.ID] = &cls
	return nil
}

func (repo *schoolRepository) DeleteClass(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.classes, id)
	return nil
}

func (repo *schoolRepository) CreateEnrollment(_ context.Context, enr school.Enrollment) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	enr.ID = uuid.New().String()
	repo.db.enrollments[enrollmentKey(enr.StudentEmail, enr.ClassID)] = &enr
	return nil
}

func (repo *schoolRepository) GetEnrollment(_ context.Context, studentEmail, classID string) (school.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.enrollments[enrollmentKey(studentEmail, classID)]; ok {
		return *enr, nil
	}
	return school.Enrollment{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryClassStudents(_ context.Context, classID string) ([]school.ClassStudent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	repo.users.RLock()
	defer repo.users.RUnlock()

	var students []school.ClassStudent
	for _, enr := range repo.db.enrollments {
		if enr.ClassID != classID || !enr.IsActive {
			continue
		}
		cs := school.ClassStudent{Email: enr.StudentEmail}
		for _, usr := range repo.users.users {
			if usr.Email == enr.StudentEmail {
				cs.Name = usr.Name
				break
			}
		}
		students = append(students, cs)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Email < students[j].Email })
	return students, nil
}

func (repo *schoolRepository) QueryStudentClasses(_ context.Context, studentEmail string) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classIDs := make(map[string]bool)
	for _, enr := range repo.db.enrollments {
		if enr.StudentEmail == studentEmail && enr.IsActive {
			classIDs[enr.ClassID] = true
		}
	}
	return repo.queryClasses(func(cls *school.Class) bool { return classIDs[cls.ID] }), nil
}

func (repo *schoolRepository) DeactivateEnrollment(_ context.Context, studentEmail, classID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	enr, ok := repo.db.enrollments[enrollmentKey(studentEmail, classID)]
	if !ok {
		return school.ErrNotFound
	}
	enr.IsActive = false
	return nil
}
