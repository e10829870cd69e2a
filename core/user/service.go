package user

import (
	"context"
	"errors"
	"time"

	"github.com/hansei/chulseok/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryAllUsers returns users ordered by creation time, newest first.
		QueryAllUsers(ctx context.Context, limit, offset int) ([]User, error)
		// SearchUsers does a case-insensitive match on name or email.
		SearchUsers(ctx context.Context, query string) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		DeleteUser(ctx context.Context, id string) error

		CreateStudentProfile(ctx context.Context, profile StudentProfile) error
		GetStudentProfile(ctx context.Context, userID string) (StudentProfile, error)
		CreateTeacherProfile(ctx context.Context, profile TeacherProfile) error
		GetTeacherProfile(ctx context.Context, userID string) (TeacherProfile, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkEmailUniqueness(ctx context.Context, email string) error {
	if _, err := svc.repo.GetUserByEmail(ctx, email); err == nil {
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if err != ErrNotFound {
		return err
	}
	return nil
}

// Create inserts the user row and, when the role carries one, its profile row.
// A failed profile insert does not roll back the user row: it is reported as a
// PartialError so the caller can remediate manually.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		Name:      nu.Name,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nu.IsActive != nil {
		usr.IsActive = *nu.IsActive
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	switch usr.Role {
	case RoleStudent:
		if nu.Student != nil {
			profile := StudentProfile{
				UserID:        usr.ID,
				StudentNumber: nu.Student.StudentNumber,
				Grade:         nu.Student.Grade,
				ClassNumber:   nu.Student.ClassNumber,
				AdmissionYear: nu.Student.AdmissionYear,
				Department:    nu.Student.Department,
				Phone:         nu.Student.Phone,
				ParentPhone:   nu.Student.ParentPhone,
			}
			if err := svc.repo.CreateStudentProfile(ctx, profile); err != nil {
				return usr, core.NewPartialError("user created but student profile creation failed", err)
			}
		}
	case RoleTeacher:
		if nu.Teacher != nil {
			profile := TeacherProfile{
				UserID:         usr.ID,
				EmployeeID:     nu.Teacher.EmployeeID,
				Subject:        nu.Teacher.Subject,
				Responsibility: nu.Teacher.Responsibility,
				Position:       nu.Teacher.Position,
				Department:     nu.Teacher.Department,
				Phone:          nu.Teacher.Phone,
				OfficeLocation: nu.Teacher.OfficeLocation,
			}
			if err := svc.repo.CreateTeacherProfile(ctx, profile); err != nil {
				return usr, core.NewPartialError("user created but teacher profile creation failed", err)
			}
		}
	}
	return usr, nil
}

func (svc *Service) QueryAll(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 100
	}
	return svc.repo.QueryAllUsers(ctx, limit, offset)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Search(ctx context.Context, query string) ([]User, error) {
	return svc.repo.SearchUsers(ctx, core.CleanString(query))
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Role:      uu.Role,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *Service) SetActive(ctx context.Context, id string, active bool) (User, error) {
	return svc.repo.UpdateUser(ctx, User{ID: id, UpdatedAt: time.Now().UTC()}, &active)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteUser(ctx, id)
}

// SyncGoogleLogin records a successful external login: google_id on first
// login, fresh profile image and last_login every time. A failed sync is not
// fatal to the login itself; callers may log and continue.
func (svc *Service) SyncGoogleLogin(ctx context.Context, usr User, googleID, picture string) (User, error) {
	now := time.Now().UTC()
	updated := User{
		ID:           usr.ID,
		GoogleID:     googleID,
		ProfileImage: picture,
		LastLogin:    now,
		UpdatedAt:    now,
	}
	synced, err := svc.repo.UpdateUser(ctx, updated, nil)
	if err != nil {
		return usr, err
	}
	return synced, nil
}

func (svc *Service) StudentProfile(ctx context.Context, userID string) (StudentProfile, error) {
	return svc.repo.GetStudentProfile(ctx, userID)
}

func (svc *Service) TeacherProfile(ctx context.Context, userID string) (TeacherProfile, error) {
	return svc.repo.GetTeacherProfile(ctx, userID)
}
