package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansei/chulseok/core"
)

type fakeRepo struct {
	users    map[string]User // by ID
	students map[string]StudentProfile
	teachers map[string]TeacherProfile

	failProfiles bool
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[string]User),
		students: make(map[string]StudentProfile),
		teachers: make(map[string]TeacherProfile),
	}
}

func (r *fakeRepo) CreateUser(_ context.Context, usr User) (User, error) {
	usr.ID = uuid.New().String()
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeRepo) GetUserByID(_ context.Context, id string) (User, error) {
	if usr, ok := r.users[id]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (User, error) {
	for _, usr := range r.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) QueryAllUsers(_ context.Context, limit, offset int) ([]User, error) {
	users := make([]User, 0, len(r.users))
	for _, usr := range r.users {
		users = append(users, usr)
	}
	return users, nil
}

func (r *fakeRepo) SearchUsers(_ context.Context, query string) ([]User, error) {
	return nil, nil
}

func (r *fakeRepo) UpdateUser(_ context.Context, usr User, isActive *bool) (User, error) {
	existing, ok := r.users[usr.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	if usr.Name != "" {
		existing.Name = usr.Name
	}
	if usr.Role != "" {
		existing.Role = usr.Role
	}
	if usr.GoogleID != "" {
		existing.GoogleID = usr.GoogleID
	}
	if usr.ProfileImage != "" {
		existing.ProfileImage = usr.ProfileImage
	}
	if !usr.LastLogin.IsZero() {
		existing.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		existing.IsActive = *isActive
	}
	existing.UpdatedAt = usr.UpdatedAt
	r.users[usr.ID] = existing
	return existing, nil
}

func (r *fakeRepo) DeleteUser(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeRepo) CreateStudentProfile(_ context.Context, profile StudentProfile) error {
	if r.failProfiles {
		return core.NewUpstreamError("POST student_profiles", assert.AnError)
	}
	r.students[profile.UserID] = profile
	return nil
}

func (r *fakeRepo) GetStudentProfile(_ context.Context, userID string) (StudentProfile, error) {
	if p, ok := r.students[userID]; ok {
		return p, nil
	}
	return StudentProfile{}, ErrNotFound
}

func (r *fakeRepo) CreateTeacherProfile(_ context.Context, profile TeacherProfile) error {
	if r.failProfiles {
		return core.NewUpstreamError("POST teacher_profiles", assert.AnError)
	}
	r.teachers[profile.UserID] = profile
	return nil
}

func (r *fakeRepo) GetTeacherProfile(_ context.Context, userID string) (TeacherProfile, error) {
	if p, ok := r.teachers[userID]; ok {
		return p, nil
	}
	return TeacherProfile{}, ErrNotFound
}

func TestServiceCreateWithProfile(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	usr, err := svc.Create(ctx, NewUser{
		Email:   "student@hansei.hs.kr",
		Name:    "김철수",
		Role:    RoleStudent,
		Student: &NewStudentProfile{StudentNumber: "20240101", Grade: 2, ClassNumber: 3},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)

	profile, err := svc.StudentProfile(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "20240101", profile.StudentNumber)
}

func TestServiceCreatePartialFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failProfiles = true
	svc := NewService(repo)

	usr, err := svc.Create(context.Background(), NewUser{
		Email:   "teacher@hansei.hs.kr",
		Name:    "이선생",
		Role:    RoleTeacher,
		Teacher: &NewTeacherProfile{Subject: "수학"},
	})
	require.Error(t, err)
	assert.True(t, core.IsPartial(err))
	// the user row survives the failed profile insert
	assert.NotEmpty(t, usr.ID)
	_, getErr := svc.GetByEmail(context.Background(), "teacher@hansei.hs.kr")
	assert.NoError(t, getErr)
}

func TestServiceEmailUniqueness(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	nu := NewUser{Email: "dup@hansei.hs.kr", Name: "첫번째", Role: RoleStudent}
	require.NoError(t, nu.Validate(ctx, svc))
	_, err := svc.Create(ctx, nu)
	require.NoError(t, err)

	dup := NewUser{Email: "dup@hansei.hs.kr", Name: "두번째", Role: RoleStudent}
	err = dup.Validate(ctx, svc)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestServiceSyncGoogleLogin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	usr, err := svc.Create(ctx, NewUser{Email: "login@hansei.hs.kr", Name: "박영희", Role: RoleTeacher})
	require.NoError(t, err)
	require.True(t, usr.LastLogin.IsZero())

	synced, err := svc.SyncGoogleLogin(ctx, usr, "google-sub-123", "https://img.example/p.png")
	require.NoError(t, err)
	assert.Equal(t, "google-sub-123", synced.GoogleID)
	assert.Equal(t, "https://img.example/p.png", synced.ProfileImage)
	assert.WithinDuration(t, time.Now().UTC(), synced.LastLogin, 5*time.Second)
}

func TestServiceSetActive(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	usr, err := svc.Create(ctx, NewUser{Email: "x@hansei.hs.kr", Name: "대상", Role: RoleStudent})
	require.NoError(t, err)

	usr, err = svc.SetActive(ctx, usr.ID, false)
	require.NoError(t, err)
	assert.False(t, usr.IsActive)
}
