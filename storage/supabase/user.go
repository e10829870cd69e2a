package supabase

import (
	"context"
	"time"

	"github.com/hansei/chulseok/core/seating"
	"github.com/hansei/chulseok/core/user"
)

const (
	usersTable           = "users"
	studentProfilesTable = "student_profiles"
	teacherProfilesTable = "teacher_profiles"
)

type userRepository struct {
	client *Client
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(client *Client) *userRepository {
	return &userRepository{client: client}
}

type userRow struct {
	ID           string     `json:"id,omitempty"`
	GoogleID     *string    `json:"google_id,omitempty"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	ProfileImage *string    `json:"profile_image,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (repo userRepository) row(usr user.User) userRow {
	row := userRow{
		Email:    usr.Email,
		Name:     usr.Name,
		Role:     usr.Role,
		IsActive: usr.IsActive,
	}
	if usr.GoogleID != "" {
		row.GoogleID = &usr.GoogleID
	}
	if usr.ProfileImage != "" {
		row.ProfileImage = &usr.ProfileImage
	}
	if !usr.CreatedAt.IsZero() {
		t := usr.CreatedAt.UTC()
		row.CreatedAt = &t
	}
	if !usr.UpdatedAt.IsZero() {
		t := usr.UpdatedAt.UTC()
		row.UpdatedAt = &t
	}
	if !usr.LastLogin.IsZero() {
		t := usr.LastLogin.UTC()
		row.LastLogin = &t
	}
	return row
}

func (repo userRepository) unrow(row userRow) user.User {
	usr := user.User{
		ID:       row.ID,
		Email:    row.Email,
		Name:     row.Name,
		Role:     row.Role,
		IsActive: row.IsActive,
	}
	if row.GoogleID != nil {
		usr.GoogleID = *row.GoogleID
	}
	if row.ProfileImage != nil {
		usr.ProfileImage = *row.ProfileImage
	}
	if row.CreatedAt != nil {
		usr.CreatedAt = *row.CreatedAt
	}
	if row.UpdatedAt != nil {
		usr.UpdatedAt = *row.UpdatedAt
	}
	if row.LastLogin != nil {
		usr.LastLogin = *row.LastLogin
	}
	return usr
}

func (repo userRepository) unrowSlice(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unrow(row))
	}
	return users
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	var inserted []userRow
	if err := repo.client.Post(ctx, usersTable, []userRow{repo.row(usr)}, true, &inserted); err != nil {
		return user.User{}, err
	}
	if len(inserted) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unrow(inserted[0]), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getOne(ctx, NewQuery().Eq("id", id).Select("*"))
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getOne(ctx, NewQuery().Eq("email", email).Select("*"))
}

func (repo userRepository) getOne(ctx context.Context, q *Query) (user.User, error) {
	var rows []userRow
	if err := repo.client.Get(ctx, usersTable, q, true, &rows); err != nil {
		return user.User{}, err
	}
	if len(rows) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unrow(rows[0]), nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context, limit, offset int) ([]user.User, error) {
	q := NewQuery().Select("*").Order("created_at.desc").Limit(limit).Offset(offset)
	var rows []userRow
	if err := repo.client.Get(ctx, usersTable, q, true, &rows); err != nil {
		return nil, err
	}
	return repo.unrowSlice(rows), nil
}

func (repo userRepository) SearchUsers(ctx context.Context, query string) ([]user.User, error) {
	q := NewQuery().Select("*").
		Or("name.ilike.*"+query+"*", "email.ilike.*"+query+"*").
		Order("created_at.desc")
	var rows []userRow
	if err := repo.client.Get(ctx, usersTable, q, true, &rows); err != nil {
		return nil, err
	}
	return repo.unrowSlice(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	patch := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if usr.Name != "" {
		patch["name"] = usr.Name
	}
	if usr.Role != "" {
		patch["role"] = usr.Role
	}
	if usr.GoogleID != "" {
		patch["google_id"] = usr.GoogleID
	}
	if usr.ProfileImage != "" {
		patch["profile_image"] = usr.ProfileImage
	}
	if !usr.LastLogin.IsZero() {
		patch["last_login"] = usr.LastLogin.UTC()
	}
	if isActive != nil {
		patch["is_active"] = *isActive
	}

	if err := repo.client.Patch(ctx, usersTable, NewQuery().Eq("id", usr.ID), patch, true); err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) DeleteUser(ctx context.Context, id string) error {
	return repo.client.Delete(ctx, usersTable, NewQuery().Eq("id", id), true)
}

func (repo userRepository) CreateStudentProfile(ctx context.Context, profile user.StudentProfile) error {
	return repo.client.Post(ctx, studentProfilesTable, []user.StudentProfile{profile}, true, nil)
}

func (repo userRepository) GetStudentProfile(ctx context.Context, userID string) (user.StudentProfile, error) {
	var rows []user.StudentProfile
	q := NewQuery().Eq("user_id", userID).Select("*")
	if err := repo.client.Get(ctx, studentProfilesTable, q, true, &rows); err != nil {
		return user.StudentProfile{}, err
	}
	if len(rows) == 0 {
		return user.StudentProfile{}, user.ErrNotFound
	}
	return rows[0], nil
}

func (repo userRepository) CreateTeacherProfile(ctx context.Context, profile user.TeacherProfile) error {
	return repo.client.Post(ctx, teacherProfilesTable, []user.TeacherProfile{profile}, true, nil)
}

func (repo userRepository) GetTeacherProfile(ctx context.Context, userID string) (user.TeacherProfile, error) {
	var rows []user.TeacherProfile
	q := NewQuery().Eq("user_id", userID).Select("*")
	if err := repo.client.Get(ctx, teacherProfilesTable, q, true, &rows); err != nil {
		return user.TeacherProfile{}, err
	}
	if len(rows) == 0 {
		return user.TeacherProfile{}, user.ErrNotFound
	}
	return rows[0], nil
}

// QueryStudentsByEmails resolves seat occupants: student users plus their
// profile's student number and grade, fetched with an embedded select.
func (repo userRepository) QueryStudentsByEmails(ctx context.Context, emails []string) ([]seating.Occupant, error) {
	type profileRow struct {
		StudentNumber string `json:"student_id"`
		Grade         int    `json:"grade"`
		ClassNumber   int    `json:"class_number"`
	}
	type studentRow struct {
		ID       string       `json:"id"`
		Email    string       `json:"email"`
		Name     string       `json:"name"`
		Profiles []profileRow `json:"student_profiles"`
	}

	q := NewQuery().
		In("email", emails).
		Eq("role", user.RoleStudent).
		Select("id,email,name,student_profiles(student_id,grade,class_number)")
	var rows []studentRow
	if err := repo.client.Get(ctx, usersTable, q, true, &rows); err != nil {
		return nil, err
	}

	occupants := make([]seating.Occupant, 0, len(rows))
	for _, row := range rows {
		occ := seating.Occupant{ID: row.ID, Email: row.Email, Name: row.Name}
		if len(row.Profiles) > 0 {
			occ.Number = row.Profiles[0].StudentNumber
			occ.Grade = row.Profiles[0].Grade
			occ.ClassNumber = row.Profiles[0].ClassNumber
		}
		occupants = append(occupants, occ)
	}
	return occupants, nil
}

var _ seating.Roster = (*userRepository)(nil)
