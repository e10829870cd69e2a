package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hansei/chulseok/core/seating"
	"github.com/hansei/chulseok/core/user"
)

type userRepository struct {
	db *userTable
}

var (
	_ user.Repository = (*userRepository)(nil) // interface compliance check
	_ seating.Roster  = (*userRepository)(nil)
)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryAllUsers(_ context.Context, limit, offset int) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()
	if offset >= len(users) {
		return []user.User{}, nil
	}
	users = users[offset:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (repo *userRepository) SearchUsers(_ context.Context, query string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	query = strings.ToLower(query)
	var matched []user.User
	for _, usr := range repo.query() {
		if strings.Contains(strings.ToLower(usr.Name), query) ||
			strings.Contains(strings.ToLower(usr.Email), query) {
			matched = append(matched, usr)
		}
	}
	return matched, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
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
	if !usr.UpdatedAt.IsZero() {
		existing.UpdatedAt = usr.UpdatedAt
	}
	if isActive != nil {
		existing.IsActive = *isActive
	}
	return *existing, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.users, id)
	delete(repo.db.studentProfiles, id)
	delete(repo.db.teacherProfiles, id)
	return nil
}

func (repo *userRepository) CreateStudentProfile(_ context.Context, profile user.StudentProfile) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.studentProfiles[profile.UserID] = &profile
	return nil
}

func (repo *userRepository) GetStudentProfile(_ context.Context, userID string) (user.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if profile, ok := repo.db.studentProfiles[userID]; ok {
		return *profile, nil
	}
	return user.StudentProfile{}, user.ErrNotFound
}

func (repo *userRepository) CreateTeacherProfile(_ context.Context, profile user.TeacherProfile) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.teacherProfiles[profile.UserID] = &profile
	return nil
}

func (repo *userRepository) GetTeacherProfile(_ context.Context, userID string) (user.TeacherProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if profile, ok := repo.db.teacherProfiles[userID]; ok {
		return *profile, nil
	}
	return user.TeacherProfile{}, user.ErrNotFound
}

func (repo *userRepository) QueryStudentsByEmails(_ context.Context, emails []string) ([]seating.Occupant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[string]bool, len(emails))
	for _, email := range emails {
		wanted[email] = true
	}

	var occupants []seating.Occupant
	for _, usr := range repo.db.users {
		if usr.Role != user.RoleStudent || !wanted[usr.Email] {
			continue
		}
		occ := seating.Occupant{ID: usr.ID, Email: usr.Email, Name: usr.Name}
		if profile, ok := repo.db.studentProfiles[usr.ID]; ok {
			occ.Number = profile.StudentNumber
			occ.Grade = profile.Grade
			occ.ClassNumber = profile.ClassNumber
		}
		occupants = append(occupants, occ)
	}
	return occupants, nil
}
