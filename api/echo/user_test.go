package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansei/chulseok/core/user"
)

func TestUserAPIAccess(t *testing.T) {
	deps := newTestServer(t)
	admin := deps.seedUser(t, "admin@hansei.hs.kr", "관리자", user.RoleAdmin)
	student := deps.seedUser(t, "student@hansei.hs.kr", "김철수", user.RoleStudent)

	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	tests := []httpTest{
		{name: "list requires auth", method: http.MethodGet, path: "/v1/users", wantCode: http.StatusUnauthorized},
		{name: "list forbidden for students", method: http.MethodGet, path: "/v1/users", token: studentToken, wantCode: http.StatusForbidden},
		{name: "list ok for admin", method: http.MethodGet, path: "/v1/users", token: adminToken, wantCode: http.StatusOK},
		{name: "retrieve self ok", method: http.MethodGet, path: "/v1/users/" + student.ID, token: studentToken, wantCode: http.StatusOK},
		{name: "retrieve other hidden from students", method: http.MethodGet, path: "/v1/users/" + admin.ID, token: studentToken, wantCode: http.StatusNotFound},
		{name: "unknown id is 404", method: http.MethodGet, path: "/v1/users/nope", token: adminToken, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			deps.server.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestUserAPICreate(t *testing.T) {
	deps := newTestServer(t)
	admin := deps.seedUser(t, "admin@hansei.hs.kr", "관리자", user.RoleAdmin)
	token := getToken(t, admin)

	body := marshallObj(t, user.NewUser{
		Email: "new@hansei.hs.kr",
		Name:  "박영희",
		Role:  user.RoleStudent,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/users", token, body)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp UserResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "new@hansei.hs.kr", resp.User.Email)
	assert.NotEmpty(t, resp.User.ID)

	// duplicate email is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/users", token, body)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserAPIRetrieveProfile(t *testing.T) {
	deps := newTestServer(t)
	admin := deps.seedUser(t, "admin@hansei.hs.kr", "관리자", user.RoleAdmin)
	student := deps.seedUser(t, "student@hansei.hs.kr", "김철수", user.RoleStudent)
	bare := deps.seedUser(t, "bare@hansei.hs.kr", "박영희", user.RoleStudent)
	token := getToken(t, admin)

	err := deps.userRepo.CreateStudentProfile(context.Background(), user.StudentProfile{
		UserID: student.ID, StudentNumber: "20240101", Grade: 1, ClassNumber: 2,
	})
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+student.ID, token)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserDetailResponse
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.Student)
	assert.Equal(t, "20240101", resp.Student.StudentNumber)
	assert.Nil(t, resp.Teacher)

	// a missing profile row does not break retrieval
	req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+bare.ID, token)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = UserDetailResponse{}
	decodeBody(t, rec, &resp)
	assert.Nil(t, resp.Student)
}

func TestUserAPISetActive(t *testing.T) {
	deps := newTestServer(t)
	admin := deps.seedUser(t, "admin@hansei.hs.kr", "관리자", user.RoleAdmin)
	target := deps.seedUser(t, "student@hansei.hs.kr", "김철수", user.RoleStudent)

	off := false
	body := marshallObj(t, ActiveRequest{Active: &off})

	// students cannot toggle anybody, not even themselves
	req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+target.ID+"/active", getToken(t, target), body)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPut, "/v1/users/"+target.ID+"/active", getToken(t, admin), body)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserResponse
	decodeBody(t, rec, &resp)
	assert.False(t, resp.User.IsActive)

	usr, err := deps.users.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.False(t, usr.IsActive)

	// the active field is required
	req, rec = newAuthRequest(http.MethodPut, "/v1/users/"+target.ID+"/active", getToken(t, admin), []byte(`{}`))
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserAPIDestroy(t *testing.T) {
	deps := newTestServer(t)
	admin := deps.seedUser(t, "admin@hansei.hs.kr", "관리자", user.RoleAdmin)
	victim := deps.seedUser(t, "bye@hansei.hs.kr", "퇴장", user.RoleStudent)

	// deletion is gated behind the elevated claim
	req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+victim.ID, getToken(t, admin))
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	elevated := getElevatedToken(t, admin)

	// admins cannot delete themselves, even elevated
	req, rec = newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, elevated)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	_, err := deps.users.GetByID(context.Background(), admin.ID)
	assert.NoError(t, err)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/users/"+victim.ID, elevated)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, err = deps.users.GetByID(context.Background(), victim.ID)
	assert.Equal(t, user.ErrNotFound, err)
}
