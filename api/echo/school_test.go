package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansei/chulseok/core/user"
)

func TestClassAPIRosterAccess(t *testing.T) {
	deps := newTestServer(t)
	owner := deps.seedUser(t, "owner@hansei.hs.kr", "담임", user.RoleTeacher)
	outsider := deps.seedUser(t, "outsider@hansei.hs.kr", "타반교사", user.RoleTeacher)
	admin := deps.seedUser(t, "admin@hansei.hs.kr", "관리자", user.RoleAdmin)
	student := deps.seedUser(t, "a@hansei.hs.kr", "김철수", user.RoleStudent)
	cls := deps.seedClass(t, owner.Email, student.Email)
	path := "/v1/classes/" + cls.ID + "/students"

	// students never pull a roster
	req, rec := newAuthRequest(http.MethodGet, path, getToken(t, student))
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var failure struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decodeBody(t, rec, &failure)
	assert.False(t, failure.Success)
	assert.Contains(t, failure.Error, "permission denied")

	// neither does a teacher who does not own the class
	req, rec = newAuthRequest(http.MethodGet, path, getToken(t, outsider))
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the homeroom teacher and admins do
	for _, usr := range []user.User{owner, admin} {
		req, rec = newAuthRequest(http.MethodGet, path, getToken(t, usr))
		deps.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ClassStudentsResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Students, 1)
		assert.Equal(t, student.Email, resp.Students[0].Email)
	}
}

func TestClassAPIMine(t *testing.T) {
	deps := newTestServer(t)
	teacher := deps.seedUser(t, "owner@hansei.hs.kr", "담임", user.RoleTeacher)
	student := deps.seedUser(t, "a@hansei.hs.kr", "김철수", user.RoleStudent)
	loner := deps.seedUser(t, "b@hansei.hs.kr", "박영희", user.RoleStudent)
	cls := deps.seedClass(t, teacher.Email, student.Email)

	// a student sees their enrolled classes
	req, rec := newAuthRequest(http.MethodGet, "/v1/classes/mine", getToken(t, student))
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ClassListResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Classes, 1)
	assert.Equal(t, cls.ID, resp.Classes[0].ID)

	// an unenrolled student sees an empty list
	req, rec = newAuthRequest(http.MethodGet, "/v1/classes/mine", getToken(t, loner))
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Classes)

	// a teacher sees the classes they own
	req, rec = newAuthRequest(http.MethodGet, "/v1/classes/mine", getToken(t, teacher))
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Classes, 1)
	assert.Equal(t, cls.ID, resp.Classes[0].ID)
}
