package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansei/chulseok/core/attendance"
	"github.com/hansei/chulseok/core/user"
)

func TestAttendanceAPILegacyMarkFlow(t *testing.T) {
	deps := newTestServer(t)
	teacher := deps.seedUser(t, "teacher@hansei.hs.kr", "이선생", user.RoleTeacher)
	deps.seedUser(t, "a@hansei.hs.kr", "김철수", user.RoleStudent)
	deps.seedUser(t, "b@hansei.hs.kr", "박영희", user.RoleStudent)
	token := getToken(t, teacher)

	// 2024-08-19 is a Monday; period 11 is on the weekday schedule
	mark := marshallObj(t, legacyMarkRequest{
		Action: "miss",
		Date:   "2024-08-19",
		Period: 11,
		UIDs:   []string{"a@hansei.hs.kr", "b@hansei.hs.kr"},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/seating/missing", token, mark)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":null}`, rec.Body.String())

	// marking again suppresses the duplicates instead of failing
	req, rec = newAuthRequest(http.MethodPost, "/v1/seating/missing", token, mark)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/seating/missing?date=2024-08-19", token)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var missing struct {
		Items []legacyMissingItem `json:"items"`
	}
	decodeBody(t, rec, &missing)
	require.Len(t, missing.Items, 1)
	assert.Equal(t, 11, missing.Items[0].Period)
	assert.Equal(t, "1차자습", missing.Items[0].PeriodName)
	assert.ElementsMatch(t, []string{"a@hansei.hs.kr", "b@hansei.hs.kr"}, missing.Items[0].Students)

	// a return clears the student from the missing list
	ret := marshallObj(t, legacyMarkRequest{
		Action: "return",
		Date:   "2024-08-19",
		Period: 11,
		UIDs:   []string{"a@hansei.hs.kr"},
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/seating/missing", token, ret)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/status?date=2024-08-19&period=11", token)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	decodeBody(t, rec, &status)
	assert.Len(t, status.Status.Absent, 1)
	assert.Len(t, status.Status.Returned, 1)
}

func TestAttendanceAPILegacyMarkValidation(t *testing.T) {
	deps := newTestServer(t)
	teacher := deps.seedUser(t, "teacher@hansei.hs.kr", "이선생", user.RoleTeacher)
	student := deps.seedUser(t, "a@hansei.hs.kr", "김철수", user.RoleStudent)

	tests := []httpTest{
		{
			name:   "bad action",
			method: http.MethodPost, path: "/v1/seating/missing", token: getToken(t, teacher),
			body:     marshallObj(t, legacyMarkRequest{Action: "vanish", Date: "2024-08-19", Period: 11, UIDs: []string{"a@hansei.hs.kr"}}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "unscheduled period",
			method: http.MethodPost, path: "/v1/seating/missing", token: getToken(t, teacher),
			body:     marshallObj(t, legacyMarkRequest{Action: "miss", Date: "2024-08-19", Period: 14, UIDs: []string{"a@hansei.hs.kr"}}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "empty student list",
			method: http.MethodPost, path: "/v1/seating/missing", token: getToken(t, teacher),
			body:     marshallObj(t, legacyMarkRequest{Action: "miss", Date: "2024-08-19", Period: 11}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "students are not staff",
			method: http.MethodPost, path: "/v1/seating/missing", token: getToken(t, student),
			body:     marshallObj(t, legacyMarkRequest{Action: "miss", Date: "2024-08-19", Period: 11, UIDs: []string{"a@hansei.hs.kr"}}),
			wantCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			deps.server.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestAttendanceAPITeacherRosterScope(t *testing.T) {
	deps := newTestServer(t)
	owner := deps.seedUser(t, "owner@hansei.hs.kr", "담임", user.RoleTeacher)
	outsider := deps.seedUser(t, "outsider@hansei.hs.kr", "타반교사", user.RoleTeacher)
	admin := deps.seedUser(t, "admin@hansei.hs.kr", "관리자", user.RoleAdmin)
	student := deps.seedUser(t, "a@hansei.hs.kr", "김철수", user.RoleStudent)
	deps.seedClass(t, owner.Email, student.Email)

	body := marshallObj(t, MarkRequest{
		Date: "2024-08-19", Period: 11, Status: attendance.StatusAbsent,
		StudentEmails: []string{student.Email},
	})

	// a teacher whose roster does not carry the student is rejected
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", getToken(t, outsider), body)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the homeroom teacher goes through
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", getToken(t, owner), body)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp MarkResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1, resp.Processed)

	// admins are not roster-scoped
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", getToken(t, admin), body)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAttendanceAPIStudentSelfMark(t *testing.T) {
	deps := newTestServer(t)
	student := deps.seedUser(t, "a@hansei.hs.kr", "김철수", user.RoleStudent)
	other := deps.seedUser(t, "b@hansei.hs.kr", "박영희", user.RoleStudent)
	token := getToken(t, student)

	// students may only mark their own attendance
	body := marshallObj(t, MarkRequest{
		Date: "2024-08-19", Period: 11, Status: attendance.StatusActivity,
		StudentEmails: []string{other.Email},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", token, body)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body = marshallObj(t, MarkRequest{
		Date: "2024-08-19", Period: 11, Status: attendance.StatusActivity,
		StudentEmails: []string{student.Email}, Notes: "동아리 활동",
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance", token, body)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MarkResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Processed)
}
