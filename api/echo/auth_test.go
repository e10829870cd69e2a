package echoapi

import (
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/user"
)

func parseClaims(t *testing.T, token string) *Claims {
	t.Helper()
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return appJWTConfig.SigningKey, nil
	})
	require.NoError(t, err)
	return claims
}

func TestAuthAPIMe(t *testing.T) {
	deps := newTestServer(t)
	usr := deps.seedUser(t, "teacher@hansei.hs.kr", "이선생", user.RoleTeacher)

	req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", getToken(t, usr))
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got user.User
	decodeBody(t, rec, &got)
	assert.Equal(t, usr.ID, got.ID)
	assert.Equal(t, usr.Email, got.Email)

	req, rec = newAuthRequest(http.MethodGet, "/v1/auth/me", "")
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAPITokenRefresh(t *testing.T) {
	deps := newTestServer(t)
	usr := deps.seedUser(t, "teacher@hansei.hs.kr", "이선생", user.RoleTeacher)

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", getToken(t, usr))
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	decodeBody(t, rec, &resp)
	claims := parseClaims(t, resp.Token)
	assert.Equal(t, usr.ID, claims.Subject)
	assert.Equal(t, user.RoleTeacher, claims.Role)

	// deactivated accounts cannot refresh
	deactivated := deps.seedUser(t, "gone@hansei.hs.kr", "퇴사자", user.RoleTeacher)
	token := getToken(t, deactivated)
	if _, err := deps.users.SetActive(req.Context(), deactivated.ID, false); err != nil {
		t.Fatalf("deactivating user: %v", err)
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", token)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthAPIElevate(t *testing.T) {
	deps := newTestServer(t)
	admin := deps.seedUser(t, "admin@hansei.hs.kr", "관리자", user.RoleAdmin)
	student := deps.seedUser(t, "student@hansei.hs.kr", "김철수", user.RoleStudent)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	prev := core.Conf.AdminPasswordHash
	core.Conf.AdminPasswordHash = string(hash)
	defer func() { core.Conf.AdminPasswordHash = prev }()

	// students never reach the gate
	body := marshallObj(t, ElevateRequest{Password: "hunter2"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/admin/elevate", getToken(t, student), body)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// wrong password
	body = marshallObj(t, ElevateRequest{Password: "letmein"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/elevate", getToken(t, admin), body)
	deps.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = marshallObj(t, ElevateRequest{Password: "hunter2"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/elevate", getToken(t, admin), body)
	deps.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	decodeBody(t, rec, &resp)
	claims := parseClaims(t, resp.Token)
	assert.True(t, claims.Elevated)
}
