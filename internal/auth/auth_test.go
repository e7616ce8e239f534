package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "hosteldesk-test"
)

func TestIssueParseRoundTrip(t *testing.T) {
	token, exp, err := Issue("student-1", RoleStudent, "Asha", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := Parse(token, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "student-1", claims.Subject)
	assert.Equal(t, RoleStudent, claims.Role)
	assert.Equal(t, "Asha", claims.Name)
}

func TestParseRejectsBadTokens(t *testing.T) {
	token, _, err := Issue("student-1", RoleStudent, "Asha", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "wrong-key", testIssuer)
	assert.Error(t, err)

	_, err = Parse(token, testKey, "other-issuer")
	assert.Error(t, err)

	expired, _, err := Issue("student-1", RoleStudent, "Asha", testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	_, err = Parse(expired, testKey, testIssuer)
	assert.Error(t, err)
}

func serveWith(t *testing.T, mw gin.HandlerFunc, authz string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", mw, func(c *gin.Context) {
		claims := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject})
	})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireMissingToken(t *testing.T) {
	rec := serveWith(t, Require(testKey, testIssuer), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireInvalidToken(t *testing.T) {
	rec := serveWith(t, Require(testKey, testIssuer), "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleGate(t *testing.T) {
	token, _, err := Issue("student-1", RoleStudent, "Asha", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	// wrong role -> 403, before any handler runs
	rec := serveWith(t, Require(testKey, testIssuer, RoleWarden), "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// right role -> claims available to the handler
	rec = serveWith(t, Require(testKey, testIssuer, RoleStudent), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "student-1")
}
