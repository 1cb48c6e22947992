package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestSessionCookieRoundTrip(t *testing.T) {
	cookie, err := CreateSessionCookie("u-1", "mudur@okul.test", "principal", secret)
	require.NoError(t, err)
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	id, email, role, err := ValidateSessionCookie(cookie, secret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
	assert.Equal(t, "mudur@okul.test", email)
	assert.Equal(t, "principal", role)

	_, err = CreateSessionCookie("u-1", "a", "admin", "")
	assert.Error(t, err)
}

func TestValidateSessionCookieRejects(t *testing.T) {
	good, err := CreateSessionCookie("u-1", "a@b.test", "manager", secret)
	require.NoError(t, err)

	tampered := *good
	tampered.Value = strings.Replace(good.Value, "manager", "admin", 1)

	oldValue := fmt.Sprintf("u-1|a@b.test|admin|%d", time.Now().Add(-SessionMaxAge-time.Hour).Unix())
	expired := &http.Cookie{Name: SessionCookieName, Value: oldValue + "|" + sign(oldValue, secret)}

	tests := []struct {
		name   string
		cookie *http.Cookie
		secret string
	}{
		{"nil cookie", nil, secret},
		{"bad format", &http.Cookie{Value: "a|b"}, secret},
		{"tampered role", &tampered, secret},
		{"other secret", good, "another"},
		{"expired", expired, secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := ValidateSessionCookie(tt.cookie, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireAnyRole([]string{"admin", "manager"}, secret)(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, GetUserRole(r)+":"+GetUserID(r))
	})

	do := func(cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/review-queue", nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	rec := do(nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, rec.Body.String())

	principal, _ := CreateSessionCookie("u-2", "p@okul.test", "principal", secret)
	rec = do(principal)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	manager, _ := CreateSessionCookie("u-3", "m@okul.test", "manager", secret)
	rec = do(manager)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manager:u-3", rec.Body.String())
}

func TestGettersWithoutSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserID(req))
	assert.Empty(t, GetUserEmail(req))
	assert.Empty(t, GetUserRole(req))
}
