package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type contextKey string

const UserIDKey contextKey = "userID"
const UserEmailKey contextKey = "userEmail"
const UserRoleKey contextKey = "userRole"

// SessionCookieName is the name of the signed session cookie.
const SessionCookieName = "fizibilite_session"

// SessionMaxAge is how long a session cookie stays valid.
const SessionMaxAge = 7 * 24 * time.Hour

func sign(value, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

func CreateSessionCookie(userID, userEmail, userRole, secret string) (*http.Cookie, error) {
	if secret == "" {
		return nil, fmt.Errorf("empty session secret")
	}
	value := fmt.Sprintf("%s|%s|%s|%d", userID, userEmail, userRole, time.Now().Unix())
	cookieValue := fmt.Sprintf("%s|%s", value, sign(value, secret))

	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionMaxAge.Seconds()),
	}

	return cookie, nil
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

func ValidateSessionCookie(cookie *http.Cookie, secret string) (userID, userEmail, userRole string, err error) {
	if cookie == nil {
		return "", "", "", fmt.Errorf("no session cookie")
	}

	parts := strings.Split(cookie.Value, "|")
	if len(parts) != 5 {
		return "", "", "", fmt.Errorf("invalid session format")
	}

	value := strings.Join(parts[:4], "|")
	if !hmac.Equal([]byte(parts[4]), []byte(sign(value, secret))) {
		return "", "", "", fmt.Errorf("invalid session signature")
	}

	issued, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid session timestamp")
	}
	if time.Since(time.Unix(issued, 0)) > SessionMaxAge {
		return "", "", "", fmt.Errorf("session expired")
	}

	return parts[0], parts[1], parts[2], nil
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RequireAuth rejects requests without a valid session with a JSON 401.
func RequireAuth(next http.HandlerFunc, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		userID, userEmail, userRole, err := ValidateSessionCookie(cookie, secret)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, UserEmailKey, userEmail)
		ctx = context.WithValue(ctx, UserRoleKey, userRole)

		next(w, r.WithContext(ctx))
	}
}

func GetUserID(r *http.Request) string {
	if val, ok := r.Context().Value(UserIDKey).(string); ok {
		return val
	}
	return ""
}

func GetUserEmail(r *http.Request) string {
	if val, ok := r.Context().Value(UserEmailKey).(string); ok {
		return val
	}
	return ""
}

func GetUserRole(r *http.Request) string {
	if val, ok := r.Context().Value(UserRoleKey).(string); ok {
		return val
	}
	return ""
}

// RequireRole ensures the user has one of the specified roles
func RequireRole(allowedRoles []string, secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r)
			for _, role := range allowedRoles {
				if userRole == role {
					next(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "Forbidden: Insufficient permissions")
		}, secret)
	}
}

// RequireAnyRole is an alias for RequireRole (for clarity)
func RequireAnyRole(allowedRoles []string, secret string) func(http.HandlerFunc) http.HandlerFunc {
	return RequireRole(allowedRoles, secret)
}
