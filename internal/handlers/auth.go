package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fizibilite/internal/config"
	"fizibilite/internal/logger"
	"fizibilite/internal/middleware"
	"fizibilite/internal/models"
)

type AuthHandler struct {
	cfg *config.Config
	db  *sql.DB
}

func NewAuthHandler(cfg *config.Config, conn *sql.DB) *AuthHandler {
	return &AuthHandler{cfg: cfg, db: conn}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (req *loginRequest) Normalize() {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
}

// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := models.GetUserByEmail(r.Context(), h.db, req.Email)
	if errors.Is(err, models.ErrUserNotFound) {
		jsonError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		logger.WithModule("auth").WithError(err).Error("failed to load user")
		jsonError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		jsonError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	cookie, err := middleware.CreateSessionCookie(user.ID.String(), user.Email, user.Role, h.cfg.SessionSecret)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.cfg.Debugf("login: %s (%s)", user.Email, user.Role)
	http.SetCookie(w, cookie)
	jsonResponse(w, http.StatusOK, user)
}

// POST /logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, middleware.ClearSessionCookie())
	jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}
