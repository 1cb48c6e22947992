package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fizibilite/internal/cache"
	"fizibilite/internal/config"
	"fizibilite/internal/export"
	"fizibilite/internal/listparams"
	"fizibilite/internal/logger"
	"fizibilite/internal/middleware"
	"fizibilite/internal/models"
	"fizibilite/internal/workflow"
)

const maxBodyBytes = 1 << 20

// maxInputsBytes bounds a scenario inputs document.
const maxInputsBytes = 8 << 20

type APIHandler struct {
	cfg   *config.Config
	db    *sql.DB
	cache *cache.Client
	log   *logrus.Entry
}

func NewAPIHandler(cfg *config.Config, conn *sql.DB, c *cache.Client) *APIHandler {
	return &APIHandler{cfg: cfg, db: conn, cache: c, log: logger.WithModule("handlers")}
}

// JSON response helpers
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.WithModule("handlers").WithError(err).Error("failed to encode JSON response")
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// badRequest is a malformed request body or path.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string {
	return e.msg
}

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// writeError maps err to a status code. Unexpected errors are logged with
// fields and answered with a generic message.
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error, fields logrus.Fields) {
	var (
		listErr   *listparams.ValidationError
		exportErr *export.RequestError
		bad       *badRequest
		invalid   validator.ValidationErrors
		exists    *models.ScenarioExistsError
		gateErr   *workflow.GateError
	)
	switch {
	case errors.As(err, &listErr):
		jsonError(w, listErr.Status, listErr.Message)
	case errors.As(err, &exportErr):
		jsonError(w, http.StatusBadRequest, exportErr.Message)
	case errors.As(err, &bad):
		jsonError(w, http.StatusBadRequest, bad.msg)
	case errors.As(err, &invalid):
		jsonError(w, http.StatusBadRequest, validationMessage(invalid))
	case errors.Is(err, models.ErrScenarioNotFound),
		errors.Is(err, models.ErrSchoolNotFound),
		errors.Is(err, models.ErrUserNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &exists):
		jsonError(w, http.StatusConflict, exists.Error())
	case errors.As(err, &gateErr):
		jsonError(w, http.StatusConflict, gateErr.Reason)
	default:
		h.log.WithFields(fields).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
		jsonError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// normalizer is a request body that cleans itself up before validation.
type normalizer interface {
	Normalize()
}

// decodeJSON reads a size-limited JSON body into dst, normalizes it when it
// knows how, and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequestf("request body is empty")
		}
		return badRequestf("invalid JSON body: %v", err)
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	return Validate.Struct(dst)
}

// pathParts splits the path below prefix into its non-empty segments.
func pathParts(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func parseID(s, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, badRequestf("invalid %s id", what)
	}
	return id, nil
}

func currentUserID(r *http.Request) *uuid.UUID {
	id, err := uuid.Parse(middleware.GetUserID(r))
	if err != nil {
		return nil
	}
	return &id
}

// GET /api/me - returns current user info
func (h *APIHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		jsonError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	role := middleware.GetUserRole(r)
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"id":        userID,
		"email":     middleware.GetUserEmail(r),
		"role":      role,
		"canEdit":   CanEdit(r),
		"canReview": CanReview(r),
	})
}
