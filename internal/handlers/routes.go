package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fizibilite/internal/cache"
	"fizibilite/internal/config"
	"fizibilite/internal/logger"
	"fizibilite/internal/middleware"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// NewRouter wires every route of the API.
func NewRouter(cfg *config.Config, conn *sql.DB, c *cache.Client) http.Handler {
	api := NewAPIHandler(cfg, conn, c)
	auth := NewAuthHandler(cfg, conn)
	secret := cfg.SessionSecret
	log := logger.WithModule("http")

	requestLogMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next(rec, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Debug("request")
		}
	}
	anyRole := middleware.RequireAnyRole(allRoles, secret)
	editors := middleware.RequireAnyRole(editRoles, secret)
	reviewers := middleware.RequireAnyRole(reviewRoles, secret)
	admins := middleware.RequireAnyRole(adminRoles, secret)

	mux := http.NewServeMux()

	mux.HandleFunc("/login", requestLogMiddleware(auth.Login))
	mux.HandleFunc("/logout", requestLogMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodGet {
			jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		auth.Logout(w, r)
	}))
	mux.HandleFunc("/api/me", requestLogMiddleware(middleware.RequireAuth(api.GetMe, secret)))

	mux.HandleFunc("/api/review-queue", requestLogMiddleware(reviewers(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		api.ReviewQueue(w, r)
	})))

	// /api/schools/{id}/scenarios
	mux.HandleFunc("/api/schools/", requestLogMiddleware(anyRole(func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r.URL.Path, "/api/schools/")
		if len(parts) != 2 || parts[1] != "scenarios" {
			jsonError(w, http.StatusNotFound, "Not found")
			return
		}
		schoolID, err := parseID(parts[0], "school")
		if err != nil {
			api.writeError(w, r, err, nil)
			return
		}
		switch r.Method {
		case http.MethodGet:
			api.ListScenarios(w, r, schoolID)
		case http.MethodPost:
			if !CanEdit(r) {
				jsonError(w, http.StatusForbidden, "Forbidden: Insufficient permissions")
				return
			}
			api.CreateScenario(w, r, schoolID)
		default:
			jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	// /api/scenarios/{id}[/...]
	mux.HandleFunc("/api/scenarios/", requestLogMiddleware(anyRole(func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r.URL.Path, "/api/scenarios/")
		if len(parts) == 0 {
			jsonError(w, http.StatusNotFound, "Not found")
			return
		}
		id, err := parseID(parts[0], "scenario")
		if err != nil {
			api.writeError(w, r, err, nil)
			return
		}
		withID := func(fn func(http.ResponseWriter, *http.Request, uuid.UUID)) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) { fn(w, r, id) }
		}
		route := func(method string, gate func(http.HandlerFunc) http.HandlerFunc, fn func(http.ResponseWriter, *http.Request, uuid.UUID)) {
			if r.Method != method {
				jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			gate(withID(fn))(w, r)
		}

		sub := ""
		if len(parts) > 1 {
			sub = parts[1]
		}
		switch {
		case len(parts) == 1:
			switch r.Method {
			case http.MethodGet:
				anyRole(withID(api.GetScenario))(w, r)
			case http.MethodDelete:
				editors(withID(api.DeleteScenario))(w, r)
			default:
				jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(parts) == 2 && sub == "inputs":
			switch r.Method {
			case http.MethodGet:
				anyRole(withID(api.GetInputs))(w, r)
			case http.MethodPut:
				editors(withID(api.PutInputs))(w, r)
			default:
				jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(parts) == 2 && sub == "calculate":
			route(http.MethodPost, editors, api.Calculate)
		case len(parts) == 2 && sub == "report":
			route(http.MethodGet, anyRole, api.Report)
		case len(parts) == 2 && sub == "export":
			route(http.MethodGet, anyRole, api.Export)
		case len(parts) == 2 && sub == "send-for-approval":
			route(http.MethodPost, reviewers, api.SendForApproval)
		case len(parts) == 2 && sub == "final-approve":
			route(http.MethodPost, admins, api.FinalApprove)
		case len(parts) == 2 && sub == "return":
			route(http.MethodPost, admins, api.ReturnScenario)
		case len(parts) == 4 && sub == "work-items":
			workID, action := parts[2], parts[3]
			route(http.MethodPost, anyRole, func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
				api.WorkItemAction(w, r, id, workID, action)
			})
		default:
			jsonError(w, http.StatusNotFound, "Not found")
		}
	})))

	cfg.Debugf("routes registered")
	return mux
}
