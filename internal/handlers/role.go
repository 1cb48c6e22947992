package handlers

import (
	"net/http"

	"fizibilite/internal/middleware"
	"fizibilite/internal/models"
)

// Role groups used by the router.
var (
	allRoles    = []string{models.RoleAdmin, models.RoleManager, models.RolePrincipal}
	editRoles   = []string{models.RoleAdmin, models.RolePrincipal}
	reviewRoles = []string{models.RoleAdmin, models.RoleManager}
	adminRoles  = []string{models.RoleAdmin}
)

// IsAdmin returns true if the current user has the admin role.
func IsAdmin(r *http.Request) bool {
	return middleware.GetUserRole(r) == models.RoleAdmin
}

// CanEdit reports whether the user may change scenario inputs and submit work.
func CanEdit(r *http.Request) bool {
	return hasRole(r, editRoles)
}

// CanReview reports whether the user may approve or send back work items.
func CanReview(r *http.Request) bool {
	return hasRole(r, reviewRoles)
}

func hasRole(r *http.Request, roles []string) bool {
	role := middleware.GetUserRole(r)
	for _, allowed := range roles {
		if role == allowed {
			return true
		}
	}
	return false
}
