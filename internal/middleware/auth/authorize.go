// Package auth gates every request against the static route policy before
// any handler runs. Authorization failures are silent redirects, never error
// pages, so the route tree leaks nothing.
package auth

import (
	"strings"

	"github.com/saksaud/physiocare-api/internal/models"
	"github.com/saksaud/physiocare-api/internal/session"
)

const (
	LoginPath     = "/login"
	SignupPath    = "/signup"
	DashboardPath = "/dashboard"
)

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectDashboard
)

// protectedPrefixes require a valid session of any role.
var protectedPrefixes = []string{
	"/dashboard",
}

// rolePrefixes narrow subtrees to specific roles. Checked after the
// authentication check, so an anonymous request to an admin path still goes
// to the login page with its return target intact.
var rolePrefixes = []struct {
	prefix string
	roles  []models.Role
}{
	{prefix: "/dashboard/admin", roles: []models.Role{models.RoleAdmin}},
	{prefix: "/dashboard/patients", roles: []models.Role{models.RoleDoctor, models.RoleAdmin}},
}

// Authorize is a pure function of the request path and the decoded session.
// A nil claims means no (or an invalid/expired) token.
func Authorize(path string, claims *session.Claims) Decision {
	authed := claims != nil

	if !authed && isProtected(path) {
		return RedirectLogin
	}

	if authed && (strings.HasPrefix(path, LoginPath) || strings.HasPrefix(path, SignupPath)) {
		return RedirectDashboard
	}

	if authed {
		for _, r := range rolePrefixes {
			if strings.HasPrefix(path, r.prefix) && !roleAllowed(claims.Role, r.roles) {
				return RedirectDashboard
			}
		}
	}

	return Allow
}

func isProtected(path string) bool {
	for _, p := range protectedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func roleAllowed(role models.Role, allowed []models.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
