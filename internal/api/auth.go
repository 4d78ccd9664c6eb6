package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/AaronLay10/mapcolor/internal/config"
)

// Role is the access level granted by a credential pair.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

type credential struct {
	user string
	pass string
	role Role
}

type authConfig struct {
	creds   []credential
	enabled bool
}

var auth *authConfig

// InitAuth loads basic-auth credentials from MAPCOLOR_ADMIN_USER/PASS and
// MAPCOLOR_VIEWER_USER/PASS (or their *_FILE variants). Auth stays disabled
// unless the admin pair is set.
func InitAuth() error {
	names := []string{
		"MAPCOLOR_ADMIN_USER", "MAPCOLOR_ADMIN_PASS",
		"MAPCOLOR_VIEWER_USER", "MAPCOLOR_VIEWER_PASS",
	}
	vals := make([]string, len(names))
	for i, name := range names {
		v, err := config.ResolveSecret(name)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", name, err)
		}
		vals[i] = v
	}

	a := &authConfig{}
	if vals[0] != "" && vals[1] != "" {
		a.creds = append(a.creds, credential{vals[0], vals[1], RoleAdmin})
		a.enabled = true
	}
	if vals[2] != "" && vals[3] != "" {
		a.creds = append(a.creds, credential{vals[2], vals[3], RoleViewer})
	}
	auth = a
	return nil
}

// IsAuthEnabled reports whether credentials are required.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// authenticate returns the caller's role, or "" for bad credentials.
func authenticate(r *http.Request) Role {
	if !IsAuthEnabled() {
		return RoleAdmin
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	for _, c := range auth.creds {
		if secureCompare(user, c.user) && secureCompare(pass, c.pass) {
			return c.role
		}
	}
	return ""
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="mapcolor"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// RequireRole wraps a handler and admits only the listed roles.
func RequireRole(handler http.HandlerFunc, allowedRoles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := authenticate(r)
		if role == "" {
			requireAuth(w)
			return
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				handler(w, r)
				return
			}
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// RequireAnyRole admits admins and viewers.
func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleViewer)
}

// RequireAdmin admits admins only.
func RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin)
}
