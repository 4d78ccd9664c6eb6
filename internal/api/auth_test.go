package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testAuth() *authConfig {
	return &authConfig{
		creds: []credential{
			{"admin", "secret", RoleAdmin},
			{"viewer", "viewsecret", RoleViewer},
		},
		enabled: true,
	}
}

func callWith(handler http.HandlerFunc, user, pass string) (*httptest.ResponseRecorder, bool) {
	called := false
	wrapped := func(w http.ResponseWriter, r *http.Request) {
		called = true
		handler(w, r)
	}

	req := httptest.NewRequest("GET", "/events/history", nil)
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	w := httptest.NewRecorder()
	RequireAnyRole(wrapped)(w, req)
	return w, called
}

func okHandler(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuthDisabledWhenNoCredentials(t *testing.T) {
	auth = &authConfig{}
	defer func() { auth = nil }()

	if IsAuthEnabled() {
		t.Error("auth should be disabled when no credentials are set")
	}

	w, called := callWith(okHandler, "", "")
	if !called || w.Code != http.StatusOK {
		t.Errorf("expected handler to run with 200, got called=%v code=%d", called, w.Code)
	}
}

func TestAuthEnabledRequiresCredentials(t *testing.T) {
	auth = testAuth()
	defer func() { auth = nil }()

	w, called := callWith(okHandler, "", "")
	if called {
		t.Error("handler should NOT be called without credentials")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestAuthRoles(t *testing.T) {
	auth = testAuth()
	defer func() { auth = nil }()

	cases := []struct {
		name       string
		user, pass string
		wantCode   int
	}{
		{"admin", "admin", "secret", http.StatusOK},
		{"viewer", "viewer", "viewsecret", http.StatusOK},
		{"wrong password", "admin", "nope", http.StatusUnauthorized},
		{"viewer password for admin", "admin", "viewsecret", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := callWith(okHandler, tc.user, tc.pass)
			if w.Code != tc.wantCode {
				t.Errorf("expected status %d, got %d", tc.wantCode, w.Code)
			}
		})
	}
}

func TestRequireAdminRejectsViewer(t *testing.T) {
	auth = testAuth()
	defer func() { auth = nil }()

	req := httptest.NewRequest("GET", "/admin", nil)
	req.SetBasicAuth("viewer", "viewsecret")
	w := httptest.NewRecorder()
	RequireAdmin(okHandler)(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", w.Code)
	}
}

func TestInitAuth_FromEnvAndFiles(t *testing.T) {
	dir := t.TempDir()
	passFile := filepath.Join(dir, "admin_pass")
	if err := os.WriteFile(passFile, []byte("filesecret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MAPCOLOR_ADMIN_USER", "admin")
	t.Setenv("MAPCOLOR_ADMIN_USER_FILE", "")
	t.Setenv("MAPCOLOR_ADMIN_PASS", "")
	t.Setenv("MAPCOLOR_ADMIN_PASS_FILE", passFile)
	t.Setenv("MAPCOLOR_VIEWER_USER", "")
	t.Setenv("MAPCOLOR_VIEWER_USER_FILE", "")
	t.Setenv("MAPCOLOR_VIEWER_PASS", "")
	t.Setenv("MAPCOLOR_VIEWER_PASS_FILE", "")
	defer func() { auth = nil }()

	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth: %v", err)
	}
	if !IsAuthEnabled() {
		t.Fatal("auth should be enabled when admin credentials are set")
	}

	w, _ := callWith(okHandler, "admin", "filesecret")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 with file password, got %d", w.Code)
	}
}

func TestInitAuth_MissingSecretFile(t *testing.T) {
	t.Setenv("MAPCOLOR_ADMIN_USER_FILE", "/nonexistent/admin_user")
	defer func() { auth = nil }()

	if err := InitAuth(); err == nil {
		t.Error("expected error for unreadable secret file")
	}
}
