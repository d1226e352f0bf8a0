package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func setupMainTest(t *testing.T) {
	t.Helper()
	if err := initDB(":memory:"); err != nil {
		t.Fatalf("initDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hash, _ := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if _, err := db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES ('admin', ?, 'Administrator', 'admin')", string(hash)); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
}

func TestLoginLogout(t *testing.T) {
	setupMainTest(t)

	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "changeme"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handleLogin(w, req)
	if w.Code != 200 {
		t.Fatalf("Expected 200 login, got %d: %s", w.Code, w.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "stockflow_session" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("Expected a session cookie")
	}

	// /auth/me sees the session
	req = httptest.NewRequest("GET", "/auth/me", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	handleMe(w, req)
	if w.Code != 200 {
		t.Errorf("Expected 200 from /auth/me, got %d", w.Code)
	}

	// wrong password rejected
	body, _ = json.Marshal(LoginRequest{Username: "admin", Password: "nope"})
	w = httptest.NewRecorder()
	handleLogin(w, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body)))
	if w.Code != 401 {
		t.Errorf("Expected 401 for bad password, got %d", w.Code)
	}

	// logout invalidates the session
	req = httptest.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	handleLogout(w, req)
	if w.Code != 200 {
		t.Errorf("Expected 200 logout, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/auth/me", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	handleMe(w, req)
	if w.Code != 401 {
		t.Errorf("Expected 401 after logout, got %d", w.Code)
	}
}

func TestLoginLockout(t *testing.T) {
	setupMainTest(t)

	bad, _ := json.Marshal(LoginRequest{Username: "admin", Password: "nope"})
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handleLogin(w, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(bad)))
		if w.Code != 401 {
			t.Fatalf("Attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}

	// Correct password is now refused while the lock holds.
	good, _ := json.Marshal(LoginRequest{Username: "admin", Password: "changeme"})
	w := httptest.NewRecorder()
	handleLogin(w, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(good)))
	if w.Code != 403 {
		t.Errorf("Expected 403 while locked, got %d: %s", w.Code, w.Body.String())
	}

	// Expire the lock and the login goes through again.
	if _, err := db.Exec("UPDATE users SET locked_until = datetime('now', '-1 minute') WHERE username = 'admin'"); err != nil {
		t.Fatal(err)
	}
	w = httptest.NewRecorder()
	handleLogin(w, httptest.NewRequest("POST", "/auth/login", bytes.NewReader(good)))
	if w.Code != 200 {
		t.Errorf("Expected 200 after lock expiry, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig defaults: %v", err)
	}
	if c.Port != 9000 || c.DBPath != "stockflow.db" || c.DefaultLocation != "Receiving" {
		t.Errorf("Unexpected defaults: %+v", c)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "port: 8080\ndb_path: /tmp/test.db\ndefault_location: Dock-1\ncompany:\n  name: Acme\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig file: %v", err)
	}
	if c.Port != 8080 || c.DefaultLocation != "Dock-1" || c.Company.Name != "Acme" {
		t.Errorf("Unexpected config: %+v", c)
	}
	// unset fields keep their defaults
	if c.UploadsDir != "uploads" {
		t.Errorf("Expected default uploads dir, got %s", c.UploadsDir)
	}
}
