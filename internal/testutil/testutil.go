// Package testutil provides the shared in-memory database and request
// helpers used by handler tests.
package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stockflow/internal/database"
	"stockflow/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// testDBCounter gives each test its own named in-memory database.
var testDBCounter int64

// SetupTestDB creates an in-memory SQLite database with the full schema
// and a default admin user. A uniquely named shared-cache database is
// used so every pooled connection sees the same data; a plain ":memory:"
// DSN gives each connection in the pool its own empty database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := database.Open(dsn)
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash admin password: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)`,
		"admin", string(hash), "Administrator", "admin"); err != nil {
		t.Fatalf("Failed to create default admin user: %v", err)
	}

	return db
}

// LoginAdmin returns a session token for the default admin user.
func LoginAdmin(t *testing.T, db *sql.DB) string {
	t.Helper()
	var adminID int
	if err := db.QueryRow("SELECT id FROM users WHERE username = 'admin'").Scan(&adminID); err != nil {
		t.Fatalf("Failed to find admin user: %v", err)
	}

	token := "test-session-token-" + time.Now().Format("20060102150405.000000")
	expires := time.Now().Add(24 * time.Hour)
	if _, err := db.Exec("INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, adminID, expires.Format("2006-01-02 15:04:05")); err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}
	return token
}

// AuthedRequest creates an authenticated HTTP request with a session cookie.
func AuthedRequest(method, path string, body []byte, sessionToken string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: "stockflow_session", Value: sessionToken})
	}
	return req
}

// AssertStatus checks that the HTTP status code matches expected.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// DecodeEnvelope decodes an API response envelope and extracts the data.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode API envelope: %v", err)
	}
	dataBytes, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(dataBytes, v); err != nil {
		t.Fatalf("Failed to decode data from envelope: %v", err)
	}
}

// FieldErrors extracts the field->message map from a 400 validation
// response body.
func FieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode validation errors: %v", err)
	}
	out := map[string]string{}
	for _, e := range body.Errors {
		out[e.Field] = e.Message
	}
	return out
}

// CreatePart inserts a part master record.
func CreatePart(t *testing.T, db *sql.DB, id, name string, trackable bool) {
	t.Helper()
	tr := 0
	if trackable {
		tr = 1
	}
	if _, err := db.Exec("INSERT INTO parts (id, name, trackable, salable) VALUES (?, ?, ?, 1)", id, name, tr); err != nil {
		t.Fatalf("Failed to create part %s: %v", id, err)
	}
}

// CreateSupplierPart inserts a supplier part and returns its id.
func CreateSupplierPart(t *testing.T, db *sql.DB, part, supplier, sku string, packSize float64) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO supplier_parts (part, supplier, sku, pack_size) VALUES (?, ?, ?, ?)",
		part, supplier, sku, packSize)
	if err != nil {
		t.Fatalf("Failed to create supplier part: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

// CreateStockItem inserts a stock item and returns its id.
func CreateStockItem(t *testing.T, db *sql.DB, part, location string, quantity, allocated float64) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO stock_items (part, location, quantity, allocated) VALUES (?, ?, ?, ?)",
		part, location, quantity, allocated)
	if err != nil {
		t.Fatalf("Failed to create stock item: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}
