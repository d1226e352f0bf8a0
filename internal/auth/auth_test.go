package auth_test

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stockflow/internal/auth"
	"stockflow/internal/testutil"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Short123!", true},   // too short
		{"alllowercaseonly", true}, // one class
		{"Password1234", false},    // upper, lower, numbers
		{"lowerUPPER!!", false},    // lower, upper, special
		{"1234567890!!", true},     // two classes
		{"Password123!", false},    // all four
		{"ExactlyTwelve", true},    // twelve chars, two classes
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := auth.ValidatePasswordStrength(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePasswordStrength(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	db := testutil.SetupTestDB(t)

	for i := 0; i < auth.MaxFailedLoginAttempts-1; i++ {
		if err := auth.RecordFailedLogin(db, "admin"); err != nil {
			t.Fatalf("RecordFailedLogin: %v", err)
		}
		locked, err := auth.IsAccountLocked(db, "admin")
		if err != nil {
			t.Fatalf("IsAccountLocked: %v", err)
		}
		if locked {
			t.Fatalf("Account locked after %d failures", i+1)
		}
	}

	if err := auth.RecordFailedLogin(db, "admin"); err != nil {
		t.Fatalf("RecordFailedLogin: %v", err)
	}
	locked, err := auth.IsAccountLocked(db, "admin")
	if err != nil {
		t.Fatalf("IsAccountLocked: %v", err)
	}
	if !locked {
		t.Errorf("Expected account locked after %d failures", auth.MaxFailedLoginAttempts)
	}

	// Successful login clears the counter and the lock.
	if err := auth.ClearFailedLogins(db, "admin"); err != nil {
		t.Fatalf("ClearFailedLogins: %v", err)
	}
	locked, _ = auth.IsAccountLocked(db, "admin")
	if locked {
		t.Error("Expected lock cleared after reset")
	}
}

func TestExpiredLockIsCleared(t *testing.T) {
	db := testutil.SetupTestDB(t)

	past := time.Now().UTC().Add(-time.Minute).Format("2006-01-02 15:04:05")
	if _, err := db.Exec("UPDATE users SET failed_login_attempts = 5, locked_until = ? WHERE username = 'admin'", past); err != nil {
		t.Fatal(err)
	}

	locked, err := auth.IsAccountLocked(db, "admin")
	if err != nil {
		t.Fatalf("IsAccountLocked: %v", err)
	}
	if locked {
		t.Error("Expected expired lock to read as unlocked")
	}

	var attempts int
	db.QueryRow("SELECT failed_login_attempts FROM users WHERE username = 'admin'").Scan(&attempts)
	if attempts != 0 {
		t.Errorf("Expected counter reset after expiry, got %d", attempts)
	}
}

func TestChangePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var userID int
	if err := db.QueryRow("SELECT id FROM users WHERE username = 'admin'").Scan(&userID); err != nil {
		t.Fatal(err)
	}

	if err := auth.ChangePassword(db, userID, "wrong", "Replacement123!"); err != auth.ErrWrongPassword {
		t.Errorf("Expected ErrWrongPassword, got %v", err)
	}
	if err := auth.ChangePassword(db, userID, "changeme", "weak"); err == nil {
		t.Error("Expected strength error for weak password")
	}
	if err := auth.ChangePassword(db, userID, "changeme", "Replacement123!"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	var hash string
	db.QueryRow("SELECT password_hash FROM users WHERE id = ?", userID).Scan(&hash)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("Replacement123!")) != nil {
		t.Error("New password does not verify against stored hash")
	}
}
