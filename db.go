package main

import (
	"database/sql"
	"log"

	"golang.org/x/crypto/bcrypt"

	"stockflow/internal/database"
)

var db *sql.DB

func initDB(path string) error {
	// Close previous connection if any (prevents goroutine leaks in tests)
	if db != nil {
		db.Close()
	}
	var err error
	db, err = database.Open(path)
	if err != nil {
		return err
	}
	return database.Migrate(db)
}

// seedDB creates the default admin account on first start.
func seedDB() {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil || count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("seed: hash failed: %v", err)
		return
	}
	if _, err := db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
		"admin", string(hash), "Administrator", "admin"); err != nil {
		log.Printf("seed: admin user failed: %v", err)
		return
	}
	log.Println("Created default admin user (admin/changeme) - change the password")
}
