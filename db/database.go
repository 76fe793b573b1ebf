package db

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/alanhabib/elmify-backend-sub000/config"
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createLecturesTable(); err != nil {
		return err
	}
	return nil
}

// createLecturesTable holds the lecture catalog: metadata plus the object
// store key each lecture's audio lives under.
func createLecturesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS lectures (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		speaker VARCHAR(255) NOT NULL DEFAULT '',
		collection VARCHAR(255) NOT NULL DEFAULT '',
		storage_key VARCHAR(512) NOT NULL,
		content_type VARCHAR(128) NOT NULL DEFAULT 'audio/mpeg',
		duration BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_lectures_collection (collection)
	);`

	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create lectures table: %w", err)
	}
	return nil
}
