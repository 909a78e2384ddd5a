package db

import (
	"database/sql"
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// LastProjectKey is the setting holding the ID of the last opened project
const LastProjectKey = "last_project_id"

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// New opens the project library at path, creating the file, its directory
// and the schema as needed
func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// LastProjectID returns the remembered project, or 0 when there is none
func (db *DB) LastProjectID() (int64, error) {
	v, err := db.GetSetting(LastProjectKey)
	if err != nil || v == "" {
		return 0, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, nil
	}
	return id, nil
}

// SetLastProjectID remembers the project to reopen on the next start
func (db *DB) SetLastProjectID(id int64) error {
	return db.SetSetting(LastProjectKey, strconv.FormatInt(id, 10))
}
