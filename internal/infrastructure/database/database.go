package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

// Database is the minimal SQL surface the repositories need.
type Database interface {
	// Init opens the database and creates the schema.
	Init() error
	// Close closes the database connection.
	Close() error
	// Exec executes a statement.
	Exec(query string, args ...interface{}) (sql.Result, error)
	// Query runs a query returning rows.
	Query(query string, args ...interface{}) (*sql.Rows, error)
	// QueryRow runs a query returning a single row.
	QueryRow(query string, args ...interface{}) *sql.Row
}

// SQLiteDatabase implements Database on a local SQLite file.
type SQLiteDatabase struct {
	db         *sql.DB
	dbFilePath string
}

// NewSQLiteDatabase creates a SQLite database handle for the given file.
func NewSQLiteDatabase(dbFilePath string) Database {
	return &SQLiteDatabase{
		dbFilePath: dbFilePath,
	}
}

// Init opens the SQLite database and creates the schema.
func (s *SQLiteDatabase) Init() error {
	logger.Info("initializing sqlite database", "db_path", s.dbFilePath)

	dbDir := filepath.Dir(s.dbFilePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory", "error", err)
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbFilePath)
	if err != nil {
		logger.Error("failed to open database connection", "error", err)
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	s.db = db

	if err := db.Ping(); err != nil {
		logger.Error("database connection test failed", "error", err)
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if err := s.createTables(); err != nil {
		logger.Error("failed to create database tables", "error", err)
		return fmt.Errorf("failed to create database tables: %w", err)
	}

	logger.Info("sqlite database initialized")
	return nil
}

// createTables creates the article and episode tables.
func (s *SQLiteDatabase) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		category TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		used_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_articles_url ON articles(url);

	CREATE TABLE IF NOT EXISTS episodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guid TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		audio_url TEXT NOT NULL DEFAULT '',
		pub_date TEXT NOT NULL,
		episode_number INTEGER NOT NULL DEFAULT 0,
		duration TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL DEFAULT 0,
		author TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_episodes_guid ON episodes(guid);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		logger.Error("failed to create tables", "error", err)
		return fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("database tables ready")
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		logger.Info("closing database connection")
		return s.db.Close()
	}
	return nil
}

// Exec executes a statement.
func (s *SQLiteDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return s.db.Exec(query, args...)
}

// Query runs a query returning rows.
func (s *SQLiteDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.Query(query, args...)
}

// QueryRow runs a query returning a single row.
func (s *SQLiteDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return s.db.QueryRow(query, args...)
}
