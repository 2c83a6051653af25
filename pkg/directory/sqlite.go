package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps student records in the same local database family as
// the emotion log.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA synchronous = NORMAL`,
		`PRAGMA busy_timeout = 5000`,
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("set pragma: %w", err)
		}
	}

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			email         TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Register(ctx context.Context, email, password string) (*Student, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	student := newStudent(email)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (email, name, password_hash, created_at_ms) VALUES (?, ?, ?, ?)`,
		student.Email, student.Name, hashPassword(password), student.CreatedAt.UnixMilli())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert student: %w", err)
	}
	return student, nil
}

func (s *SQLiteStore) Authenticate(ctx context.Context, email, password string) (*Student, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT email, name, password_hash, created_at_ms FROM students WHERE email = ?`, email)

	var student Student
	var hash string
	var createdMs int64
	if err := row.Scan(&student.Email, &student.Name, &hash, &createdMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("query student: %w", err)
	}
	if hash != hashPassword(password) {
		return nil, ErrBadCredentials
	}
	student.CreatedAt = time.UnixMilli(createdMs)
	return &student, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
