package emolog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the embedded emotion-log storage.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates/opens the emotion log database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create emotion db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single shared connection avoids writer lock contention with SQLite
	// under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS emotion_logs (
			id TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL,
			updated_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS emotion_logs_subject_idx ON emotion_logs(subject, created_at_ms DESC);`,
		`CREATE TABLE IF NOT EXISTS emotion_log_entries (
			log_id TEXT NOT NULL,
			emotion TEXT NOT NULL,
			situation TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL,
			PRIMARY KEY (log_id, emotion)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init emotion db: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateEmotionLog(ctx context.Context, subjectID string, emotions, situations []string) (DocRef, error) {
	if len(emotions) != len(situations) {
		return DocRef{}, storageErr("sqlite", "create", fmt.Errorf("emotions/situations length mismatch: %d != %d", len(emotions), len(situations)))
	}

	id := uuid.NewString()
	now := time.Now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DocRef{}, storageErr("sqlite", "create", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO emotion_logs (id, subject, created_at_ms, updated_at_ms) VALUES (?, ?, ?, ?)`,
		id, subjectID, now, now); err != nil {
		return DocRef{}, storageErr("sqlite", "create", err)
	}

	for i, emotion := range emotions {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO emotion_log_entries (log_id, emotion, situation, created_at_ms) VALUES (?, ?, ?, ?)`,
			id, emotion, situations[i], now); err != nil {
			return DocRef{}, storageErr("sqlite", "create", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return DocRef{}, storageErr("sqlite", "create", err)
	}
	return DocRef{ID: id}, nil
}

func (s *SQLiteStore) AppendEmotionLog(ctx context.Context, ref DocRef, emotion, situation string) error {
	if ref.ID == "" {
		return storageErr("sqlite", "append", errors.New("empty doc ref"))
	}

	now := time.Now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("sqlite", "append", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM emotion_logs WHERE id = ?`, ref.ID).Scan(&exists); err != nil {
		return storageErr("sqlite", "append", err)
	}
	if exists == 0 {
		return storageErr("sqlite", "append", ErrLogNotFound)
	}

	// INSERT OR IGNORE gives the append its set-union idempotence.
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO emotion_log_entries (log_id, emotion, situation, created_at_ms) VALUES (?, ?, ?, ?)`,
		ref.ID, emotion, situation, now); err != nil {
		return storageErr("sqlite", "append", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE emotion_logs SET updated_at_ms = ? WHERE id = ?`, now, ref.ID); err != nil {
		return storageErr("sqlite", "append", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("sqlite", "append", err)
	}
	return nil
}

func (s *SQLiteStore) GetEmotionLog(ctx context.Context, subjectID string) (*EmotionLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject, updated_at_ms FROM emotion_logs WHERE subject = ? ORDER BY created_at_ms DESC, rowid DESC LIMIT 1`,
		subjectID)

	var log EmotionLog
	var updatedMS int64
	if err := row.Scan(&log.ID, &log.SubjectID, &updatedMS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, storageErr("sqlite", "get", err)
	}
	log.LastUpdate = time.UnixMilli(updatedMS)

	rows, err := s.db.QueryContext(ctx,
		`SELECT emotion, situation FROM emotion_log_entries WHERE log_id = ? ORDER BY rowid`, log.ID)
	if err != nil {
		return nil, storageErr("sqlite", "get", err)
	}
	defer rows.Close()

	for rows.Next() {
		var emotion, situation string
		if err := rows.Scan(&emotion, &situation); err != nil {
			return nil, storageErr("sqlite", "get", err)
		}
		log.Emotions = append(log.Emotions, emotion)
		log.Situations = append(log.Situations, situation)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("sqlite", "get", err)
	}

	return &log, nil
}

var _ Store = (*SQLiteStore)(nil)
