// Package emolog persists the durable per-student emotion log. The log is
// append-only after creation: emotions and their triggering situations are
// only ever added, never rewritten.
package emolog

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DocRef identifies one emotion-log document. A session holds at most one
// ref; once set it never changes for that session's lifetime.
type DocRef struct {
	ID string
}

// EmotionLog is the persisted record for one session of one student.
type EmotionLog struct {
	ID         string
	SubjectID  string
	Emotions   []string
	Situations []string
	LastUpdate time.Time
}

// Store is the document-store collaborator contract.
type Store interface {
	// CreateEmotionLog writes a new document with the full current snapshot
	// and returns its ref.
	CreateEmotionLog(ctx context.Context, subjectID string, emotions, situations []string) (DocRef, error)

	// AppendEmotionLog adds one emotion/situation pair to an existing
	// document. Set-union semantics: appending a pair whose emotion is
	// already present is a no-op at the storage layer.
	AppendEmotionLog(ctx context.Context, ref DocRef, emotion, situation string) error

	// GetEmotionLog returns the most recent log for the subject, or
	// ErrLogNotFound.
	GetEmotionLog(ctx context.Context, subjectID string) (*EmotionLog, error)

	Close() error
}

// ErrLogNotFound is returned when no emotion log exists for a subject.
var ErrLogNotFound = errors.New("emotion log not found")

// StorageError wraps any failure of the persistence collaborator.
type StorageError struct {
	Driver string
	Op     string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Driver, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(driver, op string, err error) error {
	return &StorageError{Driver: driver, Op: op, Err: err}
}
