package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coprodeli/coprodelito/pkg/config"
)

var (
	// ErrSessionNotFound is returned by Load when no snapshot exists for
	// the subject.
	ErrSessionNotFound = errors.New("session not found")

	// ErrVersionConflict is returned by Save when the stored snapshot is
	// newer than the one being written.
	ErrVersionConflict = errors.New("session version conflict")
)

// Store persists session snapshots so conversations survive restarts.
type Store interface {
	// Save writes a snapshot. It increments the session's Version on
	// success and fails with ErrVersionConflict when a newer snapshot is
	// already stored.
	Save(ctx context.Context, sess *Session) error

	// Load returns the snapshot for the subject, or ErrSessionNotFound.
	Load(ctx context.Context, subjectID string) (*Session, error)

	// Delete removes the snapshot. Deleting a missing snapshot is not an
	// error.
	Delete(ctx context.Context, subjectID string) error

	Close() error
}

// Option configures a snapshot store.
type Option func(*options)

type options struct {
	ttl       time.Duration
	keyPrefix string
}

func defaultOptions() options {
	return options{
		ttl:       24 * time.Hour,
		keyPrefix: "coprodelito:session:",
	}
}

// WithTTL bounds how long an idle snapshot is kept. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithKeyPrefix sets the key namespace used by the redis driver.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.keyPrefix = prefix }
}

// NewStore builds a snapshot store from configuration.
func NewStore(cfg config.SessionsConfig, opts ...Option) (Store, error) {
	if cfg.TTL > 0 {
		opts = append([]Option{WithTTL(time.Duration(cfg.TTL) * time.Hour)}, opts...)
	}
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(opts...), nil
	case "redis":
		return NewRedisStore(cfg.Redis, opts...)
	default:
		return nil, fmt.Errorf("unknown sessions driver %q", cfg.Driver)
	}
}
