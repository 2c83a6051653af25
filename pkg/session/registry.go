package session

import (
	"context"
	"errors"
	"sync"

	"github.com/coprodeli/coprodelito/pkg/logger"
)

// Registry hands out sessions keyed by subject ID. Each subject has its
// own lock, so turns for one student serialize while independent students
// proceed concurrently.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	store   Store
}

type registryEntry struct {
	mu   sync.Mutex
	sess *Session
}

// NewRegistry builds a registry. A nil store disables snapshot
// persistence; sessions then live only in memory.
func NewRegistry(store Store) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		store:   store,
	}
}

// Acquire returns the subject's session with its lock held. The caller
// must invoke release when the turn is done; release snapshots the session
// to the store before unlocking. Unknown subjects get a fresh session,
// restored from the snapshot store when one exists.
func (r *Registry) Acquire(ctx context.Context, subjectID string) (*Session, func()) {
	r.mu.Lock()
	entry, ok := r.entries[subjectID]
	if !ok {
		entry = &registryEntry{}
		r.entries[subjectID] = entry
	}
	r.mu.Unlock()

	entry.mu.Lock()
	if entry.sess == nil {
		entry.sess = r.restore(ctx, subjectID)
	}

	sess := entry.sess
	release := func() {
		r.snapshot(sess)
		entry.mu.Unlock()
	}
	return sess, release
}

func (r *Registry) restore(ctx context.Context, subjectID string) *Session {
	if r.store != nil {
		sess, err := r.store.Load(ctx, subjectID)
		if err == nil {
			logger.DebugCF("session", "session restored from snapshot", map[string]interface{}{
				"subject": subjectID,
				"turns":   len(sess.Turns),
			})
			return sess
		}
		if !errors.Is(err, ErrSessionNotFound) {
			logger.WarnCF("session", "session restore failed", map[string]interface{}{
				"subject": subjectID,
				"error":   err.Error(),
			})
		}
	}
	return &Session{SubjectID: subjectID}
}

// snapshot saves best-effort: a failed save costs durability, not the turn.
func (r *Registry) snapshot(sess *Session) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(context.Background(), sess); err != nil {
		logger.WarnCF("session", "session snapshot failed", map[string]interface{}{
			"subject": sess.SubjectID,
			"error":   err.Error(),
		})
	}
}
