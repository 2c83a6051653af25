package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory. It is the default driver
// and the one tests use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	opts    options

	// now is swappable for expiry tests.
	now func() time.Time
}

type memoryRecord struct {
	sess      Session
	expiresAt time.Time
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		records: make(map[string]memoryRecord),
		opts:    o,
		now:     time.Now,
	}
}

func (m *MemoryStore) Save(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[sess.SubjectID]; ok && !m.expired(rec) && rec.sess.Version > sess.Version {
		return ErrVersionConflict
	}

	sess.Version++
	rec := memoryRecord{sess: cloneSession(sess)}
	if m.opts.ttl > 0 {
		rec.expiresAt = m.now().Add(m.opts.ttl)
	}
	m.records[sess.SubjectID] = rec
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, subjectID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[subjectID]
	if !ok || m.expired(rec) {
		return nil, ErrSessionNotFound
	}
	sess := cloneSession(&rec.sess)
	return &sess, nil
}

func (m *MemoryStore) Delete(ctx context.Context, subjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, subjectID)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) expired(rec memoryRecord) bool {
	return !rec.expiresAt.IsZero() && m.now().After(rec.expiresAt)
}

// cloneSession copies the session and its slices so the stored snapshot
// cannot alias the caller's live state.
func cloneSession(sess *Session) Session {
	out := *sess
	out.Turns = append([]Turn(nil), sess.Turns...)
	out.Emotions = append([]string(nil), sess.Emotions...)
	out.Situations = append([]string(nil), sess.Situations...)
	return out
}

var _ Store = (*MemoryStore)(nil)
