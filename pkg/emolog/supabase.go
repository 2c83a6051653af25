package emolog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/coprodeli/coprodelito/pkg/config"
)

// SupabaseStore persists emotion logs in Supabase tables. One row per
// (log, emotion) pair; the composite uniqueness key makes appends
// idempotent on the storage side.
type SupabaseStore struct {
	client *supabase.Client
}

type logRow struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	UpdatedAt time.Time `json:"updated_at"`
}

type entryRow struct {
	LogID     string `json:"log_id"`
	Emotion   string `json:"emotion"`
	Situation string `json:"situation"`
}

// NewSupabaseStore creates a Supabase-backed emotion log store.
func NewSupabaseStore(cfg config.SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) CreateEmotionLog(ctx context.Context, subjectID string, emotions, situations []string) (DocRef, error) {
	if len(emotions) != len(situations) {
		return DocRef{}, storageErr("supabase", "create", fmt.Errorf("emotions/situations length mismatch: %d != %d", len(emotions), len(situations)))
	}

	row := logRow{
		ID:        uuid.NewString(),
		Subject:   subjectID,
		UpdatedAt: time.Now().UTC(),
	}

	var inserted []logRow
	if _, err := s.client.From("emotion_logs").
		Insert(row, false, "", "representation", "").
		ExecuteTo(&inserted); err != nil {
		return DocRef{}, storageErr("supabase", "create", err)
	}

	for i, emotion := range emotions {
		if err := s.upsertEntry(row.ID, emotion, situations[i]); err != nil {
			return DocRef{}, storageErr("supabase", "create", err)
		}
	}

	return DocRef{ID: row.ID}, nil
}

func (s *SupabaseStore) AppendEmotionLog(ctx context.Context, ref DocRef, emotion, situation string) error {
	if ref.ID == "" {
		return storageErr("supabase", "append", errors.New("empty doc ref"))
	}

	if err := s.upsertEntry(ref.ID, emotion, situation); err != nil {
		return storageErr("supabase", "append", err)
	}

	patch := map[string]any{"updated_at": time.Now().UTC()}
	var updated []logRow
	if _, err := s.client.From("emotion_logs").
		Update(patch, "minimal", "").
		Eq("id", ref.ID).
		ExecuteTo(&updated); err != nil {
		return storageErr("supabase", "append", err)
	}
	return nil
}

func (s *SupabaseStore) upsertEntry(logID, emotion, situation string) error {
	row := entryRow{LogID: logID, Emotion: emotion, Situation: situation}
	var inserted []entryRow
	_, err := s.client.From("emotion_log_entries").
		Insert(row, true, "log_id,emotion", "minimal", "").
		ExecuteTo(&inserted)
	return err
}

func (s *SupabaseStore) GetEmotionLog(ctx context.Context, subjectID string) (*EmotionLog, error) {
	var logs []logRow
	if _, err := s.client.From("emotion_logs").
		Select("*", "", false).
		Eq("subject", subjectID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		ExecuteTo(&logs); err != nil {
		return nil, storageErr("supabase", "get", err)
	}
	if len(logs) == 0 {
		return nil, ErrLogNotFound
	}

	log := &EmotionLog{
		ID:         logs[0].ID,
		SubjectID:  logs[0].Subject,
		LastUpdate: logs[0].UpdatedAt,
	}

	var entries []entryRow
	if _, err := s.client.From("emotion_log_entries").
		Select("*", "", false).
		Eq("log_id", log.ID).
		ExecuteTo(&entries); err != nil {
		return nil, storageErr("supabase", "get", err)
	}
	for _, e := range entries {
		log.Emotions = append(log.Emotions, e.Emotion)
		log.Situations = append(log.Situations, e.Situation)
	}

	return log, nil
}

func (s *SupabaseStore) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

var _ Store = (*SupabaseStore)(nil)
