package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/coprodeli/coprodelito/pkg/config"
)

const studentsTable = "students"

// SupabaseStore keeps student records in the hosted postgrest backend,
// sharing the project that stores emotion logs.
type SupabaseStore struct {
	client *supabase.Client
}

type studentRow struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewSupabaseStore(cfg config.SupabaseConfig) (*SupabaseStore, error) {
	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) Register(ctx context.Context, email, password string) (*Student, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	student := newStudent(email)
	row := studentRow{
		Email:        student.Email,
		Name:         student.Name,
		PasswordHash: hashPassword(password),
		CreatedAt:    student.CreatedAt,
	}
	_, _, err := s.client.From(studentsTable).Insert(row, false, "", "minimal", "").Execute()
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "23505") {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert student: %w", err)
	}
	return student, nil
}

func (s *SupabaseStore) Authenticate(ctx context.Context, email, password string) (*Student, error) {
	var rows []studentRow
	_, err := s.client.From(studentsTable).
		Select("*", "", false).
		Eq("email", email).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	if len(rows) == 0 || rows[0].PasswordHash != hashPassword(password) {
		return nil, ErrBadCredentials
	}
	return &Student{
		Email:     rows[0].Email,
		Name:      rows[0].Name,
		CreatedAt: rows[0].CreatedAt,
	}, nil
}

func (s *SupabaseStore) Close() error { return nil }

var _ Store = (*SupabaseStore)(nil)
