package emotion

import (
	"context"
	"errors"
	"testing"

	"github.com/coprodeli/coprodelito/pkg/providers"
)

type stubGenerator struct {
	word string
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, opts providers.Options) (string, error) {
	return "", errors.New("not used")
}

func (s *stubGenerator) ClassifyEmotionWord(ctx context.Context, utterance string) (string, error) {
	return s.word, s.err
}

func (s *stubGenerator) DefaultModel() string { return "stub" }

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"tristeza", "Tristeza"},
		{"TRISTEZA", "Tristeza"},
		{"  ansiedad  ", "Ansiedad"},
		{"alegría.", "Alegría"},
		{"\"miedo\"", "Miedo"},
		{"tristeza profunda", "Tristeza profunda"},
		{"MUY TRISTE", "Muy triste"},
		{" muy triste. ", "Muy triste"},
		{"ánimo", "Ánimo"},
		{"", ""},
		{"   ", ""},
		{"...", ""},
		{"123", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	ex := NewExtractor(&stubGenerator{word: " Tristeza. "})
	if got := ex.Extract(context.Background(), "me siento fatal"); got != "Tristeza" {
		t.Errorf("Extract = %q, want Tristeza", got)
	}
}

func TestExtractFailureYieldsNoLabel(t *testing.T) {
	ex := NewExtractor(&stubGenerator{err: errors.New("provider down")})
	if got := ex.Extract(context.Background(), "me siento fatal"); got != "" {
		t.Errorf("Extract = %q, want empty label on failure", got)
	}
}

func TestEqual(t *testing.T) {
	if !Equal("Tristeza", "tristeza") {
		t.Error("Equal should ignore case")
	}
	if Equal("Tristeza", "Ansiedad") {
		t.Error("Equal matched different labels")
	}
}
