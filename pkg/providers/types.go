package providers

import (
	"context"
	"fmt"
)

// Generator is the text-generation collaborator. Implementations call an
// out-of-process hosted model; every call must honor ctx cancellation.
type Generator interface {
	// Generate produces a free-form reply for the assembled prompt.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)

	// ClassifyEmotionWord asks the model to name the dominant emotion in
	// the utterance with a single word. The raw text is returned untrimmed;
	// normalization belongs to the emotion extractor.
	ClassifyEmotionWord(ctx context.Context, utterance string) (string, error)

	DefaultModel() string
}

// Options tunes a single generation call. Zero values fall back to the
// provider's defaults.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// GenerationError wraps any failure of the generation collaborator:
// timeouts, quota, transport errors, malformed responses.
type GenerationError struct {
	Provider string
	Op       string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func generationErr(provider, op string, err error) error {
	return &GenerationError{Provider: provider, Op: op, Err: err}
}
