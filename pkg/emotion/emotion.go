// Package emotion turns free-form utterances into canonical emotion labels.
package emotion

import (
	"context"
	"strings"
	"unicode"

	"github.com/coprodeli/coprodelito/pkg/logger"
	"github.com/coprodeli/coprodelito/pkg/providers"
)

// Extractor asks a generator for the dominant emotion in an utterance and
// normalizes the answer into a single canonical label.
type Extractor struct {
	generator providers.Generator
}

func NewExtractor(generator providers.Generator) *Extractor {
	return &Extractor{generator: generator}
}

// Extract returns the canonical emotion label for the utterance, or "" when
// no usable label could be obtained. Classification failures are reported to
// the caller as an empty label, never as an error: a turn without a detected
// emotion is a valid turn.
func (e *Extractor) Extract(ctx context.Context, utterance string) string {
	raw, err := e.generator.ClassifyEmotionWord(ctx, utterance)
	if err != nil {
		logger.WarnCF("emotion", "emotion classification failed", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return Normalize(raw)
}

// Normalize reduces a raw classifier answer to a canonical label: surrounding
// whitespace and punctuation stripped, first letter uppercased and the rest
// lowercased. Multi-word answers ("muy triste") survive as-is. Returns ""
// when nothing label-like remains.
func Normalize(raw string) string {
	raw = strings.TrimFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if raw == "" {
		return ""
	}
	runes := []rune(strings.ToLower(raw))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Equal reports whether two labels name the same emotion, ignoring case.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}
