// Package classify holds the pure text heuristics that gate the response
// pipeline: gratitude detection, advice-seeking detection, and the
// topic-change decision. All matches are case-insensitive substring checks
// against fixed keyword sets.
package classify

import "strings"

var thanksKeywords = []string{
	"gracias",
	"muchas gracias",
	"agradecido",
	"agradecida",
}

var adviceKeywords = []string{
	"consejos",
	"tips",
	"recomendación",
	"qué hago",
	"no sé",
	"ayúdame",
}

var connectorWords = []string{
	"y",
	"además",
	"también",
	"pero",
	"aunque",
	"luego",
}

// IsThanks reports whether the utterance is a gratitude message. The
// pipeline answers these with a fixed reply and touches no session state.
func IsThanks(text string) bool {
	return containsAny(text, thanksKeywords)
}

// WantsAdvice reports whether the utterance asks for recommendations. Used
// only to decide reply formatting.
func WantsAdvice(text string) bool {
	return containsAny(text, adviceKeywords)
}

// IsTopicChange decides whether the user has moved to a new emotional
// subject. totalTurns is the history length before the current turn is
// classified; recentUserTexts are the last few user utterances, newest
// last. A conversation with fewer than two turns is always a topic change.
func IsTopicChange(totalTurns int, recentUserTexts []string) bool {
	if totalTurns < 2 {
		return true
	}

	joined := strings.ToLower(strings.Join(recentUserTexts, " "))
	for _, connector := range connectorWords {
		if strings.Contains(joined, connector) {
			return false
		}
	}
	return true
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
