package classify

import (
	"regexp"
	"strings"
)

// The sentinel is a fixed prefix the model is prompted to emit when it
// labels an emotion. Prompt wording and this parser form one protocol:
// change them together.
const sentinelPrefix = "Emoción detectada:"

var sentinelPattern = regexp.MustCompile(`(?i)^emoción detectada:\s*([^\n😊]+?)\s*(?:😊)?\s*(?:\n|$)`)

// FormatSentinel renders the labelled prefix line that is prepended to a
// generated reply when a new emotion was classified.
func FormatSentinel(label string) string {
	return sentinelPrefix + " " + label + " 😊"
}

// HasSentinel reports whether the generated text already carries an
// emotion label, in which case classification must not run again.
func HasSentinel(text string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), strings.ToLower(sentinelPrefix))
}

// ParseSentinel extracts the emotion label from a reply that begins with
// the sentinel. Returns ok=false when no sentinel is present.
func ParseSentinel(text string) (label string, ok bool) {
	m := sentinelPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	label = strings.TrimSpace(m[1])
	if label == "" {
		return "", false
	}
	return label, true
}
