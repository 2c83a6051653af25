// Package session holds the per-student conversation state: the turn
// history, the accumulated emotion set with its parallel situation list,
// and the handle to the persisted emotion log.
package session

import (
	"strings"
	"time"
	"unicode"

	"github.com/coprodeli/coprodelito/pkg/emolog"
	"github.com/coprodeli/coprodelito/pkg/emotion"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in the conversation. Immutable once appended.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Session is the mutable record of one student's ongoing conversation.
// Callers must hold the session's registry lock while reading or writing;
// the struct itself is not synchronized.
type Session struct {
	SubjectID string `json:"subject_id"`
	Turns     []Turn `json:"turns"`

	// Emotions and Situations grow in lockstep: Situations[i] is the
	// utterance that first triggered Emotions[i].
	Emotions   []string `json:"emotions"`
	Situations []string `json:"situations"`

	// TopicSeed is the first user utterance of the session.
	TopicSeed string `json:"topic_seed,omitempty"`

	// DocRef is set after the first successful emotion log write and
	// never changes for the rest of the session.
	DocRef emolog.DocRef `json:"doc_ref"`

	LastActive time.Time `json:"last_active"`
	Version    int64     `json:"version"`
}

// Reset wipes all conversation state, binds the session to subjectID and
// records the greeting as the opening assistant turn. This is the only way
// a session changes identity.
func (s *Session) Reset(subjectID, greeting string) {
	s.SubjectID = subjectID
	s.Turns = nil
	s.Emotions = nil
	s.Situations = nil
	s.TopicSeed = ""
	s.DocRef = emolog.DocRef{}
	s.AppendAssistant(greeting)
}

// AppendUser appends a user turn. The first user turn of the session is
// captured as the topic seed.
func (s *Session) AppendUser(text string) {
	if s.TopicSeed == "" {
		s.TopicSeed = text
	}
	s.append(RoleUser, text)
}

func (s *Session) AppendAssistant(text string) {
	s.append(RoleAssistant, text)
}

func (s *Session) append(role, text string) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text})
	s.LastActive = time.Now()
}

// RecordEmotion adds the label and its triggering utterance as a pair.
// Empty labels and labels already present (compared case-insensitively)
// are ignored; both lists are updated together or not at all. Reports
// whether the pair was added.
func (s *Session) RecordEmotion(label, triggeringText string) bool {
	if label == "" || s.HasEmotion(label) {
		return false
	}
	s.Emotions = append(s.Emotions, label)
	s.Situations = append(s.Situations, triggeringText)
	return true
}

// HasEmotion reports whether the label is already recorded, ignoring case.
func (s *Session) HasEmotion(label string) bool {
	for _, e := range s.Emotions {
		if emotion.Equal(e, label) {
			return true
		}
	}
	return false
}

// TurnCount returns the number of turns in the history, the welcome
// greeting included.
func (s *Session) TurnCount() int {
	return len(s.Turns)
}

// ContextWindow returns the last n turns as "{role}: {text}" lines in
// chronological order, for prompt construction.
func (s *Session) ContextWindow(n int) string {
	turns := s.Turns
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Role+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}

// RecentUserTexts returns the texts of the last n user turns in
// chronological order.
func (s *Session) RecentUserTexts(n int) []string {
	var texts []string
	for i := len(s.Turns) - 1; i >= 0 && len(texts) < n; i-- {
		if s.Turns[i].Role == RoleUser {
			texts = append(texts, s.Turns[i].Text)
		}
	}
	for i, j := 0, len(texts)-1; i < j; i, j = i+1, j-1 {
		texts[i], texts[j] = texts[j], texts[i]
	}
	return texts
}

// DisplayName derives a human-readable name from a subject address:
// "ana.perez@spc.edu.pe" becomes "Ana Perez". Subjects that do not look
// like an address are returned as-is.
func DisplayName(subjectID string) string {
	local := subjectID
	if at := strings.IndexByte(subjectID, '@'); at >= 0 {
		local = subjectID[:at]
	}
	parts := strings.Split(local, ".")
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
