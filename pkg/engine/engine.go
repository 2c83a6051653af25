// Package engine runs the per-turn conversation pipeline: history updates,
// generation, emotion detection and the emotion log reconciliation.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coprodeli/coprodelito/pkg/classify"
	"github.com/coprodeli/coprodelito/pkg/config"
	"github.com/coprodeli/coprodelito/pkg/emolog"
	"github.com/coprodeli/coprodelito/pkg/emotion"
	"github.com/coprodeli/coprodelito/pkg/logger"
	"github.com/coprodeli/coprodelito/pkg/providers"
	"github.com/coprodeli/coprodelito/pkg/session"
)

const (
	gratitudeReply = "¡De nada! 😊 Aquí estaré cuando me necesites."
	apologyReply   = "¡Vaya! Algo no ha ido bien. ¿Podrías intentarlo de nuevo?"

	bulletMarker   = "🔹"
	maxAdviceLines = 3

	recentUserWindow = 3
)

// ValidationError rejects a malformed utterance before any state changes.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid utterance: " + e.Reason
}

// Engine orchestrates one student turn at a time. Turns for the same
// subject serialize on the registry's per-subject lock; the emotion log
// store is only ever written while that lock is held.
type Engine struct {
	cfg       *config.Config
	generator providers.Generator
	extractor *emotion.Extractor
	registry  *session.Registry
	store     emolog.Store
}

func New(cfg *config.Config, generator providers.Generator, registry *session.Registry, store emolog.Store) *Engine {
	return &Engine{
		cfg:       cfg,
		generator: generator,
		extractor: emotion.NewExtractor(generator),
		registry:  registry,
		store:     store,
	}
}

// StartSession resets the subject's session and returns the greeting. Any
// prior history, emotions and document handle for the subject are wiped.
func (e *Engine) StartSession(ctx context.Context, subjectID string) (string, error) {
	sess, release := e.registry.Acquire(ctx, subjectID)
	defer release()

	greeting := fmt.Sprintf("¡Hola %s! 👋 Soy %s, tu asistente emocional. ¿Cómo te sientes hoy?",
		session.DisplayName(subjectID), e.cfg.Assistant.Name)
	sess.Reset(subjectID, greeting)

	logger.InfoCF("engine", "session started", map[string]interface{}{
		"subject": subjectID,
	})
	return greeting, nil
}

// HandleTurn runs one utterance through the pipeline and returns the reply
// text. Generation and storage failures degrade to canned replies; only a
// malformed utterance is returned as an error.
func (e *Engine) HandleTurn(ctx context.Context, subjectID, utterance string) (string, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return "", &ValidationError{Reason: "empty message"}
	}

	// Gratitude short-circuits before any state is touched: the exchange
	// is not recorded as conversational turns.
	if classify.IsThanks(utterance) {
		return gratitudeReply, nil
	}

	sess, release := e.registry.Acquire(ctx, subjectID)
	defer release()

	sess.AppendUser(utterance)

	// Both gates are decided once, against the history as it stands
	// before generation, and reused afterwards.
	topicChange := classify.IsTopicChange(sess.TurnCount(), sess.RecentUserTexts(recentUserWindow))
	wantsAdvice := classify.WantsAdvice(utterance)

	reply, err := e.generate(ctx, sess, utterance)
	if err != nil {
		logger.ErrorCF("engine", "generation failed", map[string]interface{}{
			"subject": subjectID,
			"error":   err.Error(),
		})
		// The failed attempt leaves no assistant turn and nothing is
		// persisted; the session stays usable for the next turn.
		return apologyReply, nil
	}

	var label string
	if topicChange && !classify.HasSentinel(reply) {
		label = e.extractor.Extract(ctx, utterance)
		if label != "" {
			reply = classify.FormatSentinel(label) + "\n" + reply
		}
	} else if raw, ok := classify.ParseSentinel(reply); ok {
		label = emotion.Normalize(raw)
	}

	if wantsAdvice && !strings.Contains(reply, bulletMarker) {
		reply = formatAdvice(reply)
	}

	if sess.RecordEmotion(label, utterance) {
		e.persist(ctx, sess, label, utterance)
	}

	sess.AppendAssistant(reply)
	return reply, nil
}

func (e *Engine) generate(ctx context.Context, sess *session.Session, utterance string) (string, error) {
	window := e.cfg.Assistant.HistoryWindow
	prompt := fmt.Sprintf(`Eres %s, un asistente emocional para jóvenes. Contexto previo:
%s

Nuevo mensaje: %q

Responde de forma empática y natural, identificando emociones cuando sea nuevo tema.`,
		e.cfg.Assistant.Name, sess.ContextWindow(window), utterance)

	gctx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.Assistant.GenerateTimeout)*time.Second)
	defer cancel()

	return e.generator.Generate(gctx, prompt, providers.Options{
		Model:       e.cfg.Assistant.Model,
		MaxTokens:   e.cfg.Assistant.MaxTokens,
		Temperature: e.cfg.Assistant.Temperature,
	})
}

// formatAdvice rewrites the reply as at most three bulleted lines. The cap
// is deliberate: everything past the third non-empty line is dropped.
func formatAdvice(reply string) string {
	var lines []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, bulletMarker+" "+line)
		if len(lines) == maxAdviceLines {
			break
		}
	}
	return strings.Join(lines, "\n")
}

// persist reconciles the just-recorded pair with the emotion log: the
// first write creates the document with the full snapshot, later writes
// append only the new pair. Storage failures cost durability, never the
// reply.
func (e *Engine) persist(ctx context.Context, sess *session.Session, label, situation string) {
	if e.store == nil {
		return
	}

	if sess.DocRef.ID == "" {
		ref, err := e.store.CreateEmotionLog(ctx, sess.SubjectID, sess.Emotions, sess.Situations)
		if err != nil {
			logger.WarnCF("engine", "emotion log create failed", map[string]interface{}{
				"subject": sess.SubjectID,
				"error":   err.Error(),
			})
			return
		}
		sess.DocRef = ref
		return
	}

	if err := e.store.AppendEmotionLog(ctx, sess.DocRef, label, situation); err != nil {
		logger.WarnCF("engine", "emotion log append failed", map[string]interface{}{
			"subject": sess.SubjectID,
			"doc":     sess.DocRef.ID,
			"error":   err.Error(),
		})
	}
}
