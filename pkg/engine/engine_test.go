package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/coprodeli/coprodelito/pkg/config"
	"github.com/coprodeli/coprodelito/pkg/emolog"
	"github.com/coprodeli/coprodelito/pkg/providers"
	"github.com/coprodeli/coprodelito/pkg/session"
)

const testSubject = "ana.perez@spc.edu.pe"

type mockGenerator struct {
	reply        string
	classifyWord string
	generateErr  error
	classifyErr  error

	generateCalls int
	classifyCalls int
	lastPrompt    string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts providers.Options) (string, error) {
	m.generateCalls++
	m.lastPrompt = prompt
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.reply, nil
}

func (m *mockGenerator) ClassifyEmotionWord(ctx context.Context, utterance string) (string, error) {
	m.classifyCalls++
	if m.classifyErr != nil {
		return "", m.classifyErr
	}
	return m.classifyWord, nil
}

func (m *mockGenerator) DefaultModel() string { return "mock" }

type createCall struct {
	subject    string
	emotions   []string
	situations []string
}

type appendCall struct {
	ref       emolog.DocRef
	emotion   string
	situation string
}

type mockStore struct {
	creates   []createCall
	appends   []appendCall
	createErr error
	appendErr error
}

func (m *mockStore) CreateEmotionLog(ctx context.Context, subjectID string, emotions, situations []string) (emolog.DocRef, error) {
	if m.createErr != nil {
		return emolog.DocRef{}, m.createErr
	}
	m.creates = append(m.creates, createCall{
		subject:    subjectID,
		emotions:   append([]string(nil), emotions...),
		situations: append([]string(nil), situations...),
	})
	return emolog.DocRef{ID: "doc-1"}, nil
}

func (m *mockStore) AppendEmotionLog(ctx context.Context, ref emolog.DocRef, emotion, situation string) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appends = append(m.appends, appendCall{ref: ref, emotion: emotion, situation: situation})
	return nil
}

func (m *mockStore) GetEmotionLog(ctx context.Context, subjectID string) (*emolog.EmotionLog, error) {
	return nil, emolog.ErrLogNotFound
}

func (m *mockStore) Close() error { return nil }

type testEnv struct {
	engine   *Engine
	gen      *mockGenerator
	store    *mockStore
	registry *session.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gen := &mockGenerator{reply: "Lamento que te sientas así. Cuéntame más."}
	store := &mockStore{}
	registry := session.NewRegistry(nil)
	return &testEnv{
		engine:   New(config.DefaultConfig(), gen, registry, store),
		gen:      gen,
		store:    store,
		registry: registry,
	}
}

// snapshot reads the session state without going through the engine.
func (env *testEnv) snapshot(t *testing.T) session.Session {
	t.Helper()
	sess, release := env.registry.Acquire(context.Background(), testSubject)
	defer release()
	return *sess
}

func (env *testEnv) start(t *testing.T) string {
	t.Helper()
	greeting, err := env.engine.StartSession(context.Background(), testSubject)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	return greeting
}

func (env *testEnv) turn(t *testing.T, utterance string) string {
	t.Helper()
	reply, err := env.engine.HandleTurn(context.Background(), testSubject, utterance)
	if err != nil {
		t.Fatalf("HandleTurn(%q) failed: %v", utterance, err)
	}
	return reply
}

func TestStartSessionGreeting(t *testing.T) {
	env := newTestEnv(t)
	greeting := env.start(t)

	want := "¡Hola Ana Perez! 👋 Soy Coprodelito, tu asistente emocional. ¿Cómo te sientes hoy?"
	if greeting != want {
		t.Errorf("greeting = %q, want %q", greeting, want)
	}

	sess := env.snapshot(t)
	if sess.TurnCount() != 1 || sess.Turns[0].Role != session.RoleAssistant {
		t.Errorf("greeting should be the only turn, got %+v", sess.Turns)
	}
}

func TestStartSessionWipesPriorState(t *testing.T) {
	env := newTestEnv(t)
	env.gen.classifyWord = "tristeza"
	env.start(t)
	env.turn(t, "me siento triste por mi examen")

	env.start(t)
	sess := env.snapshot(t)
	if sess.TurnCount() != 1 || len(sess.Emotions) != 0 || sess.DocRef.ID != "" {
		t.Errorf("welcome kept prior state: %+v", sess)
	}
}

func TestGratitudeShortCircuit(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)

	for _, utterance := range []string{"gracias", "Muchas gracias!", "estoy muy agradecida"} {
		reply := env.turn(t, utterance)
		if reply != gratitudeReply {
			t.Errorf("turn(%q) = %q, want the fixed gratitude reply", utterance, reply)
		}
	}

	sess := env.snapshot(t)
	if sess.TurnCount() != 1 {
		t.Errorf("gratitude turns mutated history: %+v", sess.Turns)
	}
	if len(sess.Emotions) != 0 || len(sess.Situations) != 0 {
		t.Error("gratitude turns touched emotions")
	}
	if env.gen.generateCalls != 0 {
		t.Errorf("gratitude reached the generator %d times", env.gen.generateCalls)
	}
}

func TestEmptyUtteranceRejected(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)

	_, err := env.engine.HandleTurn(context.Background(), testSubject, "   ")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	sess := env.snapshot(t)
	if sess.TurnCount() != 1 {
		t.Error("rejected turn mutated history")
	}
}

func TestFirstEmotionCreatesDocument(t *testing.T) {
	env := newTestEnv(t)
	env.gen.classifyWord = "tristeza"
	env.start(t)

	reply := env.turn(t, "me siento triste por mi examen")

	if !strings.HasPrefix(reply, "Emoción detectada: Tristeza 😊\n") {
		t.Errorf("reply = %q, want sentinel prefix", reply)
	}

	sess := env.snapshot(t)
	if len(sess.Emotions) != 1 || sess.Emotions[0] != "Tristeza" {
		t.Errorf("Emotions = %v", sess.Emotions)
	}
	if len(sess.Situations) != 1 || sess.Situations[0] != "me siento triste por mi examen" {
		t.Errorf("Situations = %v", sess.Situations)
	}

	if len(env.store.creates) != 1 || len(env.store.appends) != 0 {
		t.Fatalf("creates=%d appends=%d, want one create", len(env.store.creates), len(env.store.appends))
	}
	if env.store.creates[0].subject != testSubject {
		t.Errorf("create subject = %q", env.store.creates[0].subject)
	}
	if sess.DocRef.ID != "doc-1" {
		t.Errorf("DocRef = %+v", sess.DocRef)
	}
}

func TestConnectorSuppressesClassification(t *testing.T) {
	env := newTestEnv(t)
	env.gen.classifyWord = "tristeza"
	env.start(t)
	env.turn(t, "me siento triste por mi examen")

	env.gen.classifyWord = "cansancio"
	reply := env.turn(t, "además me cuesta dormir")

	if strings.HasPrefix(reply, "Emoción detectada:") {
		t.Errorf("topic continuation got a sentinel: %q", reply)
	}

	sess := env.snapshot(t)
	if len(sess.Emotions) != 1 {
		t.Errorf("Emotions = %v, want the first emotion only", sess.Emotions)
	}
	if len(env.store.creates) != 1 || len(env.store.appends) != 0 {
		t.Error("topic continuation reached the store")
	}
}

func TestSecondEmotionAppends(t *testing.T) {
	env := newTestEnv(t)
	env.gen.classifyWord = "tristeza"
	env.start(t)
	env.turn(t, "me siento triste por mi examen")

	env.gen.classifyWord = "miedo"
	env.turn(t, "ahora tengo un problema distinto con mi familia")

	sess := env.snapshot(t)
	if len(sess.Emotions) != 2 || len(sess.Situations) != 2 {
		t.Fatalf("emotions=%v situations=%v", sess.Emotions, sess.Situations)
	}
	if len(env.store.creates) != 1 || len(env.store.appends) != 1 {
		t.Fatalf("creates=%d appends=%d, want one of each", len(env.store.creates), len(env.store.appends))
	}
	got := env.store.appends[0]
	if got.ref.ID != "doc-1" || got.emotion != "Miedo" {
		t.Errorf("append = %+v", got)
	}
}

func TestDuplicateEmotionNotRepersisted(t *testing.T) {
	env := newTestEnv(t)
	env.gen.classifyWord = "tristeza"
	env.start(t)
	env.turn(t, "me siento triste por mi examen")

	env.gen.classifyWord = "TRISTEZA"
	env.turn(t, "me siento fatal con mi nota otra vez")

	sess := env.snapshot(t)
	if len(sess.Emotions) != 1 || len(sess.Situations) != 1 {
		t.Errorf("duplicate label grew the lists: %v / %v", sess.Emotions, sess.Situations)
	}
	if len(env.store.creates) != 1 || len(env.store.appends) != 0 {
		t.Error("duplicate label reached the store")
	}
}

func TestGenerationFailureDegrades(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	env.gen.generateErr = &providers.GenerationError{Provider: "mock", Op: "generate", Err: errors.New("timeout")}

	reply := env.turn(t, "me siento triste por mi examen")
	if reply != apologyReply {
		t.Errorf("reply = %q, want the apology", reply)
	}

	sess := env.snapshot(t)
	// The user turn stays, the failed assistant turn does not.
	if sess.TurnCount() != 2 {
		t.Errorf("TurnCount = %d, want 2 (greeting + user)", sess.TurnCount())
	}
	if sess.Turns[len(sess.Turns)-1].Role != session.RoleUser {
		t.Error("failed attempt appended an assistant turn")
	}
	if len(sess.Emotions) != 0 || len(env.store.creates) != 0 {
		t.Error("failed attempt recorded or persisted an emotion")
	}

	// The session stays usable.
	env.gen.generateErr = nil
	env.gen.classifyWord = "tristeza"
	if reply := env.turn(t, "sigo triste por el examen"); reply == apologyReply {
		t.Error("session unusable after a failed turn")
	}
}

func TestExtractionFailureKeepsReply(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	env.gen.classifyErr = errors.New("classifier down")

	reply := env.turn(t, "me siento triste por mi examen")
	if reply != env.gen.reply {
		t.Errorf("reply = %q, want the raw generated reply", reply)
	}

	sess := env.snapshot(t)
	if len(sess.Emotions) != 0 || len(env.store.creates) != 0 {
		t.Error("failed extraction still recorded an emotion")
	}
}

func TestSentinelInReplySkipsClassifier(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	env.gen.reply = "Emoción detectada: Ansiedad 😊\nEntiendo, los exámenes pueden abrumar."

	reply := env.turn(t, "estoy muy nerviosa por el examen final")

	if env.gen.classifyCalls != 0 {
		t.Errorf("classifier ran %d times despite the sentinel", env.gen.classifyCalls)
	}
	if !strings.HasPrefix(reply, "Emoción detectada: Ansiedad 😊") {
		t.Errorf("reply = %q", reply)
	}

	sess := env.snapshot(t)
	if len(sess.Emotions) != 1 || sess.Emotions[0] != "Ansiedad" {
		t.Errorf("Emotions = %v, want the parsed label", sess.Emotions)
	}
}

func TestAdviceReformatting(t *testing.T) {
	env := newTestEnv(t)
	env.gen.classifyWord = "tristeza"
	env.start(t)
	env.turn(t, "me siento triste por mi examen")

	// Connector keeps the sentinel out so only the bullets change the text.
	env.gen.reply = "Primero, respira hondo.\n\nSegundo, haz una pausa.\nTercero, habla con alguien.\nCuarto, duerme bien.\nQuinto, come algo."
	reply := env.turn(t, "pero no sé qué hacer, ayúdame")

	lines := strings.Split(reply, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), reply)
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "🔹 ") {
			t.Errorf("line %d = %q, want bullet prefix", i, line)
		}
	}
	if strings.Contains(reply, "Cuarto") || strings.Contains(reply, "Quinto") {
		t.Error("lines past the third survived")
	}
}

func TestAdviceAlreadyBulleted(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	env.gen.reply = "🔹 Respira hondo.\n🔹 Haz una pausa.\n🔹 Habla con alguien.\n🔹 Duerme bien."

	reply := env.turn(t, "pero dame consejos")
	if reply != env.gen.reply {
		t.Errorf("already-bulleted reply was reformatted:\n%s", reply)
	}
}

func TestStorageFailureSwallowed(t *testing.T) {
	env := newTestEnv(t)
	env.gen.classifyWord = "tristeza"
	env.store.createErr = errors.New("store down")
	env.start(t)

	reply := env.turn(t, "me siento triste por mi examen")
	if reply == apologyReply {
		t.Error("storage failure surfaced to the user")
	}

	sess := env.snapshot(t)
	if len(sess.Emotions) != 1 {
		t.Error("storage failure dropped the in-memory emotion")
	}
	if sess.DocRef.ID != "" {
		t.Error("failed create still set the doc ref")
	}
	if len(sess.Situations) != len(sess.Emotions) {
		t.Error("parallel lists diverged after storage failure")
	}
}

func TestPromptCarriesContextWindow(t *testing.T) {
	env := newTestEnv(t)
	env.start(t)
	env.turn(t, "hola, tengo un mal día")

	if !strings.Contains(env.gen.lastPrompt, "assistant: ¡Hola Ana Perez!") {
		t.Errorf("prompt missing greeting context:\n%s", env.gen.lastPrompt)
	}
	if !strings.Contains(env.gen.lastPrompt, `"hola, tengo un mal día"`) {
		t.Errorf("prompt missing the new utterance:\n%s", env.gen.lastPrompt)
	}
}
