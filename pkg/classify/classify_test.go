package classify

import "testing"

func TestIsThanks(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"muchas gracias por todo", true},
		{"Gracias!", true},
		{"estoy muy agradecida", true},
		{"AGRADECIDO contigo", true},
		{"me siento triste", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsThanks(tc.text); got != tc.want {
			t.Errorf("IsThanks(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestWantsAdvice(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"dame algunos consejos", true},
		{"¿Qué hago ahora?", true},
		{"no sé cómo seguir", true},
		{"ayúdame por favor", true},
		{"tienes tips para dormir mejor", true},
		{"hoy me fue bien en clase", false},
	}
	for _, tc := range cases {
		if got := WantsAdvice(tc.text); got != tc.want {
			t.Errorf("WantsAdvice(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestIsTopicChange_FreshConversation(t *testing.T) {
	if !IsTopicChange(0, nil) {
		t.Error("empty history must be a topic change")
	}
	if !IsTopicChange(1, []string{"hola"}) {
		t.Error("single-turn history must be a topic change")
	}
}

func TestIsTopicChange_ConnectorContinuesTopic(t *testing.T) {
	if IsTopicChange(4, []string{"y también me cuesta dormir"}) {
		t.Error("connector word should mean topic continuation")
	}
	if IsTopicChange(3, []string{"pero no quiero hablar de eso"}) {
		t.Error("'pero' should mean topic continuation")
	}
}

func TestIsTopicChange_NoConnector(t *testing.T) {
	if !IsTopicChange(4, []string{"me fue mal en el examen"}) {
		t.Error("no connector should mean topic change")
	}
}

func TestFormatSentinel(t *testing.T) {
	got := FormatSentinel("Tristeza")
	want := "Emoción detectada: Tristeza 😊"
	if got != want {
		t.Errorf("FormatSentinel = %q, want %q", got, want)
	}
}

func TestHasSentinel(t *testing.T) {
	if !HasSentinel("Emoción detectada: Tristeza 😊\nLo siento mucho.") {
		t.Error("expected sentinel to be detected")
	}
	if !HasSentinel("emoción detectada: alegría") {
		t.Error("sentinel detection must be case-insensitive")
	}
	if HasSentinel("Hoy detecté una emoción rara") {
		t.Error("unexpected sentinel match")
	}
}

func TestParseSentinel(t *testing.T) {
	cases := []struct {
		text  string
		label string
		ok    bool
	}{
		{"Emoción detectada: Tristeza 😊\nLo siento mucho.", "Tristeza", true},
		{"Emoción detectada: Ansiedad", "Ansiedad", true},
		{"emoción detectada: miedo 😊", "miedo", true},
		{"Una respuesta normal sin etiqueta.", "", false},
		{"Emoción detectada:", "", false},
	}
	for _, tc := range cases {
		label, ok := ParseSentinel(tc.text)
		if ok != tc.ok || label != tc.label {
			t.Errorf("ParseSentinel(%q) = (%q, %v), want (%q, %v)", tc.text, label, ok, tc.label, tc.ok)
		}
	}
}
