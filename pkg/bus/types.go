package bus

// Message kinds carried on the inbound channel.
const (
	KindWelcome = "welcome"
	KindTurn    = "turn"
)

// InboundMessage is a request addressed to one subject's session: either a
// welcome event or a chat turn.
type InboundMessage struct {
	Channel   string
	SubjectID string
	Kind      string
	Content   string
}

// OutboundMessage is the reply text headed back to the subject.
type OutboundMessage struct {
	Channel   string
	SubjectID string
	Content   string
}
