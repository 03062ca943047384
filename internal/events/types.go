// Package events defines the presentation envelopes pushed to chat
// clients over the webchat socket and embedded in HTTP turn responses.
package events

// Event type discriminators. Clients switch on Type to render a frame.
const (
	TypeMessage     = "message"
	TypeSuggestions = "suggestions"
	TypePlanStarted = "plan_started"
	TypeDone        = "done"
	TypeError       = "error"
)

const (
	SenderAssistant = "assistant"
	SenderUser      = "user"
)

// Message is a single chat bubble.
type Message struct {
	Type   string `json:"type"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Suggestions carries quick-reply chips to render under the latest
// assistant message. Options is never longer than three.
type Suggestions struct {
	Type    string   `json:"type"`
	Options []string `json:"options"`
}

// PlanStarted signals that profile building finished and plan
// generation has been handed off.
type PlanStarted struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Done marks the end of a turn's event stream.
type Done struct {
	Type string `json:"type"`
}

// Error is a client-facing failure frame.
type Error struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func NewMessage(sender, text string) Message {
	return Message{Type: TypeMessage, Sender: sender, Text: text}
}

func NewSuggestions(options []string) Suggestions {
	return Suggestions{Type: TypeSuggestions, Options: options}
}

func NewPlanStarted(sessionID string) PlanStarted {
	return PlanStarted{Type: TypePlanStarted, SessionID: sessionID}
}

func NewDone() Done {
	return Done{Type: TypeDone}
}

func NewError(reason string) Error {
	return Error{Type: TypeError, Reason: reason}
}
