package core

import "github.com/vovakirdan/sessionchat/internal/store"

// DefaultEchoPrefix is prepended to the user's text in automatic replies.
const DefaultEchoPrefix = "Echo: "

// Responder produces the content of the automatic reply to a persisted user message.
type Responder interface {
	Reply(userMessage *store.Message) string
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(userMessage *store.Message) string

// Reply calls f.
func (f ResponderFunc) Reply(userMessage *store.Message) string {
	return f(userMessage)
}

// EchoResponder repeats the user's content behind a fixed prefix.
type EchoResponder struct {
	Prefix string
}

// NewEchoResponder returns an echo responder; an empty prefix selects DefaultEchoPrefix.
func NewEchoResponder(prefix string) *EchoResponder {
	if prefix == "" {
		prefix = DefaultEchoPrefix
	}
	return &EchoResponder{Prefix: prefix}
}

// Reply implements Responder.
func (e *EchoResponder) Reply(userMessage *store.Message) string {
	return e.Prefix + userMessage.Content
}
