package llm

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrUnsupportedRole is returned when a caller-supplied message carries a role other
// than user or assistant. The system role is reserved for the server-side preamble.
var ErrUnsupportedRole = errors.New("llm: unsupported message role")

// ErrEmptyTranscript is returned when a caller submits no messages at all.
var ErrEmptyTranscript = errors.New("llm: empty transcript")

// Message is a closed set: SystemMessage, UserMessage, AssistantMessage.
//
//sumtype:decl
type Message interface {
	Role() Role
	Text() string
	sealed()
}

type SystemMessage struct{ Content string }

type UserMessage struct{ Content string }

type AssistantMessage struct{ Content string }

func (SystemMessage) Role() Role    { return RoleSystem }
func (UserMessage) Role() Role      { return RoleUser }
func (AssistantMessage) Role() Role { return RoleAssistant }

func (m SystemMessage) Text() string    { return m.Content }
func (m UserMessage) Text() string      { return m.Content }
func (m AssistantMessage) Text() string { return m.Content }

func (SystemMessage) sealed()    {}
func (UserMessage) sealed()      {}
func (AssistantMessage) sealed() {}

// RawMessage is the wire shape of a transcript entry.
type RawMessage struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

// ParseTranscript converts caller-supplied entries into typed messages.
func ParseTranscript(raw []RawMessage) ([]Message, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyTranscript
	}

	out := make([]Message, len(raw))
	for i, m := range raw {
		switch Role(m.Role) {
		case RoleUser:
			out[i] = UserMessage{Content: m.Content}
		case RoleAssistant:
			out[i] = AssistantMessage{Content: m.Content}
		default:
			return nil, fmt.Errorf("%w: %q at position %d", ErrUnsupportedRole, m.Role, i)
		}
	}
	return out, nil
}

// LastUserMessage returns the newest user entry, if any.
func LastUserMessage(history []Message) (UserMessage, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if m, ok := history[i].(UserMessage); ok {
			return m, true
		}
	}
	return UserMessage{}, false
}
