package memory

import (
	"errors"
	"fmt"
)

// Role tags who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrInvalidRole is returned for any role outside system, user and assistant.
var ErrInvalidRole = errors.New("invalid role")

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// ParseRole maps a raw role string onto a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSystem:
		return RoleSystem, nil
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Message is a single role-tagged text payload.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// HasRole reports whether any message in msgs carries role r.
func HasRole(msgs []Message, r Role) bool {
	for _, m := range msgs {
		if m.Role == r {
			return true
		}
	}
	return false
}
