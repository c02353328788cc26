package agent

import (
	"errors"
	"fmt"

	"github.com/petasbytes/coder-agent/memory"
)

var (
	// ErrInvalidRole matches any incoming message whose role is not system, user or assistant.
	ErrInvalidRole = memory.ErrInvalidRole
	// ErrGenerationFailure wraps errors returned by the Generator.
	ErrGenerationFailure = errors.New("generation failure")
	// ErrEmptyReply is wrapped in ErrGenerationFailure when the Generator returns blank content.
	ErrEmptyReply = errors.New("empty reply")
	// ErrEmptyContent is returned for incoming messages with blank content.
	ErrEmptyContent = errors.New("empty message content")
)

// RoleError identifies the offending incoming message.
type RoleError struct {
	Index int
	Role  string
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("message %d: %v %q", e.Index, ErrInvalidRole, e.Role)
}

func (e *RoleError) Is(target error) bool { return target == ErrInvalidRole }

// ContentError identifies an incoming message with blank content.
type ContentError struct {
	Index int
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("message %d: %v", e.Index, ErrEmptyContent)
}

func (e *ContentError) Is(target error) bool { return target == ErrEmptyContent }
