package turn

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	User  Role = "user"
	Agent Role = "agent"
	Tool  Role = "tool"
)

type ToolKind string

const (
	ToolReadFile  ToolKind = "read_file"
	ToolWriteFile ToolKind = "write_file"
	ToolEditFile  ToolKind = "edit_file"
	ToolBash      ToolKind = "bash"
)

// Invocation is the audit record of one pass through the tool mediation
// layer. It is immutable history owned by the turn that produced it.
type Invocation struct {
	Kind     ToolKind `json:"kind"`
	Target   string   `json:"target"` // file path or command line
	Diff     string   `json:"diff,omitempty"`
	Output   string   `json:"output,omitempty"`
	ExitCode int      `json:"exit_code"`
	Success  bool     `json:"success"`
}

// Payload carries the structured part of a turn alongside its text.
type Payload struct {
	Diff       string      `json:"diff,omitempty"`
	TestOutput string      `json:"test_output,omitempty"`
	Invocation *Invocation `json:"invocation,omitempty"`
}

// Turn is one immutable unit of conversation history. Seq is assigned by
// the context window and defines the total order within a session.
type Turn struct {
	ID        string   `json:"id"`
	SessionID string   `json:"session_id"`
	Seq       int64    `json:"seq"`
	Role      Role     `json:"role"`
	Content   string   `json:"content"`
	Payload   *Payload `json:"payload,omitempty"`
	CreatedAt int64    `json:"created_at"`
}

func New(sessionID string, role Role, content string, payload *Payload) Turn {
	return Turn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Payload:   payload,
		CreatedAt: time.Now().Unix(),
	}
}

// Units is the simulated token size of the turn, roughly four characters
// per unit as rendered for the reasoner.
func (t Turn) Units() int {
	n := len(t.Role) + 2 + len(t.Content)
	if t.Payload != nil {
		n += len(t.Payload.Diff) + len(t.Payload.TestOutput)
		if t.Payload.Invocation != nil {
			n += len(t.Payload.Invocation.Output) + len(t.Payload.Invocation.Diff)
		}
	}
	return max(1, n/4)
}
