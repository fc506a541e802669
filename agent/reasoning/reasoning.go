// Package reasoning decides what the agent does next. A Reasoner never
// touches the workspace itself: it proposes actions, and the
// conversation machine routes them through the tool mediation layer.
package reasoning

import (
	"context"

	"github.com/Pratyush783/bug-fixer-agent/agent/contextwindow"
	"github.com/Pratyush783/bug-fixer-agent/agent/tools"
	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
)

type Kind string

const (
	// KindSay appends an agent message and ends the turn.
	KindSay Kind = "say"
	// KindNote appends an agent message and keeps reasoning.
	KindNote      Kind = "note"
	KindReadFile  Kind = "read_file"
	KindWriteFile Kind = "write_file"
	KindEditFile  Kind = "edit_file"
	// KindRunCommand asks for a gated shell execution; the machine
	// suspends the turn until the user resolves the request.
	KindRunCommand Kind = "run_command"
	// KindDone appends a final agent message and ends the turn.
	KindDone Kind = "done"
)

// BugUpdate mutates the active bug record (or opens a new one) as a
// side effect of an action.
type BugUpdate struct {
	Open        bool
	Report      string
	RootCause   string
	ProposedFix string
	FileChanged string
	TestAdded   string
	TestCommand string
	TestResult  string
}

type Action struct {
	Kind    Kind
	Message string
	Read    *tools.ReadFileParams
	Write   *tools.WriteFileParams
	Edit    *tools.EditFileParams
	Command string
	Bug     *BugUpdate
}

// View is the snapshot of conversation state handed to the reasoner on
// each step. Exactly one of UserMessage, LastResult, Resumed or Denied
// describes why the reasoner is being called.
type View struct {
	SessionID   string
	WorkingDir  string
	Rendered    string
	UserMessage string
	Bugs        []*contextwindow.BugRecord
	ActiveBug   *contextwindow.BugRecord
	LastResult  *turn.Invocation
	LastErr     string
	Resumed     bool
	Denied      bool
}

type Reasoner interface {
	Propose(ctx context.Context, view View) (Action, error)
}
