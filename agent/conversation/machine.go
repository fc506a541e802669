// Package conversation drives one session's turn loop: user messages go
// in, reasoner actions are routed through the tool mediation layer, and
// every step is appended to the bounded context window. Gated commands
// suspend the machine until the permission request is resolved.
package conversation

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Pratyush783/bug-fixer-agent/agent/contextwindow"
	"github.com/Pratyush783/bug-fixer-agent/agent/csync"
	"github.com/Pratyush783/bug-fixer-agent/agent/permission"
	"github.com/Pratyush783/bug-fixer-agent/agent/pubsub"
	"github.com/Pratyush783/bug-fixer-agent/agent/reasoning"
	"github.com/Pratyush783/bug-fixer-agent/agent/tools"
	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
	"github.com/Pratyush783/bug-fixer-agent/pkg/logs"
)

type State string

const (
	StateIdle               State = "idle"
	StateReasoning          State = "reasoning"
	StateExecuting          State = "executing"
	StateAwaitingPermission State = "awaiting_permission"
	StateSummarizing        State = "summarizing"
)

const DefaultMaxSteps = 16

var (
	// ErrInvalidState 会话有待处理的授权请求, 不能接收新消息
	ErrInvalidState = errors.New("session has a pending permission request")
	// ErrTooManySteps 单轮推理步数超限
	ErrTooManySteps = errors.New("reasoner exceeded the step limit for one turn")
)

type OutcomeType string

const (
	OutcomeMessage           OutcomeType = "message"
	OutcomePermissionRequest OutcomeType = "permission_request"
)

// Outcome is what one entry point call produced: either a settled agent
// message or a suspended permission request.
type Outcome struct {
	Type         OutcomeType `json:"type"`
	AgentMessage string      `json:"agent_message"`
	Diff         string      `json:"diff,omitempty"`
	TestOutput   string      `json:"test_output,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
	Command      string      `json:"command,omitempty"`
}

// Machine owns one session's conversation. Calls into a Machine must be
// serialized by the caller; concurrent entry is the registry's busy
// rejection, not a machine concern. Appended turns are published on the
// embedded broker.
type Machine struct {
	*pubsub.Broker[turn.Turn]

	sessionID string
	window    *contextwindow.Window
	gate      *permission.Gate
	mediator  *tools.Mediator
	reasoner  reasoning.Reasoner
	state     *csync.Value[State]
	maxSteps  int

	latestDiff       string
	latestTestOutput string
}

func NewMachine(sessionID string, window *contextwindow.Window, gate *permission.Gate,
	mediator *tools.Mediator, reasoner reasoning.Reasoner) *Machine {
	return &Machine{
		Broker:    pubsub.NewBroker[turn.Turn](),
		sessionID: sessionID,
		window:    window,
		gate:      gate,
		mediator:  mediator,
		reasoner:  reasoner,
		state:     csync.NewValue(StateIdle),
		maxSteps:  DefaultMaxSteps,
	}
}

func (m *Machine) State() State {
	return m.state.Get()
}

func (m *Machine) Window() *contextwindow.Window {
	return m.window
}

func (m *Machine) Gate() *permission.Gate {
	return m.gate
}

func (m *Machine) append(ctx context.Context, role turn.Role, content string, payload *turn.Payload) turn.Turn {
	t := m.window.Append(turn.New(m.sessionID, role, content, payload))
	m.Publish(pubsub.CreatedEvent, t)
	return t
}

// HandleUserMessage runs the reasoner loop for one user message. It
// returns ErrInvalidState while a permission request is outstanding; an
// expired request is settled as a denial first and the message then
// proceeds normally.
func (m *Machine) HandleUserMessage(ctx context.Context, message string) (Outcome, error) {
	if m.state.Get() == StateAwaitingPermission {
		if _, ok := m.gate.Pending(); ok {
			return Outcome{}, ErrInvalidState
		}
		// The pending request timed out. Settle it as denied before
		// taking the new message.
		m.settleDenied(ctx)
	}
	if m.state.Get() != StateIdle {
		return Outcome{}, ErrInvalidState
	}

	m.append(ctx, turn.User, message, nil)
	m.latestDiff = ""
	m.latestTestOutput = ""
	m.state.Set(StateReasoning)
	return m.runLoop(ctx, m.view(reasoning.View{UserMessage: message}))
}

// ResolvePermission settles the outstanding request. Denial appends the
// agent's refusal and returns to idle without executing anything;
// approval executes the command exactly once and resumes the reasoner.
func (m *Machine) ResolvePermission(ctx context.Context, requestID string, approved bool) (Outcome, error) {
	req, err := m.gate.Resolve(requestID, approved)
	if err != nil {
		return Outcome{}, err
	}

	if !approved {
		return m.settleDenied(ctx), nil
	}

	m.state.Set(StateExecuting)
	inv, err := m.mediator.Bash(ctx, tools.BashParams{Command: req.Command})
	if err != nil {
		m.state.Set(StateIdle)
		msg := fmt.Sprintf("Command execution failed: %s", err)
		m.append(ctx, turn.Agent, msg, nil)
		return Outcome{Type: OutcomeMessage, AgentMessage: msg}, nil
	}
	m.latestTestOutput = inv.Output
	m.append(ctx, turn.Tool, fmt.Sprintf("ran `%s` (exit %d)", inv.Target, inv.ExitCode), &turn.Payload{
		TestOutput: inv.Output,
		Invocation: &inv,
	})

	m.state.Set(StateSummarizing)
	return m.runLoop(ctx, m.view(reasoning.View{Resumed: true, LastResult: &inv}))
}

func (m *Machine) settleDenied(ctx context.Context) Outcome {
	action, err := m.reasoner.Propose(ctx, m.view(reasoning.View{Denied: true}))
	msg := "Understood — I will not execute that bash command."
	if err == nil && action.Message != "" {
		msg = action.Message
	}
	m.append(ctx, turn.Agent, msg, nil)
	m.state.Set(StateIdle)
	return Outcome{Type: OutcomeMessage, AgentMessage: msg}
}

func (m *Machine) view(base reasoning.View) reasoning.View {
	base.SessionID = m.sessionID
	base.WorkingDir = m.mediator.WorkingDir()
	base.Rendered = m.window.Render()
	base.Bugs = m.window.Bugs()
	base.ActiveBug = m.window.LastBug()
	return base
}

func (m *Machine) runLoop(ctx context.Context, view reasoning.View) (Outcome, error) {
	for step := 0; step < m.maxSteps; step++ {
		action, err := m.reasoner.Propose(ctx, view)
		if err != nil {
			m.state.Set(StateIdle)
			return Outcome{}, err
		}
		m.applyBug(action.Bug)

		switch action.Kind {
		case reasoning.KindSay, reasoning.KindDone:
			m.append(ctx, turn.Agent, action.Message, nil)
			m.state.Set(StateIdle)
			return Outcome{
				Type:         OutcomeMessage,
				AgentMessage: action.Message,
				Diff:         m.latestDiff,
				TestOutput:   m.latestTestOutput,
			}, nil

		case reasoning.KindNote:
			m.append(ctx, turn.Agent, action.Message, nil)
			view = m.view(reasoning.View{})

		case reasoning.KindReadFile, reasoning.KindWriteFile, reasoning.KindEditFile:
			m.state.Set(StateExecuting)
			inv, invErr := m.invokeFileTool(ctx, action)
			next := reasoning.View{LastResult: &inv}
			if invErr != nil {
				logs.CtxWarnf(ctx, "tool %s failed on %s: %v", inv.Kind, inv.Target, invErr)
				next.LastErr = invErr.Error()
			} else {
				m.recordFileTool(ctx, inv)
			}
			m.state.Set(StateReasoning)
			view = m.view(next)

		case reasoning.KindRunCommand:
			req, openErr := m.gate.Open(m.sessionID, action.Command, m.window.LastSeq())
			if openErr != nil {
				m.state.Set(StateIdle)
				return Outcome{}, openErr
			}
			msg := fmt.Sprintf("Permission Request: May I execute this bash command?\n\n  %s", action.Command)
			m.append(ctx, turn.Agent, msg, nil)
			m.state.Set(StateAwaitingPermission)
			return Outcome{
				Type:         OutcomePermissionRequest,
				AgentMessage: msg,
				Diff:         m.latestDiff,
				TestOutput:   m.latestTestOutput,
				RequestID:    req.ID,
				Command:      req.Command,
			}, nil

		default:
			m.state.Set(StateIdle)
			return Outcome{}, fmt.Errorf("reasoner proposed unknown action kind %q", action.Kind)
		}
	}
	m.state.Set(StateIdle)
	return Outcome{}, ErrTooManySteps
}

func (m *Machine) invokeFileTool(ctx context.Context, action reasoning.Action) (turn.Invocation, error) {
	switch action.Kind {
	case reasoning.KindReadFile:
		return m.mediator.ReadFile(ctx, *action.Read)
	case reasoning.KindWriteFile:
		return m.mediator.WriteFile(ctx, *action.Write)
	case reasoning.KindEditFile:
		return m.mediator.EditFile(ctx, *action.Edit)
	}
	return turn.Invocation{}, fmt.Errorf("not a file tool: %s", action.Kind)
}

func (m *Machine) recordFileTool(ctx context.Context, inv turn.Invocation) {
	if inv.Diff != "" {
		m.latestDiff = inv.Diff
	}
	content := fmt.Sprintf("%s %s", inv.Kind, inv.Target)
	m.append(ctx, turn.Tool, content, &turn.Payload{
		Diff:       inv.Diff,
		Invocation: &inv,
	})
}

func (m *Machine) applyBug(update *reasoning.BugUpdate) {
	if update == nil {
		return
	}
	var bug *contextwindow.BugRecord
	if update.Open {
		bug = m.window.NewBug(update.Report)
	} else {
		bug = m.window.LastBug()
		if bug == nil {
			bug = m.window.NewBug(update.Report)
		}
	}
	if update.RootCause != "" {
		bug.RootCause = update.RootCause
	}
	if update.ProposedFix != "" {
		bug.ProposedFix = update.ProposedFix
	}
	if update.FileChanged != "" {
		bug.FilesChanged = append(bug.FilesChanged, update.FileChanged)
	}
	if update.TestAdded != "" {
		bug.TestsAdded = append(bug.TestsAdded, update.TestAdded)
	}
	if update.TestCommand != "" {
		bug.TestCommand = update.TestCommand
	}
	if update.TestResult != "" {
		bug.TestResult = update.TestResult
	}
}
