package conversation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pratyush783/bug-fixer-agent/agent/contextwindow"
	"github.com/Pratyush783/bug-fixer-agent/agent/permission"
	"github.com/Pratyush783/bug-fixer-agent/agent/reasoning"
	"github.com/Pratyush783/bug-fixer-agent/agent/shell"
	"github.com/Pratyush783/bug-fixer-agent/agent/tools"
	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
)

const calculatorSource = "def add(a: float, b: float) -> float:\n" +
	"    return a + b\n" +
	"\n" +
	"\n" +
	"def divide(a: float, b: float) -> float:\n" +
	"    return a / b\n"

func newTestMachine(t *testing.T, testCommand string) (*Machine, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "demo_repo", "src"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "demo_repo", "src", "calculator.py"),
		[]byte(calculatorSource), 0o644))

	window := contextwindow.New("s1", contextwindow.DefaultThreshold, contextwindow.DefaultProtectedTurns)
	gate := permission.NewGate(0)
	sh := shell.NewShell(&shell.Options{WorkingDir: dir})
	mediator := tools.NewMediator(dir, gate, sh)
	reasoner := reasoning.NewHeuristic(dir, reasoning.HeuristicOptions{
		TargetFile:  "demo_repo/src/calculator.py",
		TestFile:    "demo_repo/tests/test_calculator.py",
		TestCommand: testCommand,
	})
	return NewMachine("s1", window, gate, mediator, reasoner), dir
}

func driveToFix(t *testing.T, m *Machine) {
	t.Helper()
	ctx := context.Background()

	outcome, err := m.HandleUserMessage(ctx, "divide(10, 0) crashes with ZeroDivisionError")
	require.NoError(t, err)
	require.Equal(t, OutcomeMessage, outcome.Type)
	require.Contains(t, outcome.AgentMessage, "clarifications")
	require.Equal(t, StateIdle, m.State())

	outcome, err = m.HandleUserMessage(ctx, "It should raise ValueError instead of crashing")
	require.NoError(t, err)
	require.Equal(t, OutcomeMessage, outcome.Type)
	require.Contains(t, outcome.AgentMessage, "Implemented fix + tests")
	require.Contains(t, outcome.Diff, "test_divide_by_zero")
}

func TestFixFlowAnalysisPrecedesEdit(t *testing.T) {
	t.Parallel()

	m, dir := newTestMachine(t, "echo 2 passed")
	driveToFix(t, m)

	// The analysis summary turn must come before the edit turn.
	turns := m.Window().Turns()
	analysisIdx, editIdx := -1, -1
	for i, tr := range turns {
		if strings.Contains(tr.Content, "Bug analysis summary") && analysisIdx < 0 {
			analysisIdx = i
		}
		if tr.Payload != nil && tr.Payload.Invocation != nil &&
			tr.Payload.Invocation.Kind == turn.ToolEditFile && editIdx < 0 {
			editIdx = i
		}
	}
	require.GreaterOrEqual(t, analysisIdx, 0, "no analysis turn recorded")
	require.GreaterOrEqual(t, editIdx, 0, "no edit turn recorded")
	require.Less(t, analysisIdx, editIdx, "analysis must precede the edit")

	// The guard landed on disk.
	data, err := os.ReadFile(filepath.Join(dir, "demo_repo", "src", "calculator.py"))
	require.NoError(t, err)
	require.Contains(t, string(data), "if b == 0:")
	require.Contains(t, string(data), "Cannot divide by zero")

	// The regression test was written.
	testData, err := os.ReadFile(filepath.Join(dir, "demo_repo", "tests", "test_calculator.py"))
	require.NoError(t, err)
	require.Contains(t, string(testData), "test_divide_by_zero")

	// The bug record tracks the work.
	bug := m.Window().LastBug()
	require.NotNil(t, bug)
	require.NotEmpty(t, bug.RootCause)
	require.Contains(t, bug.FilesChanged, "demo_repo/src/calculator.py")
}

func TestRunTestsSuspendsOnPermission(t *testing.T) {
	t.Parallel()

	m, _ := newTestMachine(t, "echo 2 passed")
	driveToFix(t, m)
	ctx := context.Background()

	outcome, err := m.HandleUserMessage(ctx, "run-tests")
	require.NoError(t, err)
	require.Equal(t, OutcomePermissionRequest, outcome.Type)
	require.Equal(t, "echo 2 passed", outcome.Command)
	require.NotEmpty(t, outcome.RequestID)
	require.Equal(t, StateAwaitingPermission, m.State())

	// New messages are rejected while the request is outstanding.
	_, err = m.HandleUserMessage(ctx, "anything")
	require.ErrorIs(t, err, ErrInvalidState)

	// A wrong id resolves nothing.
	_, err = m.ResolvePermission(ctx, "wrong-id", true)
	require.ErrorIs(t, err, permission.ErrUnknownRequest)
	require.Equal(t, StateAwaitingPermission, m.State())
}

func TestApproveExecutesOnceAndSummarizes(t *testing.T) {
	t.Parallel()

	m, _ := newTestMachine(t, "echo 2 passed")
	driveToFix(t, m)
	ctx := context.Background()

	outcome, err := m.HandleUserMessage(ctx, "run-tests")
	require.NoError(t, err)
	require.Equal(t, OutcomePermissionRequest, outcome.Type)

	final, err := m.ResolvePermission(ctx, outcome.RequestID, true)
	require.NoError(t, err)
	require.Equal(t, OutcomeMessage, final.Type)
	require.Contains(t, final.AgentMessage, "Final summary of work")
	require.Contains(t, final.TestOutput, "2 passed")
	require.Equal(t, StateIdle, m.State())

	// Exactly one shell execution happened.
	bashTurns := 0
	for _, tr := range m.Window().Turns() {
		if tr.Payload != nil && tr.Payload.Invocation != nil && tr.Payload.Invocation.Kind == turn.ToolBash {
			bashTurns++
			require.Equal(t, 0, tr.Payload.Invocation.ExitCode)
		}
	}
	require.Equal(t, 1, bashTurns)

	require.Equal(t, "PASS ✅", m.Window().LastBug().TestResult)
}

func TestDenyNeverExecutes(t *testing.T) {
	t.Parallel()

	m, _ := newTestMachine(t, "echo should not run")
	driveToFix(t, m)
	ctx := context.Background()

	outcome, err := m.HandleUserMessage(ctx, "run-tests")
	require.NoError(t, err)
	require.Equal(t, OutcomePermissionRequest, outcome.Type)

	refused, err := m.ResolvePermission(ctx, outcome.RequestID, false)
	require.NoError(t, err)
	require.Equal(t, OutcomeMessage, refused.Type)
	require.Contains(t, refused.AgentMessage, "will not execute")
	require.Equal(t, StateIdle, m.State())

	// No shell invocation was recorded.
	for _, tr := range m.Window().Turns() {
		if tr.Payload != nil && tr.Payload.Invocation != nil {
			require.NotEqual(t, turn.ToolBash, tr.Payload.Invocation.Kind)
		}
	}

	// The denial is terminal for that command, but the session accepts
	// a fresh request.
	next, err := m.HandleUserMessage(ctx, "run-tests")
	require.NoError(t, err)
	require.Equal(t, OutcomePermissionRequest, next.Type)
	require.NotEqual(t, outcome.RequestID, next.RequestID)
}

func TestFailingTestsReportFail(t *testing.T) {
	t.Parallel()

	m, _ := newTestMachine(t, "echo 1 failed; exit 1")
	driveToFix(t, m)
	ctx := context.Background()

	outcome, err := m.HandleUserMessage(ctx, "run-tests")
	require.NoError(t, err)

	final, err := m.ResolvePermission(ctx, outcome.RequestID, true)
	require.NoError(t, err)
	require.Contains(t, final.AgentMessage, "FAIL")
	require.NotContains(t, final.AgentMessage, "Final summary of work")
	require.Equal(t, "FAIL ❌", m.Window().LastBug().TestResult)

	// The failing output is still recorded.
	require.Contains(t, final.TestOutput, "1 failed")
}
