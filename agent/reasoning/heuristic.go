package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pratyush783/bug-fixer-agent/agent/repoindex"
	"github.com/Pratyush783/bug-fixer-agent/agent/tools"
	"github.com/Pratyush783/bug-fixer-agent/pkg/logs"
)

type phase int

const (
	phaseIdle phase = iota
	phaseAwaitingAnswer
	phaseAnalyzing
	phaseAnnounced
	phaseEditing
	phaseReadingTests
	phaseWritingTests
	phaseFixed
	phaseAwaitingRun
	phaseSummarizing
)

type HeuristicOptions struct {
	TargetFile  string
	TestFile    string
	TestCommand string
}

func (o *HeuristicOptions) prepare() {
	if o.TestFile == "" {
		o.TestFile = "demo_repo/tests/test_calculator.py"
	}
	if o.TestCommand == "" {
		o.TestCommand = "pytest -q"
	}
}

// Heuristic is a scripted reasoner for the divide-by-zero demo
// repository. It walks the full conversational arc without a model:
// clarify, inspect, summarize the analysis before editing, patch the
// bug, add a regression test, and run the suite behind the gate.
type Heuristic struct {
	opts       HeuristicOptions
	index      *repoindex.Index
	phase      phase
	targetFile string
	targetCode string
	fixedCode  string
	skipTests  bool
}

func NewHeuristic(workingDir string, opts HeuristicOptions) *Heuristic {
	opts.prepare()
	return &Heuristic{
		opts:  opts,
		index: repoindex.New(workingDir),
	}
}

func (h *Heuristic) Propose(ctx context.Context, view View) (Action, error) {
	if view.Denied {
		h.phase = phaseFixed
		return Action{
			Kind:    KindSay,
			Message: "Understood — I will not execute that bash command.",
		}, nil
	}

	switch h.phase {
	case phaseIdle:
		return h.openBug(view), nil
	case phaseAwaitingAnswer, phaseFixed:
		if isRunTestsRequest(view.UserMessage) {
			h.phase = phaseAwaitingRun
			return Action{
				Kind:    KindRunCommand,
				Command: h.opts.TestCommand,
				Bug:     &BugUpdate{TestCommand: h.opts.TestCommand},
			}, nil
		}
		return h.startAnalysis(), nil
	case phaseAnalyzing:
		return h.analyze(view), nil
	case phaseAnnounced:
		return h.applyFix(), nil
	case phaseEditing:
		return h.afterEdit(view), nil
	case phaseReadingTests:
		return h.writeTests(view), nil
	case phaseWritingTests:
		return h.afterTests(view), nil
	case phaseAwaitingRun:
		return h.testSummary(view), nil
	case phaseSummarizing:
		return h.finalSummary(view), nil
	}
	return Action{}, fmt.Errorf("reasoner in unknown phase %d", h.phase)
}

func (h *Heuristic) openBug(view View) Action {
	h.phase = phaseAwaitingAnswer
	return Action{
		Kind: KindSay,
		Message: "I've logged this as a new bug.\n" +
			"A couple quick clarifications so I fix the *right* behavior:\n" +
			"1) What is the expected behavior (exact output / error message)?\n" +
			"2) Any constraints (e.g., should it raise, return None, or return a structured error)?\n" +
			"If you're not sure, I can propose a sensible default and you can approve.",
		Bug: &BugUpdate{Open: true, Report: view.UserMessage},
	}
}

func (h *Heuristic) startAnalysis() Action {
	h.targetFile = h.opts.TargetFile
	if h.targetFile == "" {
		if matches, err := h.index.SearchContent("def divide", 1); err == nil && len(matches) > 0 {
			h.targetFile = matches[0].Path
		} else {
			h.targetFile = "demo_repo/src/calculator.py"
		}
	}
	h.phase = phaseAnalyzing
	return Action{
		Kind: KindReadFile,
		Read: &tools.ReadFileParams{FilePath: h.targetFile},
	}
}

func (h *Heuristic) analyze(view View) Action {
	if view.LastErr != "" {
		h.phase = phaseAwaitingAnswer
		return Action{
			Kind:    KindSay,
			Message: fmt.Sprintf("Could not read %s: %s", h.targetFile, view.LastErr),
		}
	}
	h.targetCode = view.LastResult.Output

	report := ""
	if view.ActiveBug != nil {
		report = strings.ToLower(view.ActiveBug.Report)
	}

	var rootCause, proposedFix string
	switch {
	case strings.Contains(report, "zerodivisionerror"),
		strings.Contains(report, "division by zero"),
		strings.Contains(report, "divide(10, 0)"),
		strings.Contains(report, "b=0"):
		rootCause = "divide is called with b == 0, causing a ZeroDivisionError."
		proposedFix = "Add an explicit guard for b == 0 in divide() and raise a ValueError with a clear message."
	case strings.Contains(h.targetCode, "def divide") && !strings.Contains(h.targetCode, "b == 0"):
		rootCause = "divide(a, b) does not guard against b == 0, leading to a runtime crash."
		proposedFix = "Add explicit b == 0 handling in divide()."
	}

	if rootCause == "" {
		h.phase = phaseAwaitingAnswer
		return Action{
			Kind: KindSay,
			Message: "Bug analysis summary:\n" +
				fmt.Sprintf("- Suspected location: %s\n", h.targetFile) +
				"- Root cause: Unable to confidently identify yet.\n" +
				"- Proposed fix: Please share the exact error message or stack trace.",
		}
	}

	h.phase = phaseAnnounced
	return Action{
		Kind: KindNote,
		Message: "Bug analysis summary:\n" +
			fmt.Sprintf("- Suspected location: %s\n", h.targetFile) +
			fmt.Sprintf("- Root cause: %s\n", rootCause) +
			fmt.Sprintf("- Proposed fix: %s\n\n", proposedFix) +
			"If you approve, I will implement the fix, add tests, and then request permission before running the test suite.",
		Bug: &BugUpdate{RootCause: rootCause, ProposedFix: proposedFix},
	}
}

func (h *Heuristic) applyFix() Action {
	h.fixedCode = insertDivideGuard(h.targetCode)
	if h.fixedCode == h.targetCode {
		logs.Infof("divide guard already present in %s, skipping edit", h.targetFile)
		h.phase = phaseReadingTests
		return Action{
			Kind: KindReadFile,
			Read: &tools.ReadFileParams{FilePath: h.opts.TestFile},
		}
	}
	h.phase = phaseEditing
	return Action{
		Kind: KindEditFile,
		Edit: &tools.EditFileParams{FilePath: h.targetFile, Content: h.fixedCode},
	}
}

func (h *Heuristic) afterEdit(view View) Action {
	if view.LastErr != "" {
		h.phase = phaseAwaitingAnswer
		return Action{
			Kind:    KindSay,
			Message: fmt.Sprintf("edit failed: %s", view.LastErr),
		}
	}
	h.phase = phaseReadingTests
	return Action{
		Kind: KindReadFile,
		Read: &tools.ReadFileParams{FilePath: h.opts.TestFile},
		Bug:  &BugUpdate{FileChanged: h.targetFile},
	}
}

func (h *Heuristic) writeTests(view View) Action {
	current := ""
	if view.LastErr == "" && view.LastResult != nil {
		current = view.LastResult.Output
	}
	if strings.Contains(current, "test_divide_by_zero") {
		h.skipTests = true
		return h.fixedMessage(nil)
	}
	content := strings.TrimSpace(current)
	if content != "" {
		content += "\n\n"
	}
	content += "import pytest\n" +
		"from src.calculator import divide\n\n\n" +
		"def test_divide_by_zero():\n" +
		"    with pytest.raises(ValueError, match=\"divide by zero\"):\n" +
		"        divide(10, 0)\n"
	h.phase = phaseWritingTests
	return Action{
		Kind:  KindWriteFile,
		Write: &tools.WriteFileParams{FilePath: h.opts.TestFile, Content: content},
	}
}

func (h *Heuristic) afterTests(view View) Action {
	if view.LastErr != "" {
		h.phase = phaseAwaitingAnswer
		return Action{
			Kind:    KindSay,
			Message: fmt.Sprintf("write test failed: %s", view.LastErr),
		}
	}
	return h.fixedMessage(&BugUpdate{TestAdded: h.opts.TestFile})
}

func (h *Heuristic) fixedMessage(bug *BugUpdate) Action {
	h.phase = phaseFixed
	return Action{
		Kind: KindSay,
		Message: "Implemented fix + tests.\n" +
			fmt.Sprintf("- Changed: %s\n", h.targetFile) +
			fmt.Sprintf("- Tests: %s\n", h.opts.TestFile) +
			"Next: I can run tests with:\n" +
			fmt.Sprintf("  %s\n", h.opts.TestCommand) +
			"But I must ask permission before executing any bash command.\n" +
			"Say 'run-tests' when you want me to execute it.",
		Bug: bug,
	}
}

func (h *Heuristic) testSummary(view View) Action {
	passed := view.LastResult != nil && view.LastResult.Success
	result := "FAIL ❌"
	if passed {
		result = "PASS ✅"
	}
	output := ""
	if view.LastResult != nil {
		output = view.LastResult.Output
	}
	msg := fmt.Sprintf("Test results summary: %s\n", result) +
		fmt.Sprintf("Test run command: %s\n", h.opts.TestCommand)
	if output != "" {
		msg += fmt.Sprintf("Output:\n%s", output)
	}
	if !passed {
		h.phase = phaseFixed
		return Action{
			Kind:    KindSay,
			Message: msg,
			Bug:     &BugUpdate{TestResult: result},
		}
	}
	h.phase = phaseSummarizing
	return Action{
		Kind:    KindNote,
		Message: msg,
		Bug:     &BugUpdate{TestResult: result},
	}
}

func (h *Heuristic) finalSummary(view View) Action {
	lines := []string{"Final summary of work:"}
	for _, b := range view.Bugs {
		lines = append(lines, fmt.Sprintf("- %s: %s", b.ID, b.Report))
		if b.RootCause != "" {
			lines = append(lines, fmt.Sprintf("  - Root cause: %s", b.RootCause))
		}
		if b.ProposedFix != "" {
			lines = append(lines, fmt.Sprintf("  - Fix: %s", b.ProposedFix))
		}
		if len(b.FilesChanged) > 0 {
			lines = append(lines, fmt.Sprintf("  - Files changed: %s", strings.Join(b.FilesChanged, ", ")))
		}
		if len(b.TestsAdded) > 0 {
			lines = append(lines, fmt.Sprintf("  - Tests added: %s", strings.Join(b.TestsAdded, ", ")))
		}
		if b.TestResult != "" {
			lines = append(lines, fmt.Sprintf("  - Tests: %s", b.TestResult))
		}
	}
	h.phase = phaseFixed
	return Action{
		Kind:    KindDone,
		Message: strings.Join(lines, "\n"),
	}
}

func isRunTestsRequest(msg string) bool {
	return strings.EqualFold(strings.TrimSpace(msg), "run-tests")
}

// insertDivideGuard patches an unguarded python divide function with an
// explicit b == 0 check. Returns the input unchanged when no unguarded
// divide is found.
func insertDivideGuard(code string) string {
	if !strings.Contains(code, "def divide") || strings.Contains(code, "b == 0") {
		return code
	}
	exact := "def divide(a: float, b: float) -> float:\n    return a / b\n"
	guarded := "def divide(a: float, b: float) -> float:\n" +
		"    if b == 0:\n" +
		"        raise ValueError(\"Cannot divide by zero\")\n" +
		"    return a / b\n"
	if strings.Contains(code, exact) {
		return strings.Replace(code, exact, guarded, 1)
	}

	// Fallback: insert the guard right after the signature line.
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "def divide") && strings.HasSuffix(strings.TrimRight(line, " "), ":") {
			guard := []string{
				"    if b == 0:",
				"        raise ValueError(\"Cannot divide by zero\")",
			}
			out := append([]string{}, lines[:i+1]...)
			out = append(out, guard...)
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n")
		}
	}
	return code
}
