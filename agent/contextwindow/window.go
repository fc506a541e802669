package contextwindow

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
)

const (
	// DefaultThreshold is the simulated token budget of a window.
	DefaultThreshold = 8192
	// DefaultProtectedTurns is the number of most recent turns that are
	// never folded into the summary.
	DefaultProtectedTurns = 6

	digestMaxLen = 180
)

// Window holds the bounded, compressible conversation history of one
// session. It is the only view the reasoning capability ever sees.
//
// Appends and read accessors are internally synchronized, so registry
// snapshots may run concurrently with the turn loop. Bug records handed
// out by NewBug/LastBug are mutated only by the owning session's loop,
// which the session guard serializes.
type Window struct {
	mu        sync.RWMutex
	sessionID string
	threshold int
	protected int

	turns        []turn.Turn
	summary      string
	nextSeq      int64
	compressions int

	bugs       []*BugRecord
	bugCounter int
}

// BugRecord is the structured state of one reported bug. It lives outside
// the foldable turn list so compression can never drop it.
type BugRecord struct {
	ID               string   `json:"id"`
	Report           string   `json:"report"`
	ExpectedBehavior string   `json:"expected_behavior,omitempty"`
	RootCause        string   `json:"root_cause,omitempty"`
	ProposedFix      string   `json:"proposed_fix,omitempty"`
	FilesChanged     []string `json:"files_changed,omitempty"`
	TestsAdded       []string `json:"tests_added,omitempty"`
	TestCommand      string   `json:"test_command,omitempty"`
	TestResult       string   `json:"test_result,omitempty"`
}

func New(sessionID string, threshold, protected int) *Window {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if protected <= 0 {
		protected = DefaultProtectedTurns
	}
	return &Window{
		sessionID: sessionID,
		threshold: threshold,
		protected: protected,
	}
}

// Append assigns the next sequence number, stores the turn and compresses
// if the running size exceeded the threshold. The stored turn (with its
// sequence number) is returned.
func (w *Window) Append(t turn.Turn) turn.Turn {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextSeq++
	t.Seq = w.nextSeq
	w.turns = append(w.turns, t)
	w.compressIfNeeded()
	return t
}

// TotalUnits is the running size: retained turns plus the summary slot.
func (w *Window) TotalUnits() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.totalUnits()
}

func (w *Window) totalUnits() int {
	total := approxUnits(w.summary)
	for _, t := range w.turns {
		total += t.Units()
	}
	return total
}

// Compressions reports how many fold passes have run.
func (w *Window) Compressions() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.compressions
}

func (w *Window) compressIfNeeded() {
	for w.totalUnits() > w.threshold && len(w.turns) > w.protected {
		eligible := len(w.turns) - w.protected
		cut := max(1, eligible*2/5)
		old := w.turns[:cut]
		w.turns = w.turns[cut:]

		lines := make([]string, 0, len(old))
		for _, t := range old {
			lines = append(lines, fmt.Sprintf("- %s: %s", t.Role, digest(t)))
		}
		addition := "Compressed history:\n" + strings.Join(lines, "\n")
		// Merge, never replace: facts already summarized must survive
		// later passes.
		w.summary = strings.TrimSpace(w.summary + "\n" + addition)
		w.compressions++
	}
}

// digest condenses a turn to a single line.
func digest(t turn.Turn) string {
	line := strings.Join(strings.Fields(t.Content), " ")
	if t.Payload != nil && t.Payload.Invocation != nil {
		inv := t.Payload.Invocation
		line = fmt.Sprintf("[%s %s] %s", inv.Kind, inv.Target, line)
	}
	if len(line) > digestMaxLen {
		line = truncateRunes(line, digestMaxLen) + "…"
	}
	return line
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Turns returns a copy of the retained turns in order.
func (w *Window) Turns() []turn.Turn {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]turn.Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Summary returns the condensed-history slot.
func (w *Window) Summary() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.summary
}

// LastSeq returns the most recently assigned sequence number.
func (w *Window) LastSeq() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.nextSeq
}

// NewBug registers a fresh bug record for a user report.
func (w *Window) NewBug(report string) *BugRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bugCounter++
	bug := &BugRecord{
		ID:     fmt.Sprintf("BUG-%03d", w.bugCounter),
		Report: report,
	}
	w.bugs = append(w.bugs, bug)
	return bug
}

// Bugs returns the bug tracker records in creation order.
func (w *Window) Bugs() []*BugRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.bugs
}

// LastBug returns the most recent bug record, or nil.
func (w *Window) LastBug() *BugRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.bugs) == 0 {
		return nil
	}
	return w.bugs[len(w.bugs)-1]
}

// Render produces the ordered context view consumed by the reasoning
// capability: summary first, then the bug tracker, then retained turns.
func (w *Window) Render() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var sb strings.Builder
	sb.WriteString("=== SUMMARY (compressed) ===\n")
	sb.WriteString(w.summary)
	sb.WriteString("\n\n=== BUG TRACKER ===\n")
	if len(w.bugs) == 0 {
		sb.WriteString("(none)")
	}
	for i, b := range w.bugs {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s: report=%q expected=%q root_cause=%q proposed_fix=%q files_changed=%v tests_added=%v test_result=%q",
			b.ID, b.Report, b.ExpectedBehavior, b.RootCause, b.ProposedFix, b.FilesChanged, b.TestsAdded, b.TestResult)
	}
	sb.WriteString("\n\n=== RECENT TURNS ===\n")
	for _, t := range w.turns {
		fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Content)
	}
	return sb.String()
}

func approxUnits(s string) int {
	if s == "" {
		return 0
	}
	return max(1, len(s)/4)
}
