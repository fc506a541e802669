package contextwindow

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
)

func appendText(w *Window, role turn.Role, content string) turn.Turn {
	return w.Append(turn.New(w.sessionID, role, content, nil))
}

func TestAppendAssignsMonotonicSeq(t *testing.T) {
	t.Parallel()

	w := New("s1", DefaultThreshold, DefaultProtectedTurns)
	for i := 0; i < 5; i++ {
		got := appendText(w, turn.User, fmt.Sprintf("message %d", i))
		require.Equal(t, int64(i+1), got.Seq)
	}
	require.Equal(t, int64(5), w.LastSeq())
}

func TestNoCompressionUnderProtectedCount(t *testing.T) {
	t.Parallel()

	// Tiny threshold, but fewer turns than the protected tail: the
	// window must never compress.
	w := New("s1", 1, 6)
	for i := 0; i < 6; i++ {
		appendText(w, turn.User, strings.Repeat("x", 400))
	}
	require.Equal(t, 0, w.Compressions())
	require.Len(t, w.Turns(), 6)
	require.Empty(t, w.Summary())
}

func TestCompressionTriggersPromptlyAtThreshold(t *testing.T) {
	t.Parallel()

	w := New("s1", 100, 2)
	for i := 0; i < 10; i++ {
		appendText(w, turn.User, strings.Repeat("a", 200))
	}
	require.Greater(t, w.Compressions(), 0)
	// After every append the window is either under the threshold or
	// down to its protected tail.
	if w.TotalUnits() > 100 {
		require.LessOrEqual(t, len(w.Turns()), 2)
	}
}

func TestCompressionPreservesFactsInSummary(t *testing.T) {
	t.Parallel()

	w := New("s1", 50, 2)
	appendText(w, turn.User, "the bug is in calculator.py divide function")
	for i := 0; i < 8; i++ {
		appendText(w, turn.Agent, strings.Repeat("filler ", 30))
	}
	require.Greater(t, w.Compressions(), 0)
	require.Contains(t, w.Summary(), "calculator.py")
}

func TestSummaryMergesAcrossCompressions(t *testing.T) {
	t.Parallel()

	w := New("s1", 50, 2)
	appendText(w, turn.User, "first unique fact alpha")
	for i := 0; i < 8; i++ {
		appendText(w, turn.Agent, strings.Repeat("pad ", 40))
	}
	first := w.Summary()
	require.Contains(t, first, "alpha")

	appendText(w, turn.User, "second unique fact bravo")
	for i := 0; i < 8; i++ {
		appendText(w, turn.Agent, strings.Repeat("pad ", 40))
	}
	merged := w.Summary()
	require.Contains(t, merged, "alpha")
	require.Contains(t, merged, "bravo")
}

func TestDigestCapsLongLines(t *testing.T) {
	t.Parallel()

	w := New("s1", 10, 1)
	appendText(w, turn.User, strings.Repeat("z", 1000))
	appendText(w, turn.User, "tail")
	appendText(w, turn.User, "tail2")
	require.Greater(t, w.Compressions(), 0)
	for _, line := range strings.Split(w.Summary(), "\n") {
		require.LessOrEqual(t, len([]rune(line)), digestMaxLen+16, "summary line too long: %q", line)
	}
}

func TestConcurrentAppendAndRead(t *testing.T) {
	t.Parallel()

	w := New("s1", 200, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			appendText(w, turn.Agent, strings.Repeat("x", 100))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = w.Turns()
			_ = w.TotalUnits()
			_ = w.Summary()
			_ = w.Compressions()
			_ = w.Render()
		}
	}()
	wg.Wait()
	require.Equal(t, int64(500), w.LastSeq())
}

func TestDigestTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	// One leading ASCII byte misaligns the byte cap with the rune grid.
	w := New("s1", 10, 1)
	appendText(w, turn.User, "x"+strings.Repeat("界", 200))
	appendText(w, turn.User, "tail")
	appendText(w, turn.User, "tail2")
	require.Greater(t, w.Compressions(), 0)
	require.True(t, utf8.ValidString(w.Summary()))
}

func TestRenderSections(t *testing.T) {
	t.Parallel()

	w := New("s1", DefaultThreshold, DefaultProtectedTurns)
	appendText(w, turn.User, "hello agent")
	bug := w.NewBug("divide crashes on zero")
	bug.RootCause = "missing guard"

	rendered := w.Render()
	require.Contains(t, rendered, "=== SUMMARY (compressed) ===")
	require.Contains(t, rendered, "=== BUG TRACKER ===")
	require.Contains(t, rendered, "=== RECENT TURNS ===")
	require.Contains(t, rendered, "BUG-001")
	require.Contains(t, rendered, "divide crashes on zero")
	require.Contains(t, rendered, "hello agent")
}

func TestBugIDsIncrement(t *testing.T) {
	t.Parallel()

	w := New("s1", DefaultThreshold, DefaultProtectedTurns)
	require.Equal(t, "BUG-001", w.NewBug("a").ID)
	require.Equal(t, "BUG-002", w.NewBug("b").ID)
	require.Len(t, w.Bugs(), 2)
	require.Equal(t, "BUG-002", w.LastBug().ID)
}

func TestBugRecordsSurviveCompression(t *testing.T) {
	t.Parallel()

	w := New("s1", 50, 2)
	w.NewBug("report text kept")
	for i := 0; i < 10; i++ {
		appendText(w, turn.Agent, strings.Repeat("pad ", 40))
	}
	require.Greater(t, w.Compressions(), 0)
	require.Contains(t, w.Render(), "report text kept")
}
