package permission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenRejectsSecondPendingRequest(t *testing.T) {
	t.Parallel()

	g := NewGate(0)
	_, err := g.Open("s1", "pytest -q", 3)
	require.NoError(t, err)

	_, err = g.Open("s1", "ls", 4)
	require.ErrorIs(t, err, ErrRequestPending)

	pending, ok := g.Pending()
	require.True(t, ok)
	require.Equal(t, "pytest -q", pending.Command)
	require.Equal(t, Pending, pending.State)
}

func TestResolveUnknownIDLeavesPendingUntouched(t *testing.T) {
	t.Parallel()

	g := NewGate(0)
	req, err := g.Open("s1", "pytest -q", 1)
	require.NoError(t, err)

	_, err = g.Resolve("not-"+req.ID, true)
	require.ErrorIs(t, err, ErrUnknownRequest)

	pending, ok := g.Pending()
	require.True(t, ok)
	require.Equal(t, req.ID, pending.ID)
}

func TestResolveWithoutPendingRequest(t *testing.T) {
	t.Parallel()

	g := NewGate(0)
	_, err := g.Resolve("anything", true)
	require.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestApproveGrantsExactCommandOnce(t *testing.T) {
	t.Parallel()

	g := NewGate(0)
	req, err := g.Open("s1", "pytest -q", 1)
	require.NoError(t, err)

	resolved, err := g.Resolve(req.ID, true)
	require.NoError(t, err)
	require.Equal(t, Approved, resolved.State)

	// Non-matching text must not consume the grant.
	_, err = g.Authorize("pytest -q && rm -rf /")
	require.ErrorIs(t, err, ErrNotAuthorized)
	_, err = g.Authorize("pytest  -q")
	require.ErrorIs(t, err, ErrNotAuthorized)

	granted, err := g.Authorize("pytest -q")
	require.NoError(t, err)
	require.Equal(t, req.ID, granted.ID)

	// The grant is one-shot.
	_, err = g.Authorize("pytest -q")
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestDenyIsTerminal(t *testing.T) {
	t.Parallel()

	g := NewGate(0)
	req, err := g.Open("s1", "pytest -q", 1)
	require.NoError(t, err)

	resolved, err := g.Resolve(req.ID, false)
	require.NoError(t, err)
	require.Equal(t, Denied, resolved.State)

	_, err = g.Authorize("pytest -q")
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, ok := g.Pending()
	require.False(t, ok)

	// The gate accepts a fresh request afterwards.
	_, err = g.Open("s1", "pytest -q", 2)
	require.NoError(t, err)
}

func TestPendingExpiresAfterTimeout(t *testing.T) {
	t.Parallel()

	g := NewGate(10 * time.Millisecond)
	req, err := g.Open("s1", "pytest -q", 1)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, ok := g.Pending()
	require.False(t, ok)
	_, err = g.Resolve(req.ID, true)
	require.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestZeroTimeoutNeverExpires(t *testing.T) {
	t.Parallel()

	g := NewGate(0)
	_, err := g.Open("s1", "pytest -q", 1)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, ok := g.Pending()
	require.True(t, ok)
}
