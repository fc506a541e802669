package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMemorySessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	created, err := m.CreateSession(ctx, CreateSessionArgs{
		ID:         "sess-1",
		Title:      "divide crash",
		WorkingDir: "/tmp/work",
		Status:     "active",
	})
	require.NoError(t, err)
	require.Equal(t, "sess-1", created.ID)
	require.NotNil(t, created.CreatedAt)

	got, err := m.GetSessionByID(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "divide crash", got.Title)

	updated, err := m.UpdateSession(ctx, UpdateSessionArgs{
		ID:        "sess-1",
		Title:     "divide crash",
		TurnCount: 4,
		Status:    "closed",
	})
	require.NoError(t, err)
	require.Equal(t, int64(4), updated.TurnCount)
	require.Equal(t, "closed", updated.Status)

	require.NoError(t, m.DeleteSession(ctx, "sess-1"))
	_, err = m.GetSessionByID(ctx, "sess-1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMemoryNotFoundSemantics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetSessionByID(ctx, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = m.GetTurn(ctx, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = m.GetPermissionRecord(ctx, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = m.UpdateSession(ctx, UpdateSessionArgs{ID: "missing"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = m.UpdatePermissionRecord(ctx, UpdatePermissionRecordArgs{ID: "missing"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMemoryListTurnsOrderedBySeq(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	for _, seq := range []int64{3, 1, 2} {
		_, err := m.CreateTurn(ctx, CreateTurnArgs{
			ID:        "turn-" + string(rune('0'+seq)),
			SessionID: "sess-1",
			Seq:       seq,
			Role:      "agent",
			Content:   "step",
		})
		require.NoError(t, err)
	}

	turns, err := m.ListTurnsBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	for i, tn := range turns {
		require.Equal(t, int64(i+1), tn.Seq)
	}

	require.NoError(t, m.DeleteSessionTurns(ctx, "sess-1"))
	turns, err = m.ListTurnsBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestMemoryDeleteSessionCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	_, err := m.CreateSession(ctx, CreateSessionArgs{ID: "sess-1", Status: "active"})
	require.NoError(t, err)
	_, err = m.CreateTurn(ctx, CreateTurnArgs{ID: "turn-1", SessionID: "sess-1", Seq: 1, Role: "user"})
	require.NoError(t, err)
	_, err = m.CreatePermissionRecord(ctx, CreatePermissionRecordArgs{
		ID:        "perm-1",
		SessionID: "sess-1",
		Command:   "pytest -q",
		State:     "pending",
	})
	require.NoError(t, err)

	require.NoError(t, m.DeleteSession(ctx, "sess-1"))

	turns, err := m.ListTurnsBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Empty(t, turns)

	records, err := m.ListPermissionRecordsBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestMemoryPermissionRecordState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	_, err := m.CreatePermissionRecord(ctx, CreatePermissionRecordArgs{
		ID:        "perm-1",
		SessionID: "sess-1",
		Command:   "pytest -q",
		State:     "pending",
		TurnSeq:   5,
	})
	require.NoError(t, err)

	require.NoError(t, m.UpdatePermissionRecord(ctx, UpdatePermissionRecordArgs{ID: "perm-1", State: "approved"}))

	got, err := m.GetPermissionRecord(ctx, "perm-1")
	require.NoError(t, err)
	require.Equal(t, "approved", got.State)
	require.Equal(t, "pytest -q", got.Command)
	require.Equal(t, int64(5), got.TurnSeq)
}
