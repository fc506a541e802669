package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Memory is an in-process Querier used when no database is configured.
// It keeps the same not-found semantics as the gorm implementation so
// callers can treat both uniformly.
type Memory struct {
	mu          sync.RWMutex
	sessions    map[string]Session
	turns       map[string][]Turn
	permissions map[string]PermissionRecord
}

func NewMemory() *Memory {
	return &Memory{
		sessions:    make(map[string]Session),
		turns:       make(map[string][]Turn),
		permissions: make(map[string]PermissionRecord),
	}
}

func (m *Memory) CreateSession(ctx context.Context, arg CreateSessionArgs) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	s := Session{
		Title:      arg.Title,
		WorkingDir: arg.WorkingDir,
		Status:     arg.Status,
	}
	s.ID = arg.ID
	s.CreatedAt = &now
	s.UpdatedAt = &now
	m.sessions[s.ID] = s
	return s, nil
}

func (m *Memory) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.turns, id)
	for pid, p := range m.permissions {
		if p.SessionID == id {
			delete(m.permissions, pid)
		}
	}
	return nil
}

func (m *Memory) GetSessionByID(ctx context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *Memory) ListSessions(ctx context.Context) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(*sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (m *Memory) UpdateSession(ctx context.Context, arg UpdateSessionArgs) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[arg.ID]
	if !ok {
		return Session{}, gorm.ErrRecordNotFound
	}
	now := time.Now()
	s.Title = arg.Title
	s.TurnCount = arg.TurnCount
	s.Compressions = arg.Compressions
	s.Summary = arg.Summary
	s.Status = arg.Status
	s.ClosedAt = arg.ClosedAt
	s.UpdatedAt = &now
	m.sessions[arg.ID] = s
	return s, nil
}

func (m *Memory) CreateTurn(ctx context.Context, arg CreateTurnArgs) (Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	t := Turn{
		SessionID:  arg.SessionID,
		Seq:        arg.Seq,
		Role:       arg.Role,
		Content:    arg.Content,
		Diff:       arg.Diff,
		TestOutput: arg.TestOutput,
		ToolKind:   arg.ToolKind,
		ToolTarget: arg.ToolTarget,
		ExitCode:   arg.ExitCode,
	}
	t.ID = arg.ID
	t.CreatedAt = &now
	t.UpdatedAt = &now
	m.turns[arg.SessionID] = append(m.turns[arg.SessionID], t)
	return t, nil
}

func (m *Memory) DeleteSessionTurns(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, sessionID)
	return nil
}

func (m *Memory) GetTurn(ctx context.Context, id string) (Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, turns := range m.turns {
		for _, t := range turns {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return Turn{}, gorm.ErrRecordNotFound
}

func (m *Memory) ListTurnsBySession(ctx context.Context, sessionID string) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := make([]Turn, len(m.turns[sessionID]))
	copy(turns, m.turns[sessionID])
	sort.Slice(turns, func(i, j int) bool { return turns[i].Seq < turns[j].Seq })
	return turns, nil
}

func (m *Memory) CreatePermissionRecord(ctx context.Context, arg CreatePermissionRecordArgs) (PermissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	p := PermissionRecord{
		SessionID: arg.SessionID,
		Command:   arg.Command,
		State:     arg.State,
		TurnSeq:   arg.TurnSeq,
	}
	p.ID = arg.ID
	p.CreatedAt = &now
	p.UpdatedAt = &now
	m.permissions[p.ID] = p
	return p, nil
}

func (m *Memory) UpdatePermissionRecord(ctx context.Context, arg UpdatePermissionRecordArgs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.permissions[arg.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	p.State = arg.State
	p.UpdatedAt = &now
	m.permissions[arg.ID] = p
	return nil
}

func (m *Memory) GetPermissionRecord(ctx context.Context, id string) (PermissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.permissions[id]
	if !ok {
		return PermissionRecord{}, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (m *Memory) ListPermissionRecordsBySession(ctx context.Context, sessionID string) ([]PermissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []PermissionRecord
	for _, p := range m.permissions {
		if p.SessionID == sessionID {
			records = append(records, p)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.Before(*records[j].UpdatedAt)
	})
	return records, nil
}
