package session

import (
	"github.com/pkg/errors"
)

var (
	// ErrSessionBusy 会话正在处理另一条消息
	ErrSessionBusy = errors.New("session is busy handling another message")
	// ErrSessionNotFound 会话不存在
	ErrSessionNotFound = errors.New("session not found")
)

const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Session is the external view of a live session.
type Session struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	State        string `json:"state"`
	WorkingDir   string `json:"working_dir"`
	TurnCount    int    `json:"turn_count"`
	ContextUnits int    `json:"context_units"`
	Compressions int    `json:"compressions"`
	CreatedAt    int64  `json:"created_at"`
	LastActivity int64  `json:"last_activity"`
}
