package permission

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pratyush783/bug-fixer-agent/agent/pubsub"
)

type State string

const (
	Pending  State = "pending"
	Approved State = "approved"
	Denied   State = "denied"
)

var (
	// ErrRequestPending 当前已有待处理的授权请求
	ErrRequestPending = errors.New("a permission request is already pending")
	// ErrNoPendingRequest 没有待处理的授权请求
	ErrNoPendingRequest = errors.New("no pending permission request")
	// ErrUnknownRequest 授权请求ID不匹配
	ErrUnknownRequest = errors.New("unknown permission request id")
	// ErrNotAuthorized 命令未获得授权
	ErrNotAuthorized = errors.New("command has no matching approved permission request")
)

// Request is one shell-command authorization. The stored command text is
// the exact text that may execute; no substitution happens after approval.
type Request struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Command   string    `json:"command"`
	TurnSeq   int64     `json:"turn_seq"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// Gate enforces the single-outstanding-request invariant for one session
// and hands out one-shot execution grants. A zero timeout disables expiry.
type Gate struct {
	*pubsub.Broker[Request]
	mu      sync.Mutex
	pending *Request
	grant   *Request // approved, not yet consumed by the mediator
	timeout time.Duration
}

func NewGate(timeout time.Duration) *Gate {
	return &Gate{
		Broker:  pubsub.NewBroker[Request](),
		timeout: timeout,
	}
}

// Open suspends a proposed command behind a new pending request. Fails if
// one is already outstanding.
func (g *Gate) Open(sessionID, command string, turnSeq int64) (Request, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expireLocked()
	if g.pending != nil {
		return Request{}, ErrRequestPending
	}
	req := Request{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Command:   command,
		TurnSeq:   turnSeq,
		State:     Pending,
		CreatedAt: time.Now(),
	}
	g.pending = &req
	g.Publish(pubsub.CreatedEvent, req)
	return req, nil
}

// Pending returns the outstanding request, if any.
func (g *Gate) Pending() (Request, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expireLocked()
	if g.pending == nil {
		return Request{}, false
	}
	return *g.pending, true
}

// Resolve settles the pending request. A non-matching id fails without
// mutating any state.
func (g *Gate) Resolve(requestID string, approved bool) (Request, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expireLocked()
	if g.pending == nil {
		return Request{}, ErrNoPendingRequest
	}
	if g.pending.ID != requestID {
		return Request{}, ErrUnknownRequest
	}
	req := *g.pending
	g.pending = nil
	if approved {
		req.State = Approved
		g.grant = &req
	} else {
		req.State = Denied
	}
	g.Publish(pubsub.UpdatedEvent, req)
	return req, nil
}

// Authorize consumes the grant for the given command. The command text
// must equal the approved text exactly; the grant is one-shot.
func (g *Gate) Authorize(command string) (Request, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.grant == nil || g.grant.Command != command {
		return Request{}, ErrNotAuthorized
	}
	req := *g.grant
	g.grant = nil
	return req, nil
}

// expireLocked turns an aged pending request into a denial when a timeout
// is configured.
func (g *Gate) expireLocked() {
	if g.timeout <= 0 || g.pending == nil {
		return
	}
	if time.Since(g.pending.CreatedAt) < g.timeout {
		return
	}
	req := *g.pending
	req.State = Denied
	g.pending = nil
	g.Publish(pubsub.UpdatedEvent, req)
}
