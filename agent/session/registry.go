// Package session owns the registry of live conversations. Each session
// gets its own context window, permission gate, tool mediator and
// reasoner; the registry serializes access per session and rejects
// concurrent messages instead of queueing them.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Pratyush783/bug-fixer-agent/agent/contextwindow"
	"github.com/Pratyush783/bug-fixer-agent/agent/conversation"
	"github.com/Pratyush783/bug-fixer-agent/agent/csync"
	"github.com/Pratyush783/bug-fixer-agent/agent/permission"
	"github.com/Pratyush783/bug-fixer-agent/agent/pubsub"
	"github.com/Pratyush783/bug-fixer-agent/agent/reasoning"
	"github.com/Pratyush783/bug-fixer-agent/agent/shell"
	"github.com/Pratyush783/bug-fixer-agent/agent/store"
	"github.com/Pratyush783/bug-fixer-agent/agent/tools"
	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
	"github.com/Pratyush783/bug-fixer-agent/pkg/logs"
	"github.com/Pratyush783/bug-fixer-agent/pkg/redisx"
	"github.com/Pratyush783/bug-fixer-agent/pkg/safego"
	"github.com/Pratyush783/bug-fixer-agent/pkg/util"
)

// ReasonerFactory builds a fresh reasoner for a new session.
type ReasonerFactory func(workingDir string) reasoning.Reasoner

type Config struct {
	WorkingDir        string
	Threshold         int
	ProtectedTurns    int
	PermissionTimeout time.Duration
	IdleTTL           time.Duration
	MaxSessions       int
}

func (c *Config) Prepare() {
	if c.WorkingDir == "" {
		c.WorkingDir = "."
	}
	if c.Threshold <= 0 {
		c.Threshold = contextwindow.DefaultThreshold
	}
	if c.ProtectedTurns <= 0 {
		c.ProtectedTurns = contextwindow.DefaultProtectedTurns
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 256
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 2 * time.Hour
	}
}

type Service interface {
	pubsub.Subscriber[Session]
	Create(ctx context.Context, title string) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	List(ctx context.Context) ([]Session, error)
	Chat(ctx context.Context, id, message string) (conversation.Outcome, error)
	RespondPermission(ctx context.Context, id, requestID string, approved bool) (conversation.Outcome, error)
	SubscribeTurns(ctx context.Context, id string) (<-chan pubsub.Event[turn.Turn], error)
	Close(ctx context.Context, id string) error
	CloseIdle(ctx context.Context) int
	Shutdown()
}

type liveSession struct {
	id           string
	title        string
	createdAt    time.Time
	lastActivity *csync.Value[time.Time]
	busy         sync.Mutex
	machine      *conversation.Machine
	cancelSink   context.CancelFunc
}

type registry struct {
	*pubsub.Broker[Session]

	cfg      Config
	q        store.Querier
	reasoner ReasonerFactory
	rdb      redisx.Redis
	live     *csync.Map[string, *liveSession]

	// createMu makes the session-limit check and the insert atomic.
	createMu sync.Mutex
}

func NewService(cfg Config, q store.Querier, factory ReasonerFactory, rdb redisx.Redis) Service {
	cfg.Prepare()
	return &registry{
		Broker:   pubsub.NewBroker[Session](),
		cfg:      cfg,
		q:        q,
		reasoner: factory,
		rdb:      rdb,
		live:     csync.NewMap[string, *liveSession](),
	}
}

func (r *registry) Create(ctx context.Context, title string) (Session, error) {
	r.createMu.Lock()
	defer r.createMu.Unlock()
	if r.live.Len() >= r.cfg.MaxSessions {
		return Session{}, fmt.Errorf("session limit reached (%d)", r.cfg.MaxSessions)
	}
	id := util.GenerateShortID()
	if title == "" {
		title = "session-" + id
	}

	window := contextwindow.New(id, r.cfg.Threshold, r.cfg.ProtectedTurns)
	gate := permission.NewGate(r.cfg.PermissionTimeout)
	sh := shell.NewShell(&shell.Options{WorkingDir: r.cfg.WorkingDir})
	mediator := tools.NewMediator(r.cfg.WorkingDir, gate, sh)
	machine := conversation.NewMachine(id, window, gate, mediator, r.reasoner(r.cfg.WorkingDir))

	now := time.Now()
	ls := &liveSession{
		id:           id,
		title:        title,
		createdAt:    now,
		lastActivity: csync.NewValue(now),
		machine:      machine,
	}

	if _, err := r.q.CreateSession(ctx, store.CreateSessionArgs{
		ID:         id,
		Title:      title,
		WorkingDir: r.cfg.WorkingDir,
		Status:     StatusActive,
	}); err != nil {
		return Session{}, err
	}

	r.startSinks(ls)
	r.live.Set(id, ls)

	session := r.snapshot(ls)
	r.Publish(pubsub.CreatedEvent, session)
	return session, nil
}

// startSinks persists every turn the machine appends and every
// permission request transition the gate publishes.
func (r *registry) startSinks(ls *liveSession) {
	sinkCtx, cancel := context.WithCancel(context.Background())
	ls.cancelSink = cancel

	requests := ls.machine.Gate().Subscribe(sinkCtx)
	safego.Go(sinkCtx, func() {
		for event := range requests {
			req := event.Payload
			var err error
			if event.Type == pubsub.CreatedEvent {
				_, err = r.q.CreatePermissionRecord(sinkCtx, store.CreatePermissionRecordArgs{
					ID:        req.ID,
					SessionID: req.SessionID,
					Command:   req.Command,
					State:     string(req.State),
					TurnSeq:   req.TurnSeq,
				})
			} else {
				err = r.q.UpdatePermissionRecord(sinkCtx, store.UpdatePermissionRecordArgs{
					ID:    req.ID,
					State: string(req.State),
				})
			}
			if err != nil {
				logs.Errorf("failed to persist permission record, request_id: %s, error: %v", req.ID, err)
			}
		}
	})

	events := ls.machine.Subscribe(sinkCtx)
	safego.Go(sinkCtx, func() {
		for event := range events {
			t := event.Payload
			args := store.CreateTurnArgs{
				ID:        t.ID,
				SessionID: t.SessionID,
				Seq:       t.Seq,
				Role:      string(t.Role),
				Content:   t.Content,
			}
			if t.Payload != nil {
				args.Diff = t.Payload.Diff
				args.TestOutput = t.Payload.TestOutput
				if t.Payload.Invocation != nil {
					args.ToolKind = string(t.Payload.Invocation.Kind)
					args.ToolTarget = t.Payload.Invocation.Target
					args.ExitCode = int64(t.Payload.Invocation.ExitCode)
				}
			}
			if _, err := r.q.CreateTurn(sinkCtx, args); err != nil {
				logs.Errorf("failed to persist turn, session_id: %s, seq: %d, error: %v", t.SessionID, t.Seq, err)
			}
		}
	})
}

func (r *registry) Get(ctx context.Context, id string) (Session, error) {
	ls, ok := r.live.Get(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return r.snapshot(ls), nil
}

func (r *registry) List(ctx context.Context) ([]Session, error) {
	var sessions []Session
	for _, ls := range r.live.Seq2() {
		sessions = append(sessions, r.snapshot(ls))
	}
	return sessions, nil
}

// Chat routes one user message into the session's machine. A session
// already handling a message rejects the call with ErrSessionBusy
// rather than queueing it.
func (r *registry) Chat(ctx context.Context, id, message string) (conversation.Outcome, error) {
	ls, ok := r.live.Get(id)
	if !ok {
		return conversation.Outcome{}, ErrSessionNotFound
	}
	if !ls.busy.TryLock() {
		return conversation.Outcome{}, ErrSessionBusy
	}
	defer ls.busy.Unlock()

	unlock, err := r.acquireReplicaLock(ctx, id)
	if err != nil {
		return conversation.Outcome{}, err
	}
	defer unlock()

	outcome, err := ls.machine.HandleUserMessage(ctx, message)
	r.touch(ctx, ls)
	return outcome, err
}

func (r *registry) RespondPermission(ctx context.Context, id, requestID string, approved bool) (conversation.Outcome, error) {
	ls, ok := r.live.Get(id)
	if !ok {
		return conversation.Outcome{}, ErrSessionNotFound
	}
	if !ls.busy.TryLock() {
		return conversation.Outcome{}, ErrSessionBusy
	}
	defer ls.busy.Unlock()

	unlock, err := r.acquireReplicaLock(ctx, id)
	if err != nil {
		return conversation.Outcome{}, err
	}
	defer unlock()

	outcome, err := ls.machine.ResolvePermission(ctx, requestID, approved)
	r.touch(ctx, ls)
	return outcome, err
}

// acquireReplicaLock guards a session across replicas when redis is
// configured. Single-process deployments skip it.
func (r *registry) acquireReplicaLock(ctx context.Context, id string) (func(), error) {
	if r.rdb == nil {
		return func() {}, nil
	}
	expiration := 5 * time.Minute
	lock := redisx.NewDistributedLock(r.rdb, "bugfixer:session:"+id, &expiration)
	if err := lock.TryLock(ctx); err != nil {
		if err == redisx.ErrLockNotAcquired {
			return nil, ErrSessionBusy
		}
		return nil, err
	}
	return func() {
		if err := lock.Unlock(ctx); err != nil {
			logs.Errorf("failed to release session lock, session_id: %s, error: %v", id, err)
		}
	}, nil
}

func (r *registry) SubscribeTurns(ctx context.Context, id string) (<-chan pubsub.Event[turn.Turn], error) {
	ls, ok := r.live.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls.machine.Subscribe(ctx), nil
}

func (r *registry) Close(ctx context.Context, id string) error {
	ls, ok := r.live.Take(id)
	if !ok {
		return ErrSessionNotFound
	}
	r.shutdownSession(ctx, ls)
	return nil
}

func (r *registry) shutdownSession(ctx context.Context, ls *liveSession) {
	session := r.snapshot(ls)
	window := ls.machine.Window()
	if _, err := r.q.UpdateSession(ctx, store.UpdateSessionArgs{
		ID:           ls.id,
		Title:        ls.title,
		TurnCount:    int64(len(window.Turns())),
		Compressions: int64(window.Compressions()),
		Summary:      window.Summary(),
		Status:       StatusClosed,
		ClosedAt:     time.Now().Unix(),
	}); err != nil {
		logs.Errorf("failed to mark session closed, session_id: %s, error: %v", ls.id, err)
	}
	if ls.cancelSink != nil {
		ls.cancelSink()
	}
	ls.machine.Shutdown()
	r.Publish(pubsub.DeletedEvent, session)
}

// CloseIdle shuts down sessions with no activity within the TTL.
// Intended to run on a schedule.
func (r *registry) CloseIdle(ctx context.Context) int {
	cutoff := time.Now().Add(-r.cfg.IdleTTL)
	var expired []*liveSession
	for id, ls := range r.live.Seq2() {
		if ls.lastActivity.Get().Before(cutoff) {
			if got, ok := r.live.Take(id); ok {
				expired = append(expired, got)
			}
		}
	}
	for _, ls := range expired {
		logs.Infof("closing idle session %s, last activity %s", ls.id, ls.lastActivity.Get())
		r.shutdownSession(ctx, ls)
	}
	return len(expired)
}

func (r *registry) Shutdown() {
	ctx := context.Background()
	for id := range r.live.Seq2() {
		_ = r.Close(ctx, id)
	}
	r.Broker.Shutdown()
}

func (r *registry) touch(ctx context.Context, ls *liveSession) {
	ls.lastActivity.Set(time.Now())
	window := ls.machine.Window()
	if _, err := r.q.UpdateSession(ctx, store.UpdateSessionArgs{
		ID:           ls.id,
		Title:        ls.title,
		TurnCount:    int64(len(window.Turns())),
		Compressions: int64(window.Compressions()),
		Summary:      window.Summary(),
		Status:       StatusActive,
	}); err != nil {
		logs.Errorf("failed to update session record, session_id: %s, error: %v", ls.id, err)
	}
	r.Publish(pubsub.UpdatedEvent, r.snapshot(ls))
}

func (r *registry) snapshot(ls *liveSession) Session {
	window := ls.machine.Window()
	return Session{
		ID:           ls.id,
		Title:        ls.title,
		State:        string(ls.machine.State()),
		WorkingDir:   r.cfg.WorkingDir,
		TurnCount:    len(window.Turns()),
		ContextUnits: window.TotalUnits(),
		Compressions: window.Compressions(),
		CreatedAt:    ls.createdAt.Unix(),
		LastActivity: ls.lastActivity.Get().Unix(),
	}
}
