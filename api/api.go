// Package api exposes the session registry over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/sse"
	"github.com/pkg/errors"
	"github.com/prometheus/common/version"
	"gorm.io/gorm"

	"github.com/Pratyush783/bug-fixer-agent/agent/conversation"
	"github.com/Pratyush783/bug-fixer-agent/agent/permission"
	"github.com/Pratyush783/bug-fixer-agent/agent/session"
	"github.com/Pratyush783/bug-fixer-agent/agent/store"
	"github.com/Pratyush783/bug-fixer-agent/agent/tools"
	"github.com/Pratyush783/bug-fixer-agent/pkg/hertzx"
	"github.com/Pratyush783/bug-fixer-agent/pkg/logs"
)

type Handler struct {
	sessions session.Service
	q        store.Querier
}

func RegisterRoutes(h *server.Hertz, sessions session.Service, q store.Querier) {
	handler := &Handler{sessions: sessions, q: q}

	h.POST("/session", handler.CreateSession)
	h.GET("/sessions", handler.ListSessions)
	h.GET("/session/:id", handler.GetSession)
	h.GET("/session/:id/turns", handler.ListTurns)
	h.GET("/session/:id/permissions", handler.ListPermissions)
	h.GET("/session/:id/events", handler.StreamEvents)
	h.DELETE("/session/:id", handler.CloseSession)
	h.POST("/chat", handler.Chat)
	h.POST("/permission/respond", handler.RespondPermission)
	h.GET("/tools", handler.ListTools)
	h.GET("/version", handler.Version)
}

type CreateSessionReq struct {
	Title string `json:"title"`
}

type ChatReq struct {
	SessionID string `json:"session_id" vd:"len($)>0"`
	Message   string `json:"message" vd:"len($)>0"`
}

type PermissionRespReq struct {
	SessionID string `json:"session_id" vd:"len($)>0"`
	RequestID string `json:"request_id" vd:"len($)>0"`
	Approved  bool   `json:"approved"`
}

// fail maps domain errors onto HTTP statuses: busy sessions and
// invalid-state transitions are conflicts, unknown ids are not found.
func fail(c *app.RequestContext, err error) {
	switch {
	case errors.Is(err, session.ErrSessionBusy),
		errors.Is(err, conversation.ErrInvalidState),
		errors.Is(err, permission.ErrRequestPending):
		hertzx.Abort(c, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, permission.ErrNoPendingRequest),
		errors.Is(err, permission.ErrUnknownRequest),
		errors.Is(err, gorm.ErrRecordNotFound):
		hertzx.Abort(c, http.StatusNotFound, err.Error())
	default:
		hertzx.Error(c, err.Error())
	}
}

func (h *Handler) CreateSession(ctx context.Context, c *app.RequestContext) {
	var req CreateSessionReq
	if err := c.BindAndValidate(&req); err != nil {
		hertzx.Bad(c, err.Error())
		return
	}
	s, err := h.sessions.Create(ctx, req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	hertzx.Data(c, s)
}

func (h *Handler) ListSessions(ctx context.Context, c *app.RequestContext) {
	sessions, err := h.sessions.List(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	hertzx.Data(c, sessions)
}

func (h *Handler) GetSession(ctx context.Context, c *app.RequestContext) {
	s, err := h.sessions.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	hertzx.Data(c, s)
}

// ListTurns returns the persisted history, including turns already
// folded out of the live context window.
func (h *Handler) ListTurns(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if _, err := h.sessions.Get(ctx, id); err != nil {
		if _, dbErr := h.q.GetSessionByID(ctx, id); dbErr != nil {
			fail(c, dbErr)
			return
		}
	}
	turns, err := h.q.ListTurnsBySession(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	hertzx.Data(c, turns)
}

// ListPermissions returns the audit trail of permission requests for a
// session, including already settled ones.
func (h *Handler) ListPermissions(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if _, err := h.sessions.Get(ctx, id); err != nil {
		if _, dbErr := h.q.GetSessionByID(ctx, id); dbErr != nil {
			fail(c, dbErr)
			return
		}
	}
	records, err := h.q.ListPermissionRecordsBySession(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	hertzx.Data(c, records)
}

func (h *Handler) CloseSession(ctx context.Context, c *app.RequestContext) {
	if err := h.sessions.Close(ctx, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	hertzx.Msg(c, "session closed")
}

func (h *Handler) Chat(ctx context.Context, c *app.RequestContext) {
	var req ChatReq
	if err := c.BindAndValidate(&req); err != nil {
		hertzx.Bad(c, err.Error())
		return
	}
	outcome, err := h.sessions.Chat(ctx, req.SessionID, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	hertzx.Data(c, outcome)
}

func (h *Handler) RespondPermission(ctx context.Context, c *app.RequestContext) {
	var req PermissionRespReq
	if err := c.BindAndValidate(&req); err != nil {
		hertzx.Bad(c, err.Error())
		return
	}
	outcome, err := h.sessions.RespondPermission(ctx, req.SessionID, req.RequestID, req.Approved)
	if err != nil {
		fail(c, err)
		return
	}
	hertzx.Data(c, outcome)
}

// StreamEvents pushes every appended turn of a session as an SSE event.
func (h *Handler) StreamEvents(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	events, err := h.sessions.SubscribeTurns(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}

	c.SetStatusCode(http.StatusOK)
	stream := sse.NewStream(c)
	sender := hertzx.NewSseSender(stream)
	for event := range events {
		if err := sender.Send(hertzx.BuildDataEvent(event)); err != nil {
			logs.CtxWarnf(ctx, "sse send failed, session_id: %s, error: %v", id, err)
			return
		}
	}
}

func (h *Handler) ListTools(ctx context.Context, c *app.RequestContext) {
	hertzx.Data(c, tools.Catalog())
}

func (h *Handler) Version(ctx context.Context, c *app.RequestContext) {
	hertzx.Data(c, map[string]string{
		"version":   version.Version,
		"revision":  version.Revision,
		"branch":    version.Branch,
		"buildDate": version.BuildDate,
		"goVersion": version.GoVersion,
	})
}
