package store

import (
	"context"
)

type Querier interface {
	CreateSession(ctx context.Context, arg CreateSessionArgs) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	GetSessionByID(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	UpdateSession(ctx context.Context, arg UpdateSessionArgs) (Session, error)
	CreateTurn(ctx context.Context, arg CreateTurnArgs) (Turn, error)
	DeleteSessionTurns(ctx context.Context, sessionID string) error
	GetTurn(ctx context.Context, id string) (Turn, error)
	ListTurnsBySession(ctx context.Context, sessionID string) ([]Turn, error)
	CreatePermissionRecord(ctx context.Context, arg CreatePermissionRecordArgs) (PermissionRecord, error)
	UpdatePermissionRecord(ctx context.Context, arg UpdatePermissionRecordArgs) error
	GetPermissionRecord(ctx context.Context, id string) (PermissionRecord, error)
	ListPermissionRecordsBySession(ctx context.Context, sessionID string) ([]PermissionRecord, error)
}

var _ Querier = (*Queries)(nil)
var _ Querier = (*Memory)(nil)
