package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionArgs) (Session, error) {
	var s = &Session{
		Title:      arg.Title,
		WorkingDir: arg.WorkingDir,
		Status:     arg.Status,
	}
	s.ID = arg.ID
	err := q.db.Create(s).Error
	if err != nil {
		return *s, err
	}
	return *s, nil
}

func (q *Queries) DeleteSession(ctx context.Context, id string) error {
	err := q.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("session_id = ?", id).Delete(&Turn{}).Error
		if err != nil {
			return errors.WithMessage(err, "delete turns error")
		}
		err = tx.Where("session_id = ?", id).Delete(&PermissionRecord{}).Error
		if err != nil {
			return errors.WithMessage(err, "delete permission records error")
		}
		err = tx.Where("id = ?", id).Delete(&Session{}).Error
		if err != nil {
			return errors.WithMessage(err, "delete session error")
		}
		return nil
	})
	return err
}

func (q *Queries) GetSessionByID(ctx context.Context, id string) (Session, error) {
	var s Session
	err := q.db.Where("id = ?", id).First(&s).Error
	return s, err
}

func (q *Queries) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	err := q.db.Order("updated_at DESC").Find(&sessions).Error
	return sessions, err
}

func (q *Queries) UpdateSession(ctx context.Context, arg UpdateSessionArgs) (Session, error) {
	session, err := q.GetSessionByID(ctx, arg.ID)
	if err != nil {
		return Session{}, err
	}
	session.Title = arg.Title
	session.TurnCount = arg.TurnCount
	session.Compressions = arg.Compressions
	session.Summary = arg.Summary
	session.Status = arg.Status
	session.ClosedAt = arg.ClosedAt
	err = q.db.Save(&session).Error
	if err != nil {
		return Session{}, err
	}
	return session, nil
}
