package store

import "context"

func (q *Queries) CreatePermissionRecord(ctx context.Context, arg CreatePermissionRecordArgs) (PermissionRecord, error) {
	var p = &PermissionRecord{
		SessionID: arg.SessionID,
		Command:   arg.Command,
		State:     arg.State,
		TurnSeq:   arg.TurnSeq,
	}
	p.ID = arg.ID
	err := q.db.Create(p).Error
	if err != nil {
		return *p, err
	}
	return *p, nil
}

func (q *Queries) UpdatePermissionRecord(ctx context.Context, arg UpdatePermissionRecordArgs) error {
	record, err := q.GetPermissionRecord(ctx, arg.ID)
	if err != nil {
		return err
	}
	record.State = arg.State
	return q.db.Save(&record).Error
}

func (q *Queries) GetPermissionRecord(ctx context.Context, id string) (PermissionRecord, error) {
	var p PermissionRecord
	err := q.db.Where("id = ?", id).First(&p).Error
	return p, err
}

func (q *Queries) ListPermissionRecordsBySession(ctx context.Context, sessionID string) ([]PermissionRecord, error) {
	var records []PermissionRecord
	err := q.db.Where("session_id = ?", sessionID).Order("updated_at ASC").Find(&records).Error
	return records, err
}
