package store

import "context"

func (q *Queries) CreateTurn(ctx context.Context, arg CreateTurnArgs) (Turn, error) {
	var t = &Turn{
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
	err := q.db.Create(t).Error
	if err != nil {
		return *t, err
	}
	return *t, nil
}

func (q *Queries) DeleteSessionTurns(ctx context.Context, sessionID string) error {
	return q.db.Where("session_id = ?", sessionID).Delete(&Turn{}).Error
}

func (q *Queries) GetTurn(ctx context.Context, id string) (Turn, error) {
	var t Turn
	err := q.db.Where("id = ?", id).First(&t).Error
	return t, err
}

func (q *Queries) ListTurnsBySession(ctx context.Context, sessionID string) ([]Turn, error) {
	var turns []Turn
	err := q.db.Where("session_id = ?", sessionID).Order("seq ASC").Find(&turns).Error
	return turns, err
}
