package store

type CreateSessionArgs struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	WorkingDir string `json:"working_dir"`
	Status     string `json:"status"`
}

type UpdateSessionArgs struct {
	Title        string `json:"title"`
	TurnCount    int64  `json:"turn_count"`
	Compressions int64  `json:"compressions"`
	Summary      string `json:"summary"`
	Status       string `json:"status"`
	ClosedAt     int64  `json:"closed_at"`
	ID           string `json:"id"`
}

type CreateTurnArgs struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	Seq        int64  `json:"seq"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	Diff       string `json:"diff"`
	TestOutput string `json:"test_output"`
	ToolKind   string `json:"tool_kind"`
	ToolTarget string `json:"tool_target"`
	ExitCode   int64  `json:"exit_code"`
}

type CreatePermissionRecordArgs struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
	State     string `json:"state"`
	TurnSeq   int64  `json:"turn_seq"`
}

type UpdatePermissionRecordArgs struct {
	State string `json:"state"`
	ID    string `json:"id"`
}
