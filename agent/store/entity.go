package store

import (
	"github.com/Pratyush783/bug-fixer-agent/pkg/ormx"
)

type Session struct {
	ormx.UuidModel
	Title        string `json:"title" gorm:"type:varchar(255);not null;comment:'title';column:title"`
	WorkingDir   string `json:"workingDir" gorm:"type:varchar(255);not null;column:working_dir;comment:'working_dir'"`
	TurnCount    int64  `json:"turnCount" gorm:"type:int(11);not null;column:turn_count;comment:'turn_count'"`
	Compressions int64  `json:"compressions" gorm:"type:int(11);not null;column:compressions;comment:'compressions'"`
	Summary      string `json:"summary" gorm:"type:longtext;column:summary;comment:'summary'"`
	Status       string `json:"status" gorm:"type:varchar(32);not null;column:status;comment:'status'"`
	ClosedAt     int64  `json:"closedAt" gorm:"type:bigint(20);column:closed_at;comment:'关闭时间'"`
}

func (s *Session) TableName() string {
	return "sessions"
}

type Turn struct {
	ormx.UuidModel
	SessionID  string `json:"sessionId" gorm:"type:varchar(255);not null;column:session_id;comment:'session_id'"`
	Seq        int64  `json:"seq" gorm:"type:int(11);not null;column:seq;comment:'seq'"`
	Role       string `json:"role" gorm:"type:varchar(32);not null;column:role;comment:'role'"`
	Content    string `json:"content" gorm:"type:longtext;column:content;comment:'content'"`
	Diff       string `json:"diff" gorm:"type:longtext;column:diff;comment:'diff'"`
	TestOutput string `json:"testOutput" gorm:"type:longtext;column:test_output;comment:'test_output'"`
	ToolKind   string `json:"toolKind" gorm:"type:varchar(32);column:tool_kind;comment:'tool_kind'"`
	ToolTarget string `json:"toolTarget" gorm:"type:varchar(255);column:tool_target;comment:'tool_target'"`
	ExitCode   int64  `json:"exitCode" gorm:"type:int(11);column:exit_code;comment:'exit_code'"`
}

func (t *Turn) TableName() string {
	return "turns"
}

type PermissionRecord struct {
	ormx.UuidModel
	SessionID string `json:"sessionId" gorm:"type:varchar(255);not null;column:session_id;comment:'session_id'"`
	Command   string `json:"command" gorm:"type:longtext;column:command;comment:'command'"`
	State     string `json:"state" gorm:"type:varchar(32);not null;column:state;comment:'state'"`
	TurnSeq   int64  `json:"turnSeq" gorm:"type:int(11);column:turn_seq;comment:'turn_seq'"`
}

func (p *PermissionRecord) TableName() string {
	return "permission_records"
}
