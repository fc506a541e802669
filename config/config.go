package config

import (
	"github.com/Pratyush783/bug-fixer-agent/pkg/cfg"
	"github.com/Pratyush783/bug-fixer-agent/pkg/hertzx"
	"github.com/Pratyush783/bug-fixer-agent/pkg/logs"
	"github.com/Pratyush783/bug-fixer-agent/pkg/ormx"
	"github.com/Pratyush783/bug-fixer-agent/pkg/redisx"
	"github.com/Pratyush783/bug-fixer-agent/pkg/schedule"
)

type Config struct {
	Web     hertzx.WebConfig         `yaml:"web" json:"web" mapstructure:"web"`
	Log     logs.LogConfig           `yaml:"log" json:"log" mapstructure:"log"`
	DB      *ormx.DBConfig           `yaml:"db" json:"db" mapstructure:"db"`
	Redis   *redisx.RedisConfig      `yaml:"redis" json:"redis" mapstructure:"redis"`
	Agent   AgentConfig              `yaml:"agent" json:"agent" mapstructure:"agent"`
	Janitor schedule.ScheduledConfig `yaml:"janitor" json:"janitor" mapstructure:"janitor"`
}

type AgentConfig struct {
	WorkingDir               string      `yaml:"working-dir" json:"workingDir" mapstructure:"working-dir"`
	ContextThreshold         int         `yaml:"context-threshold" json:"contextThreshold" mapstructure:"context-threshold"`
	ProtectedTurns           int         `yaml:"protected-turns" json:"protectedTurns" mapstructure:"protected-turns"`
	PermissionTimeoutSeconds int         `yaml:"permission-timeout-seconds" json:"permissionTimeoutSeconds" mapstructure:"permission-timeout-seconds"`
	SessionIdleTTLMinutes    int         `yaml:"session-idle-ttl-minutes" json:"sessionIdleTtlMinutes" mapstructure:"session-idle-ttl-minutes"`
	MaxSessions              int         `yaml:"max-sessions" json:"maxSessions" mapstructure:"max-sessions"`
	Reasoner                 string      `yaml:"reasoner" json:"reasoner" mapstructure:"reasoner"`
	TargetFile               string      `yaml:"target-file" json:"targetFile" mapstructure:"target-file"`
	TestFile                 string      `yaml:"test-file" json:"testFile" mapstructure:"test-file"`
	TestCommand              string      `yaml:"test-command" json:"testCommand" mapstructure:"test-command"`
	Model                    ModelConfig `yaml:"model" json:"model" mapstructure:"model"`
}

type ModelConfig struct {
	APIKey  string `yaml:"api-key" json:"apiKey" mapstructure:"api-key"`
	BaseURL string `yaml:"base-url" json:"baseUrl" mapstructure:"base-url"`
	Name    string `yaml:"name" json:"name" mapstructure:"name"`
}

const (
	ReasonerHeuristic = "heuristic"
	ReasonerModel     = "model"
)

// Load 加载配置文件
func Load(configDir string) (*Config, error) {
	var c Config
	if err := cfg.LoadConfig(configDir, "config", "yaml", &c); err != nil {
		return nil, err
	}
	c.Web.Prepare()
	if c.Agent.Reasoner == "" {
		c.Agent.Reasoner = ReasonerHeuristic
	}
	return &c, nil
}
