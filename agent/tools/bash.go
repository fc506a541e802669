package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
)

// Bash runs a shell command inside the working directory. The gate must
// hold an approved request whose command text exactly equals
// params.Command, and that approval is consumed by this call: a second
// run of the same command needs a fresh approval.
func (m *Mediator) Bash(ctx context.Context, params BashParams) (turn.Invocation, error) {
	inv := turn.Invocation{Kind: turn.ToolBash, Target: params.Command}

	if strings.TrimSpace(params.Command) == "" {
		return inv, fmt.Errorf("command is required")
	}
	if _, err := m.gate.Authorize(params.Command); err != nil {
		return inv, err
	}

	stdout, stderr, exitCode, err := m.sh.Exec(ctx, params.Command)
	if err != nil {
		return inv, fmt.Errorf("error executing command: %w", err)
	}

	output := stdout
	if stderr != "" {
		if output != "" {
			output += "\n"
		}
		output += stderr
	}
	inv.Output = output
	inv.ExitCode = exitCode
	inv.Success = exitCode == 0
	return inv, nil
}
