// Package shell runs approved commands through an embedded POSIX
// interpreter, keeping execution inside the process and capturing output
// deterministically.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const defaultTimeout = 60 * time.Second

type Shell struct {
	workingDir string
	timeout    time.Duration
}

type Options struct {
	WorkingDir string
	Timeout    time.Duration
}

func NewShell(opts *Options) *Shell {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Shell{
		workingDir: opts.WorkingDir,
		timeout:    timeout,
	}
}

// Exec runs the command to completion and returns captured stdout, stderr
// and the exit code. A nonzero exit is not an error; interpreter and parse
// failures are.
func (s *Shell) Exec(ctx context.Context, command string) (stdout, stderr string, exitCode int, err error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return "", "", -1, fmt.Errorf("parse command: %w", err)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	runner, err := interp.New(
		interp.StdIO(strings.NewReader(""), &stdoutBuf, &stderrBuf),
		interp.Dir(s.workingDir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
	)
	if err != nil {
		return "", "", -1, fmt.Errorf("create interpreter: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = runner.Run(runCtx, file)
	if err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return stdoutBuf.String(), stderrBuf.String(), int(status), nil
		}
		return stdoutBuf.String(), stderrBuf.String(), -1, err
	}
	return stdoutBuf.String(), stderrBuf.String(), 0, nil
}
