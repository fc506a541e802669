// Package tools is the mediation layer between the reasoner and the
// workspace. Every file touch and every shell command goes through the
// Mediator, which enforces the working-directory jail and the
// authorization gate, and emits an audit invocation for each call.
package tools

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Pratyush783/bug-fixer-agent/agent/filetracker"
	"github.com/Pratyush783/bug-fixer-agent/agent/permission"
	"github.com/Pratyush783/bug-fixer-agent/agent/shell"
)

const (
	ReadFileToolName  = "read_file"
	WriteFileToolName = "write_file"
	EditFileToolName  = "edit_file"
	BashToolName      = "bash"

	MaxReadSize   = 5 * 1024 * 1024 // 5MB
	MaxLineLength = 2000
)

var ErrOutsideWorkingDir = errors.New("path is outside the working directory")

type ReadFileParams struct {
	FilePath string `json:"file_path" jsonschema:"required,description=The path to the file to read relative to the working directory"`
}

type WriteFileParams struct {
	FilePath string `json:"file_path" jsonschema:"required,description=The path to the file to write"`
	Content  string `json:"content" jsonschema:"required,description=The full content to write to the file"`
}

type EditFileParams struct {
	FilePath string `json:"file_path" jsonschema:"required,description=The path to the file to edit"`
	Content  string `json:"content" jsonschema:"required,description=The new full content of the file"`
}

type BashParams struct {
	Command string `json:"command" jsonschema:"required,description=The shell command to execute; requires an approved permission request with this exact command text"`
}

type Mediator struct {
	workingDir string
	gate       *permission.Gate
	tracker    *filetracker.Tracker
	sh         *shell.Shell
}

func NewMediator(workingDir string, gate *permission.Gate, sh *shell.Shell) *Mediator {
	return &Mediator{
		workingDir: workingDir,
		gate:       gate,
		tracker:    filetracker.New(),
		sh:         sh,
	}
}

func (m *Mediator) WorkingDir() string {
	return m.workingDir
}

func (m *Mediator) Tracker() *filetracker.Tracker {
	return m.tracker
}

// resolve joins a possibly-relative path onto the working directory and
// rejects anything that escapes it.
func (m *Mediator) resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file_path is required")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.workingDir, path)
	}
	absWorkingDir, err := filepath.Abs(m.workingDir)
	if err != nil {
		return "", fmt.Errorf("error resolving working directory: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("error resolving file path: %w", err)
	}
	relPath, err := filepath.Rel(absWorkingDir, absPath)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", ErrOutsideWorkingDir
	}
	return absPath, nil
}
