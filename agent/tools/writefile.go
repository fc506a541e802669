package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"

	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
)

func (m *Mediator) WriteFile(ctx context.Context, params WriteFileParams) (turn.Invocation, error) {
	inv := turn.Invocation{Kind: turn.ToolWriteFile, Target: params.FilePath}

	filePath, err := m.resolve(params.FilePath)
	if err != nil {
		return inv, err
	}
	inv.Target = filePath

	var oldContent string
	if data, err := os.ReadFile(filePath); err == nil {
		oldContent = string(data)
	} else if !os.IsNotExist(err) {
		return inv, fmt.Errorf("error reading existing file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return inv, fmt.Errorf("error creating directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(params.Content), 0o644); err != nil {
		return inv, fmt.Errorf("error writing file: %w", err)
	}

	m.tracker.RecordWrite(filePath)
	rel, relErr := filepath.Rel(m.workingDir, filePath)
	if relErr != nil {
		rel = filePath
	}
	inv.Diff = udiff.Unified("a/"+rel, "b/"+rel, oldContent, params.Content)
	inv.Success = true
	return inv, nil
}
