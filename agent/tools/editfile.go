package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"

	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
)

func (m *Mediator) EditFile(ctx context.Context, params EditFileParams) (turn.Invocation, error) {
	inv := turn.Invocation{Kind: turn.ToolEditFile, Target: params.FilePath}

	filePath, err := m.resolve(params.FilePath)
	if err != nil {
		return inv, err
	}
	inv.Target = filePath

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return inv, fmt.Errorf("file not found: %s (use %s to create new files)", filePath, WriteFileToolName)
		}
		return inv, fmt.Errorf("error reading file: %w", err)
	}
	oldContent := string(data)

	if !m.tracker.WasRead(filePath) {
		return inv, fmt.Errorf("file must be read before editing: %s", filePath)
	}
	if oldContent == params.Content {
		return inv, fmt.Errorf("new content is identical to the current content: %s", filePath)
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
