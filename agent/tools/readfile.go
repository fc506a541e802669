package tools

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Pratyush783/bug-fixer-agent/agent/turn"
)

func (m *Mediator) ReadFile(ctx context.Context, params ReadFileParams) (turn.Invocation, error) {
	inv := turn.Invocation{Kind: turn.ToolReadFile, Target: params.FilePath}

	filePath, err := m.resolve(params.FilePath)
	if err != nil {
		return inv, err
	}
	inv.Target = filePath

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return inv, fmt.Errorf("file not found: %s", filePath)
		}
		return inv, fmt.Errorf("error accessing file: %w", err)
	}
	if fileInfo.IsDir() {
		return inv, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	if fileInfo.Size() > MaxReadSize {
		return inv, fmt.Errorf("file is too large (%d bytes), maximum size is %d bytes", fileInfo.Size(), MaxReadSize)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return inv, fmt.Errorf("error reading file: %w", err)
	}
	content := string(data)
	if !utf8.ValidString(content) {
		return inv, fmt.Errorf("file content is not valid UTF-8")
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if len(line) > MaxLineLength {
			lines[i] = truncateRunes(line, MaxLineLength) + "..."
		}
	}

	m.tracker.RecordRead(filePath)
	inv.Output = strings.Join(lines, "\n")
	inv.Success = true
	return inv, nil
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
