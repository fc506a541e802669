package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/Pratyush783/bug-fixer-agent/agent/tools"
)

const modelSystemPrompt = `You are a bug-fixing assistant working inside a single repository.
On every step respond with exactly one JSON object, no prose around it:
{"action": "...", "message": "...", "file_path": "...", "content": "...", "command": "..."}
Allowed actions:
  say        - send message to the user and wait for their reply
  note       - send message to the user and keep working
  read_file  - read file_path
  write_file - write content to file_path
  edit_file  - replace file_path with content (read it first)
  run        - ask permission to execute command in the shell
  done       - send the final message and finish
Rules:
- Ask clarifying questions before analyzing a new bug report.
- Summarize your analysis (location, root cause, proposed fix) before making any edit.
- Add or extend tests for every fix.
- Never run shell commands without the run action; the user must approve the exact command text.
- After a test run, summarize the results as PASS or FAIL before finishing.`

type ModelOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Model delegates each step to a chat completion model and maps its
// JSON reply onto an action.
type Model struct {
	client openai.Client
	model  string
}

func NewModel(opts ModelOptions) *Model {
	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	model := opts.Model
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &Model{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
}

type modelAction struct {
	Action   string `json:"action"`
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
	Command  string `json:"command"`
}

func (m *Model) Propose(ctx context.Context, view View) (Action, error) {
	prompt := view.Rendered
	switch {
	case view.Denied:
		prompt += "\n\n[The user DENIED the pending command. Acknowledge and do not retry it.]"
	case view.Resumed && view.LastResult != nil:
		prompt += fmt.Sprintf("\n\n[Command finished with exit code %d. Output:\n%s]",
			view.LastResult.ExitCode, view.LastResult.Output)
	case view.LastErr != "":
		prompt += fmt.Sprintf("\n\n[The last tool call failed: %s]", view.LastErr)
	case view.LastResult != nil:
		prompt += fmt.Sprintf("\n\n[Tool %s on %s succeeded. Output:\n%s]",
			view.LastResult.Kind, view.LastResult.Target, view.LastResult.Output)
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(modelSystemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return Action{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Action{}, fmt.Errorf("chat completion returned no choices")
	}
	return parseModelAction(resp.Choices[0].Message.Content)
}

func parseModelAction(raw string) (Action, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	var ma modelAction
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &ma); err != nil {
		return Action{}, fmt.Errorf("model reply is not a valid action: %w", err)
	}
	switch ma.Action {
	case "say":
		return Action{Kind: KindSay, Message: ma.Message}, nil
	case "note":
		return Action{Kind: KindNote, Message: ma.Message}, nil
	case "read_file":
		return Action{Kind: KindReadFile, Read: &tools.ReadFileParams{FilePath: ma.FilePath}}, nil
	case "write_file":
		return Action{Kind: KindWriteFile, Write: &tools.WriteFileParams{FilePath: ma.FilePath, Content: ma.Content}}, nil
	case "edit_file":
		return Action{Kind: KindEditFile, Edit: &tools.EditFileParams{FilePath: ma.FilePath, Content: ma.Content}}, nil
	case "run":
		return Action{Kind: KindRunCommand, Command: ma.Command}, nil
	case "done":
		return Action{Kind: KindDone, Message: ma.Message}, nil
	}
	return Action{}, fmt.Errorf("model proposed unknown action %q", ma.Action)
}
