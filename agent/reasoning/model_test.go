package reasoning

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseModelAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		wantKind Kind
		wantErr  bool
	}{
		{
			name:     "say",
			raw:      `{"action":"say","message":"what is the expected behavior?"}`,
			wantKind: KindSay,
		},
		{
			name:     "read file",
			raw:      `{"action":"read_file","file_path":"src/calc.py"}`,
			wantKind: KindReadFile,
		},
		{
			name:     "run command",
			raw:      `{"action":"run","command":"pytest -q"}`,
			wantKind: KindRunCommand,
		},
		{
			name:     "fenced json",
			raw:      "```json\n{\"action\":\"done\",\"message\":\"all fixed\"}\n```",
			wantKind: KindDone,
		},
		{
			name:    "unknown action",
			raw:     `{"action":"reboot"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "sure, I'll read the file",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			action, err := parseModelAction(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantKind, action.Kind)
		})
	}
}

func TestParseModelActionCarriesPayload(t *testing.T) {
	t.Parallel()

	action, err := parseModelAction(`{"action":"write_file","file_path":"tests/test_calc.py","content":"def test():\n    pass\n"}`)
	require.NoError(t, err)
	require.Equal(t, KindWriteFile, action.Kind)
	require.Equal(t, "tests/test_calc.py", action.Write.FilePath)
	require.Contains(t, action.Write.Content, "def test()")

	action, err = parseModelAction(`{"action":"run","command":"pytest -q"}`)
	require.NoError(t, err)
	require.Equal(t, "pytest -q", action.Command)
}
