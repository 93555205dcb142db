package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the CLI with the given arguments and returns captured
// stdout and stderr. in may be nil for commands that read no input.
func execute(t *testing.T, in io.Reader, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), in, args...)
}

func executeContext(t *testing.T, ctx context.Context, in io.Reader, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if in != nil {
		cmd.SetIn(in)
	}
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// tempDB returns a database path in a per-test temp directory.
func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "qsis.db")
}

// decodeResponse unmarshals a JSON-mode CLI response.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

// dataField digs a field out of a decoded response's data payload.
func dataField(t *testing.T, resp CLIResponse, key string) any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "response data is not an object: %v", resp.Data)
	return data[key]
}
