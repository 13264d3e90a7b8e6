package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList_Text(t *testing.T) {
	out, err := executeRoot(t, "list")

	require.NoError(t, err)
	assert.Equal(t, "self_transfer\ntransfer\ntransfer_from\n", out)
}

func TestList_JSON(t *testing.T) {
	out, err := executeRoot(t, "list", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string   `json:"status"`
		Data   []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"self_transfer", "transfer", "transfer_from"}, resp.Data)
}

func TestList_IncludesRegisteredScenarios(t *testing.T) {
	registerBroken(t)

	out, err := executeRoot(t, "list")

	require.NoError(t, err)
	assert.Contains(t, out, "broken_transfer\n")
}
