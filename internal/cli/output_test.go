package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeJSON(buf, map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestWriteJSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeJSONError(buf, ExitCommandError, errors.New("failed to open database")))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "command_error", resp.Error.Code)
	assert.Equal(t, "failed to open database", resp.Error.Message)
}

func TestExitError(t *testing.T) {
	base := errors.New("disk I/O error")
	err := WrapExitError(ExitCommandError, "failed to open database", base)

	assert.Equal(t, "failed to open database: disk I/O error", err.Error())
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("run: %w", err)))

	assert.Equal(t, "no ops", NewExitError(ExitCommandError, "no ops").Error())
}

func TestGetExitCode_PlainError(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
}
