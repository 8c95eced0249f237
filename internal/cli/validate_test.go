package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"validate"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "insert-one.yaml", passingScenario)

	out, err := executeValidate(t, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ insert-one")
	assert.Contains(t, out, "1 scenario(s) valid")
}

func TestValidateValidScenariosJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "insert-one.yaml", passingScenario)
	writeScenario(t, dir, "insert-twice.yaml", failingScenario)

	out, err := executeValidate(t, "--format", "json", dir)
	require.NoError(t, err)

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.True(t, response.Data.Valid)
	assert.Len(t, response.Data.Files, 2)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := executeValidate(t, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_NOT_FOUND]")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := executeValidate(t, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "0 scenario(s) valid")
}

func TestValidateInvalidScenarios(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: y\nidentifier: sequence\nstep: []\n",
			wantErr: "field step not found",
		},
		{
			name:    "unknown op",
			content: "name: x\ndescription: y\nidentifier: sequence\nsteps:\n  - op: upsert\n",
			wantErr: "unknown op",
		},
		{
			name:    "bad matcher",
			content: "name: x\ndescription: y\nidentifier: sequence\nsteps:\n  - op: find_many\n    match: '{id: <'\n",
			wantErr: "steps[0] (find_many)",
		},
		{
			name:    "unknown identifier",
			content: "name: x\ndescription: y\nidentifier: random\nsteps:\n  - op: find_many\n",
			wantErr: "identifier",
		},
		{
			name:    "float document",
			content: "name: x\ndescription: y\nidentifier: sequence\nsteps:\n  - op: insert\n    doc: {price: 1.5}\n",
			wantErr: "steps[0] (insert)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeScenario(t, dir, "broken.yaml", tt.content)

			out, err := executeValidate(t, dir)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "✗")
			assert.Contains(t, out, tt.wantErr)
		})
	}
}

func TestValidateInvalidScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "insert-one.yaml", passingScenario)
	writeScenario(t, dir, "broken.yaml", "name: broken\n")

	out, err := executeValidate(t, "--format", "json", dir)
	require.Error(t, err)

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeInvalid, response.Error.Code)
	assert.False(t, response.Data.Valid)

	var broken int
	for _, f := range response.Data.Files {
		if f.Error != "" {
			broken++
			assert.Contains(t, f.Error, "description is required")
		}
	}
	assert.Equal(t, 1, broken)
}

func TestValidateRepositoryScenarios(t *testing.T) {
	out, err := executeValidate(t, "../../testdata/scenarios")
	require.NoError(t, err, out)
	assert.NotContains(t, out, "✗")
}

func TestValidateFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "insert-one.yaml", passingScenario)
	writeScenario(t, dir, "broken.yaml", "name: broken\n")

	out, err := executeValidate(t, "--filter", "insert-*", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 scenario(s) valid")
}
