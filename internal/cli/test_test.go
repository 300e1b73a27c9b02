package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoScenario = `
name: echo_words
description: echo emits one row per argument
steps:
  - run: echo a b
assertions:
  - type: output_contains
    text: b
`

func harnessTestdata(t *testing.T) (scenarios, golden string) {
	t.Helper()
	scenarios, err := filepath.Abs(filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err)
	golden, err = filepath.Abs(filepath.Join("..", "harness", "testdata", "golden"))
	require.NoError(t, err)
	return scenarios, golden
}

func TestTest_HarnessScenariosPass(t *testing.T) {
	scenarios, golden := harnessTestdata(t)

	stdout, _, err := runCLI(t, t.TempDir(), "", "test", scenarios, "--golden", golden)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ csv_where")
	assert.Contains(t, stdout, "✓ variables")
	assert.Contains(t, stdout, "All scenarios passed")
}

func TestTest_Filter(t *testing.T) {
	scenarios, golden := harnessTestdata(t)

	stdout, _, err := runCLI(t, t.TempDir(), "", "--format", "json", "test", scenarios, "--golden", golden, "--filter", "csv_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "csv_where", resp.Data.Scenarios[0].Name)
}

func TestTest_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "echo_words.yaml", echoScenario)

	_, _, err := runCLI(t, dir, "", "test", dir, "--update")
	require.NoError(t, err)

	goldenPath := filepath.Join(dir, "golden", "echo_words.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t, "$ echo a b\nvalue\na\nb\n", string(data))

	_, _, err = runCLI(t, dir, "", "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("$ echo a b\nvalue\nb\na\n"), 0644))
	stdout, _, err := runCLI(t, dir, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ echo_words")
	assert.Contains(t, stdout, "does not match golden file")
}

func TestTest_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", `
name: broken
description: expects a failure that never happens
steps:
  - run: echo a
    error: boom
`)

	stdout, _, err := runCLI(t, dir, "", "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TEST_FAILED", resp.Error.Code)
}

func TestTest_InvalidScenarioFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "typo.yaml", "name: typo\ndescription: d\nstep:\n  - run: echo a\n")

	stdout, _, err := runCLI(t, dir, "", "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTest_NoScenarios(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := runCLI(t, dir, "", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTest_MissingDirectory(t *testing.T) {
	dir := t.TempDir()

	_, _, err := runCLI(t, dir, "", "test", filepath.Join(dir, "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles_SkipsGolden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", echoScenario)
	writeFile(t, dir, "b.yml", echoScenario)
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	writeFile(t, filepath.Join(dir, "golden"), "stray.yaml", "ignored")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}
