package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, a := newRootCmd()
	defer a.close()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestDemoDefault(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "mallard fly: Flying with wings")
	assert.Contains(t, out, "model fly: Flying with a rocket")
	assert.Contains(t, out, "rubber-1 quack: Squeak")
	assert.Contains(t, out, "press undo")
	assert.Contains(t, out, "Dark Roast, Mocha, Whip $1.29")
	assert.Contains(t, out, "[current-conditions] weather")
}

func TestDemoScenarioFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "ducks.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"name": "ducks",
		"entities": [{"name": "rubber", "behaviors": {"quack": "Squeak"}, "perform": ["quack"]}]
	}`), 0o644))

	out, err := run(t, "demo", "--scenario", path)
	require.NoError(t, err)
	assert.Contains(t, out, "rubber quack: Squeak")
}

func TestDemoMissingScenario(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "demo", "--scenario", "missing.yaml")
	assert.Error(t, err)
}

func TestRejectsUnknownLogLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd, a := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-level", "loud", "demo"})

	err := cmd.Execute()
	a.close()
	assert.ErrorContains(t, err, "--log-level")
}

func TestCloseAfterFailedRun(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd, a := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-level", "error", "demo", "--scenario", "missing.json"})

	require.Error(t, cmd.Execute())
	require.NotNil(t, a.cleanup, "engine was built before the failing run")
	a.close()
	assert.Nil(t, a.cleanup)
}
