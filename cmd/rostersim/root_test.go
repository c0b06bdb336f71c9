package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/roster/pkg/roster/config"
	"github.com/randalmurphal/roster/pkg/roster/sim"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_JSONReport(t *testing.T) {
	stdout, stderr, err := execute(t,
		"--writers", "2", "--readers", "2", "--contacts", "50", "--remove-every", "5", "--json")
	require.NoError(t, err)

	var report sim.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, int64(100), report.Added)
	assert.Equal(t, int64(20), report.Removed)
	assert.Equal(t, 80, report.FinalSize)
	assert.Contains(t, stderr, "simulation completed")
}

func TestRootCmd_TextReport(t *testing.T) {
	stdout, _, err := execute(t, "-w", "1", "-r", "1", "-n", "10", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, `on "friends"`)
	assert.Contains(t, stdout, "added 10")
}

func TestRootCmd_ConfigFileWithOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
roster: groups
writers: 1
readers: 1
contacts_per_writer: 30
remove_every: 0
log:
  level: warn
  format: json
`), 0o600))

	stdout, _, err := execute(t, "--config", path, "--contacts", "12", "--json")
	require.NoError(t, err)

	var report sim.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, "groups", report.Roster)
	assert.Equal(t, 12, report.FinalSize)
}

func TestRootCmd_InvalidFlag(t *testing.T) {
	_, _, err := execute(t, "--writers", "0")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, _, err = execute(t, "--metrics", "prometheus")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRootCmd_MissingConfig(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	_, _, err := execute(t, "extra")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(config.Log{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger(config.Log{Level: "debug", Format: "text"}, &buf).Debug("detail")
	assert.Contains(t, buf.String(), "msg=detail")
}
