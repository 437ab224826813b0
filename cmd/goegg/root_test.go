package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := bytes.Buffer{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--quiet"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestRunExcludedMiddle(t *testing.T) {
	out, err := execute(t, "--iter-limit", "5", "(∨ p (¬ p))")
	require.NoError(t, err)
	assert.Contains(t, out, "Runner report")
	assert.Contains(t, out, "best cost: 1, best expr true")
	assert.Contains(t, out, strings.Repeat("=", DEFAULT_RULE_WIDTH))
}

func TestRunRuleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - {name: idem, lhs: \"(∧ ?p ?p)\", rhs: \"?p\"}\n"), 0o644))

	out, err := execute(t, "--rules", path, "(∧ p p)")
	require.NoError(t, err)
	assert.Contains(t, out, "Stop reason: Saturated")
	assert.Contains(t, out, "best cost: 1, best expr p")
}

func TestRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goegg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  iterations: 1\n"), 0o644))

	out, err := execute(t, "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Stop reason: IterationLimit")
	assert.Contains(t, out, "Iterations: 1")
}

func TestRunVerifyAndMetrics(t *testing.T) {
	out, err := execute(t, "--verify", "--metrics", "--backoff", "--workers", "2", "--iter-limit", "4",
		"(∧ (∨ p q) (∨ p (¬ q)))")
	require.NoError(t, err)
	assert.Contains(t, out, "verified: equivalent")
	assert.Contains(t, out, "goegg_iterations_total ")
	assert.Contains(t, out, "goegg_nodes ")
	assert.Contains(t, out, `goegg_phase_duration_seconds{phase="search"} count=`)
}

func TestRunDot(t *testing.T) {
	out, err := execute(t, "--dot", "--rules", writeRules(t), "(∧ p p)")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph egraph {")
}

func writeRules(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - {name: comm, lhs: \"(∧ ?p ?q)\", rhs: \"(∧ ?q ?p)\"}\n"), 0o644))
	return path
}

func TestRunErrors(t *testing.T) {
	_, err := execute(t, "(∨ p")
	assert.Error(t, err)

	_, err = execute(t, "--cost", "cheapest", "p")
	assert.ErrorIs(t, err, ErrConfig)

	_, err = execute(t, "p", "q")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "goegg "))
}
