package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Defaults()
	assert.Contains(t, s.AlertSummary, "{alerts}")
	assert.Contains(t, s.Resolution, "{actions}")
	assert.Contains(t, s.Governance, "{log}")
}

func TestLoad_OverridesOnlyGivenTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("governance: \"Assess {log}\"\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Assess {log}", s.Governance)
	assert.Equal(t, Defaults().AlertSummary, s.AlertSummary)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("governance: [unclosed"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestRender(t *testing.T) {
	out := Render("a={a} b={b} c={c}", map[string]string{"a": "1", "b": "{a}"})
	assert.Equal(t, "a=1 b={a} c={c}", out)
}
