package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	e := cfg.Engine()
	assert.Equal(t, time.Second, e.DiffTimeout)
	assert.Equal(t, 4, e.DiffEditCost)
	assert.Equal(t, 0.5, e.MatchThreshold)
	assert.Equal(t, 1000, e.MatchDistance)
	assert.Equal(t, 32, e.MatchMaxBits)
	assert.Equal(t, 0.5, e.PatchDeleteThreshold)
	assert.Equal(t, 4, e.PatchMargin)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"diff:\n  timeoutSeconds: 0.25\n  editCost: 6\nmatch:\n  threshold: 0.3\nlog: debug\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Diff.TimeoutSeconds)
	assert.Equal(t, 6, cfg.Diff.EditCost)
	assert.Equal(t, 0.3, cfg.Match.Threshold)
	assert.Equal(t, 1000, cfg.Match.Distance, "unset fields keep defaults")
	assert.Equal(t, "debug", cfg.Log)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine().DiffTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("match:\n  threshold: 3.0\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
