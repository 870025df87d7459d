package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.PanelURL)
	assert.Equal(t, dir, cfg.DataDir)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, filepath.Join(dir, "credentials.db"), cfg.CredentialsPath())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	content := "panel_url: https://panel.example.com\ndata_dir: " + dataDir + "\nverbose: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://panel.example.com", cfg.PanelURL)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.True(t, cfg.Verbose)

	info, err := os.Stat(dataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "data dir should be created")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("panel_url: https://from-file.example.com\n"), 0644))

	t.Setenv("PANELCTL_PANEL_URL", "https://from-env.example.com")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example.com", cfg.PanelURL)
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte(":\n  - not valid: ["), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}
