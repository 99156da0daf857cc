package cmd

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/chromaqr/internal/config"
)

func TestConfigInitAndShow(t *testing.T) {
	fs := afero.NewMemMapFs()

	out, err := execute(t, fs, "config", "init", "--path", "/etc/app/chromaqr.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote /etc/app/chromaqr.yaml")

	data, err := afero.ReadFile(fs, "/etc/app/chromaqr.yaml")
	require.NoError(t, err)
	var written config.Config
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, config.DefaultConfig(), written)

	_, err = execute(t, fs, "config", "init", "--path", "/etc/app/chromaqr.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, fs, "config", "init", "--path", "/etc/app/chromaqr.yaml", "--force")
	require.NoError(t, err)

	out, err = execute(t, fs, "--config", "/etc/app/chromaqr.yaml", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# config file: /etc/app/chromaqr.yaml")

	var shown config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Equal(t, config.DefaultConfig(), shown)
}

func TestConfigInitDefaultPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := execute(t, fs, "config", "init")
	require.NoError(t, err)
	exists, _ := afero.Exists(fs, "chromaqr.yaml")
	assert.True(t, exists)
}

func TestConfigShowEnvironment(t *testing.T) {
	t.Setenv("CHROMAQR_SCAN_BACKEND", "goqr")
	out, err := execute(t, afero.NewMemMapFs(), "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: goqr")
}

func TestConfigPaths(t *testing.T) {
	out, err := execute(t, afero.NewMemMapFs(), "config", "paths")
	require.NoError(t, err)
	assert.Contains(t, out, "/etc/chromaqr")
}
