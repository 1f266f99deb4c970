package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, cfg map[string]any) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIRoot, cfg.APIRoot)
	assert.Empty(t, cfg.Token)
	assert.Equal(t, path, cfg.Path())
}

func TestResolvePrecedence(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"api_root":        "https://x",
		"email":           "file@example.com",
		"token":           "file-token",
		"organization_id": "file-org",
	})

	tests := []struct {
		name      string
		env       string
		flag      string
		wantToken string
	}{
		{"file only", "", "", "file-token"},
		{"env beats file", "env-token", "", "env-token"},
		{"flag beats env", "env-token", "flag-token", "flag-token"},
		{"flag beats file", "", "flag-token", "flag-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv(EnvToken, tt.env)
			}
			cfg, err := Resolve(path, Overrides{Token: tt.flag})
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, cfg.Token)
		})
	}
}

func TestResolveEnvOverridesAllFields(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"api_root":        "https://file.example.com",
		"email":           "file@example.com",
		"organization_id": "file-org",
	})

	t.Setenv(EnvAPIRoot, "https://env.example.com")
	t.Setenv(EnvOrganizationID, "env-org")

	cfg, err := Resolve(path, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.APIRoot)
	assert.Equal(t, "env-org", cfg.OrganizationID)
	assert.Equal(t, "file@example.com", cfg.Email)
}

func TestNormalizeAPIRoot(t *testing.T) {
	path := writeConfigFile(t, map[string]any{"api_root": "secure.example.com/"})
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://secure.example.com", cfg.APIRoot)
}

func TestValidateRejectsBadEmail(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"api_root": "https://x",
		"email":    "not-an-email",
	})
	_, err := Resolve(path, Overrides{})
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", DefaultConfigFile)

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Email = "me@example.com"
	cfg.Token = "t1"
	cfg.OrganizationID = "o1"
	cfg.FeatureGroups = []string{"can_submit_autoprotocol", "irrelevant_group"}
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", loaded.Email)
	assert.Equal(t, "t1", loaded.Token)
	assert.Equal(t, "o1", loaded.OrganizationID)
	// Irrelevant feature groups are dropped on save.
	assert.Equal(t, []string{"can_submit_autoprotocol"}, loaded.FeatureGroups)
	assert.True(t, loaded.HasFeature("can_submit_autoprotocol"))
	assert.False(t, loaded.HasFeature("irrelevant_group"))
}

func TestEnsureUserID(t *testing.T) {
	cfg := &Config{APIRoot: DefaultAPIRoot}
	assert.True(t, cfg.EnsureUserID())
	id := cfg.UserID
	assert.NotEmpty(t, id)
	assert.False(t, cfg.EnsureUserID())
	assert.Equal(t, id, cfg.UserID)
}
