package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COMPLIANCE_VAULT_URI", "https://vault.example.com")
	t.Setenv("COMPLIANCE_VAULT_ROLE_ID", "role")
	t.Setenv("COMPLIANCE_VAULT_SECRET_ID", "secret")

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", settings.Addr())
	assert.Equal(t, 10*time.Second, settings.Server.ShutdownTimeout)
	assert.Equal(t, SecretsBackendVault, settings.Secrets.Backend)
	assert.Equal(t, "compliance/config", settings.Vault.ConfigPath)
	assert.Equal(t, "https://vault.example.com", settings.Vault.URI)
	assert.Equal(t, InventoryBackendOCS, settings.Inventory.Backend)
	assert.Equal(t, "https://ocs.eu-fr-%s.cloud/v0", settings.Inventory.BaseURL)
	assert.Equal(t, []string{"paris", "north"}, settings.Regions)
	assert.Equal(t, 5, settings.Retry.MaxAttempts)
	assert.Equal(t, 120*time.Second, settings.Retry.Delay)
	assert.Equal(t, 60*time.Second, settings.Retry.Timeout)

	eval := settings.EvaluatorSettings()
	assert.Equal(t, 4, eval.AppConcurrency)
	assert.Equal(t, 2, eval.RegionConcurrency)
	assert.Equal(t, 8, eval.ImageConcurrency)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compliance.yaml")
	content := `server:
  port: 8080
secrets:
  backend: ini
  ini_path: /etc/compliance/apps.ini
inventory:
  backend: ec2
regions:
  - eu-west-3
retry:
  max_attempts: 2
  delay: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("COMPLIANCE_SERVER_PORT", "9090")
	t.Setenv("COMPLIANCE_LOG_LEVEL", "debug")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, settings.Server.Port)
	assert.Equal(t, "debug", settings.Log.Level)
	assert.Equal(t, SecretsBackendIni, settings.Secrets.Backend)
	assert.Equal(t, "/etc/compliance/apps.ini", settings.Secrets.IniPath)
	assert.Equal(t, InventoryBackendEC2, settings.Inventory.Backend)
	assert.Equal(t, []string{"eu-west-3"}, settings.Regions)
	assert.Equal(t, 2, settings.Retry.MaxAttempts)
	assert.Equal(t, time.Second, settings.Retry.Delay)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "vault backend without credentials",
			env:     map[string]string{"COMPLIANCE_VAULT_URI": "https://vault.example.com"},
			wantErr: "vault backend requires vault.role_id, vault.secret_id",
		},
		{
			name:    "unknown secrets backend",
			env:     map[string]string{"COMPLIANCE_SECRETS_BACKEND": "consul"},
			wantErr: "invalid settings",
		},
		{
			name:    "ini backend without path",
			env:     map[string]string{"COMPLIANCE_SECRETS_BACKEND": "ini"},
			wantErr: "IniPath",
		},
		{
			name: "zero attempts",
			env: map[string]string{
				"COMPLIANCE_SECRETS_BACKEND":    "ini",
				"COMPLIANCE_SECRETS_INI_PATH":   "apps.ini",
				"COMPLIANCE_RETRY_MAX_ATTEMPTS": "0",
			},
			wantErr: "retry.max_attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogSettings{Level: "warn"}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	_, err = NewLogger(LogSettings{Level: "loud"}, &buf)
	assert.Error(t, err)
}

func TestBuild_IniAndOCS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.ini")
	require.NoError(t, os.WriteFile(path, []byte("[billing]\naccount_id = 1\n"), 0o644))

	settings := &Settings{
		Secrets:    SecretsSettings{Backend: SecretsBackendIni, IniPath: path},
		Inventory:  InventorySettings{Backend: InventoryBackendOCS, BaseURL: "http://localhost/%s"},
		Regions:    []string{"paris"},
		Evaluation: EvaluationSettings{AppConcurrency: 1, RegionConcurrency: 1, ImageConcurrency: 1},
	}

	components, err := Build(context.Background(), settings)
	require.NoError(t, err)

	apps, err := components.Evaluator.ListApplications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"billing"}, apps)
	assert.NoError(t, components.Secrets.Ping(context.Background()))
}

func TestBuild_UnsupportedBackend(t *testing.T) {
	_, err := Build(context.Background(), &Settings{Secrets: SecretsSettings{Backend: "consul"}})
	assert.ErrorContains(t, err, "unsupported secrets backend")
}
