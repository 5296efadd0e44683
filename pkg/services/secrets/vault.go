package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	vault "github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/approle"
	"github.com/rs/zerolog"
)

const defaultConfigPath = "compliance/config"

type VaultSettings struct {
	URI        string `mapstructure:"uri"`
	Namespace  string `mapstructure:"namespace"`
	ConfigPath string `mapstructure:"config_path"`
	RoleID     string `mapstructure:"role_id"`
	SecretID   string `mapstructure:"secret_id"`
	SkipVerify bool   `mapstructure:"skip_verify"`
}

// vaultStore reads a KV v2 secret whose data maps application names to their configuration.
// It logs in with AppRole on every read.
type vaultStore struct {
	settings VaultSettings
	client   *vault.Client
}

func NewVaultStore(settings VaultSettings) (Store, error) {
	cfg := vault.DefaultConfig()
	cfg.Address = settings.URI
	if settings.SkipVerify {
		if err := cfg.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure insecure TLS for vault: %w", err)
		}
	}

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if ns := strings.TrimSpace(settings.Namespace); ns != "" {
		client.SetNamespace(ns)
	}
	return &vaultStore{settings: settings, client: client}, nil
}

func (s *vaultStore) ListApplications(ctx context.Context) ([]string, error) {
	data, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	apps := make([]string, 0, len(data))
	for app := range data {
		apps = append(apps, app)
	}
	return apps, nil
}

func (s *vaultStore) GetApplicationConfig(ctx context.Context, app string) (domain.ApplicationConfig, error) {
	data, err := s.readAll(ctx)
	if err != nil {
		return domain.ApplicationConfig{}, err
	}
	raw, ok := data[app]
	if !ok || raw == nil {
		return domain.ApplicationConfig{}, fmt.Errorf("%w: %s", domain.ErrApplicationNotFound, app)
	}
	return decodeApplicationConfig(app, raw)
}

// Ping fails unless Vault is reachable and unsealed. The client asks sys/health to answer
// sealed nodes with a 2xx, so the flags are checked here.
func (s *vaultStore) Ping(ctx context.Context) error {
	health, err := s.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if !health.Initialized {
		return errors.New("vault is not initialized")
	}
	if health.Sealed {
		return errors.New("vault is sealed")
	}
	return nil
}

func (s *vaultStore) readAll(ctx context.Context) (map[string]any, error) {
	logger := zerolog.Ctx(ctx)

	client, err := s.login(ctx)
	if err != nil {
		return nil, err
	}

	path := normalizeConfigPath(s.settings.ConfigPath)
	logger.Debug().Str("path", path).Msg("reading vault secret")

	secret, err := client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no data field in vault response for %s", path)
	}
	inner, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("no data.data field in vault response for %s", path)
	}
	logger.Debug().Int("apps", len(inner)).Msg("retrieved app configurations from vault")
	return inner, nil
}

func (s *vaultStore) login(ctx context.Context) (*vault.Client, error) {
	if strings.TrimSpace(s.settings.RoleID) == "" || strings.TrimSpace(s.settings.SecretID) == "" {
		return nil, errors.New("missing vault role_id or secret_id")
	}

	client, err := s.client.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone vault client: %w", err)
	}
	if ns := strings.TrimSpace(s.settings.Namespace); ns != "" {
		client.SetNamespace(ns)
	}

	auth, err := approle.NewAppRoleAuth(s.settings.RoleID, &approle.SecretID{FromString: s.settings.SecretID})
	if err != nil {
		return nil, fmt.Errorf("failed to build approle auth: %w", err)
	}
	secret, err := client.Auth().Login(ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("vault login failed: %w", err)
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return nil, errors.New("no client_token in vault login response")
	}
	return client, nil
}

// normalizeConfigPath maps "compliance/config" to "secret/data/compliance/config" and leaves
// paths that already name the KV v2 data endpoint untouched.
func normalizeConfigPath(path string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(path), "/")
	if normalized == "" {
		normalized = defaultConfigPath
	}
	if strings.HasPrefix(normalized, "secret/data/") {
		return normalized
	}
	return "secret/data/" + normalized
}
