package config

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
	"github.com/de-tools/fleet-compliance/pkg/services/inventory"
	"github.com/de-tools/fleet-compliance/pkg/services/secrets"
	"github.com/de-tools/fleet-compliance/pkg/services/token"
	"github.com/rs/zerolog"
)

// Components are the long-lived services shared by the web server and the CLI.
type Components struct {
	Secrets   secrets.Store
	Evaluator *compliance.Evaluator
}

func NewLogger(settings LogSettings, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(settings.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", settings.Level, err)
	}
	if settings.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func NewSecretStore(s *Settings) (secrets.Store, error) {
	switch s.Secrets.Backend {
	case SecretsBackendIni:
		return secrets.NewIniStore(s.Secrets.IniPath), nil
	case SecretsBackendVault:
		return secrets.NewVaultStore(s.Vault)
	default:
		return nil, fmt.Errorf("unsupported secrets backend %q", s.Secrets.Backend)
	}
}

func NewInventory(ctx context.Context, s *Settings, httpClient *http.Client) (inventory.Fetcher, error) {
	switch s.Inventory.Backend {
	case InventoryBackendOCS:
		return inventory.NewOCSFetcher(httpClient, s.Inventory.BaseURL, s.Retry), nil
	case InventoryBackendEC2:
		return inventory.NewEC2Fetcher(ctx, s.Retry)
	default:
		return nil, fmt.Errorf("unsupported inventory backend %q", s.Inventory.Backend)
	}
}

func Build(ctx context.Context, s *Settings) (*Components, error) {
	store, err := NewSecretStore(s)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret store: %w", err)
	}

	httpClient := &http.Client{}
	fetcher, err := NewInventory(ctx, s, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory fetcher: %w", err)
	}

	evaluator := compliance.NewEvaluator(
		store,
		token.NewProvider(httpClient, s.Retry),
		fetcher,
		s.EvaluatorSettings(),
	)
	return &Components{Secrets: store, Evaluator: evaluator}, nil
}
