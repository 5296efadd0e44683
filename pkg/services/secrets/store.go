package secrets

import (
	"context"
	"fmt"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"github.com/go-viper/mapstructure/v2"
)

// Store resolves per-application configuration. Every call reads the backend again, so
// rotated secrets are picked up by the next evaluation.
type Store interface {
	ListApplications(ctx context.Context) ([]string, error)
	// GetApplicationConfig returns domain.ErrApplicationNotFound for unknown applications.
	GetApplicationConfig(ctx context.Context, app string) (domain.ApplicationConfig, error)
	Ping(ctx context.Context) error
}

func decodeApplicationConfig(app string, raw any) (domain.ApplicationConfig, error) {
	var cfg domain.ApplicationConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, err
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("failed to decode configuration of app %s: %w", app, err)
	}
	return cfg, nil
}
