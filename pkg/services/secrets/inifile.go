package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// iniStore reads application configurations from an ini file, one section per application:
//
//	[billing]
//	account_id = 1234
//	client_id = ...
type iniStore struct {
	path string
}

func NewIniStore(path string) Store {
	return &iniStore{path: path}
}

func (s *iniStore) load() (*ini.File, error) {
	cfg, err := ini.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.path, err)
	}
	return cfg, nil
}

func (s *iniStore) ListApplications(_ context.Context) ([]string, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	var apps []string
	for _, section := range cfg.Sections() {
		if len(section.Keys()) > 0 {
			apps = append(apps, section.Name())
		}
	}
	return apps, nil
}

func (s *iniStore) GetApplicationConfig(_ context.Context, app string) (domain.ApplicationConfig, error) {
	cfg, err := s.load()
	if err != nil {
		return domain.ApplicationConfig{}, err
	}
	section, err := cfg.GetSection(app)
	if err != nil || len(section.Keys()) == 0 {
		return domain.ApplicationConfig{}, fmt.Errorf("%w: %s", domain.ErrApplicationNotFound, app)
	}

	var appCfg domain.ApplicationConfig
	if err := section.MapTo(&appCfg); err != nil {
		return domain.ApplicationConfig{}, fmt.Errorf("failed to map section %s: %w", app, err)
	}
	return appCfg, nil
}

func (s *iniStore) Ping(_ context.Context) error {
	_, err := os.Stat(s.path)
	return err
}
