package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/fleet-compliance/pkg/retrypolicy"
	"github.com/de-tools/fleet-compliance/pkg/services/compliance"
	"github.com/de-tools/fleet-compliance/pkg/services/inventory"
	"github.com/de-tools/fleet-compliance/pkg/services/secrets"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "COMPLIANCE"

const (
	SecretsBackendVault = "vault"
	SecretsBackendIni   = "ini"

	InventoryBackendOCS = "ocs"
	InventoryBackendEC2 = "ec2"
)

type ServerSettings struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type SecretsSettings struct {
	Backend string `mapstructure:"backend" validate:"oneof=vault ini"`
	IniPath string `mapstructure:"ini_path" validate:"required_if=Backend ini"`
}

type InventorySettings struct {
	Backend string `mapstructure:"backend" validate:"oneof=ocs ec2"`
	BaseURL string `mapstructure:"base_url"`
}

type EvaluationSettings struct {
	AppConcurrency    int `mapstructure:"app_concurrency" validate:"min=1"`
	RegionConcurrency int `mapstructure:"region_concurrency" validate:"min=1"`
	ImageConcurrency  int `mapstructure:"image_concurrency" validate:"min=1"`
}

type Settings struct {
	Server     ServerSettings        `mapstructure:"server"`
	Log        LogSettings           `mapstructure:"log"`
	Secrets    SecretsSettings       `mapstructure:"secrets"`
	Vault      secrets.VaultSettings `mapstructure:"vault"`
	Inventory  InventorySettings     `mapstructure:"inventory"`
	Regions    []string              `mapstructure:"regions" validate:"min=1,dive,required"`
	Retry      retrypolicy.Policy    `mapstructure:"retry"`
	Evaluation EvaluationSettings    `mapstructure:"evaluation"`
}

// Load reads settings from defaults, an optional config file and COMPLIANCE_* environment
// variables, in increasing order of precedence.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	retry := retrypolicy.Default()
	eval := compliance.DefaultSettings()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("secrets.backend", SecretsBackendVault)
	v.SetDefault("secrets.ini_path", "")
	v.SetDefault("vault.uri", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.config_path", "compliance/config")
	v.SetDefault("vault.role_id", "")
	v.SetDefault("vault.secret_id", "")
	v.SetDefault("vault.skip_verify", false)
	v.SetDefault("inventory.backend", InventoryBackendOCS)
	v.SetDefault("inventory.base_url", inventory.DefaultOCSBaseURL)
	v.SetDefault("regions", eval.Regions)
	v.SetDefault("retry.max_attempts", retry.MaxAttempts)
	v.SetDefault("retry.delay", retry.Delay)
	v.SetDefault("retry.timeout", retry.Timeout)
	v.SetDefault("evaluation.app_concurrency", eval.AppConcurrency)
	v.SetDefault("evaluation.region_concurrency", eval.RegionConcurrency)
	v.SetDefault("evaluation.image_concurrency", eval.ImageConcurrency)
}

func (s *Settings) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if s.Secrets.Backend == SecretsBackendVault {
		var missing []string
		if s.Vault.URI == "" {
			missing = append(missing, "vault.uri")
		}
		if s.Vault.RoleID == "" {
			missing = append(missing, "vault.role_id")
		}
		if s.Vault.SecretID == "" {
			missing = append(missing, "vault.secret_id")
		}
		if len(missing) > 0 {
			return fmt.Errorf("invalid settings: vault backend requires %s", strings.Join(missing, ", "))
		}
	}
	if s.Retry.MaxAttempts < 1 {
		return errors.New("invalid settings: retry.max_attempts must be at least 1")
	}
	return nil
}

func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Server.Host, s.Server.Port)
}

func (s *Settings) EvaluatorSettings() compliance.Settings {
	return compliance.Settings{
		Regions:           s.Regions,
		AppConcurrency:    s.Evaluation.AppConcurrency,
		RegionConcurrency: s.Evaluation.RegionConcurrency,
		ImageConcurrency:  s.Evaluation.ImageConcurrency,
	}
}
