// Package config provides configuration management for the xfer CLI.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// RelPath is the config file location relative to the XDG config home.
const RelPath = "xfer/config.yaml"

// EnvPrefix prefixes environment variable overrides, e.g. XFER_REGION.
const EnvPrefix = "XFER"

// Config represents the xfer CLI configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Backend     string      `mapstructure:"backend" validate:"required,oneof=s3 minio"`
	Region      string      `mapstructure:"region" validate:"required"`
	Endpoint    string      `mapstructure:"endpoint" validate:"omitempty,url"`
	PathStyle   bool        `mapstructure:"path-style"`
	Division    int64       `mapstructure:"division" validate:"gte=0"`
	SliceSize   int64       `mapstructure:"slice-size" validate:"gte=0"`
	Progress    string      `mapstructure:"progress" validate:"oneof=auto tty plain"`
	Credentials Credentials `mapstructure:"credentials"`
	Log         Log         `mapstructure:"log"`
}

// Credentials selects either a long-lived secret or a session credential service.
type Credentials struct {
	SecretID   string `mapstructure:"secret-id" validate:"required_without=SessionURL"`
	SecretKey  string `mapstructure:"secret-key" validate:"required_with=SecretID"`
	SessionURL string `mapstructure:"session-url" validate:"omitempty,url"`
}

// Log holds logging settings.
type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

var defaults = map[string]any{
	"backend":                 "s3",
	"region":                  "us-east-1",
	"endpoint":                "",
	"path-style":              false,
	"division":                0,
	"slice-size":              0,
	"progress":                "auto",
	"credentials.secret-id":   "",
	"credentials.secret-key":  "",
	"credentials.session-url": "",
	"log.level":               "warn",
	"log.format":              "text",
}

// Setup registers defaults and environment overrides on v.
func Setup(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// ReadFile reads the config file at path, or the XDG config file when path
// is empty. A missing XDG config file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		found, err := xdg.SearchConfigFile(RelPath)
		if err != nil {
			return nil //nolint:nilerr // no config file is fine
		}
		path = found
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Path returns where the config file is, or would be created.
func Path() (string, error) {
	return xdg.ConfigFile(RelPath) //nolint:wrapcheck // path errors are self-describing
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Transfer returns the engine configuration.
func (c *Config) Transfer() transfertypes.Configuration {
	return transfertypes.Configuration{
		Region:               c.Region,
		DivisionForUpload:    c.Division,
		SliceSizeForUpload:   c.SliceSize,
		Endpoint:             c.Endpoint,
		ForcePathStyle:       c.PathStyle,
		SessionCredentialURL: c.Credentials.SessionURL,
	}
}

// Secret returns the long-lived secret, or nil when session credentials are configured.
func (c *Config) Secret() *transfertypes.PlainSecret {
	if c.Credentials.SecretID == "" {
		return nil
	}
	return &transfertypes.PlainSecret{
		SecretID:  c.Credentials.SecretID,
		SecretKey: c.Credentials.SecretKey,
	}
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
