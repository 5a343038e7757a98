package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// BackendConfig selects where the account service lives.
type BackendConfig struct {
	Kind   string `mapstructure:"kind"`
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// AuthConfig holds token settings for the local backend and the server.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type ServerConfig struct {
	Addr   string `mapstructure:"addr"`
	APIKey string `mapstructure:"api_key"`
}

type LogConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

type SecretsConfig struct {
	Dir string `mapstructure:"dir"`
}

// ErrNoJWTSecret is returned by RequireJWTSecret when auth.jwt_secret is unset.
var ErrNoJWTSecret = errors.New("auth.jwt_secret is not set (run `jaskprofile config init` or set JASKPROFILE_AUTH_JWT_SECRET)")

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "jaskprofile")
}

// Path returns the config file location: explicit, JASKPROFILE_CONFIG, or the default.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("JASKPROFILE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "jaskprofile", "config.toml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(dataDir(), "jaskprofile.db"))
	v.SetDefault("backend.kind", BackendLocal)
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", "720h")
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("server.api_key", "")
	v.SetDefault("log.path", filepath.Join(dataDir(), "jaskprofile.log"))
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("secrets.dir", "")
}

// Load reads .env, then the config file if present, then env. Env var
// overrides use prefix JASKPROFILE_.
func Load(explicit string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")
	v.SetConfigFile(Path(explicit))

	v.SetEnvPrefix("JASKPROFILE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks settings every command depends on.
func (c Config) Validate() error {
	switch c.Backend.Kind {
	case BackendLocal:
	case BackendRemote:
		if c.Backend.URL == "" {
			return errors.New("backend.url is required when backend.kind is remote")
		}
	default:
		return fmt.Errorf("unknown backend.kind %q (want local or remote)", c.Backend.Kind)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q (want text or json)", c.Log.Format)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive, got %s", c.Auth.SessionTTL)
	}
	return nil
}

// RequireJWTSecret is checked by everything that issues or verifies tokens locally.
func (c Config) RequireJWTSecret() error {
	if c.Auth.JWTSecret == "" {
		return ErrNoJWTSecret
	}
	return nil
}

// Save writes the provided config to path, creating the config directory if needed.
// The jwt secret is stored in plain text; the file is written 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("backend.kind", cfg.Backend.Kind)
	v.Set("backend.url", cfg.Backend.URL)
	v.Set("backend.api_key", cfg.Backend.APIKey)
	v.Set("auth.jwt_secret", cfg.Auth.JWTSecret)
	v.Set("auth.session_ttl", cfg.Auth.SessionTTL.String())
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("server.api_key", cfg.Server.APIKey)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.level", cfg.Log.Level)
	v.Set("secrets.dir", cfg.Secrets.Dir)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	return nil
}
