package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Migrate MigrateConfig     `yaml:"migrate"`
	Enrich  EnrichConfig      `yaml:"enrich"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Migrate.Validate(); err != nil {
		return err
	}
	return c.Enrich.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// MigrateConfig tunes the migration pipeline.
type MigrateConfig struct {
	// MaxNameLength caps cleaned file and directory names, extension and
	// duplicate suffix included.
	MaxNameLength int `yaml:"max_name_length"`
	// Concurrency bounds parallel note rewrites.
	Concurrency int `yaml:"concurrency"`
	// ScanWindow is how many lines at the top of a note body are scanned
	// for inline properties.
	ScanWindow int `yaml:"scan_window"`
}

// Validate validates the migration configuration.
func (c *MigrateConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxNameLength, validation.Required, validation.Min(10), validation.Max(255)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.ScanWindow, validation.Required, validation.Min(1), validation.Max(500)),
	)
}

// EnrichConfig holds remote metadata enrichment configuration. The API
// token normally arrives through the NOTION_TOKEN environment variable,
// which the loader expands into the token field.
type EnrichConfig struct {
	BaseURL           string `yaml:"base_url"`
	Version           string `yaml:"version"`
	RequestsPerSecond int    `yaml:"requests_per_second"`
	CachePath         string `yaml:"cache_path"`
	CacheSize         int    `yaml:"cache_size"`
	Token             string `yaml:"token"`
}

// Validate validates the enrichment configuration.
func (c *EnrichConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Version, validation.Required),
		validation.Field(&c.RequestsPerSecond, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&c.CacheSize, validation.Min(0)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./raido.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Migrate: MigrateConfig{
			MaxNameLength: 50,
			Concurrency:   4,
			ScanWindow:    15,
		},
		Enrich: EnrichConfig{
			BaseURL:           "https://api.notion.com",
			Version:           "2022-06-28",
			RequestsPerSecond: 3,
			CacheSize:         512,
		},
	}
}
