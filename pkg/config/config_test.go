package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	Name  string `yaml:"name"`
	Token string `yaml:"token"`
	Port  int    `yaml:"port"`
}

type validatedConfig struct {
	Port int `yaml:"port"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return os.ErrInvalid
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "name: raido\nport: 8080\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "raido" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_TOKEN", "sekrit")
	path := writeConfig(t, "token: ${TEST_CONFIG_TOKEN}\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "sekrit" {
		t.Errorf("token = %q, want sekrit", cfg.Token)
	}
}

func TestLoadExpandsDefaultWhenUnset(t *testing.T) {
	path := writeConfig(t, "name: ${TEST_CONFIG_UNSET_NAME:-fallback}\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "fallback" {
		t.Errorf("name = %q, want fallback", cfg.Name)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("TEST_CONFIG_SET_NAME", "from-env")
	path := writeConfig(t, "name: ${TEST_CONFIG_SET_NAME:-fallback}\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("name = %q, want from-env", cfg.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg testConfig
	err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "name: [unterminated\n")

	var cfg testConfig
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadCallsValidator(t *testing.T) {
	path := writeConfig(t, "port: -1\n")

	var cfg validatedConfig
	err := Load(path, &cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadWithDefaultsFallsBack(t *testing.T) {
	defaultPath := writeConfig(t, "name: default\n")
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	var cfg testConfig
	if err := LoadWithDefaults(missing, defaultPath, &cfg); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Name != "default" {
		t.Errorf("name = %q, want default", cfg.Name)
	}
}

func TestLoadWithDefaultsNoFallback(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	var cfg testConfig
	if err := LoadWithDefaults(missing, "", &cfg); err == nil {
		t.Fatal("expected error when neither file exists")
	}
}
