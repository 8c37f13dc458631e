// Package config provides configuration management for the skyforge client.
// It handles loading and saving per-profile YAML configuration files and
// resolves the effective configuration by overlaying command-line values on
// top of the profile file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultHost is the server address used when neither the command line nor
// the profile file provides one.
const DefaultHost = "http://127.0.0.1"

// DefaultProfile is the profile name used when none is given.
const DefaultProfile = "default"

// Config represents the resolved client configuration for one invocation.
// Fields with yaml tags are persisted in the profile file; the rest are
// derived per invocation and never written to disk.
type Config struct {
	// Host is the resolvable URI for the skyforge server instance.
	Host string `yaml:"host,omitempty"`

	// Port is the port the server API listens on. Optional; left empty the
	// server's scheme default applies.
	Port string `yaml:"port,omitempty"`

	// LogLevel is the console log level: debug, info or warning.
	LogLevel string `yaml:"log_level,omitempty"`

	// NoColor removes ANSI color and styling from output when true.
	NoColor bool `yaml:"no_color,omitempty"`

	// Verify controls TLS certificate verification: "true", "false" or a
	// path to a CA bundle file.
	Verify string `yaml:"verify,omitempty"`

	// Email is the skyforge user email. Optional; login persists it back
	// into the profile so later logins can omit --email.
	Email string `yaml:"email,omitempty"`

	// ProxyURL is an optional proxy for outbound requests (socks5, http or
	// https scheme).
	ProxyURL string `yaml:"proxy-url,omitempty"`

	// ConfigDir is the directory holding profile and token files.
	ConfigDir string `yaml:"-"`

	// Profile is the active profile name.
	Profile string `yaml:"-"`
}

// DefaultConfigDir returns the default configuration directory,
// ~/.config/skyforge.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".skyforge")
	}
	return filepath.Join(home, ".config", "skyforge")
}

// defaults returns the built-in configuration layer.
func defaults() *Config {
	return &Config{
		Host:      DefaultHost,
		LogLevel:  "info",
		Verify:    "true",
		ConfigDir: DefaultConfigDir(),
		Profile:   DefaultProfile,
	}
}

// merge overlays src on top of dst: any value set in src wins.
func merge(dst, src *Config) {
	if src.Host != "" {
		dst.Host = src.Host
	}
	if src.Port != "" {
		dst.Port = src.Port
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.NoColor {
		dst.NoColor = true
	}
	if src.Verify != "" {
		dst.Verify = src.Verify
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.ProxyURL != "" {
		dst.ProxyURL = src.ProxyURL
	}
	if src.ConfigDir != "" {
		dst.ConfigDir = src.ConfigDir
	}
	if src.Profile != "" {
		dst.Profile = src.Profile
	}
}

// Resolve builds the effective configuration for one invocation by layering,
// in priority order, command-line overrides > profile file > defaults. The
// merge is explicit and the result is passed through call chains; no global
// state is involved. A missing profile file is not an error.
func Resolve(overrides *Config) (*Config, error) {
	cfg := defaults()

	dir := cfg.ConfigDir
	profile := cfg.Profile
	if overrides != nil {
		if overrides.ConfigDir != "" {
			dir = overrides.ConfigDir
		}
		if overrides.Profile != "" {
			profile = overrides.Profile
		}
	}

	fileCfg, err := loadProfileFile(profileFilePath(dir, profile))
	if err != nil {
		return nil, err
	}
	if fileCfg != nil {
		merge(cfg, fileCfg)
	} else {
		log.Infof("no configuration file found for profile %q, using defaults", profile)
	}

	if overrides != nil {
		merge(cfg, overrides)
	}
	cfg.ConfigDir = dir
	cfg.Profile = profile

	return cfg, nil
}

// loadProfileFile reads one profile YAML file. A missing file yields
// (nil, nil); a malformed file is an error.
func loadProfileFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the persistable fields of cfg to the active profile file,
// creating the configuration directory when needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.ConfigDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	path := profileFilePath(c.ConfigDir, c.Profile)
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// SetEmail persists email into the profile file without disturbing other
// values the file may carry.
func (c *Config) SetEmail(email string) error {
	onDisk, err := loadProfileFile(profileFilePath(c.ConfigDir, c.Profile))
	if err != nil {
		return err
	}
	if onDisk == nil {
		onDisk = &Config{}
	}
	onDisk.Email = email
	onDisk.ConfigDir = c.ConfigDir
	onDisk.Profile = c.Profile
	c.Email = email
	return onDisk.Save()
}

// URL returns the server base URL, host:port when a port is configured.
func (c *Config) URL() string {
	if c.Port != "" {
		return c.Host + ":" + c.Port
	}
	return c.Host
}

// TokenPath returns the token file location for the active profile.
func (c *Config) TokenPath() string {
	return filepath.Join(c.ConfigDir, c.Profile+"_tokens.json")
}

// ProfilePath returns the profile YAML file location.
func (c *Config) ProfilePath() string {
	return profileFilePath(c.ConfigDir, c.Profile)
}

func profileFilePath(dir, profile string) string {
	return filepath.Join(dir, profile+".yaml")
}
