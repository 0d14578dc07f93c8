package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// checkConfigFilePermissions returns an error if a config file grants any
// group or world permission, which makes Load fail. The file can name a
// download directory and known peer ids, worth keeping private on
// multi-user systems.
func checkConfigFilePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil // file access errors are handled by the caller
	}
	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		return fmt.Errorf("config file %s has overly permissive mode %04o; expected 0600 — fix with: chmod 600 %s", path, mode, path)
	}
	return nil
}

// Load reads and parses path, filling in defaults for any zero-valued
// field. A missing file is not an error: Load returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if err := checkConfigFilePermissions(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Version > CurrentConfigVersion {
		return nil, fmt.Errorf("%w: version %d, supported up to %d", ErrConfigVersionTooNew, cfg.Version, CurrentConfigVersion)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills in any field Load left at its zero value because
// the YAML document didn't mention it.
func applyDefaults(cfg *Config) {
	defaults := Default()
	if cfg.Identity.KeyDir == "" {
		cfg.Identity.KeyDir = defaults.Identity.KeyDir
	}
	if cfg.Network.Interface == "" {
		cfg.Network.Interface = defaults.Network.Interface
	}
	if cfg.Network.Port == 0 {
		cfg.Network.Port = defaults.Network.Port
	}
	if cfg.Security.DownloadDir == "" {
		cfg.Security.DownloadDir = defaults.Security.DownloadDir
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = defaults.Telemetry.Metrics.ListenAddress
	}
}

// DefaultKeyDir returns ~/.opendrop/keys, falling back to a relative
// path if the home directory can't be determined.
func DefaultKeyDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".opendrop", "keys")
	}
	return filepath.Join(home, ".opendrop", "keys")
}

// DefaultDownloadDir returns ~/Downloads/AirDrop, falling back to a
// relative path if the home directory can't be determined.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".opendrop", "downloads")
	}
	return filepath.Join(home, "Downloads", "AirDrop")
}
