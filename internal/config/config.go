// Package config handles loading, saving, and resolving the gitscan
// settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

const (
	// LocalConfigFilename is the per-directory gitscan config file.
	LocalConfigFilename = ".gitscan.yaml"
	// ConfigAPIVersion is the current config schema apiVersion.
	ConfigAPIVersion = "e-mit.io/gitscan/v1alpha1"
	// ConfigKind is the current config schema kind.
	ConfigKind = "GitscanConfig"
	// EnvConfig overrides the config location when set.
	EnvConfig = "GITSCAN_CONFIG"
)

// Fetch holds the remote-refresh policy knobs.
type Fetch struct {
	// Enabled globally switches network fetches on or off.
	Enabled bool `yaml:"enabled"`
	// SoftTimeoutSeconds is the threshold after which a still-running
	// fetch is flagged slow but allowed to continue.
	SoftTimeoutSeconds int `yaml:"soft_timeout_seconds"`
	// HardTimeoutSeconds is the threshold at which a fetch is killed
	// and reported as a timeout.
	HardTimeoutSeconds int `yaml:"hard_timeout_seconds"`
	// Concurrency bounds simultaneous fetch processes.
	Concurrency int `yaml:"concurrency"`
}

// Launchers maps launcher kinds to command templates. The template is
// split on whitespace and each "{path}" token is replaced with the
// repository path.
type Launchers map[string]string

// Config represents the machine-level gitscan configuration.
type Config struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	// Exclude lists glob patterns skipped during discovery.
	Exclude []string `yaml:"exclude"`
	// RepoListPath overrides where the repo list file lives.
	RepoListPath string `yaml:"repo_list_path,omitempty"`
	// CommitLimit is how many recent commits a snapshot carries.
	CommitLimit int       `yaml:"commit_limit"`
	Fetch       Fetch     `yaml:"fetch"`
	Launchers   Launchers `yaml:"launchers,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() Config {
	return Config{
		APIVersion:  ConfigAPIVersion,
		Kind:        ConfigKind,
		Exclude:     []string{"**/node_modules/**", "**/.terraform/**", "**/vendor/**"},
		CommitLimit: 5,
		Fetch: Fetch{
			Enabled:            true,
			SoftTimeoutSeconds: 10,
			HardTimeoutSeconds: 60,
			Concurrency:        8,
		},
		Launchers: Launchers{
			"folder":   "xdg-open {path}",
			"terminal": "x-terminal-emulator --working-directory {path}",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory path.
// It checks, in order: the override parameter, the GITSCAN_CONFIG env
// var, and finally os.UserConfigDir()/gitscan.
func ConfigDir(override string) (string, error) {
	if override != "" {
		if isConfigFilePath(override) {
			return filepath.Dir(override), nil
		}
		return override, nil
	}

	if env := os.Getenv(EnvConfig); env != "" {
		if isConfigFilePath(env) {
			return filepath.Dir(env), nil
		}
		return env, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "gitscan"), nil
}

// ConfigPath resolves the config file path from override/env/defaults.
func ConfigPath(override string) (string, error) {
	if override != "" {
		if isConfigFilePath(override) {
			return override, nil
		}
		return filepath.Join(override, "config.yaml"), nil
	}

	if env := os.Getenv(EnvConfig); env != "" {
		if isConfigFilePath(env) {
			return env, nil
		}
		return filepath.Join(env, "config.yaml"), nil
	}

	dir, err := ConfigDir("")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ResolveConfigPath resolves config for runtime commands.
// Order: explicit override, GITSCAN_CONFIG, nearest local dotfile in
// cwd/parents, then the global platform config path.
func ResolveConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(EnvConfig) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	localPath, err := findNearestConfigPath(cwd)
	if err != nil {
		return "", err
	}
	if localPath != "" {
		return localPath, nil
	}

	return ConfigPath("")
}

func findNearestConfigPath(cwd string) (string, error) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, LocalConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if err != nil && !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// RepoListPathFor returns the repo list location for a loaded config:
// the configured override (resolved against the config file's
// directory when relative) or the file beside the config.
func RepoListPathFor(cfg *Config, cfgPath, listFilename string) string {
	if cfg != nil && cfg.RepoListPath != "" {
		if filepath.IsAbs(cfg.RepoListPath) {
			return cfg.RepoListPath
		}
		return filepath.Join(filepath.Dir(cfgPath), cfg.RepoListPath)
	}
	return filepath.Join(filepath.Dir(cfgPath), listFilename)
}

// Load reads the config file from the given path, returning defaults
// for a missing file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to the given path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if cfg.APIVersion != "" && cfg.APIVersion != ConfigAPIVersion {
		return fmt.Errorf("unsupported config apiVersion %q", cfg.APIVersion)
	}
	if cfg.Kind != "" && cfg.Kind != ConfigKind {
		return fmt.Errorf("unsupported config kind %q", cfg.Kind)
	}
	if cfg.Fetch.HardTimeoutSeconds > 0 && cfg.Fetch.SoftTimeoutSeconds > cfg.Fetch.HardTimeoutSeconds {
		return fmt.Errorf("fetch soft timeout (%ds) exceeds hard timeout (%ds)",
			cfg.Fetch.SoftTimeoutSeconds, cfg.Fetch.HardTimeoutSeconds)
	}
	return nil
}

func isConfigFilePath(p string) bool {
	base := filepath.Base(p)
	return strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml")
}
