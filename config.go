package docpkg

import "path/filepath"

// Config is the project configuration consumed by the installer and indexer.
// Core components never locate or load it themselves.
type Config struct {
	Version     string            `json:"version" yaml:"version"`
	InstallPath string            `json:"installPath" yaml:"installPath"`
	Structure   string            `json:"structure,omitempty" yaml:"structure,omitempty"`
	Sources     map[string]string `json:"sources" yaml:"sources"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	AI          AIConfig          `json:"ai,omitempty" yaml:"ai,omitempty"`
}

// CacheConfig locates the shared download cache.
type CacheConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// AIConfig configures the enrichment analyzer.
type AIConfig struct {
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
// home is the user's home directory used for the cache location.
func DefaultConfig(home string) *Config {
	return &Config{
		Version:     "1",
		InstallPath: "docs",
		Structure:   "nested",
		Sources:     make(map[string]string),
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(home, ".docpkg", "cache"),
		},
	}
}

// Validate returns an error if the config contains invalid fields.
func (c *Config) Validate() error {
	if c.Version == "" {
		return Errorf(EINVALID, "config version is required")
	}
	if c.InstallPath == "" {
		return Errorf(EINVALID, "installPath is required")
	}
	if c.Cache.Path == "" {
		return Errorf(EINVALID, "cache.path is required")
	}
	return nil
}

// ConfigStore discovers, loads and saves project configuration.
type ConfigStore interface {
	// Load returns the configuration, falling back to defaults.
	Load() (*Config, error)

	// Save writes cfg back in the format it was loaded from.
	Save(cfg *Config) error

	// Exists reports whether a configuration file was found on Load.
	Exists() bool

	// Path returns the file Load read from, or the file Save will create.
	Path() string
}
