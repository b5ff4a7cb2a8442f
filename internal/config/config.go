// Package config loads fitsherd configuration.
//
// Precedence, lowest to highest: built-in defaults, the user config at
// ~/.config/fitsherd/config.yaml, the project config .fitsherd.yaml in the
// working directory, then FITSHERD_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete fitsherd configuration.
type Config struct {
	Version int            `yaml:"version"`
	Files   FilesConfig    `yaml:"files"`
	Keyword KeywordsConfig `yaml:"keywords"`
	Site    SiteConfig     `yaml:"site"`
	Patch   PatchConfig    `yaml:"patch"`
	Objects ObjectsConfig  `yaml:"objects"`
	Storage StorageConfig  `yaml:"storage"`
	Logging LoggingConfig  `yaml:"logging"`
}

// FilesConfig selects which directory entries count as FITS files.
type FilesConfig struct {
	// Extensions are filename extensions without the dot.
	Extensions []string `yaml:"extensions"`
	// Compressed includes .gz variants of every extension.
	Compressed bool `yaml:"compressed"`
	// Manifest is the manifest file name inside an image directory.
	Manifest string `yaml:"manifest"`
}

// KeywordsConfig selects the header keywords tracked by the index.
type KeywordsConfig struct {
	Tracked []string `yaml:"tracked"`
}

// SiteConfig is the observing site written into patched headers.
type SiteConfig struct {
	Name string `yaml:"name"`
	// Latitude in decimal degrees, north positive.
	Latitude float64 `yaml:"latitude"`
	// Longitude in decimal degrees, east positive.
	Longitude float64 `yaml:"longitude"`
	// Altitude in meters above sea level.
	Altitude float64 `yaml:"altitude"`
}

// PatchConfig tunes the header-patching pipeline.
type PatchConfig struct {
	// Suffix is inserted before the extension of patched copies.
	Suffix string `yaml:"suffix"`
	// Workers bounds concurrent file rewrites.
	Workers int `yaml:"workers"`
	// SecondsPrecision is the fractional digits of sexagesimal seconds.
	SecondsPrecision int `yaml:"seconds_precision"`
}

// ObjectsConfig tunes object-name assignment.
type ObjectsConfig struct {
	// List is the observing log file name inside an image directory.
	List string `yaml:"list"`
	// Catalog locates the object catalog; relative paths resolve against
	// the image directory.
	Catalog string `yaml:"catalog"`
	// MatchRadius is the match distance in arcminutes.
	MatchRadius float64 `yaml:"match_radius"`
}

// StorageConfig controls where collection snapshots are persisted.
type StorageConfig struct {
	// Dir is an explicit snapshot directory.
	Dir string `yaml:"dir"`
	// SameDir stores snapshots alongside the images.
	SameDir bool `yaml:"same_dir"`
}

// LoggingConfig controls the log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Stderr bool   `yaml:"stderr"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Files: FilesConfig{
			Extensions: []string{"fit", "fits"},
			Compressed: true,
			Manifest:   "Manifest.txt",
		},
		Keyword: KeywordsConfig{
			Tracked: []string{"IMAGETYP", "FILTER", "DATE-OBS", "OBJECT"},
		},
		Patch: PatchConfig{
			Suffix:           "-new",
			Workers:          runtime.NumCPU(),
			SecondsPrecision: 2,
		},
		Objects: ObjectsConfig{
			List:        "obsinfo.txt",
			Catalog:     "objects.yaml",
			MatchRadius: 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// UserConfigPath returns the path of the per-user config file.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fitsherd", "config.yaml")
}

// Load builds the effective configuration for a run started in dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := UserConfigPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadYAML(path); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile loads an explicit config file over the defaults, for --config.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile merges .fitsherd.yaml or .fitsherd.yml from dir, when
// present. No config file is fine.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".fitsherd.yaml", ".fitsherd.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c. Booleans merge only
// when set, so a file can enable but not silently disable.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Files.Extensions) > 0 {
		c.Files.Extensions = other.Files.Extensions
	}
	if other.Files.Compressed {
		c.Files.Compressed = true
	}
	if other.Files.Manifest != "" {
		c.Files.Manifest = other.Files.Manifest
	}
	if len(other.Keyword.Tracked) > 0 {
		c.Keyword.Tracked = other.Keyword.Tracked
	}
	if other.Site != (SiteConfig{}) {
		c.Site = other.Site
	}
	if other.Patch.Suffix != "" {
		c.Patch.Suffix = other.Patch.Suffix
	}
	if other.Patch.Workers != 0 {
		c.Patch.Workers = other.Patch.Workers
	}
	if other.Patch.SecondsPrecision != 0 {
		c.Patch.SecondsPrecision = other.Patch.SecondsPrecision
	}
	if other.Objects.List != "" {
		c.Objects.List = other.Objects.List
	}
	if other.Objects.Catalog != "" {
		c.Objects.Catalog = other.Objects.Catalog
	}
	if other.Objects.MatchRadius != 0 {
		c.Objects.MatchRadius = other.Objects.MatchRadius
	}
	if other.Storage.Dir != "" {
		c.Storage.Dir = other.Storage.Dir
	}
	if other.Storage.SameDir {
		c.Storage.SameDir = true
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Stderr {
		c.Logging.Stderr = true
	}
}

// applyEnvOverrides applies FITSHERD_* environment variables, the highest
// precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FITSHERD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FITSHERD_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Patch.Workers = n
		}
	}
	if v := os.Getenv("FITSHERD_MATCH_RADIUS"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil && r > 0 {
			c.Objects.MatchRadius = r
		}
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if len(c.Files.Extensions) == 0 {
		return fmt.Errorf("files.extensions must not be empty")
	}
	if c.Site.Latitude < -90 || c.Site.Latitude > 90 {
		return fmt.Errorf("site.latitude must be between -90 and 90, got %f", c.Site.Latitude)
	}
	if c.Site.Longitude < -180 || c.Site.Longitude > 180 {
		return fmt.Errorf("site.longitude must be between -180 and 180, got %f", c.Site.Longitude)
	}
	if c.Patch.Workers < 1 {
		return fmt.Errorf("patch.workers must be at least 1, got %d", c.Patch.Workers)
	}
	if c.Patch.SecondsPrecision < 0 || c.Patch.SecondsPrecision > 6 {
		return fmt.Errorf("patch.seconds_precision must be between 0 and 6, got %d", c.Patch.SecondsPrecision)
	}
	if c.Objects.MatchRadius <= 0 {
		return fmt.Errorf("objects.match_radius must be positive, got %f", c.Objects.MatchRadius)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
