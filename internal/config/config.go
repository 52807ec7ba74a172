package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "shrink-go.yaml"

type Config struct {
	Exclude    []string `yaml:"exclude"`
	Engines    []string `yaml:"engines"`
	Workers    int      `yaml:"workers"`
	LogDir     string   `yaml:"log_dir"`
	StagingDir string   `yaml:"staging_dir"`
	Protected  []string `yaml:"protected"`
	Verify     bool     `yaml:"verify"`
}

func DefaultConfig() *Config {
	return &Config{
		Exclude: []string{
			".git",
			".svn",
			"node_modules",
			"__pycache__",
			"*.part",
			"*.crdownload",
		},
		Engines:    []string{},
		Workers:    0,
		LogDir:     executableDir(),
		StagingDir: filepath.Join(os.TempDir(), "shrink-go-staging"),
		Protected:  []string{},
		Verify:     true,
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so omitted keys keep their default value
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// Initialize slices if nil (for keys explicitly set to null)
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}
	if cfg.Engines == nil {
		cfg.Engines = []string{}
	}
	if cfg.Protected == nil {
		cfg.Protected = []string{}
	}

	return cfg, nil
}

// Validate checks the values that cannot be checked by the YAML decoder.
// known lists the engine names that are available in this build.
func (c *Config) Validate(known []string) error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}

	for _, name := range c.Engines {
		found := false
		for _, k := range known {
			if k == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown engine %q (available: %v)", name, known)
		}
	}

	if _, err := c.ExcludeGlobs(); err != nil {
		return err
	}

	if c.StagingDir == "" {
		return fmt.Errorf("staging_dir must not be empty")
	}

	return nil
}

// ExcludeGlobs compiles the exclusion patterns with '/' as separator.
func (c *Config) ExcludeGlobs() ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(c.Exclude))
	for _, pattern := range c.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
