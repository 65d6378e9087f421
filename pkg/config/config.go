// Package config loads the requirement table checked by verify-versions.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"verifyversions/pkg/manifest"
	"verifyversions/pkg/types"
	"verifyversions/pkg/verifier"
)

// FileName is looked up in the project root when no explicit config is given.
const FileName = ".verify-versions.yaml"

var ErrConfigExists = zerr.New("config file already exists")

// Config is the verifier's requirement table plus report settings.
type Config struct {
	PackageManager string              `yaml:"package_manager,omitempty"`
	FixCommand     string              `yaml:"fix_command,omitempty"`
	Requirements   []types.Requirement `yaml:"requirements"`
}

// Default returns the built-in front-end toolchain requirements.
func Default() Config {
	return Config{
		PackageManager: "npm",
		FixCommand:     "npm run fix-versions",
		Requirements: []types.Requirement{
			{Package: "tailwindcss", Range: "^4.0.0", Name: "Tailwind CSS"},
			{Package: "daisyui", Range: "^5.0.9", Name: "DaisyUI"},
		},
	}
}

// Load reads path. An empty path falls back to FileName under root, and to
// Default when that file does not exist.
func Load(path, root string) (Config, string, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), "", nil
		}
		return Config{}, "", zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

// Parse decodes and validates a YAML config.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, zerr.Wrap(err, "failed to parse config file")
	}
	if cfg.PackageManager == "" {
		cfg.PackageManager = "npm"
	}
	if cfg.FixCommand == "" {
		cfg.FixCommand = "npm run fix-versions"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem in the config at once.
func (c Config) Validate() error {
	var merr *multierror.Error

	switch c.PackageManager {
	case "npm", "yarn", "pnpm":
	default:
		merr = multierror.Append(merr, fmt.Errorf("unknown package manager %q", c.PackageManager))
	}

	if len(c.Requirements) == 0 {
		merr = multierror.Append(merr, errors.New("no requirements defined"))
	}

	seen := make(map[string]bool, len(c.Requirements))
	for i, req := range c.Requirements {
		if req.Package == "" {
			merr = multierror.Append(merr, fmt.Errorf("requirement %d: package is required", i+1))
			continue
		}
		if !manifest.ValidName(req.Package) {
			merr = multierror.Append(merr, fmt.Errorf("requirement %d: %w %q", i+1, manifest.ErrInvalidName, req.Package))
		}
		if seen[req.Package] {
			merr = multierror.Append(merr, fmt.Errorf("requirement %d: duplicate package %q", i+1, req.Package))
		}
		seen[req.Package] = true

		if _, err := verifier.ParseRange(req.Range); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("requirement %d (%s): %w", i+1, req.Package, err))
		}
	}

	return merr.ErrorOrNil()
}

// Write stores cfg as YAML at path. Existing files are kept unless force is set.
func Write(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return zerr.Wrap(err, "failed to encode config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write config file"), "path", path)
	}
	return nil
}
