package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"hydra/internal/mono"
)

// ConfigFileName is looked up from the working directory towards the root.
const ConfigFileName = "hydra.toml"

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the contents of hydra.toml.
type Config struct {
	Mono        MonoConfig        `toml:"mono"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

type MonoConfig struct {
	MaxDepth             int  `toml:"max_depth"`
	MaxSpecializations   int  `toml:"max_specializations"`
	AllowStableRecursion bool `toml:"allow_stable_recursion"`
}

type DiagnosticsConfig struct {
	// Max caps diagnostics per unit; 0 keeps all of them.
	Max      int  `toml:"max"`
	Warnings bool `toml:"warnings"`
}

func DefaultConfig() Config {
	def := mono.DefaultConfig()
	return Config{
		Mono: MonoConfig{
			MaxDepth:           def.MaxDepth,
			MaxSpecializations: def.MaxSpecializations,
		},
		Diagnostics: DiagnosticsConfig{Max: 100, Warnings: true},
	}
}

// Engine converts the [mono] section.
func (c Config) Engine() mono.Config {
	return mono.Config{
		MaxDepth:             c.Mono.MaxDepth,
		MaxSpecializations:   c.Mono.MaxSpecializations,
		AllowStableRecursion: c.Mono.AllowStableRecursion,
	}
}

// LoadConfig reads path over the defaults. Keys the file sets but Config does
// not know are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalidConfig, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Mono.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("%w: [mono].max_depth must not be negative", ErrInvalidConfig))
	}
	if c.Mono.MaxSpecializations < 0 {
		errs = append(errs, fmt.Errorf("%w: [mono].max_specializations must not be negative", ErrInvalidConfig))
	}
	if c.Diagnostics.Max < 0 {
		errs = append(errs, fmt.Errorf("%w: [diagnostics].max must not be negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// FindConfig walks up from startDir to locate hydra.toml.
func FindConfig(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}
