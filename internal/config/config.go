// Package config loads persistent defaults for rpmconf from a TOML
// file. Command-line flags always override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/0x6d6e647a/rpmconf/internal/merge"
)

// DefaultPath is where rpmconf looks for its configuration unless
// --config says otherwise.
const DefaultPath = "/etc/rpmconf.toml"

// Config holds the persistent defaults.
type Config struct {
	// Frontend is the default merge frontend name.
	Frontend string `toml:"frontend"`
	// Exclude lists paths pruned from the orphan scan and watcher.
	Exclude []string `toml:"exclude"`
	// SELinux enables security context display in file listings.
	SELinux bool `toml:"selinux"`
}

// Load reads and validates the config file at path. Unknown keys are
// fatal: silently ignoring a typo leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if cfg.Frontend != "" && !merge.Known(cfg.Frontend) {
		return nil, fmt.Errorf("unknown frontend %q in %s", cfg.Frontend, path)
	}
	return &cfg, nil
}

// LoadOrDefault reads the config file if it exists, otherwise returns
// zero-value defaults so rpmconf works without one.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return Load(path)
}
