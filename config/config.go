// Package config loads the default ring parameters cmd/shr-send falls back
// to when a flag is not given explicitly: slot size, slot count, and
// permission bits for newly created rings.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Ring holds the defaults a TOML config file may override.
type Ring struct {
	SlotSize  uint32 `toml:"slot_size"`
	SlotCount uint32 `toml:"slot_count"`
	Perm      uint32 `toml:"perm"`
}

// Config is the top-level document shape of a shr config file.
type Config struct {
	Ring Ring `toml:"ring"`
}

// Default returns the built-in ring defaults used when no config file and
// no environment override is present.
func Default() Config {
	return Config{Ring: Ring{SlotSize: 4096, SlotCount: 8, Perm: 0600}}
}

// Load reads and parses the TOML config file at path, starting from
// Default() so a file only overriding part of [ring] still gets sane
// values for the rest.
func Load(path string) (Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := toml.Unmarshal(b, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFromEnv resolves a config the way cmd/shr-send does: it loads
// a .env file if present (ignoring its absence), then loads the file named
// by the SHR_CONFIG environment variable, falling back to Default() if that
// variable is unset.
func LoadFromEnv() (Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("SHR_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
