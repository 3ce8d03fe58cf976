// Package config loads optional defaults for the sbp CLI from
// ~/.sbprc.toml, the way the corpus's tools use github.com/BurntSushi/toml
// for structured config files. CLI flags always take precedence over
// values loaded here — Load only fills in what the user didn't pass.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/sbp-tools/sbp/pkg/errors"
)

// Config holds the subset of pipeline/CLI defaults a user can pin in
// ~/.sbprc.toml instead of retyping on every invocation.
type Config struct {
	K         int    `toml:"k"`
	MongoURI  string `toml:"mongo_uri"`
	MongoDB   string `toml:"mongo_db"`
	RedisAddr string `toml:"redis_addr"`
	OutputDir string `toml:"output_dir"`
	LogLevel  string `toml:"log_level"`
}

// Default returns a Config with the same fallbacks the CLI flags use when
// no config file is present.
func Default() Config {
	return Config{
		MongoURI: "mongodb://localhost:27017",
		MongoDB:  "sbp",
		LogLevel: "info",
	}
}

// Load reads ~/.sbprc.toml, if present, merging it over Default(). A
// missing file is not an error — it just means every default applies.
func Load() (Config, error) {
	cfg := Default()

	path, err := rcPath()
	if err != nil {
		return cfg, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.CodeIOError, err, "load config %s", path)
	}
	return cfg, nil
}

func rcPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.CodeIOError, err, "resolve home directory")
	}
	return filepath.Join(home, ".sbprc.toml"), nil
}
