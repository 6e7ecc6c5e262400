package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	pathEnv     = "CONFIG_PATH"
	defaultPath = "./config.yaml"
)

// Load reads the file named by CONFIG_PATH (default ./config.yaml) and
// overlays environment variables, then validates. ENV wins over YAML, YAML
// wins over env-default tags. A missing default file is not an error.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(pathEnv))
}

// LoadFile is Load with an explicit path. An empty path means the default
// file, which may be absent.
func LoadFile(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config
	optional := path == ""
	if optional {
		path = defaultPath
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	}
	return &cfg, nil
}
