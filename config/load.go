package config

import (
	"io"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Load reads a TOML config from r on top of Default, so settings missing
// from r keep their defaults and explicit zero values are kept.
func Load(r io.Reader) (Config, error) {
	c := Default()
	t, err := toml.LoadReader(r)
	if err != nil {
		return c, errors.Wrap(err, "failed to parse config")
	}
	if err := t.Unmarshal(&c); err != nil {
		return c, errors.Wrap(err, "failed to parse config")
	}
	return c, nil
}

// LoadFile loads the config at fp. A missing file yields the defaults.
func LoadFile(fp string) (Config, error) {
	f, err := os.Open(fp)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, errors.Wrapf(err, "failed to load config from %s", fp)
	}
	defer f.Close()
	return Load(f)
}
