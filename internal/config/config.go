package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/thywilljoshua/pdfcheck/internal/check"
	"github.com/thywilljoshua/pdfcheck/internal/pdflib"
	"github.com/thywilljoshua/pdfcheck/internal/source"
)

type Config struct {
	Backend       string        `yaml:"backend"`
	ProxyPrefix   string        `yaml:"proxy_prefix"`
	MaxPages      int           `yaml:"max_pages"`
	MinTextLength int           `yaml:"min_text_length"`
	Listen        string        `yaml:"listen"`
	Timeout       time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		Backend:       pdflib.BackendRSC,
		ProxyPrefix:   source.DefaultProxyPrefix,
		MaxPages:      check.DefaultMaxPages,
		MinTextLength: check.DefaultMinTextLength,
		Listen:        ":8080",
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file
// keep their default value; `proxy_prefix: ""` disables the proxy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if !pdflib.Known(c.Backend) {
		errs = append(errs, fmt.Errorf("backend %q must be one of %s", c.Backend, strings.Join(pdflib.Backends(), ", ")))
	}
	if c.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("max_pages must be positive, got %d", c.MaxPages))
	}
	if c.MinTextLength < 1 {
		errs = append(errs, fmt.Errorf("min_text_length must be positive, got %d", c.MinTextLength))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}

// Check returns the pipeline settings.
func (c Config) Check(loader check.Loader) check.Config {
	return check.Config{
		Backend:       c.Backend,
		ProxyPrefix:   c.ProxyPrefix,
		MaxPages:      c.MaxPages,
		MinTextLength: c.MinTextLength,
		Loader:        loader,
	}
}
