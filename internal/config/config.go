// Package config loads the kernel's tunable bounds from JSON or YAML files
// and watches them for changes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/typekernel/internal/kernel"
)

// Unification bounds the first-order and higher-order unifiers.
type Unification struct {
	MaxSteps      int `json:"max_steps" yaml:"max_steps"`
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	MaxFrontier   int `json:"max_frontier" yaml:"max_frontier"`
	MaxSolutions  int `json:"max_solutions" yaml:"max_solutions"`
}

// Reduction bounds normalization.
type Reduction struct {
	MaxSteps int `json:"max_steps" yaml:"max_steps"`
}

// Config is the kernel configuration.
type Config struct {
	Unification Unification `json:"unification" yaml:"unification"`
	Reduction   Reduction   `json:"reduction" yaml:"reduction"`
	Verbose     bool        `json:"verbose" yaml:"verbose"`
	Debug       bool        `json:"debug" yaml:"debug"`
}

// Default returns the built-in bounds.
func Default() *Config {
	u := kernel.DefaultUnifierConfig()
	return &Config{
		Unification: Unification{
			MaxSteps:      u.MaxSteps,
			MaxIterations: u.MaxIterations,
			MaxFrontier:   u.MaxFrontier,
			MaxSolutions:  u.MaxSolutions,
		},
		Reduction: Reduction{MaxSteps: kernel.DefaultReductionSteps},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads the configuration at path. Fields missing from the file keep
// their defaults; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, as YAML when the extension says so.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects non-positive bounds.
func (c *Config) Validate() error {
	bounds := []struct {
		name  string
		value int
	}{
		{"unification.max_steps", c.Unification.MaxSteps},
		{"unification.max_iterations", c.Unification.MaxIterations},
		{"unification.max_frontier", c.Unification.MaxFrontier},
		{"unification.max_solutions", c.Unification.MaxSolutions},
		{"reduction.max_steps", c.Reduction.MaxSteps},
	}
	for _, b := range bounds {
		if b.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", b.name, b.value)
		}
	}
	return nil
}

// UnifierConfig returns the unifier bounds.
func (c *Config) UnifierConfig() kernel.UnifierConfig {
	return kernel.UnifierConfig{
		MaxSteps:      c.Unification.MaxSteps,
		MaxIterations: c.Unification.MaxIterations,
		MaxFrontier:   c.Unification.MaxFrontier,
		MaxSolutions:  c.Unification.MaxSolutions,
	}
}

// Watch reloads the configuration at path whenever it changes and passes
// each valid result to onChange. Files that fail to load are reported on
// the returned error channel and otherwise ignored. Watch stops when ctx
// is done.
//
// The directory is watched rather than the file so that editors which
// replace the file on save keep triggering reloads.
func Watch(ctx context.Context, path string, onChange func(*Config)) (<-chan error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		w.Close()
		return nil, err
	}
	abs = filepath.Join(dir, filepath.Base(abs))
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	errC := make(chan error, 8)
	report := func(err error) {
		select {
		case errC <- err:
		default:
		}
	}
	go func() {
		defer close(errC)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(abs)
				if err != nil {
					report(err)
					continue
				}
				onChange(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				report(err)
			}
		}
	}()
	return errC, nil
}
