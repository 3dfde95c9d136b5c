// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gviegas/gfxbench/engine"
)

// Config is the host configuration.
// It is read from a TOML file and then overridden by the
// command line flags.
type Config struct {
	Output      OutputConfig      `toml:"output"`
	Logging     LoggingConfig     `toml:"logging"`
	Interactive InteractiveConfig `toml:"interactive"`
	Engine      EngineConfig      `toml:"engine"`

	// Keys merged into the descriptor, replacing the ones
	// it defines. Tables are merged recursively.
	Descriptor map[string]any `toml:"descriptor"`
}

// OutputConfig says where the outputs of a run go.
type OutputConfig struct {
	// Result file, or "-" for standard output.
	Result      string `toml:"result"`
	Screenshots string `toml:"screenshots"`
	State       string `toml:"state"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// One of debug, info, warn and error.
	Level string `toml:"level"`
	// One of text and json.
	Format string `toml:"format"`
}

// InteractiveConfig configures the terminal UI.
type InteractiveConfig struct {
	Enabled bool `toml:"enabled"`
	// Milliseconds between status line updates.
	StatusInterval int `toml:"status_interval"`
}

// EngineConfig configures the engine.
type EngineConfig struct {
	Driver         string `toml:"driver"`
	Prerendered    int    `toml:"prerendered"`
	MaxPrerendered int    `toml:"max_prerendered"`
	ConstantBudget int    `toml:"constant_budget"`
	Normalized     bool   `toml:"normalized_score"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	ecfg := engine.DefaultConfig()
	return Config{
		Output:      OutputConfig{Result: "-"},
		Logging:     LoggingConfig{Level: "info", Format: "text"},
		Interactive: InteractiveConfig{StatusInterval: 250},
		Engine: EngineConfig{
			MaxPrerendered: ecfg.MaxPrerendered,
			ConstantBudget: ecfg.ConstantBudget,
		},
	}
}

// loadConfig decodes the TOML file name on top of cfg.
// Unknown keys are an error.
func loadConfig(name string, cfg *Config) error {
	b, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err = dec.Decode(cfg); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// engineConfig returns the engine.Config of c.
func (c *EngineConfig) engineConfig() engine.Config {
	cfg := engine.Config{
		MaxPrerendered: c.MaxPrerendered,
		ConstantBudget: c.ConstantBudget,
	}
	cfg.Validate()
	return cfg
}

func (c *InteractiveConfig) interval() time.Duration {
	return time.Duration(max(c.StatusInterval, 1)) * time.Millisecond
}

// newLogger creates the logger described by c.
// verbose forces the debug level.
func (c *LoggingConfig) newLogger(w io.Writer, verbose bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, err
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch c.Format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", c.Format)
}

// overrideDescriptor merges over into the JSON object
// desc.
func overrideDescriptor(desc []byte, over map[string]any) ([]byte, error) {
	if len(over) == 0 {
		return desc, nil
	}
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(desc))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	merge(m, over)
	return json.Marshal(m)
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				merge(dm, sm)
				continue
			}
		}
		dst[k] = v
	}
}
