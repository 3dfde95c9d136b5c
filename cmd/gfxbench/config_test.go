// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/gfxbench/engine"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	name = filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	return name
}

func TestLoadConfig(t *testing.T) {
	name := writeFile(t, "gfxbench.toml", `
[output]
result = "out.json"
state = "state"

[logging]
level = "debug"
format = "json"

[interactive]
enabled = true

[engine]
driver = "null"
prerendered = 2
normalized_score = true

[descriptor]
play_time = 500
env = { offscreen = true }
`)
	cfg := DefaultConfig()
	require.NoError(t, loadConfig(name, &cfg))

	assert.Equal(t, OutputConfig{Result: "out.json", State: "state"}, cfg.Output)
	assert.Equal(t, LoggingConfig{Level: "debug", Format: "json"}, cfg.Logging)
	assert.True(t, cfg.Interactive.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Interactive.interval())
	assert.Equal(t, "null", cfg.Engine.Driver)
	assert.Equal(t, 2, cfg.Engine.Prerendered)
	assert.True(t, cfg.Engine.Normalized)
	assert.Equal(t, engine.DefaultConfig(), cfg.Engine.engineConfig())

	assert.EqualValues(t, 500, cfg.Descriptor["play_time"])
	assert.Equal(t, map[string]any{"offscreen": true}, cfg.Descriptor["env"])
}

func TestLoadConfigErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), &cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)

	name := writeFile(t, "unknown.toml", "[output]\nresults = \"x\"\n")
	assert.Error(t, loadConfig(name, &cfg))

	name = writeFile(t, "bad.toml", "[output\n")
	assert.Error(t, loadConfig(name, &cfg))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	c := LoggingConfig{Level: "warn", Format: "json"}
	l, err := c.newLogger(&buf, false)
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown", "n", 1)
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "shown", m["msg"])
	assert.Equal(t, "WARN", m["level"])

	buf.Reset()
	l, err = c.newLogger(&buf, true)
	require.NoError(t, err)
	l.Debug("verbose")
	assert.Contains(t, buf.String(), "verbose")

	buf.Reset()
	c.Format = "text"
	l, err = c.newLogger(&buf, false)
	require.NoError(t, err)
	l.Error("failed")
	assert.True(t, strings.HasPrefix(buf.String(), "time="))

	_, err = (&LoggingConfig{Level: "loud", Format: "text"}).newLogger(&buf, false)
	assert.Error(t, err)
	_, err = (&LoggingConfig{Level: "info", Format: "xml"}).newLogger(&buf, false)
	assert.Error(t, err)
}

func TestOverrideDescriptor(t *testing.T) {
	desc := []byte(`{"test_id":"particles","play_time":1000,"env":{"width":64,"height":32},"scene":{"step_rate":60}}`)

	b, err := overrideDescriptor(desc, nil)
	require.NoError(t, err)
	assert.Equal(t, desc, b)

	b, err = overrideDescriptor(desc, map[string]any{
		"play_time": int64(300),
		"env":       map[string]any{"width": int64(128), "offscreen": true},
		"scene":     "replaced",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"test_id": "particles",
		"play_time": 300,
		"env": {"width": 128, "height": 32, "offscreen": true},
		"scene": "replaced"
	}`, string(b))

	_, err = overrideDescriptor([]byte("{"), map[string]any{"play_time": 1})
	assert.Error(t, err)
}
