package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/orizon-lang/typekernel/internal/config"
	"github.com/orizon-lang/typekernel/internal/testrunner/assert"
)

func TestGetAndSetValues(t *testing.T) {
	cfg := config.Default()

	v, err := getValue(cfg, "unification.max_solutions")
	if assert.NoError(t, err) {
		assert.Equal(t, v, "8")
	}

	assert.NoError(t, setValue(cfg, "unification.max_solutions = 3"))
	assert.Equal(t, cfg.Unification.MaxSolutions, 3)
	assert.NoError(t, setValue(cfg, "debug=true"))
	assert.True(t, cfg.Debug)

	tests := []struct {
		name  string
		input string
	}{
		{"missing separator", "debug"},
		{"unknown key", "colour=blue"},
		{"not a number", "reduction.max_steps=lots"},
		{"not a bool", "verbose=sometimes"},
		{"non-positive bound", "reduction.max_steps=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, setValue(config.Default(), tt.input))
		})
	}

	_, err = getValue(cfg, "unification")
	assert.Error(t, err)
}

func TestInitAndUpdateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typekernel.yaml")

	if !assert.NoError(t, initConfig(path)) {
		return
	}
	assert.Error(t, initConfig(path), "init must not overwrite")

	if !assert.NoError(t, setConfigValue(path, "reduction.max_steps=42")) {
		return
	}
	cfg, err := config.Load(path)
	if assert.NoError(t, err) {
		assert.Equal(t, cfg.Reduction.MaxSteps, 42)
		assert.Equal(t, cfg.Unification.MaxIterations, 16)
	}
}

func TestShowConfig(t *testing.T) {
	var human, js bytes.Buffer
	assert.NoError(t, showConfig(&human, config.Default(), false))
	assert.Contains(t, human.String(), "Max Frontier: 256")

	assert.NoError(t, showConfig(&js, config.Default(), true))
	assert.Contains(t, js.String(), `"max_frontier": 256`)
}
