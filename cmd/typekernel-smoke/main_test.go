package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/orizon-lang/typekernel/internal/cli"
	"github.com/orizon-lang/typekernel/internal/config"
	"github.com/orizon-lang/typekernel/internal/testrunner/assert"
)

func TestScenariosPass(t *testing.T) {
	logger := cli.NewLogger(false, true)
	var trace bytes.Buffer
	logger.SetOutput(&trace)

	rep, err := runScenarios(context.Background(), config.Default(), logger)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, rep.Total, len(scenarios))
	for _, r := range rep.Results {
		assert.True(t, r.Passed, "%s: %s", r.Name, r.Error)
	}
	assert.Equal(t, rep.Failed, 0)
}

func TestTightBoundsFailHigherOrderScenario(t *testing.T) {
	cfg := config.Default()
	cfg.Unification.MaxIterations = 1
	cfg.Unification.MaxFrontier = 1

	rep, err := runScenarios(context.Background(), cfg, cli.NewLogger(false, false))
	if !assert.NoError(t, err) {
		return
	}
	for _, r := range rep.Results {
		if r.Name == "higher-order-imitation" {
			assert.False(t, r.Passed)
		} else {
			assert.True(t, r.Passed, "%s: %s", r.Name, r.Error)
		}
	}
}

func TestCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runScenarios(ctx, config.Default(), cli.NewLogger(false, false))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintReport(t *testing.T) {
	rep := report{
		Results: []result{
			{Name: "ok", Passed: true, Detail: "fine"},
			{Name: "bad", Error: "boom"},
		},
		Total: 2, Passed: 1, Failed: 1,
	}

	var text bytes.Buffer
	assert.NoError(t, printReport(&text, rep, false))
	lines := strings.Split(strings.TrimSpace(text.String()), "\n")
	if assert.Len(t, lines, 3) {
		assert.True(t, strings.HasPrefix(lines[0], "PASS ok"))
		assert.True(t, strings.HasPrefix(lines[1], "FAIL bad"))
		assert.Equal(t, lines[2], "1/2 scenarios passed")
	}

	var js bytes.Buffer
	assert.NoError(t, printReport(&js, rep, true))
	var back report
	if assert.NoError(t, json.Unmarshal(js.Bytes(), &back)) {
		assert.DeepEqual(t, back, rep)
	}
}
