// Command typekernel-smoke runs end-to-end scenarios against the kernel,
// one or more per calculus, plus first- and higher-order unification.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/typekernel/internal/cli"
	"github.com/orizon-lang/typekernel/internal/config"
)

const toolName = "typekernel-smoke"

type result struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type report struct {
	Results []result `json:"results"`
	Total   int      `json:"total"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
}

// runScenarios runs every scenario concurrently. A failing scenario does not
// stop the others; only cancellation of ctx does.
func runScenarios(ctx context.Context, cfg *config.Config, logger *cli.Logger) (report, error) {
	results := make([]result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			detail, err := sc.run(cfg, logger)
			r := result{Name: sc.name, Passed: err == nil, Detail: detail, DurationMs: time.Since(start).Milliseconds()}
			if err != nil {
				r.Error = err.Error()
				logger.Debug("%s failed: %v", sc.name, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report{}, err
	}

	rep := report{Results: results, Total: len(results)}
	for _, r := range results {
		if r.Passed {
			rep.Passed++
		} else {
			rep.Failed++
		}
	}
	return rep, nil
}

func printReport(w io.Writer, rep report, jsonOutput bool) error {
	if jsonOutput {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	for _, r := range rep.Results {
		if r.Passed {
			fmt.Fprintf(w, "PASS %-30s %s\n", r.Name, r.Detail)
		} else {
			fmt.Fprintf(w, "FAIL %-30s %s\n", r.Name, r.Error)
		}
	}
	fmt.Fprintf(w, "%d/%d scenarios passed\n", rep.Passed, rep.Total)
	return nil
}

func main() {
	var (
		configPath  string
		jsonOutput  bool
		watch       bool
		verbose     bool
		debug       bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to a JSON or YAML kernel configuration")
	flag.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	flag.BoolVar(&watch, "watch", false, "rerun the scenarios whenever the configuration changes")
	flag.BoolVar(&verbose, "verbose", false, "enable verbose output")
	flag.BoolVar(&debug, "debug", false, "trace unification and checking")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		cli.PrintVersion(os.Stdout, toolName, jsonOutput)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		cli.ExitWithError("%v", err)
	}
	logger := cli.NewLogger(verbose || cfg.Verbose, debug || cfg.Debug)
	if jsonOutput {
		logger.SetOutput(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(cfg *config.Config) bool {
		logger.Info("running %d scenarios (hou iterations=%d, frontier=%d)",
			len(scenarios), cfg.Unification.MaxIterations, cfg.Unification.MaxFrontier)
		rep, err := runScenarios(ctx, cfg, logger)
		if err != nil {
			logger.Error("%v", err)
			return false
		}
		if err := printReport(os.Stdout, rep, jsonOutput); err != nil {
			logger.Error("%v", err)
			return false
		}
		return rep.Failed == 0
	}

	ok := run(cfg)
	if !watch {
		if !ok {
			cli.ExitWithCode(1, "")
		}
		return
	}
	if configPath == "" {
		cli.ExitWithError("-watch requires -config")
	}

	errC, err := config.Watch(ctx, configPath, func(next *config.Config) {
		logger.Info("configuration changed, rerunning")
		run(next)
	})
	if err != nil {
		cli.ExitWithError("failed to watch %s: %v", configPath, err)
	}
	for err := range errC {
		logger.Warn("reload failed: %v", err)
	}
}
